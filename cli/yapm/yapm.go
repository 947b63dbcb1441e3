package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/internal/cli"
)

var (
	configPath string
	verbose    bool
	workDir    string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yapm",
		Short: "Yet another package manager for source packages",
		Long: `yapm installs packages from a single repository of source archives:
- install, upgrade and remove packages, dependencies first
- search the repository's mirror list
- pack package directories into publishable archives`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/yapm/yapm.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&workDir, "work-dir", "", "directory packages are downloaded and built in (default: current directory)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.WorkDir = &workDir

	// Add subcommands
	cmd.AddCommand(
		cli.NewInstallCmd(),
		cli.NewUpgradeCmd(),
		cli.NewRemoveCmd(),
		cli.NewSearchCmd(),
		cli.NewListCmd(),
		cli.NewMirrorsCmd(),
		cli.NewSetupCmd(),
		cli.NewPackCmd(),
		cli.NewConfigCmd(),
		cli.NewHooksCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
