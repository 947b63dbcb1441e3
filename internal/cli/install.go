package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/pkg/config"
	"github.com/glorpus-work/yapm/pkg/fsutil"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "install PACKAGE...",
		Short: "Install packages",
		Long: `Install one or more packages from the configured repository.
Each package is downloaded, its dependencies are installed first, then it is built
and its declared files are moved into the install root.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, args, "install", !yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// runInstall is shared by install and upgrade; action names the operation in the
// confirmation question and the summary.
func runInstall(cmd *cobra.Command, packages []string, action string, interactive bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return installPackages(cmd, cfg, packages, action, interactive)
}

func installPackages(cmd *cobra.Command, cfg *config.Config, packages []string, action string, interactive bool) error {
	if err := fsutil.EnsureDir(cfg.Settings.InstallRoot); err != nil {
		return fmt.Errorf("failed to create install root %s: %w", cfg.Settings.InstallRoot, err)
	}

	inst := loadInstaller(cmd, cfg, action)
	if err := inst.InstallBatch(cmd.Context(), packages, interactive); err != nil {
		return fmt.Errorf("failed to %s packages: %w", action, err)
	}

	for _, name := range packages {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Package %s was %s successfully.\n", name, pastTense(action))
	}
	return nil
}

func pastTense(action string) string {
	if action == "upgrade" {
		return "upgraded"
	}
	return "installed"
}
