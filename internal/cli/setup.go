package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/pkg/setup"
)

// NewSetupCmd creates the setup command.
func NewSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Prepare the install root",
		Long: `Create the install root and the config directory, and write a shell snippet
that adds the install root to PATH. Nothing is changed when the install root
already exists and is on PATH.`,
		Args: cobra.NoArgs,
		RunE: runSetup,
	}

	return cmd
}

func runSetup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := setup.Run(cfg, os.Getenv("PATH"))
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if res.AlreadyDone {
		_, _ = fmt.Fprintf(out, "%s is already set up.\n", cfg.Settings.InstallRoot)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Wrote %s.\n", res.ScriptPath)
	_, _ = fmt.Fprintf(out, "To finish, %s.\n", res.Hint)
	return nil
}
