package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove PACKAGE...",
		Aliases: []string{"uninstall"},
		Short:   "Remove installed packages",
		Long: `Remove one or more installed packages. Every file recorded for a package is
deleted from the install root and its registry entry is dropped. Files that are
already gone are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, args, !yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runRemove(cmd *cobra.Command, packages []string, interactive bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := loadUninstaller(cmd, cfg).RemoveBatch(cmd.Context(), packages, interactive); err != nil {
		return fmt.Errorf("failed to remove packages: %w", err)
	}

	for _, name := range packages {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Package %s was removed successfully.\n", name)
	}
	return nil
}
