package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/registry"
)

// NewUpgradeCmd creates the upgrade command.
func NewUpgradeCmd() *cobra.Command {
	var (
		all bool
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "upgrade [PACKAGE...]",
		Short: "Upgrade packages",
		Long: `Reinstall packages from the configured repository, replacing their files and
registry entries. With --all every installed package is upgraded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd, args, all, !yes)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Upgrade all installed packages")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runUpgrade(cmd *cobra.Command, packages []string, all, interactive bool) error {
	switch {
	case all && len(packages) > 0:
		return fmt.Errorf("%w: --all does not take package names", errutils.ErrValidation)
	case !all && len(packages) == 0:
		return fmt.Errorf("%w: name at least one package or pass --all", errutils.ErrValidation)
	}

	if !all {
		return runInstall(cmd, packages, "upgrade", interactive)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	packages, err = registry.New(cfg.RegistryPath()).ListPackageNames()
	if err != nil {
		return fmt.Errorf("failed to read installed packages: %w", err)
	}
	if len(packages) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No packages installed")
		return nil
	}

	return installPackages(cmd, cfg, packages, "upgrade", interactive)
}
