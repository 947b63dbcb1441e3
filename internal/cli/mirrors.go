package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/mirrors"
)

// NewMirrorsCmd creates the mirrors command.
func NewMirrorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirrors",
		Short: "Install the mirror list",
		Long: `Download the list of package names published by the repository and install it
into the config directory. The list is what 'yapm search' searches.`,
		Args: cobra.NoArgs,
		RunE: runMirrors,
	}

	return cmd
}

func runMirrors(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Debug("Installing mirror list", logger.Fields{"repository": cfg.Settings.RepositoryURL})

	dest := cfg.MirrorsPath()
	if err := mirrors.Install(cmd.Context(), loadFetcher(cmd, cfg), cfg.Settings.WorkDir, dest); err != nil {
		return fmt.Errorf("failed to install mirror list: %w", err)
	}

	list, err := mirrors.Load(dest)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Mirror list installed (%d packages).\n", len(list.Packages))
	return nil
}
