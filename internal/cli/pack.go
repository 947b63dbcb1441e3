package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/archive"
	"github.com/glorpus-work/yapm/pkg/manifest"
)

// NewPackCmd creates the pack command.
func NewPackCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "pack DIR",
		Short: "Create a package archive",
		Long: `Pack a package directory into <name>.tar.gz, ready to be published in a
repository. The package name is the directory's base name and the directory must
contain a valid config.yaml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, args[0], outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory to write the archive to")

	cmd.Example = `  # Pack ./hello into ./hello.tar.gz
  yapm pack ./hello

  # Write into a repository directory
  yapm pack ./hello -o /srv/yapm`

	return cmd
}

func runPack(cmd *cobra.Command, sourceDir, outputDir string) error {
	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("invalid source directory: %w", err)
	}

	m, err := manifest.Parse(filepath.Join(absSourceDir, manifest.FileName))
	if err != nil {
		return fmt.Errorf("refusing to pack %s: %w", sourceDir, err)
	}
	logger.Debug("Packing package", logger.Fields{"dir": absSourceDir, "files": len(m.Files), "depends": len(m.Depends)})

	archivePath := filepath.Join(outputDir, filepath.Base(absSourceDir)+archive.Extension)
	if err := archive.NewManager().Create(cmd.Context(), absSourceDir, archivePath); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", archivePath)
	return nil
}
