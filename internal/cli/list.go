package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/pkg/registry"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var nameFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long: `List all installed packages from the registry together with the files
each one placed in the install root.
Use --name to filter packages by name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, nameFilter)
		},
	}

	cmd.Flags().StringVar(&nameFilter, "name", "", "Filter packages by name (partial match)")

	return cmd
}

func runList(cmd *cobra.Command, nameFilter string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := registry.New(cfg.RegistryPath()).Load()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	names := doc.Names()
	rows := make([]table.Row, 0, len(names))
	for _, name := range names {
		if nameFilter != "" && !strings.Contains(name, nameFilter) {
			continue
		}
		rows = append(rows, table.Row{name, len(doc[name]), summarizeFiles(doc[name])})
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "No packages installed")
		return nil
	}

	t := newTable(out, table.Row{"PACKAGE", "COUNT", "FILES"})
	t.AppendRows(rows)
	t.Render()
	return nil
}

// newTable returns a borderless table writer that renders to out.
func newTable(out io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(header)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}

func summarizeFiles(files []string) string {
	if len(files) <= MaxListedFiles {
		return strings.Join(files, ", ")
	}
	return fmt.Sprintf("%s, ... (+%d)", strings.Join(files[:MaxListedFiles], ", "), len(files)-MaxListedFiles)
}
