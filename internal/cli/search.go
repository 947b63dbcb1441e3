package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/pkg/mirrors"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search for packages",
		Long: `Search the installed mirror list for package names.

By default the query is a regular expression matched anywhere in the name.
With --mode=glob it is a shell pattern matched against the whole name, and with
--mode=fuzzy results are ranked by how well they match. Run 'yapm mirrors' first.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), mode)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(mirrors.ModeRegex),
		fmt.Sprintf("Match mode (%s)", strings.Join(modeNames(), ", ")))

	return cmd
}

func modeNames() []string {
	names := make([]string, 0, len(mirrors.Modes))
	for _, m := range mirrors.Modes {
		names = append(names, string(m))
	}
	return names
}

func runSearch(cmd *cobra.Command, query, modeName string) error {
	mode, err := mirrors.ParseMode(modeName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	list, err := mirrors.Load(cfg.MirrorsPath())
	if err != nil {
		return err
	}

	matches, err := list.Search(query, mode)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, name := range matches {
		_, _ = fmt.Fprintln(out, name)
	}
	_, _ = fmt.Fprintf(out, "Found %d matches.\n", len(matches))
	return nil
}
