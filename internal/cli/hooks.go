package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/pkg/errutils"
	"github.com/glorpus-work/yapm/pkg/hooks"
	"github.com/glorpus-work/yapm/pkg/manifest"
)

// NewHooksCmd creates the hooks command.
func NewHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Work with package hook scripts",
		Long: `Packages may declare Tengo scripts that run before the build (pre_build) and
after the files were installed (post_install). Declare them in config.yaml:

  hooks:
    pre_build: hooks/pre_build.tengo
    post_install: hooks/post_install.tengo`,
	}

	cmd.AddCommand(newHooksTemplateCmd())

	return cmd
}

func newHooksTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "template HOOK",
		Short:     "Print a starter hook script",
		Long:      "Print a starter script for pre_build or post_install to stdout",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(manifest.PreBuild), string(manifest.PostInstall)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHooksTemplate(cmd.OutOrStdout(), args[0])
		},
	}

	return cmd
}

func runHooksTemplate(out io.Writer, hook string) error {
	script, ok := hooks.Template(hook)
	if !ok {
		return fmt.Errorf("%w: unknown hook %q (use %s or %s)", errutils.ErrValidation, hook, manifest.PreBuild, manifest.PostInstall)
	}
	_, err := io.WriteString(out, script)
	return err
}
