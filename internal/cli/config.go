package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/glorpus-work/yapm/internal/logger"
	"github.com/glorpus-work/yapm/pkg/config"
	"github.com/glorpus-work/yapm/pkg/errutils"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Inspect and edit yapm.yaml. Keys accepted by set and get are the ones listed
by "yapm config show". Repository credentials are edited in the file directly.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show settings and the files derived from them",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runConfigShow(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Set a configuration value",
			Args:  cobra.ExactArgs(setCommandArgs),
			RunE: func(_ *cobra.Command, args []string) error {
				return runConfigSet(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print a configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigGet(cmd.OutOrStdout(), args[0])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the location of the configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), getConfigPath())
				return err
			},
		},
		newConfigInitCmd(),
	)

	return cmd
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd.OutOrStdout(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")

	return cmd
}

func runConfigShow(out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	settings := cfg.ToMap()
	t := newTable(out, table.Row{"SETTING", "VALUE"})
	for _, key := range cfg.Keys() {
		t.AppendRow(table.Row{key, settings[key]})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"(registry)", cfg.RegistryPath()})
	t.AppendRow(table.Row{"(mirrors)", cfg.MirrorsPath()})
	t.AppendRow(table.Row{"(setup script)", cfg.SetupScriptPath()})
	t.Render()

	if a := cfg.Authenticator(); a != nil {
		_, _ = fmt.Fprintf(out, "\nRepository credentials: %s (configured)\n", a.Type())
	}
	return nil
}

func runConfigSet(key, value string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.SetValue(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return err
	}

	logger.Success("Configuration updated", logger.Fields{"key": key, "value": value, "file": getConfigPath()})
	return nil
}

func runConfigGet(out io.Writer, key string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	value, err := cfg.GetValue(key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, value)
	return err
}

func runConfigInit(out io.Writer, force bool) error {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%w: %s", errutils.ErrConfigFileExists, configPath)
	}

	if err := config.DefaultConfig().SaveConfig(configPath); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "Configuration file created at %s\n", configPath)
	return nil
}
