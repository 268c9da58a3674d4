package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nodewee/picaxe/pkg/config"
)

// newConfigCmd creates the config command and its subcommands
func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the directory registry",
		Long: `Manage the directory registry and stage settings.

Configuration is stored in a YAML file in your user configuration directory
(~/.picaxe/config.yaml), or at the path given by --config or PICAXE_CONFIG.
Environment variables (PICAXE_*) override the file at run time.

Available commands:
  list  - List every setting with its effective value
  get   - Get a specific setting
  set   - Set a specific setting
  path  - Show the configuration file location

Examples:
  picaxe config list                                   # List all settings
  picaxe config get sample_papers_dir                  # Get the sample directory
  picaxe config set rasterizer native                  # Rasterize in process
  picaxe config set scripts_dir /opt/picaxe/src        # Move the stage scripts`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listConfig(cmd.OutOrStdout(), opts.configPath)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := config.GetConfigValue(opts.configPath, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📝 %s = %s\n", args[0], getDisplayValue(value))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a specific setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetConfigValue(opts.configPath, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Successfully set %s = %s\n", args[0], args[1])
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(opts.configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return configCmd
}

// listConfig prints every setting with its effective value
func listConfig(w io.Writer, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	path, err := resolveConfigPath(configPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "🛠️  picaxe Configuration")
	fmt.Fprintln(w, "========================")
	fmt.Fprintf(w, "📁 Config file: %s\n\n", path)

	values := config.ListConfigValues(cfg)
	for _, key := range config.ListConfigKeys() {
		fmt.Fprintf(w, "  %-22s = %s\n", key, getDisplayValue(values[key]))
	}

	fmt.Fprintln(w, "\n💡 Tip: Use 'picaxe config set <key> <value>' to change a setting")
	fmt.Fprintln(w, "💡 Note: PICAXE_* environment variables override the file")
	return nil
}

func resolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigFilePath()
}

// getDisplayValue returns a display-friendly value for empty strings
func getDisplayValue(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
