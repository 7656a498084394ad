package cmd

import (
	"encoding/json"
	"fmt"

	"foodshare/cli/internal/config"
	"foodshare/cli/internal/output"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Display the effective foodshare configuration after defaults, the config
file, FOODSHARE_* environment variables and flags have been applied.

Examples:
  foodshare config                              # Show all config
  foodshare config --path                       # Show config file path
  foodshare config --json                       # Output as JSON
  foodshare --api-url https://fs.example/api config save`,
	RunE: runConfig,
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write the effective configuration to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.Save(*a.cfg, a.cfgPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, pterm.Success.Sprintf("Saved configuration to %s", path))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSaveCmd)

	configCmd.Flags().Bool("path", false, "show config file path")
	configCmd.Flags().Bool("json", false, "output as JSON")
}

func runConfig(cmd *cobra.Command, args []string) error {
	showPath, _ := cmd.Flags().GetBool("path")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if showPath {
		if a.cfgPath == "" {
			fmt.Fprintln(a.out, pterm.Info.Sprint("No config file found (using defaults)"))
		} else {
			fmt.Fprintln(a.out, pterm.Info.Sprintf("Config file: %s", a.cfgPath))
		}
		return nil
	}

	if jsonOutput {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(a.cfg)
	}

	table := output.NewTable(a.out, "KEY", "VALUE")
	table.AddRow("api_url", a.cfg.APIURL)
	table.AddRow("timeout", a.cfg.Timeout.String())
	table.AddRow("log_level", a.cfg.LogLevel)
	table.AddRow("verbose", fmt.Sprintf("%v", a.cfg.Verbose))
	table.AddRow("no_keychain", fmt.Sprintf("%v", a.cfg.NoKeychain))
	table.AddRow("keyring.file_dir", a.cfg.Keyring.FileDir)
	return table.Render()
}
