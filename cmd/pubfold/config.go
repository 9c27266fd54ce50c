package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matsen/pubfold/internal/config"
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file, .env and the
environment have been applied.`,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GlobalConfigPath()
		}
		if humanOutput {
			outputHuman("%s\n", path)
			return nil
		}
		return outputJSON(struct {
			Path string `json:"path"`
		}{path})
	},
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	if humanOutput {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		outputHuman("%s", data)
		return nil
	}
	return outputJSON(cfg)
}
