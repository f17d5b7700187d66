// Package cmd implements the paapi-core CLI commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "paapi-core",
		Short: "Amazon-India product selection and price-watch service",
		Long: "paapi-core runs the extract/search/enrich/filter/analyze/score/select\n" +
			"pipeline and the watch evaluator behind an HTTP API, and exposes both\n" +
			"as one-shot CLI commands for local testing.",
	}
)

// Root returns the root cobra command, for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if v := os.Getenv("PAAPI_CORE_CONFIG"); v != "" {
		cfgFile = v
	}
}
