package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kqlcatalog/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "kqlcatalog",
	Short: "Documentation site for KQL detection rules",
	Long: `kqlcatalog turns a catalog of KQL detection rules into a browsable
documentation site: one page per log source, a detection table per page,
and modals showing each rule's query, explanation and sample logs.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
