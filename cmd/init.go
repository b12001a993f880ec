package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/kqlcatalog/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kqlcatalog configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that locates the rule catalog and static content and writes a .kqlcatalog.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
