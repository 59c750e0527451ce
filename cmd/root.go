package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "entkit",
	Short:            "entkit - parse, query and repair map entity definition files",
	TraverseChildren: true, // Prioritize subcommands
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func Execute() error {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a .entkit.yaml configuration file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(packCmd)
}
