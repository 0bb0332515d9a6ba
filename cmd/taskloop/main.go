package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "taskloop",
	Short:        "Cooperative task executor toolkit",
	Long:         `taskloop drives synthetic workloads through the cooperative executor and reports its scheduling statistics`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
