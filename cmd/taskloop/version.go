package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show taskloop version",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyColorFlag(cmd)
		name := color.New(color.FgCyan, color.Bold).Sprint("taskloop")
		ver := color.New(color.FgGreen, color.Bold).Sprint(Version)
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", name, ver, runtime.Version())
		return err
	},
}

func applyColorFlag(cmd *cobra.Command) {
	if off, err := cmd.Flags().GetBool("no-color"); err == nil && off {
		color.NoColor = true
	}
}
