package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/cv-screener/internal/keywords"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the embedded keyword table version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s\n", app, version)

		table, err := keywords.Default()
		if err != nil {
			fmt.Printf("embedded keywords: invalid (%s)\n", err)
			return
		}
		fmt.Printf("embedded keywords: %s\n", table.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
