package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "heapguard",
	Short: "heapguard profiles allocation traffic from a managed-heap runtime and detects leaks",
}

func init() {
	rootCmd.AddCommand(versionCmd)
	initAnalyzerCmdFlags()
	rootCmd.AddCommand(analyzerCmd)
	initLoadgenCmdFlags()
	rootCmd.AddCommand(loadgenCmd)
}

// Execute runs the root command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
