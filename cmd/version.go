package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the heapguard version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("heapguard version", version)
		},
	}
)
