package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daoforge/quorum"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Quorum",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quorum version %s\n", quorum.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
