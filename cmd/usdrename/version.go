package main

import (
	"fmt"

	mayausd "github.com/mhamid3d/maya-usd"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of usdrename",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("usdrename version %s\n", mayausd.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
