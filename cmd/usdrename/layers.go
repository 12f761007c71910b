package main

import (
	"fmt"
	"os"

	"github.com/mhamid3d/maya-usd/internal/cli"
	"github.com/mhamid3d/maya-usd/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Manage the layers in the store",
}

var layersLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored layers",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		b, err := cli.NewBackend(cfg.Store)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer b.Close()

		ids, err := b.Store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing layers: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("No layers found.")
			return
		}
		for _, id := range ids {
			fmt.Println("- " + id)
		}
	},
}

var layersImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy YAML layer files from a directory into the store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		b, err := cli.NewBackend(cfg.Store)
		if err != nil {
			fmt.Printf("Error opening store: %v\n", err)
			os.Exit(1)
		}
		defer b.Close()

		ids, err := cli.ImportLayers(cmd.Context(), file.New(args[0]), b.Store)
		if err != nil {
			fmt.Printf("Error importing layers: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d layer(s) into the %s store.\n", len(ids), cfg.Store.Backend)
	},
}

func init() {
	layersCmd.AddCommand(layersLsCmd)
	layersCmd.AddCommand(layersImportCmd)
	rootCmd.AddCommand(layersCmd)
}
