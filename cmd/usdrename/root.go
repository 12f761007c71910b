package main

import (
	"fmt"
	"os"

	"github.com/mhamid3d/maya-usd/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "usdrename",
	Short: "usdrename renames prims in layered scene descriptions",
	Long: `usdrename renames a prim inside the one layer that defines it, as an undoable
transaction. Renames are refused when the prim is defined on a layer other than
the edit target, or when several layers hold opinions on it.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultFile, "Configuration file")
	flags.String("store", "", "Layer store backend: memory, file, redis or loam")
	flags.String("store-path", "", "Directory of the file or loam store")
	flags.String("redis-addr", "", "Address of the redis store")
	flags.StringSlice("layers", nil, "Layer stack, strongest first")
	flags.String("edit-target", "", "Layer receiving edits (default: strongest)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
}

// loadConfig reads the configuration file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	overrides := map[string]any{}
	store := map[string]any{}
	set := func(flag string, apply func(v string)) {
		if cmd.Flags().Changed(flag) {
			v, _ := cmd.Flags().GetString(flag)
			apply(v)
		}
	}
	set("store", func(v string) { store["backend"] = v })
	set("store-path", func(v string) { store["path"] = v })
	set("redis-addr", func(v string) { store["redis"] = map[string]any{"addr": v} })
	set("edit-target", func(v string) { overrides["edit_target"] = v })
	set("log-level", func(v string) { overrides["log"] = map[string]any{"level": v} })
	set("log-format", func(v string) {
		logCfg, _ := overrides["log"].(map[string]any)
		if logCfg == nil {
			logCfg = map[string]any{}
		}
		logCfg["format"] = v
		overrides["log"] = logCfg
	})
	if cmd.Flags().Changed("layers") {
		layers, _ := cmd.Flags().GetStringSlice("layers")
		overrides["layers"] = layers
	}
	if len(store) > 0 {
		overrides["store"] = store
	}

	if err := config.Decode(overrides, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
