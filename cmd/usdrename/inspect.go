package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mhamid3d/maya-usd/internal/cli"
	"github.com/mhamid3d/maya-usd/internal/config"
	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/internal/presentation/graph"
	"github.com/mhamid3d/maya-usd/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the layer stack and which prims can be renamed",
	Long: `Loads the configured layer stack and prints every prim with the layers holding
opinions on it and whether it can be renamed under the current edit target.

Formats:
- markdown (default): rendered for the terminal
- mermaid: a graph TD of the prim hierarchy
- json: the raw prim list`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		format, _ := cmd.Flags().GetString("format")

		if err := runInspect(cmd.Context(), cfg, format, cmd.OutOrStdout()); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func runInspect(ctx context.Context, cfg *config.Config, format string, out io.Writer) error {
	b, err := cli.NewBackend(cfg.Store)
	if err != nil {
		return err
	}
	defer b.Close()

	ed, err := cli.OpenEditor(ctx, cfg, b.Store, cli.EditorOptions(cfg, logging.NewNop())...)
	if err != nil {
		return err
	}
	defer ed.Close()

	switch format {
	case "markdown":
		render, err := tui.NewRenderer(cfg.UI.CodeTheme)
		if err != nil {
			return err
		}
		rendered, err := render(tui.StageMarkdown(ed))
		if err != nil {
			return err
		}
		fmt.Fprint(out, rendered)
	case "mermaid":
		fmt.Fprint(out, graph.GenerateMermaid(graph.Nodes(ed.Stage()), nil))
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(graph.Nodes(ed.Stage()))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, mermaid or json")
}
