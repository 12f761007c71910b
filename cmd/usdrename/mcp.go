package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhamid3d/maya-usd/internal/cli"
	"github.com/mhamid3d/maya-usd/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the configured layer stack to MCP clients as rename_prim, undo, redo,
set_edit_target and list_prims tools. Layers are saved back to the store when
the server exits, unless --no-save is given.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		noSave, _ := cmd.Flags().GetBool("no-save")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		log.SetOutput(os.Stderr)
		logger := cli.NewLogger(cfg.Log, os.Stderr)

		b, err := cli.NewBackend(cfg.Store)
		if err != nil {
			log.Fatalf("Error opening store: %v", err)
		}
		defer b.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ed, err := cli.OpenEditor(ctx, cfg, b.Store, cli.EditorOptions(cfg, logger)...)
		if err != nil {
			log.Fatalf("Error opening layers: %v", err)
		}
		defer ed.Close()

		srv := mcp.NewServer(ed, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			logger.Info("Starting usdrename MCP Server (Stdio)...")
			err = srv.ServeStdio()
		case "sse":
			logger.Info("Starting usdrename MCP Server (SSE)", "port", port)
			err = srv.ServeSSE(ctx, port)
			if err == http.ErrServerClosed {
				err = nil
			}
		default:
			err = fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
		if err != nil {
			logger.Error("MCP Server execution failed", "error", err)
			os.Exit(1)
		}

		if !noSave {
			if err := ed.Save(context.Background(), b.Store); err != nil {
				logger.Error("Failed to save layers", "error", err)
				os.Exit(1)
			}
		}
		logger.Info("MCP Server stopped gracefully")
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Bool("no-save", false, "Discard edits on exit")
}
