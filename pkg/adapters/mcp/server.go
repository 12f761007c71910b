package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	mayausd "github.com/mhamid3d/maya-usd"
	"github.com/mhamid3d/maya-usd/internal/logging"
	"github.com/mhamid3d/maya-usd/pkg/domain"
)

// StageURI names the stage resource.
const StageURI = "usd://stage"

// RenameResponse is the structured result of rename_prim.
type RenameResponse struct {
	OldPath domain.Path  `json:"old_path" jsonschema_description:"Path of the prim before the rename"`
	Item    *domain.Item `json:"item" jsonschema_description:"Handle to the renamed prim"`
	CanUndo bool         `json:"can_undo" jsonschema_description:"Whether the rename can be undone"`
}

// StageResponse describes the stage the server edits.
type StageResponse struct {
	Layers     []domain.LayerInfo `json:"layers" jsonschema_description:"Layer stack, strongest first"`
	EditTarget string             `json:"edit_target" jsonschema_description:"Layer receiving edits"`
	Prims      []domain.Path      `json:"prims" jsonschema_description:"Composed prim paths"`
}

// Server wraps an Editor and exposes it as an MCP Server.
type Server struct {
	editor    *mayausd.Editor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(editor *mayausd.Editor, opts ...Option) *Server {
	s := &Server{
		editor:    editor,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("usdrename-mcp", mayausd.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	// TOOL: rename_prim
	renameTool := mcp.NewTool("rename_prim",
		mcp.WithDescription("Rename a prim in the layer that defines it. Fails without changes when the prim is defined on another layer or has opinions on several layers."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the prim, e.g. /World/Cube")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New prim name")),
		mcp.WithOutputSchema[RenameResponse](),
	)
	s.mcpServer.AddTool(renameTool, mcp.NewStructuredToolHandler(s.handleRename))

	// TOOL: undo / redo
	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the most recent rename and report the restored prim paths."),
	), s.handleUndo)
	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the most recently undone rename and report the renamed prim paths."),
	), s.handleRedo)

	// TOOL: set_edit_target
	s.mcpServer.AddTool(mcp.NewTool("set_edit_target",
		mcp.WithDescription("Select the layer that receives edits."),
		mcp.WithString("layer", mcp.Required(), mcp.Description("Layer ID")),
	), s.handleSetEditTarget)

	// TOOL: list_prims
	s.mcpServer.AddTool(mcp.NewTool("list_prims",
		mcp.WithDescription("Describe the layer stack, the edit target and every composed prim."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.describe())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleRename(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenameResponse, error) {
	rawPath, _ := args["path"].(string)
	name, _ := args["name"].(string)

	path, err := domain.ParsePath(rawPath)
	if err != nil {
		return RenameResponse{}, err
	}

	item, err := s.editor.RenamePath(ctx, path, name)
	if err != nil {
		s.logger.Warn("MCP Rename: rejected", "path", path, "name", name, "error", err)
		return RenameResponse{}, fmt.Errorf("rename failed: %w", err)
	}
	return RenameResponse{
		OldPath: path,
		Item:    item,
		CanUndo: s.editor.CanUndo(),
	}, nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.editor.Undo(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("undo failed: %v", err)), nil
	}
	return mcp.NewToolResultText(s.status("undone", items)), nil
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.editor.Redo(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("redo failed: %v", err)), nil
	}
	return mcp.NewToolResultText(s.status("redone", items)), nil
}

func (s *Server) handleSetEditTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layer, err := request.RequireString("layer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.editor.SetEditTarget(layer); err != nil {
		if errors.Is(err, domain.ErrLayerNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("unknown layer %q", layer)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("edit target is %s", layer)), nil
}

// status reports where the moved prims now live and what the history allows.
func (s *Server) status(verb string, items []*domain.Item) string {
	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = string(item.Path)
	}
	return fmt.Sprintf("%s: %s (can_undo=%t, can_redo=%t)", verb, strings.Join(paths, ", "), s.editor.CanUndo(), s.editor.CanRedo())
}

func (s *Server) describe() StageResponse {
	stage := s.editor.Stage()
	return StageResponse{
		Layers:     stage.LayerStack(),
		EditTarget: stage.EditTarget(),
		Prims:      stage.Prims(),
	}
}

func (s *Server) registerResources() {
	// EXPOSE: usd://stage
	s.mcpServer.AddResource(mcp.NewResource(StageURI, "Current Stage",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.describe())
		if err != nil {
			return nil, fmt.Errorf("failed to describe stage: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StageURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
