// Package mcp exposes display reconciliation over the Model Context
// Protocol so MCP clients can inspect and repair the Sunshine display
// binding without shelling out to the CLI.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rawdigits/sunshine-macos-displayupdater/internal/config"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/display"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/reconcile"
	"github.com/rawdigits/sunshine-macos-displayupdater/internal/sunshine"
)

const (
	ServerName    = "sunshine-display"
	ServerVersion = "0.1.0"
)

// serviceController is the service surface the tools need. Satisfied by
// *sunshine.Service; faked in tests.
type serviceController interface {
	EnsureRunning(ctx context.Context) (string, error)
	Restart(ctx context.Context) (string, error)
	Detect(ctx context.Context) (string, bool, error)
	IsRunning(ctx context.Context) bool
}

// Server is the MCP server over the display reconciliation pipeline.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	confPath  string
	enumerate reconcile.Enumerator
	service   serviceController
	logger    *slog.Logger
}

// NewServer creates an MCP server backed by system_profiler and the
// configured Sunshine install.
func NewServer(cfg *config.Config) (*Server, error) {
	profiler := display.NewProfiler(display.ProfilerConfig{})
	if !profiler.Available() {
		return nil, fmt.Errorf("system_profiler is required but not found in PATH")
	}

	confPath, err := cfg.ResolveSunshineConf()
	if err != nil {
		return nil, err
	}

	s := newServer(cfg, confPath, profiler.List,
		sunshine.NewService(sunshine.ServiceConfig{Candidates: cfg.ServiceNames}))
	return s, nil
}

func newServer(cfg *config.Config, confPath string, enumerate reconcile.Enumerator, service serviceController) *Server {
	s := &Server{
		config:    cfg,
		confPath:  confPath,
		enumerate: enumerate,
		service:   service,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List all displays macOS currently reports, with the identifier Sunshine would use for each (decimal display ID), resolution, and main/online flags.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "update_display",
		Description: "Pin Sunshine's output_name to the display matching the given name and restart Sunshine so the change takes effect. The rewrite always happens, even when the identifier is unchanged.",
	}, s.handleUpdateDisplay)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the currently configured output_name, whether it matches the configured target display's live identifier, and whether the Sunshine process/service is running.",
	}, s.handleGetStatus)
}
