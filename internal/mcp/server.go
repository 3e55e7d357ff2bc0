package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is set at build time.
var Version = "dev"

// Server wraps the application service with MCP protocol handling.
type Server struct {
	svc    Service
	config Config
}

// New creates a new MCP server wrapping the given service.
func New(svc Service, cfg Config) *Server {
	// Apply defaults
	if cfg.PkgRoot == "" {
		cfg.PkgRoot = DefaultConfig().PkgRoot
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfig().ConfigPath
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultConfig().HistoryPath
	}
	if cfg.ProfilePath == "" {
		cfg.ProfilePath = DefaultConfig().ProfilePath
	}

	return &Server{
		svc:    svc,
		config: cfg,
	}
}

// Run starts the MCP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "dartcov",
			Version: Version,
		},
		&mcp.ServerOptions{
			HasTools:     true,
			HasResources: true,
		},
	)

	s.registerTools(server)
	s.registerResources(server)

	// Run with STDIO transport
	transport := &mcp.StdioTransport{}
	if err := server.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}

	return nil
}

// registerTools adds all tool handlers to the server.
func (s *Server) registerTools(server *mcp.Server) {
	// Report tool - analyzes an existing lcov report
	mcp.AddTool(server, &mcp.Tool{
		Name:        "report",
		Description: "Analyze an existing lcov coverage report without running tests. Use this when coverage/lcov.info already exists.",
	}, s.handleReport)

	// Badge tool - renders the coverage badge from an existing report
	mcp.AddTool(server, &mcp.Tool{
		Name:        "badge",
		Description: "Render coverage_badge.svg from an existing lcov report.",
	}, s.handleBadge)

	// Record tool - saves coverage to history
	mcp.AddTool(server, &mcp.Tool{
		Name:        "record",
		Description: "Record current coverage to history for trend tracking. Call this after a coverage run to save the result.",
	}, s.handleRecord)
}

// registerResources adds all resource handlers to the server.
func (s *Server) registerResources(server *mcp.Server) {
	// History resource
	server.AddResource(&mcp.Resource{
		URI:         "dartcov://history",
		Name:        "Coverage History",
		Description: "Recorded coverage measurements over time",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	// Config resource
	server.AddResource(&mcp.Resource{
		URI:         "dartcov://config",
		Name:        "Current Configuration",
		Description: "Effective dartcov configuration for the package",
		MIMEType:    "application/json",
	}, s.handleConfigResource)
}
