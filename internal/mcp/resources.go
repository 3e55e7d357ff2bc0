package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dartcov/dartcov/internal/application"
	"github.com/dartcov/dartcov/internal/infrastructure/config"
	"github.com/dartcov/dartcov/internal/infrastructure/history"
)

// handleHistoryResource returns the recorded coverage history.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	historyPath := s.config.HistoryPath
	if !filepath.IsAbs(historyPath) {
		historyPath = filepath.Join(s.config.PkgRoot, historyPath)
	}
	store := &history.FileStore{Path: historyPath}

	h, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleConfigResource returns the effective configuration, falling back
// to defaults when no config file exists.
func (s *Server) handleConfigResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	configPath := s.config.ConfigPath
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(s.config.PkgRoot, configPath)
	}

	loader := config.Loader{}
	cfg := application.DefaultConfig()
	exists, err := loader.Exists(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config: %w", err)
	}
	if exists {
		cfg, err = loader.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
