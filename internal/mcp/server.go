package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/memgrep/memgrep/internal/chunker"
	"github.com/memgrep/memgrep/internal/embedder"
	"github.com/memgrep/memgrep/internal/indexer"
	"github.com/memgrep/memgrep/internal/searcher"
	"github.com/memgrep/memgrep/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "memgrep"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    storage.Store
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	embedder embedder.Embedder
}

// NewServer creates a new MCP server instance backed by the index database
// at dbPath. An empty dbPath defaults to ~/.memgrep/memgrep.db.
func NewServer(dbPath string) (*Server, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir := filepath.Join(home, ".memgrep")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath = filepath.Join(dir, "memgrep.db")
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return newServerWith(store, emb), nil
}

// newServerWith wires a server from explicit dependencies. Split out so
// tests can inject an in-memory store and a deterministic embedder.
func newServerWith(store storage.Store, emb embedder.Embedder) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    store,
		indexer:  indexer.New(chunker.New(), emb, store),
		searcher: searcher.NewSearcher(store, emb),
		embedder: emb,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.embedder.Close()
		_ = s.store.Close()
	}()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexMemoryTool(), s.handleIndexMemory)
	s.mcp.AddTool(searchMemoryTool(), s.handleSearchMemory)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
