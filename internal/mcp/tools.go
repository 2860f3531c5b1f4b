package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/memgrep/memgrep/internal/searcher"
	"github.com/memgrep/memgrep/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeSourceNotFound     = -32001 // Specified path does not exist or is unreadable
	ErrorCodeIndexingInProgress = -32002 // Another indexing pass over the same source is running
)

// handleIndexMemory handles the index_memory tool invocation
func (s *Server) handleIndexMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	paths, err := resolveSources(path)
	if err != nil {
		return nil, newMCPError(ErrorCodeSourceNotFound, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	force := getBoolDefault(args, "force", false)

	results, err := s.indexer.IndexFiles(ctx, paths, force, nil)
	if errors.Is(err, types.ErrIndexInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Stored chunks changed, cached query responses are stale
	s.searcher.InvalidateCache()

	var created, skipped, unchanged int
	for _, stats := range results {
		created += stats.ChunksCreated
		skipped += stats.ChunksSkipped
		if stats.Unchanged {
			unchanged++
		}
	}

	response := map[string]interface{}{
		"indexed":           true,
		"sources":           len(results),
		"sources_unchanged": unchanged,
		"chunks_created":    created,
		"chunks_skipped":    skipped,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchMemory handles the search_memory tool invocation
func (s *Server) handleSearchMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing",
		})
	}

	topK := getIntDefault(args, "top_k", searcher.DefaultTopK)
	if topK < 1 || topK > searcher.MaxTopK {
		return nil, newMCPError(ErrorCodeInvalidParams,
			fmt.Sprintf("top_k must be between 1 and %d", searcher.MaxTopK), map[string]interface{}{
				"param": "top_k",
				"value": topK,
			})
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		TopK:     topK,
		UseCache: true,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	hits := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		hits[i] = map[string]interface{}{
			"content":    r.Content,
			"score":      r.Score,
			"source":     r.SourceID,
			"line_start": r.LineStart,
			"line_end":   r.LineEnd,
			"timestamp":  r.Timestamp,
		}
	}

	response := map[string]interface{}{
		"results":     hits,
		"total":       resp.TotalResults,
		"cache_hit":   resp.CacheHit,
		"duration_ms": resp.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"documents":          stats.Documents,
		"chunks":             stats.Chunks,
		"embeddings":         stats.Embeddings,
		"index_size_mb":      fmt.Sprintf("%.2f", stats.IndexSizeMB),
		"embedding_provider": s.embedder.Provider(),
		"embedding_model":    s.embedder.Model(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// resolveSources expands a path argument into the list of files to index.
// A file resolves to itself; a directory resolves to every regular file
// beneath it, with dotfiles skipped.
func resolveSources(path string) ([]string, error) {
	if !filepath.IsAbs(path) {
		return nil, ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, ErrPathNotReadable
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if len(name) > 0 && name[0] == '.' {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoSources
	}
	return paths, nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNoSources       = errors.New("directory contains no files to index")
)
