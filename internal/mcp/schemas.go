package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexMemoryTool returns the tool definition for index_memory
func indexMemoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_memory",
		Description: "Index a memory file (or every file under a directory) to make it searchable",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a text file or a directory of text files",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index even when the file hash is unchanged",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchMemoryTool returns the tool definition for search_memory
func searchMemoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_memory",
		Description: "Search indexed memories with natural language or keyword queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report index statistics: documents, chunks, embeddings, and database size",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
