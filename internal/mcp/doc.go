// Package mcp implements the Model Context Protocol (MCP) server for memgrep.
//
// The server exposes three tools to AI assistants:
//   - index_memory: Index a memory file or directory for hybrid search
//   - search_memory: Query indexed memories with natural language
//   - get_status: Report index statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server reads protocol messages from stdin and writes responses to
// stdout. All logging therefore goes to stderr; anything else on stdout
// would corrupt the protocol stream.
//
// # Tool: index_memory
//
//	Request:
//	{
//	  "name": "index_memory",
//	  "arguments": {
//	    "path": "/home/user/memories/2026-08.md",
//	    "force": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "sources": 1,
//	  "sources_unchanged": 0,
//	  "chunks_created": 42,
//	  "chunks_skipped": 17
//	}
//
// # Tool: search_memory
//
//	Request:
//	{
//	  "name": "search_memory",
//	  "arguments": {
//	    "query": "what did we decide about the staging cluster",
//	    "top_k": 5
//	  }
//	}
//
//	Response:
//	{
//	  "results": [
//	    {
//	      "content": "[2026-08-12 14:02] decided to pin staging to ...",
//	      "score": 0.81,
//	      "source": "/home/user/memories/2026-08.md",
//	      "line_start": 120,
//	      "line_end": 141,
//	      "timestamp": "2026-08-12 14:02"
//	    }
//	  ],
//	  "total": 1,
//	  "cache_hit": false,
//	  "duration_ms": 12
//	}
//
// # Tool: get_status
//
// Takes no arguments and returns document, chunk, and embedding counts plus
// the database size and the active embedding provider.
package mcp
