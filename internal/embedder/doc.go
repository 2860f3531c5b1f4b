// Package embedder generates dense vector embeddings for text chunks.
//
// Providers share one interface so the indexer and searcher never know which
// backend is in play: OpenAI (hosted API), Ollama (local model server), or a
// deterministic hash-based local fallback. Results are cached in-process by
// content hash with LRU eviction, and remote calls retry with exponential
// backoff.
package embedder
