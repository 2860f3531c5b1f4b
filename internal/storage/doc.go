// Package storage provides SQLite-backed persistence for the memgrep index.
//
// A single database file holds three coordinated tables: chunks (with an
// external-content FTS5 mirror for BM25 ranking), embeddings (little-endian
// float32 blobs keyed by chunk), and documents (whole-file hashes for change
// detection). Chunk identity is the SHA-256 of chunk content, so re-indexing
// unchanged text is a no-op at the storage layer.
//
// The driver is selected at build time: the default pure-Go build uses
// modernc.org/sqlite, while -tags sqlite_cgo selects mattn/go-sqlite3.
package storage
