// Package types defines the shared domain types for memgrep: content-addressed
// chunks, search results, and the error taxonomy used across the indexing and
// query paths.
//
// Types here are deliberately free of storage or transport concerns so that
// the chunker, indexer, storage, and searcher packages can exchange values
// without import cycles.
package types
