// Package indexer drives the ingest pipeline: split a source into chunks,
// embed the chunks that are new, and persist both indexes together.
//
// Change detection is hash-first. A whole-document SHA-256 gates the pass,
// and per-chunk content hashes skip embedding calls for text that is already
// stored. Both checks make repeated indexing of an append-only log cheap:
// only the tail that actually changed pays for an embedding.
package indexer
