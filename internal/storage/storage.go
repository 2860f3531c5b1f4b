package storage

import (
	"context"
	"time"

	"github.com/memgrep/memgrep/pkg/types"
)

// Store defines the dual index contract: every chunk is persisted in both a
// lexical (FTS5/BM25) representation and a vector representation, keyed by
// content hash. A hash present in one index is present in the other, except
// while an upsert is in flight.
type Store interface {
	// UpsertChunk writes one chunk into both indexes atomically. Writing
	// the same content hash again replaces the stored entry; it never
	// creates a duplicate.
	UpsertChunk(ctx context.Context, chunk *types.Chunk, emb *Embedding) error

	// HasChunk reports whether a chunk with the given content hash is
	// already indexed. This is the dedup fast path: callers use it to
	// skip re-embedding unchanged chunks.
	HasChunk(ctx context.Context, contentHash [32]byte) (bool, error)

	// SearchLexical returns up to limit chunks ranked by BM25 relevance
	// for the query. Scores are non-negative (absolute value of the raw
	// FTS5 score); ties break by insertion order. An empty or
	// unsearchable query yields an empty result set, not an error.
	SearchLexical(ctx context.Context, query string, limit int) ([]LexicalResult, error)

	// SearchVector scans every stored embedding and returns cosine
	// similarity against the query vector for each indexed chunk,
	// sorted by similarity descending. A zero vector on either side
	// yields similarity 0.
	SearchVector(ctx context.Context, queryVector []float32) ([]VectorResult, error)

	// Document metadata operations. GetDocument returns ErrNotFound for
	// a source that has never been indexed.
	GetDocument(ctx context.Context, sourceID string) (*Document, error)
	PutDocument(ctx context.Context, doc *Document) error

	// Stats reports index-wide counts for status reporting.
	Stats(ctx context.Context) (*IndexStats, error)

	Close() error
}

// Embedding is the vector representation of a chunk as handed to the store.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
}

// Document is the per-source metadata record used for change detection.
// FileHash always reflects the content as of the most recent successful
// indexing pass; a missing record means "never indexed".
type Document struct {
	SourceID    string
	FileHash    [32]byte
	LastIndexed time.Time
}

// LexicalResult is a BM25-ranked hit from the lexical index.
type LexicalResult struct {
	Chunk types.Chunk
	Score float64 // non-negative; larger is more relevant
}

// VectorResult is a similarity-scored entry from the vector scan.
type VectorResult struct {
	Chunk      types.Chunk
	Similarity float64 // cosine similarity in [-1, 1]
}

// IndexStats contains index-wide counts and sizing.
type IndexStats struct {
	Documents   int
	Chunks      int
	Embeddings  int
	IndexSizeMB float64
}
