package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/memgrep/memgrep/pkg/types"
)

// ErrNotFound is returned when a requested entity doesn't exist
var ErrNotFound = errors.New("not found")

// SQLiteStore implements the Store interface using SQLite: an FTS5 table for
// lexical ranking, a blob table for embeddings, and a documents table for
// change detection. One instance owns one index file; callers construct one
// store per workspace and pass it explicitly (there is no ambient index).
type SQLiteStore struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode so queries can run while an upsert is in flight
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single connection: SQLite wants one writer, and serializing through
	// one conn keeps per-chunk upserts read-committed for readers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens (or creates) the index database at dbPath and applies
// any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %v", types.ErrStoreUnavailable, err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to apply migrations: %v", types.ErrStoreUnavailable, err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertChunk writes the chunk and its embedding in a single transaction, so
// a content hash is never visible in one index without the other.
func (s *SQLiteStore) UpsertChunk(ctx context.Context, chunk *types.Chunk, emb *Embedding) error {
	if err := chunk.Validate(); err != nil {
		return fmt.Errorf("invalid chunk: %w", err)
	}
	if emb == nil || len(emb.Vector) == 0 {
		return errors.New("embedding is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", types.ErrStoreUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()

	var chunkID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO chunks (content_hash, content, source_id, line_start, line_end, timestamp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			content = excluded.content,
			source_id = excluded.source_id,
			line_start = excluded.line_start,
			line_end = excluded.line_end,
			timestamp = excluded.timestamp,
			updated_at = excluded.updated_at
		RETURNING id
	`, chunk.ContentHash[:], chunk.Content, chunk.SourceID,
		chunk.LineStart, chunk.LineEnd, chunk.Timestamp, now, now).Scan(&chunkID)
	if err != nil {
		return fmt.Errorf("%w: upsert chunk: %v", types.ErrStoreUnavailable, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO embeddings (chunk_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model
	`, chunkID, serializeVector(emb.Vector), emb.Dimension, emb.Provider, emb.Model, now)
	if err != nil {
		return fmt.Errorf("%w: upsert embedding: %v", types.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

// HasChunk reports whether a chunk with this content hash is already indexed.
func (s *SQLiteStore) HasChunk(ctx context.Context, contentHash [32]byte) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM chunks WHERE content_hash = ?", contentHash[:]).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lookup chunk: %v", types.ErrStoreUnavailable, err)
	}
	return true, nil
}

// SearchLexical runs a BM25-ranked FTS5 query over chunk content. FTS5
// reports better matches as more negative scores; the absolute value is
// returned so callers get a non-negative "larger is better" scale. Ties
// break by insertion order (rowid).
func (s *SQLiteStore) SearchLexical(ctx context.Context, query string, limit int) ([]LexicalResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return []LexicalResult{}, nil
	}
	if limit <= 0 {
		return []LexicalResult{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.content_hash, c.content, c.source_id, c.line_start, c.line_end, c.timestamp,
		       bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON chunks_fts.rowid = c.id
		WHERE chunks_fts MATCH ?
		ORDER BY score, c.id
		LIMIT ?
	`, sanitized, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: lexical search: %v", types.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]LexicalResult, 0, limit)
	for rows.Next() {
		var res LexicalResult
		var hash []byte
		var score float64
		if err := rows.Scan(&hash, &res.Chunk.Content, &res.Chunk.SourceID,
			&res.Chunk.LineStart, &res.Chunk.LineEnd, &res.Chunk.Timestamp, &score); err != nil {
			return nil, err
		}
		copy(res.Chunk.ContentHash[:], hash)
		res.Score = math.Abs(score)
		results = append(results, res)
	}
	return results, rows.Err()
}

// SearchVector enumerates every stored embedding and scores it by cosine
// similarity against the query vector. At this corpus scale a linear scan is
// the intended design; an approximate index could replace it behind the same
// contract. Results are sorted by similarity descending, hash ascending.
func (s *SQLiteStore) SearchVector(ctx context.Context, queryVector []float32) ([]VectorResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.content_hash, c.content, c.source_id, c.line_start, c.line_end, c.timestamp, e.vector
		FROM chunks c
		JOIN embeddings e ON e.chunk_id = c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: vector scan: %v", types.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]VectorResult, 0, 1024)
	for rows.Next() {
		var res VectorResult
		var hash []byte
		var blob []byte
		if err := rows.Scan(&hash, &res.Chunk.Content, &res.Chunk.SourceID,
			&res.Chunk.LineStart, &res.Chunk.LineEnd, &res.Chunk.Timestamp, &blob); err != nil {
			return nil, err
		}
		copy(res.Chunk.ContentHash[:], hash)

		vector := deserializeVector(blob)
		res.Similarity = cosineSimilarity(queryVector, vector)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Chunk.HashHex() < results[j].Chunk.HashHex()
	})
	return results, nil
}

// GetDocument returns the change-detection record for a source, or
// ErrNotFound if the source has never been indexed.
func (s *SQLiteStore) GetDocument(ctx context.Context, sourceID string) (*Document, error) {
	var doc Document
	var hash []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT source_id, file_hash, last_indexed FROM documents WHERE source_id = ?",
		sourceID).Scan(&doc.SourceID, &hash, &doc.LastIndexed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get document: %v", types.ErrStoreUnavailable, err)
	}
	copy(doc.FileHash[:], hash)
	return &doc, nil
}

// PutDocument records (or overwrites) the change-detection metadata for a
// source after a successful index pass.
func (s *SQLiteStore) PutDocument(ctx context.Context, doc *Document) error {
	if doc.SourceID == "" {
		return errors.New("document source ID is required")
	}
	if doc.LastIndexed.IsZero() {
		doc.LastIndexed = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (source_id, file_hash, last_indexed)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			file_hash = excluded.file_hash,
			last_indexed = excluded.last_indexed
	`, doc.SourceID, doc.FileHash[:], doc.LastIndexed)
	if err != nil {
		return fmt.Errorf("%w: put document: %v", types.ErrStoreUnavailable, err)
	}
	return nil
}

// Stats reports index-wide counts and database size.
func (s *SQLiteStore) Stats(ctx context.Context) (*IndexStats, error) {
	stats := &IndexStats{}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&stats.Documents); err != nil {
		return nil, fmt.Errorf("%w: count documents: %v", types.ErrStoreUnavailable, err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&stats.Chunks); err != nil {
		return nil, fmt.Errorf("%w: count chunks: %v", types.ErrStoreUnavailable, err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&stats.Embeddings); err != nil {
		return nil, fmt.Errorf("%w: count embeddings: %v", types.ErrStoreUnavailable, err)
	}

	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return stats, nil
}
