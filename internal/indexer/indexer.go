package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/memgrep/memgrep/internal/chunker"
	"github.com/memgrep/memgrep/internal/embedder"
	"github.com/memgrep/memgrep/internal/storage"
	"github.com/memgrep/memgrep/pkg/types"
)

// Indexer coordinates the indexing pipeline: chunk -> embed -> store
type Indexer struct {
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	store    storage.Store
	locks    *lockTable

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers int // Number of concurrent workers for multi-file indexing (default: runtime.NumCPU())
}

// Statistics describes what one indexing pass did
type Statistics struct {
	SourceID      string
	Unchanged     bool // Source hash matched the stored record, nothing was done
	ChunksCreated int  // Chunks embedded and written this pass
	ChunksSkipped int  // Chunks already present under the same content hash
	Duration      time.Duration
}

// New creates a new Indexer instance
func New(ch *chunker.Chunker, emb embedder.Embedder, store storage.Store) *Indexer {
	return &Indexer{
		chunker:  ch,
		embedder: emb,
		store:    store,
		locks:    newLockTable(),
		workers:  runtime.NumCPU(),
	}
}

// IndexDocument indexes one source's full text. Unchanged sources are
// skipped unless force is set; force also disables the per-chunk dedup, so
// a forced pass re-embeds and rewrites every chunk (a full rebuild, e.g.
// after an index-format change). A second concurrent pass over the same
// source fails fast with ErrIndexInProgress.
//
// The document record is written only after every chunk of the pass is
// stored, so a failed pass leaves the previous record intact and the next
// pass retries from the top. Chunk upserts are idempotent by content hash,
// which makes the retry safe.
func (idx *Indexer) IndexDocument(ctx context.Context, sourceID, text string, force bool) (*Statistics, error) {
	if sourceID == "" {
		return nil, types.ErrMissingSource
	}

	lock := idx.locks.get(sourceID)
	if !lock.TryAcquire() {
		return nil, fmt.Errorf("%w: %s", types.ErrIndexInProgress, sourceID)
	}
	defer lock.Release()

	startTime := time.Now()
	stats := &Statistics{SourceID: sourceID}

	hash := HashText(text)
	needed, err := ShouldReindex(ctx, idx.store, sourceID, hash, force)
	if err != nil {
		return nil, fmt.Errorf("change detection for %s: %w", sourceID, err)
	}
	if !needed {
		stats.Unchanged = true
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	chunks := idx.chunker.ChunkText(sourceID, text)
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// force bypasses the dedup fast path as well: a full rebuild must
		// re-embed and rewrite every chunk, not just the changed ones
		exists, err := idx.store.HasChunk(ctx, chunk.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("chunk lookup for %s: %w", sourceID, err)
		}
		if exists && !force {
			stats.ChunksSkipped++
			continue
		}

		emb, err := idx.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			// Abort the pass rather than store a chunk without its vector.
			// The document record stays at its previous hash, so the next
			// pass picks this source up again.
			return nil, fmt.Errorf("%w: %s lines %d-%d: %v",
				types.ErrEmbeddingFailure, sourceID, chunk.LineStart, chunk.LineEnd, err)
		}

		err = idx.store.UpsertChunk(ctx, chunk, &storage.Embedding{
			Vector:    emb.Vector,
			Dimension: emb.Dimension,
			Provider:  emb.Provider,
			Model:     emb.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("store chunk for %s: %w", sourceID, err)
		}
		stats.ChunksCreated++
	}

	err = idx.store.PutDocument(ctx, &storage.Document{
		SourceID:    sourceID,
		FileHash:    hash,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("record document %s: %w", sourceID, err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// IndexFile reads a file from disk and indexes it under its path as the
// source ID.
func (idx *Indexer) IndexFile(ctx context.Context, path string, force bool) (*Statistics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrSourceUnavailable, path, err)
	}
	return idx.IndexDocument(ctx, path, string(data), force)
}

// IndexFiles indexes multiple files concurrently. Unreadable files are
// logged and skipped; any other failure aborts the whole batch. Returns
// per-file statistics for the files that were processed.
func (idx *Indexer) IndexFiles(ctx context.Context, paths []string, force bool, config *Config) ([]*Statistics, error) {
	workers := idx.workers
	if config != nil && config.Workers > 0 {
		workers = config.Workers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	results := make([]*Statistics, 0, len(paths))

	for _, path := range paths {
		g.Go(func() error {
			stats, err := idx.IndexFile(gctx, path, force)
			if errors.Is(err, types.ErrSourceUnavailable) {
				log.Printf("WARN: skipping unreadable source: %v", err)
				return nil
			}
			if err != nil {
				return err
			}

			mu.Lock()
			results = append(results, stats)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
