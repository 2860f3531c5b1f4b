package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memgrep/memgrep/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testChunk(content, sourceID string, lineStart, lineEnd int) *types.Chunk {
	return &types.Chunk{
		Content:     content,
		ContentHash: types.ComputeContentHash(content),
		SourceID:    sourceID,
		LineStart:   lineStart,
		LineEnd:     lineEnd,
	}
}

func testEmbedding(vector []float32) *Embedding {
	return &Embedding{
		Vector:    vector,
		Dimension: len(vector),
		Provider:  "local",
		Model:     "test",
	}
}

func TestUpsertChunk_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk := testChunk("the quick brown fox", "notes.md", 1, 4)
	require.NoError(t, store.UpsertChunk(ctx, chunk, testEmbedding([]float32{0.1, 0.2, 0.3})))

	exists, err := store.HasChunk(ctx, chunk.ContentHash)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.HasChunk(ctx, types.ComputeContentHash("never stored"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertChunk_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk := testChunk("same content twice", "notes.md", 1, 2)
	emb := testEmbedding([]float32{1, 0, 0})

	require.NoError(t, store.UpsertChunk(ctx, chunk, emb))
	require.NoError(t, store.UpsertChunk(ctx, chunk, emb))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Embeddings)
}

func TestUpsertChunk_RejectsInvalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk := testChunk("", "notes.md", 1, 1)
	err := store.UpsertChunk(ctx, chunk, testEmbedding([]float32{1}))
	assert.Error(t, err)

	chunk = testChunk("ok", "notes.md", 1, 1)
	err = store.UpsertChunk(ctx, chunk, nil)
	assert.Error(t, err)
}

func TestSearchLexical_RanksAndLimits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []string{
		"deployment checklist for the api gateway",
		"gateway gateway gateway configuration notes",
		"unrelated grocery list with apples and bread",
	}
	for i, content := range docs {
		chunk := testChunk(content, "log.md", i*10+1, i*10+5)
		require.NoError(t, store.UpsertChunk(ctx, chunk, testEmbedding([]float32{1, 0})))
	}

	results, err := store.SearchLexical(ctx, "gateway", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Repeated term ranks higher, and abs() makes scores non-negative
	assert.Contains(t, results[0].Chunk.Content, "gateway gateway")
	assert.Greater(t, results[0].Score, results[1].Score)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
	}

	results, err = store.SearchLexical(ctx, "gateway", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchLexical_NoMatchesAndEmptyQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk := testChunk("some indexed text", "log.md", 1, 1)
	require.NoError(t, store.UpsertChunk(ctx, chunk, testEmbedding([]float32{1})))

	results, err := store.SearchLexical(ctx, "zzzmissing", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = store.SearchLexical(ctx, `"(*)"`, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLexical_OperatorInjection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunk := testChunk("planning the rollout and rollback steps", "log.md", 1, 2)
	require.NoError(t, store.UpsertChunk(ctx, chunk, testEmbedding([]float32{1})))

	// Bare operators must not raise an FTS5 syntax error
	results, err := store.SearchLexical(ctx, "rollout AND NOT", 10)
	require.NoError(t, err)
	_ = results
}

func TestSearchVector_OrdersBySimilarity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	near := testChunk("near neighbor", "log.md", 1, 1)
	far := testChunk("far neighbor", "log.md", 2, 2)
	require.NoError(t, store.UpsertChunk(ctx, near, testEmbedding([]float32{1, 0})))
	require.NoError(t, store.UpsertChunk(ctx, far, testEmbedding([]float32{0, 1})))

	results, err := store.SearchVector(ctx, []float32{1, 0.1})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "near neighbor", results[0].Chunk.Content)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestSearchVector_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	results, err := store.SearchVector(context.Background(), []float32{1, 0})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDocument_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "notes.md")
	assert.ErrorIs(t, err, ErrNotFound)

	doc := &Document{
		SourceID:    "notes.md",
		FileHash:    types.ComputeContentHash("file body v1"),
		LastIndexed: time.Now().Truncate(time.Second),
	}
	require.NoError(t, store.PutDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "notes.md")
	require.NoError(t, err)
	assert.Equal(t, doc.SourceID, got.SourceID)
	assert.Equal(t, doc.FileHash, got.FileHash)

	// Overwrite on re-index
	doc.FileHash = types.ComputeContentHash("file body v2")
	require.NoError(t, store.PutDocument(ctx, doc))

	got, err = store.GetDocument(ctx, "notes.md")
	require.NoError(t, err)
	assert.Equal(t, doc.FileHash, got.FileHash)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Documents)
	assert.Equal(t, 0, stats.Chunks)

	chunk := testChunk("counted once", "log.md", 1, 1)
	require.NoError(t, store.UpsertChunk(ctx, chunk, testEmbedding([]float32{1})))
	require.NoError(t, store.PutDocument(ctx, &Document{
		SourceID: "log.md",
		FileHash: types.ComputeContentHash("counted once"),
	}))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, 1, stats.Embeddings)
}
