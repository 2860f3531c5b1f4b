package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProvider_Deterministic(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	ctx := context.Background()
	first, err := provider.Embed(ctx, "hello world")
	require.NoError(t, err)
	second, err := provider.Embed(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Len(t, first.Vector, localDimension)
	assert.Equal(t, ProviderLocal, first.Provider)

	other, err := provider.Embed(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, first.Vector, other.Vector)
}

func TestLocalProvider_EmptyText(t *testing.T) {
	provider, err := NewLocalProvider(nil)
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProvider_CacheHit(t *testing.T) {
	provider, err := NewLocalProvider(NewCache(100))
	require.NoError(t, err)

	ctx := context.Background()
	first, err := provider.Embed(ctx, "cached text")
	require.NoError(t, err)

	cached, ok := provider.cache.Get(first.Hash)
	require.True(t, ok)
	assert.Equal(t, first.Vector, cached.Vector)
	assert.Equal(t, 1, provider.cache.Size())
}

func TestCache_DeepCopy(t *testing.T) {
	cache := NewCache(10)

	original := &Embedding{
		Vector:    []float32{1, 2, 3},
		Dimension: 3,
		Provider:  ProviderLocal,
	}
	cache.Set("key", original)

	got, ok := cache.Get("key")
	require.True(t, ok)
	got.Vector[0] = 99

	again, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestCache_Miss(t *testing.T) {
	cache := NewCache(10)
	_, ok := cache.Get("absent")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Size())
}

func TestComputeHash(t *testing.T) {
	assert.Equal(t, ComputeHash("abc"), ComputeHash("abc"))
	assert.NotEqual(t, ComputeHash("abc"), ComputeHash("abd"))
	assert.Len(t, ComputeHash("abc"), 64)
}

func TestOllamaProvider_CallsServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Prompt)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": []float32{0.1, 0.2, 0.3},
		})
	}))
	defer srv.Close()

	provider, err := NewOllamaProvider(srv.URL, nil)
	require.NoError(t, err)

	emb, err := provider.Embed(context.Background(), "query text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, emb.Vector)
	assert.Equal(t, 3, emb.Dimension)
	assert.Equal(t, ProviderOllama, emb.Provider)
}

func TestOllamaProvider_CachesAcrossCalls(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"embedding": []float32{0.5, 0.5},
		})
	}))
	defer srv.Close()

	provider, err := NewOllamaProvider(srv.URL, NewCache(10))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = provider.Embed(ctx, "same text")
	require.NoError(t, err)
	_, err = provider.Embed(ctx, "same text")
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load())
}

func TestOllamaProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	provider, err := NewOllamaProvider(srv.URL, nil)
	require.NoError(t, err)

	_, err = provider.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, ErrProviderFailed)
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "")

	_, err := NewOpenAIProvider("", nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestDetectProvider(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOllamaBaseURL, "")
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvOllamaBaseURL, "http://localhost:11434")
	assert.Equal(t, ProviderOllama, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvProvider, "LOCAL")
	assert.Equal(t, ProviderLocal, DetectProvider())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "quantum"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
