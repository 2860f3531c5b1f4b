package embedder

import (
	"fmt"
	"os"
	"strings"
)

// EnvProvider selects the embedding provider explicitly.
const EnvProvider = "MEMGREP_EMBEDDING_PROVIDER"

// Config holds embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	CacheSize int
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. MEMGREP_EMBEDDING_PROVIDER (openai, ollama, local)
// 2. OPENAI_API_KEY present: use OpenAI
// 3. OLLAMA_BASE_URL present: use Ollama
// 4. Default to local
func NewFromEnv() (Embedder, error) {
	provider := os.Getenv(EnvProvider)
	openaiKey := os.Getenv(EnvOpenAIAPIKey)
	ollamaURL := os.Getenv(EnvOllamaBaseURL)

	cache := NewCache(10000) // Default cache size

	if provider != "" {
		provider = strings.ToLower(provider)
		switch provider {
		case ProviderOpenAI:
			return NewOpenAIProvider(openaiKey, cache)
		case ProviderOllama:
			return NewOllamaProvider(ollamaURL, cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnknownProvider, provider)
		}
	}

	// Auto-detect based on available configuration
	if openaiKey != "" {
		return NewOpenAIProvider(openaiKey, cache)
	}
	if ollamaURL != "" {
		return NewOllamaProvider(ollamaURL, cache)
	}

	return NewLocalProvider(cache)
}

// New creates an embedder with explicit configuration
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(cfg.Provider)
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderOllama:
		return NewOllamaProvider(cfg.BaseURL, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnknownProvider, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	provider := os.Getenv(EnvProvider)
	if provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvOllamaBaseURL) != "" {
		return ProviderOllama
	}

	return ProviderLocal
}
