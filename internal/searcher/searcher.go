package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/memgrep/memgrep/internal/embedder"
	"github.com/memgrep/memgrep/internal/storage"
	"github.com/memgrep/memgrep/pkg/types"
)

const (
	// Fusion weights: dense similarity dominates, lexical match refines
	VectorWeight  = 0.7
	LexicalWeight = 0.3

	// DefaultTopK is the result count when the caller doesn't specify one
	DefaultTopK = 10

	// MaxTopK caps the result count
	MaxTopK = 100

	// Lexical over-fetch factor: fusion can promote a lexical match that
	// BM25 alone would rank below the cutoff
	lexicalFetchFactor = 2
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query    string
	TopK     int
	UseCache bool
	CacheTTL time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results        []types.SearchResult
	TotalResults   int
	Duration       time.Duration
	CacheHit       bool
	VectorResults  int // Candidates from the dense index
	LexicalResults int // Candidates from the BM25 index
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher runs hybrid queries over the lexical and vector indexes
type Searcher struct {
	store    storage.Store
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Store, emb embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		store:    store,
		embedder: emb,
		cache:    cache,
	}
}

// Search runs one hybrid query. Both indexes are consulted concurrently and
// their candidate sets are merged by weighted score over the union: a chunk
// absent from one index simply contributes zero from that side.
//
// A query with no searchable content returns an empty response rather than
// an error; garbage in, nothing out.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if strings.TrimSpace(req.Query) == "" {
		return &SearchResponse{
			Results:  []types.SearchResult{},
			Duration: time.Since(startTime),
		}, nil
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	response, err := s.hybridSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	response.Duration = time.Since(startTime)

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// searchResult holds results from concurrent index lookups
type searchResult struct {
	vectorResults  []storage.VectorResult
	lexicalResults []storage.LexicalResult
	err            error
}

func (s *Searcher) runVectorSearch(ctx context.Context, req SearchRequest, resultChan chan<- searchResult) {
	var res searchResult
	emb, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		res.err = fmt.Errorf("failed to generate query embedding: %w", err)
	} else {
		res.vectorResults, res.err = s.store.SearchVector(ctx, emb.Vector)
	}
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) runLexicalSearch(ctx context.Context, req SearchRequest, resultChan chan<- searchResult) {
	var res searchResult
	res.lexicalResults, res.err = s.store.SearchLexical(ctx, req.Query, req.TopK*lexicalFetchFactor)
	select {
	case resultChan <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	vectorChan := make(chan searchResult, 1)
	lexicalChan := make(chan searchResult, 1)

	go s.runVectorSearch(ctx, req, vectorChan)
	go s.runLexicalSearch(ctx, req, lexicalChan)

	var vectorRes, lexicalRes searchResult
	var vectorDone, lexicalDone bool
	for !vectorDone || !lexicalDone {
		select {
		case vectorRes = <-vectorChan:
			vectorDone = true
		case lexicalRes = <-lexicalChan:
			lexicalDone = true
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// One index may fail and the other still answers
	if vectorRes.err != nil && lexicalRes.err != nil {
		return nil, fmt.Errorf("both searches failed: vector=%w, lexical=%v", vectorRes.err, lexicalRes.err)
	}

	results := fuseResults(vectorRes.vectorResults, lexicalRes.lexicalResults, req.TopK)

	return &SearchResponse{
		Results:        results,
		TotalResults:   len(results),
		VectorResults:  len(vectorRes.vectorResults),
		LexicalResults: len(lexicalRes.lexicalResults),
	}, nil
}

// candidate accumulates both signals for one chunk during fusion
type candidate struct {
	chunk      types.Chunk
	similarity float64
	lexical    float64
}

// fuseResults merges the two candidate sets by weighted score. Lexical BM25
// values are normalized against the best score in this result window, so the
// top lexical hit always contributes a full LexicalWeight. Ordering ties
// break on content hash to keep results deterministic across runs.
func fuseResults(vectorResults []storage.VectorResult, lexicalResults []storage.LexicalResult, topK int) []types.SearchResult {
	var maxLexical float64
	for _, lr := range lexicalResults {
		if lr.Score > maxLexical {
			maxLexical = lr.Score
		}
	}

	candidates := make(map[string]*candidate, len(vectorResults)+len(lexicalResults))

	for _, vr := range vectorResults {
		key := vr.Chunk.HashHex()
		candidates[key] = &candidate{chunk: vr.Chunk, similarity: vr.Similarity}
	}
	for _, lr := range lexicalResults {
		key := lr.Chunk.HashHex()
		normalized := 0.0
		if maxLexical > 0 {
			normalized = lr.Score / maxLexical
		}
		if c, ok := candidates[key]; ok {
			c.lexical = normalized
		} else {
			candidates[key] = &candidate{chunk: lr.Chunk, lexical: normalized}
		}
	}

	type scored struct {
		c     *candidate
		score float64
		hash  string
	}
	ranked := make([]scored, 0, len(candidates))
	for key, c := range candidates {
		ranked = append(ranked, scored{
			c:     c,
			score: VectorWeight*c.similarity + LexicalWeight*c.lexical,
			hash:  key,
		})
	}

	// The hash never leaves this function; it only pins the tie order.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].hash < ranked[j].hash
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	results := make([]types.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, types.SearchResult{
			Content:   r.c.chunk.Content,
			Score:     r.score,
			SourceID:  r.c.chunk.SourceID,
			LineStart: r.c.chunk.LineStart,
			LineEnd:   r.c.chunk.LineEnd,
			Timestamp: r.c.chunk.Timestamp,
		})
	}
	return results
}

func (s *Searcher) validateRequest(req *SearchRequest) error {
	if req.TopK < 0 {
		return fmt.Errorf("top_k must be non-negative, got %d", req.TopK)
	}
	if req.TopK == 0 {
		req.TopK = DefaultTopK
	}
	if req.TopK > MaxTopK {
		req.TopK = MaxTopK
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}
	return nil
}

// checkCache looks up cached search results, pruning expired entries
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

// storeInCache saves a deep copy of the response
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops all cached query responses. Called after indexing
// so stale result sets never outlive a corpus change.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := &SearchResponse{
		TotalResults:   src.TotalResults,
		Duration:       src.Duration,
		CacheHit:       src.CacheHit,
		VectorResults:  src.VectorResults,
		LexicalResults: src.LexicalResults,
		Results:        make([]types.SearchResult, len(src.Results)),
	}
	copy(dst.Results, src.Results)
	return dst
}

// computeQueryHash computes a unique hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(strconv.Itoa(req.TopK))
	return sha256.Sum256([]byte(data.String()))
}
