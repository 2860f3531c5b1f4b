// Package searcher answers queries by fusing two ranked signals: cosine
// similarity from the dense index and BM25 from the lexical index.
//
// The two lookups run concurrently and merge over the union of their
// candidates with a fixed 0.7 vector / 0.3 lexical weighting. Lexical scores
// are normalized against the best BM25 value in the current window before
// weighting. Responses are cached per query with a TTL, and the cache is
// invalidated whenever the corpus changes.
package searcher
