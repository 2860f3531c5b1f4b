package types

// SearchResult represents a single ranked hit returned by the hybrid query
// engine. It carries the original chunk text and provenance; internal index
// identifiers and embeddings never leak out.
type SearchResult struct {
	Content string
	Score   float64 // hybrid score; not guaranteed to be in [0, 1]

	SourceID  string
	LineStart int
	LineEnd   int
	Timestamp string
}

// Validate checks if the search result is well formed.
func (sr *SearchResult) Validate() error {
	if sr.Content == "" {
		return ErrEmptyContent
	}
	if sr.SourceID == "" {
		return ErrMissingSource
	}
	if sr.LineStart < 1 || sr.LineEnd < sr.LineStart {
		return ErrInvalidLineRange
	}
	return nil
}
