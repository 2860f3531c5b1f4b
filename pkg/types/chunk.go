package types

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Chunk represents an overlapping, content-addressed slice of a source
// document. Chunks are derived by the chunker and exist only as projections
// into the lexical and vector indexes.
type Chunk struct {
	// Content
	Content     string
	ContentHash [32]byte // SHA-256 of Content; identity and dedup key

	// Provenance
	SourceID  string // identifier of the originating document
	LineStart int    // inclusive, 1-based
	LineEnd   int    // inclusive, 1-based

	// Timestamp is a best-effort label extracted from the most recent
	// leading bracketed marker ("[...]") seen before the chunk closed.
	// Empty if the document carries no such markers.
	Timestamp string
}

// ComputeContentHash returns the SHA-256 hash of text. Identical text
// always yields an identical hash, regardless of where in a document the
// chunk was cut.
func ComputeContentHash(text string) [32]byte {
	return sha256.Sum256([]byte(text))
}

// ComputeContentHash computes and stores the hash of the chunk content.
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = ComputeContentHash(c.Content)
}

// HashHex returns the content hash as a lowercase hex string.
func (c *Chunk) HashHex() string {
	return hex.EncodeToString(c.ContentHash[:])
}

// Validate performs basic sanity checks on the chunk.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	if c.SourceID == "" {
		return errors.New("chunk source ID is required")
	}
	if c.LineStart <= 0 || c.LineEnd <= 0 {
		return errors.New("line numbers must be positive")
	}
	if c.LineStart > c.LineEnd {
		return errors.New("start line must be before or equal to end line")
	}
	var zeroHash [32]byte
	if c.ContentHash == zeroHash {
		return errors.New("content hash must be computed")
	}
	return nil
}
