// Package chunker divides raw log text into overlapping, content-addressed
// chunks for indexing and retrieval.
//
// Chunking is line-oriented and character-budgeted: lines accumulate into a
// buffer, and whenever the buffer reaches the size target (1600 characters by
// default) a chunk is closed and emitted. The next chunk starts with the
// trailing lines of the previous one, up to the overlap target (320
// characters by default), so that context spanning a chunk boundary is
// retrievable from either side.
//
// # Basic Usage
//
//	c := chunker.New()
//	chunks := c.ChunkText("MEMORY.md", content)
//
//	for _, chunk := range chunks {
//	    fmt.Printf("lines %d-%d, %d chars\n",
//	        chunk.LineStart, chunk.LineEnd, len(chunk.Content))
//	}
//
// Thresholds are characters, not tokens, which keeps chunking deterministic
// and tokenizer-free.
//
// # Timestamp Labels
//
// Log entries in the corpus carry leading bracketed markers:
//
//	[2025-06-01 14:02]
//	decided to keep the single-writer rule
//
// A line starting with "[" and containing "]" updates the current timestamp
// label, which is attached to every chunk closed after that line until the
// next marker overwrites it.
//
// # Content Hashing
//
// Each chunk's identity is the SHA-256 hash of its content. Re-chunking
// identical text yields identical hashes, which is what makes indexing
// idempotent: the store skips chunks it has already embedded.
package chunker
