package chunker

import (
	"strings"

	"github.com/memgrep/memgrep/pkg/types"
)

const (
	// DefaultChunkSize is the target chunk size in characters.
	DefaultChunkSize = 1600

	// DefaultOverlap is the target overlap between adjacent chunks in
	// characters.
	DefaultOverlap = 320
)

// Chunker splits raw document text into overlapping, content-addressed
// chunks. It is a pure function of its input: identical text always yields
// an identical chunk sequence with identical content hashes.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the target overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave room for forward progress
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkText splits text into an ordered sequence of chunks covering the
// document, with adjacent chunks overlapping by roughly the configured
// amount. Lines are accumulated until the buffer reaches the size target;
// the closed chunk is emitted and the next buffer is seeded by walking
// backward from the end of it until the overlap target is reached.
//
// An empty document yields no chunks. A document shorter than the size
// target yields exactly one chunk spanning every line.
func (c *Chunker) ChunkText(sourceID, text string) []*types.Chunk {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")

	var chunks []*types.Chunk
	var buf []string
	bufLen := 0
	lineStart := 1
	timestamp := ""

	for i, line := range lines {
		lineNo := i + 1

		// A line of the form "[marker] ..." updates the timestamp label
		// attached to every chunk closed from here on.
		if strings.HasPrefix(line, "[") {
			if end := strings.Index(line, "]"); end >= 1 {
				timestamp = line[1:end]
			}
		}

		buf = append(buf, line)
		bufLen += len(line) + 1 // +1 for the newline

		if bufLen >= c.chunkSize {
			chunks = append(chunks, c.emit(sourceID, buf, lineStart, lineNo, timestamp))

			// Seed the next buffer with trailing lines until the
			// overlap target is reached.
			overlap, overlapLen := tailOverlap(buf, c.overlap)
			buf = overlap
			bufLen = overlapLen
			lineStart = lineNo - len(overlap) + 1
		}
	}

	if len(buf) > 0 {
		chunks = append(chunks, c.emit(sourceID, buf, lineStart, len(lines), timestamp))
	}

	return chunks
}

// emit closes a chunk over the buffered lines and computes its content hash.
func (c *Chunker) emit(sourceID string, buf []string, lineStart, lineEnd int, timestamp string) *types.Chunk {
	chunk := &types.Chunk{
		Content:   strings.Join(buf, "\n"),
		SourceID:  sourceID,
		LineStart: lineStart,
		LineEnd:   lineEnd,
		Timestamp: timestamp,
	}
	chunk.ComputeContentHash()
	return chunk
}

// tailOverlap collects lines from the end of buf until their accumulated
// length reaches target. At least one line is always retained.
func tailOverlap(buf []string, target int) ([]string, int) {
	total := 0
	start := len(buf)
	for start > 0 {
		start--
		total += len(buf[start]) + 1
		if total >= target {
			break
		}
	}

	overlap := make([]string, len(buf)-start)
	copy(overlap, buf[start:])
	return overlap, total
}
