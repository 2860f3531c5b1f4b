package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeLines produces n lines of exactly 79 characters each (80 with the
// newline), so chunk boundaries land at predictable line counts.
func makeLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line-%03d-%s", i, strings.Repeat("x", 70))
	}
	return lines
}

func TestChunkText_Empty(t *testing.T) {
	c := New()
	chunks := c.ChunkText("test.md", "")
	assert.Empty(t, chunks)
}

func TestChunkText_ShortDocument(t *testing.T) {
	c := New()
	text := "first line\nsecond line\nthird line"

	chunks := c.ChunkText("test.md", text)
	require.Len(t, chunks, 1)

	assert.Equal(t, text, chunks[0].Content)
	assert.Equal(t, "test.md", chunks[0].SourceID)
	assert.Equal(t, 1, chunks[0].LineStart)
	assert.Equal(t, 3, chunks[0].LineEnd)
	assert.Empty(t, chunks[0].Timestamp)
}

func TestChunkText_Deterministic(t *testing.T) {
	c := New()
	text := strings.Join(makeLines(100), "\n")

	first := c.ChunkText("a.md", text)
	second := c.ChunkText("a.md", text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ContentHash, second[i].ContentHash)
		assert.Equal(t, first[i].LineStart, second[i].LineStart)
		assert.Equal(t, first[i].LineEnd, second[i].LineEnd)
	}
}

func TestChunkText_OverlapAndCoverage(t *testing.T) {
	c := New() // 1600 / 320 defaults; 80-char lines close every 20 lines
	lines := makeLines(100)
	text := strings.Join(lines, "\n")

	chunks := c.ChunkText("log.md", text)
	require.Greater(t, len(chunks), 1)

	// First chunk starts at line 1, last chunk ends at the last line.
	assert.Equal(t, 1, chunks[0].LineStart)
	assert.Equal(t, len(lines), chunks[len(chunks)-1].LineEnd)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, chunk.LineStart, chunk.LineEnd)
		if i == 0 {
			continue
		}
		prev := chunks[i-1]
		// Adjacent chunks overlap: each chunk starts at or before the
		// line after the previous chunk's end, never leaving a gap.
		assert.LessOrEqual(t, chunk.LineStart, prev.LineEnd+1,
			"gap between chunk %d and %d", i-1, i)
		// And forward progress is made.
		assert.Greater(t, chunk.LineEnd, prev.LineEnd)
	}
}

func TestChunkText_OverlapSeedsNextChunk(t *testing.T) {
	c := New(WithChunkSize(400), WithOverlap(80))
	lines := makeLines(20) // 80 chars each; chunks close every 5 lines
	text := strings.Join(lines, "\n")

	chunks := c.ChunkText("log.md", text)
	require.Greater(t, len(chunks), 1)

	// The tail of each closed chunk reappears at the head of the next one.
	for i := 1; i < len(chunks); i++ {
		prevLines := strings.Split(chunks[i-1].Content, "\n")
		nextLines := strings.Split(chunks[i].Content, "\n")
		assert.Equal(t, prevLines[len(prevLines)-1], nextLines[0])
	}
}

func TestChunkText_TimestampExtraction(t *testing.T) {
	c := New(WithChunkSize(200), WithOverlap(40))

	var b strings.Builder
	b.WriteString("[2025-06-01 09:00]\n")
	for _, l := range makeLines(4) {
		b.WriteString(l + "\n")
	}
	b.WriteString("[2025-06-02 17:30]\n")
	for _, l := range makeLines(4) {
		b.WriteString(l + "\n")
	}

	chunks := c.ChunkText("daily.md", b.String())
	require.NotEmpty(t, chunks)

	// The first chunk closes before the second marker appears.
	assert.Equal(t, "2025-06-01 09:00", chunks[0].Timestamp)
	// The final chunk carries the most recent marker.
	assert.Equal(t, "2025-06-02 17:30", chunks[len(chunks)-1].Timestamp)
}

func TestChunkText_MarkerWithoutClose(t *testing.T) {
	c := New()
	text := "[10:15]\njust one note"

	chunks := c.ChunkText("m.md", text)
	require.Len(t, chunks, 1)
	assert.Equal(t, "10:15", chunks[0].Timestamp)
}

func TestChunkText_HashMatchesContent(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	text := strings.Join(makeLines(10), "\n")

	chunks := c.ChunkText("x.md", text)
	for _, chunk := range chunks {
		require.NoError(t, chunk.Validate())
	}
}

func TestNew_OverlapClamped(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(500))
	assert.Equal(t, 25, c.overlap)
}
