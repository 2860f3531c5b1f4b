package storage

import (
	"encoding/binary"
	"math"
	"regexp"
	"strings"
)

// serializeVector converts a float32 slice to a little-endian byte blob for
// storage in SQLite.
func serializeVector(vector []float32) []byte {
	buf := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector converts a byte blob back to a float32 slice. A blob
// whose length is not a multiple of 4 yields nil.
func deserializeVector(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched dimensions or a zero-magnitude vector score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ftsOperatorPattern matches bare FTS5 query operators that would otherwise
// change query semantics.
var ftsOperatorPattern = regexp.MustCompile(`\b(AND|OR|NOT|NEAR)\b`)

// ftsSpecialChars strips FTS5 syntax characters from user queries.
var ftsSpecialChars = strings.NewReplacer(
	`"`, " ",
	`'`, " ",
	`(`, " ",
	`)`, " ",
	`*`, " ",
	`:`, " ",
	`^`, " ",
	`-`, " ",
	`+`, " ",
	`{`, " ",
	`}`, " ",
	`[`, " ",
	`]`, " ",
)

// sanitizeFTSQuery turns arbitrary user text into a safe FTS5 MATCH
// expression: syntax characters become spaces, operator keywords are quoted
// so they match as terms, and the remaining tokens are implicitly ANDed.
// Returns "" when nothing queryable remains.
func sanitizeFTSQuery(query string) string {
	cleaned := ftsSpecialChars.Replace(query)
	cleaned = ftsOperatorPattern.ReplaceAllString(cleaned, `"$1"`)

	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return ""
	}
	return strings.Join(fields, " ")
}
