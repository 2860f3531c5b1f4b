package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/memgrep/memgrep/internal/storage"
	"github.com/memgrep/memgrep/pkg/types"
)

// HashText computes the whole-document hash used for change detection.
func HashText(text string) [32]byte {
	return sha256.Sum256([]byte(text))
}

// HashFile computes the change-detection hash of a file by streaming its
// contents.
func HashFile(path string) ([32]byte, error) {
	var hash [32]byte

	f, err := os.Open(path)
	if err != nil {
		return hash, fmt.Errorf("%w: %s: %v", types.ErrSourceUnavailable, path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return hash, fmt.Errorf("%w: %s: %v", types.ErrSourceUnavailable, path, err)
	}

	copy(hash[:], h.Sum(nil))
	return hash, nil
}

// ShouldReindex decides whether a source needs a fresh index pass. The check
// never mutates the store: a positive answer only becomes durable when the
// pass completes and the document record is written.
//
// A source is reindexed when it has never been seen, when force is set, or
// when its hash differs from the stored one.
func ShouldReindex(ctx context.Context, store storage.Store, sourceID string, hash [32]byte, force bool) (bool, error) {
	if force {
		return true, nil
	}

	doc, err := store.GetDocument(ctx, sourceID)
	if errors.Is(err, storage.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return doc.FileHash != hash, nil
}
