// Package legacy removes files written by the file-based deployment that
// predates the database: one JSON document per wishlist plus a directory
// of reply files.
package legacy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type Cleaner struct {
	dir string
}

func NewCleaner(dir string) *Cleaner {
	return &Cleaner{dir: dir}
}

// Remove deletes <dir>/wishlists/<id>.json and <dir>/responses/<id>/.
// Missing files are not an error.
func (c *Cleaner) Remove(_ context.Context, wishlistID string) error {
	if wishlistID == "" || wishlistID != filepath.Base(wishlistID) || strings.ContainsAny(wishlistID, `/\`) || strings.HasPrefix(wishlistID, ".") {
		return fmt.Errorf("refusing to clean artifacts for id %q", wishlistID)
	}

	var errList []error
	doc := filepath.Join(c.dir, "wishlists", wishlistID+".json")
	if err := os.Remove(doc); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errList = append(errList, fmt.Errorf("remove %s: %w", doc, err))
	}

	replies := filepath.Join(c.dir, "responses", wishlistID)
	if err := os.RemoveAll(replies); err != nil {
		errList = append(errList, fmt.Errorf("remove %s: %w", replies, err))
	}

	return errors.Join(errList...)
}
