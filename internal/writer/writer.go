package writer

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxPathLen is the longest output path written as-is. Longer paths get a
// hash-truncated filename; some filesystems and sync tools break well
// before the kernel limit.
const maxPathLen = 250

// ErrPathEscapesRoot is returned when a computed path would land outside
// the output directory.
var ErrPathEscapesRoot = errors.New("output path escapes the output directory")

// Writer persists markdown files under a single output root.
type Writer struct {
	root string
}

// New creates a Writer rooted at dir, creating it if needed.
func New(dir string) (*Writer, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{root: abs}, nil
}

// Root returns the absolute output root.
func (w *Writer) Root() string {
	return w.root
}

// Save writes content to relPath under the output root and returns the
// relative path actually used, forward slashes.
//
// An existing file with the same content is reused as-is. A name taken by
// different content gets a _1.._99 suffix. Paths longer than the limit are
// rewritten to a hash-truncated filename. The write itself is atomic.
func (w *Writer) Save(relPath, content string) (string, error) {
	relPath = filepath.ToSlash(relPath)

	abs, err := w.securePath(relPath)
	if err != nil {
		return "", err
	}

	if len(abs) > maxPathLen {
		relPath = hashTruncate(relPath)
		if abs, err = w.securePath(relPath); err != nil {
			return "", err
		}
	}

	finalRel, finalAbs, err := w.resolveCollision(relPath, abs, content)
	if err != nil {
		return "", err
	}
	if finalAbs == "" {
		// Identical file already on disk.
		return finalRel, nil
	}

	if err := os.MkdirAll(filepath.Dir(finalAbs), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", finalRel, err)
	}
	if err := atomicWrite(finalAbs, []byte(content)); err != nil {
		return "", err
	}
	return finalRel, nil
}

// securePath joins relPath to the root and rejects traversal.
func (w *Writer) securePath(relPath string) (string, error) {
	abs := filepath.Join(w.root, filepath.FromSlash(relPath))
	if abs != w.root && !strings.HasPrefix(abs, w.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", relPath, ErrPathEscapesRoot)
	}
	return abs, nil
}

// resolveCollision finds a free name for content. Returns the relative and
// absolute paths to write, or an empty absolute path when an identical
// file already exists.
func (w *Writer) resolveCollision(relPath, abs, content string) (string, string, error) {
	candidateRel, candidateAbs := relPath, abs

	for i := 0; i < 100; i++ {
		existing, err := os.ReadFile(candidateAbs)
		if errors.Is(err, os.ErrNotExist) {
			return candidateRel, candidateAbs, nil
		}
		if err != nil {
			return "", "", fmt.Errorf("failed to check existing file %s: %w", candidateRel, err)
		}
		if strings.TrimSpace(string(existing)) == strings.TrimSpace(content) {
			return candidateRel, "", nil
		}

		ext := filepath.Ext(relPath)
		base := strings.TrimSuffix(relPath, ext)
		candidateRel = fmt.Sprintf("%s_%d%s", base, i+1, ext)
		var serr error
		if candidateAbs, serr = w.securePath(candidateRel); serr != nil {
			return "", "", serr
		}
	}
	return "", "", fmt.Errorf("no free filename for %s after 99 suffixes", relPath)
}

// hashTruncate shortens a path's filename, keeping the directory and
// appending a content-stable hash of the full name for uniqueness.
func hashTruncate(relPath string) string {
	dir := filepath.ToSlash(filepath.Dir(relPath))
	name := strings.TrimSuffix(filepath.Base(relPath), ".md")

	sum := md5.Sum([]byte(name))
	short := name
	if len(short) > 60 {
		short = strings.TrimRight(short[:60], ". ")
	}
	truncated := fmt.Sprintf("%s-%s.md", short, hex.EncodeToString(sum[:])[:8])
	if dir == "." {
		return truncated
	}
	return dir + "/" + truncated
}

// atomicWrite writes data through a temp file in the target directory,
// fsyncs, and renames into place.
func atomicWrite(absPath string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".docmirror-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, absPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
