// Package storage implements the content-addressable file store backing the
// generation pipeline. Filenames are derived from a sha256 of the content,
// so storing identical bytes twice is a no-op that resolves to the existing
// file. Categories form a closed set, each bound to one directory.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cardforge/internal/platform/metrics"
	"cardforge/pkg/sentinel"
)

// Category selects the directory a file lives in. Unknown categories are a
// construction-time error, not a runtime default.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryPhoto    Category = "photo"
	CategoryTemp     Category = "temp"
)

// categoryDirs is the single source of truth for valid categories.
var categoryDirs = map[Category]string{
	CategoryDocument: "licenses",
	CategoryPhoto:    "photos",
	CategoryTemp:     "temp",
}

// ParseCategory constructs a Category from external input, enforcing the
// allowlist. Direct casting bypasses validation.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categoryDirs[c]; !ok {
		return "", fmt.Errorf("unknown storage category: %q", s)
	}
	return c, nil
}

// StoredFile describes the outcome of a Store call.
type StoredFile struct {
	// RelPath is the path relative to the store root; this is what gets
	// persisted and passed back to Read/Exists.
	RelPath string
	// URL is the public URL for the stored file.
	URL string
	// Deduplicated is true when the content already existed and no write
	// occurred.
	Deduplicated bool
}

// Stats summarizes store contents per category.
type Stats struct {
	Files map[Category]int
	Bytes map[Category]int64
}

// FileStore is the concrete content-addressable store. The dedup
// check-then-write is not atomic; concurrent stores of the same content can
// race harmlessly (same name, same bytes), but callers needing at-most-one
// generation per license must hold an external per-license lock.
type FileStore struct {
	baseDir string
	baseURL string
	metrics *metrics.Metrics
}

// NewFileStore creates the store root and one directory per category.
// metrics may be nil.
func NewFileStore(baseDir, baseURL string, m *metrics.Metrics) (*FileStore, error) {
	for _, dir := range categoryDirs {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}
	return &FileStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: m,
	}, nil
}

// ContentHash returns the hex sha256 of content; exposed so callers can
// name related files (original/processed photo pair) consistently.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Store writes content under its hash-derived name and returns the relative
// path and URL. The filename is <stem>_<hash16>.<ext>; if that file already
// exists no write occurs and Deduplicated is set. I/O errors surface
// immediately and are never retried here.
func (s *FileStore) Store(_ context.Context, content []byte, cat Category, stem, ext string) (StoredFile, error) {
	dir, ok := categoryDirs[cat]
	if !ok {
		return StoredFile{}, fmt.Errorf("unknown storage category: %q", cat)
	}
	name := fmt.Sprintf("%s_%s.%s", stem, ContentHash(content)[:16], strings.TrimPrefix(ext, "."))
	rel := filepath.Join(dir, name)
	abs := filepath.Join(s.baseDir, rel)

	if _, err := os.Stat(abs); err == nil {
		if s.metrics != nil {
			s.metrics.DedupHits.Inc()
		}
		return StoredFile{RelPath: rel, URL: s.URL(rel), Deduplicated: true}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return StoredFile{}, fmt.Errorf("stat %s: %w", rel, err)
	}

	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return StoredFile{}, fmt.Errorf("write %s: %w", rel, err)
	}
	return StoredFile{RelPath: rel, URL: s.URL(rel)}, nil
}

// Exists reports whether a previously returned relative path still resolves
// to a file.
func (s *FileStore) Exists(rel string) bool {
	info, err := os.Stat(filepath.Join(s.baseDir, rel))
	return err == nil && info.Mode().IsRegular()
}

// Read returns the content of a stored file. Missing files map to
// sentinel.ErrNotFound so callers can branch without string matching.
func (s *FileStore) Read(rel string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.baseDir, rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", rel, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return content, nil
}

// URL maps a relative path to its public URL.
func (s *FileStore) URL(rel string) string {
	return s.baseURL + "/" + filepath.ToSlash(rel)
}

// CleanupTemp removes temp files older than the cutoff. A file deleted by a
// concurrent sweep is not an error; other I/O failures abort the sweep.
func (s *FileStore) CleanupTemp(olderThan time.Duration) (int, error) {
	dir := filepath.Join(s.baseDir, categoryDirs[CategoryTemp])
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list temp dir: %w", err)
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("stat temp file %s: %w", entry.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove temp file %s: %w", entry.Name(), err)
		}
		removed++
	}
	s.countRemovals(CategoryTemp, removed)
	return removed, nil
}

// CleanupForEntity removes files in a category whose names start with the
// entity prefix, excluding the caller-supplied keep-list (matched by
// filename). Used to purge superseded license artifacts and photo assets.
func (s *FileStore) CleanupForEntity(cat Category, prefix string, exclude []string) (int, error) {
	dir, ok := categoryDirs[cat]
	if !ok {
		return 0, fmt.Errorf("unknown storage category: %q", cat)
	}
	keep := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		keep[filepath.Base(p)] = true
	}
	matches, err := filepath.Glob(filepath.Join(s.baseDir, dir, prefix+"*"))
	if err != nil {
		return 0, fmt.Errorf("glob %s: %w", prefix, err)
	}
	removed := 0
	for _, match := range matches {
		if keep[filepath.Base(match)] {
			continue
		}
		if err := os.Remove(match); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", filepath.Base(match), err)
		}
		removed++
	}
	s.countRemovals(cat, removed)
	return removed, nil
}

// Stats walks each category directory and totals file counts and sizes.
func (s *FileStore) Stats() (Stats, error) {
	stats := Stats{Files: map[Category]int{}, Bytes: map[Category]int64{}}
	for cat, dir := range categoryDirs {
		entries, err := os.ReadDir(filepath.Join(s.baseDir, dir))
		if err != nil {
			return Stats{}, fmt.Errorf("list %s dir: %w", cat, err)
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			stats.Files[cat]++
			stats.Bytes[cat] += info.Size()
		}
	}
	return stats, nil
}

func (s *FileStore) countRemovals(cat Category, n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.CleanupRemovals.WithLabelValues(string(cat)).Add(float64(n))
	}
}
