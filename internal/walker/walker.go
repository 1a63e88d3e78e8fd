// Package walker discovers product documents under an input directory.
// Traversal order is deterministic (lexicographic relative path) so that
// fusion's first-occurrence tie-breaking is reproducible across runs.
package walker

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest document considered (10 MB).
const DefaultMaxFileSize int64 = 10 << 20

// DocumentExtensions are the formats the document parser understands.
var DocumentExtensions = []string{".pdf", ".docx", ".doc", ".txt", ".html", ".htm", ".md", ".markdown"}

// FileInfo describes one discovered document.
type FileInfo struct {
	Path    string // Absolute path on disk.
	RelPath string // Slash-separated path relative to the root.
	Size    int64  // File size in bytes.
}

// Config controls the Walk function.
type Config struct {
	RootDir     string   // Directory to scan.
	Include     []string // Glob patterns; empty means everything.
	Exclude     []string // Glob patterns; matching files are skipped.
	Extensions  []string // Allowed extensions (defaults to DocumentExtensions).
	MaxFileSize int64    // Larger files are skipped (0 = default).
}

// Walk returns every matching document under cfg.RootDir in
// lexicographic order. Unreadable entries are skipped rather than
// aborting the traversal.
func Walk(cfg Config) ([]FileInfo, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = DocumentExtensions
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if !hasExtension(d.Name(), extensions) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		relSlash := filepath.ToSlash(relPath)

		if !matchesInclude(relSlash, cfg.Include) || matchesAny(relSlash, cfg.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		files = append(files, FileInfo{Path: path, RelPath: relSlash, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func matchesInclude(relPath string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	return matchesAny(relPath, patterns)
}

func matchesAny(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
