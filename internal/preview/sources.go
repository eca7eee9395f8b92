package preview

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// SourceTracker remembers the modification time of every documentation
// source and reports the files that appeared or changed since the last scan.
type SourceTracker struct {
	root         string
	buildDirName string
	patterns     []string
	unmanaged    []string

	seen     map[string]time.Time
	baseline bool
}

// NewSourceTracker tracks files below root that match one of patterns.
// buildDirName is excluded. Files whose path contains one of unmanaged are
// recorded once and never reported.
func NewSourceTracker(root, buildDirName string, patterns, unmanaged []string) *SourceTracker {
	return &SourceTracker{
		root:         root,
		buildDirName: buildDirName,
		patterns:     patterns,
		unmanaged:    unmanaged,
		seen:         map[string]time.Time{},
	}
}

// Scan walks the source tree. The first scan records a baseline and reports
// nothing; later scans return the new or modified files in lexical order.
func (t *SourceTracker) Scan() ([]string, error) {
	var changed []string
	err := filepath.WalkDir(t.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == t.root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != t.root && t.skipDir(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if shouldIgnoreEvent(path) || !t.matches(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if t.touched(path, info.ModTime()) {
			changed = append(changed, path)
		}
		return nil
	})
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "scan sources").
			WithContext("path", t.root).Build()
	}
	if !t.baseline {
		t.baseline = true
		return nil, nil
	}
	return changed, nil
}

// touched records mtime and reports whether path is new or newer.
func (t *SourceTracker) touched(path string, mtime time.Time) bool {
	prev, known := t.seen[path]
	if t.isUnmanaged(path) {
		if !known {
			t.seen[path] = mtime
		}
		return false
	}
	if known && !mtime.After(prev) {
		return false
	}
	t.seen[path] = mtime
	return true
}

func (t *SourceTracker) skipDir(path, name string) bool {
	if strings.HasPrefix(name, ".") || name == "__pycache__" {
		return true
	}
	return filepath.Dir(path) == t.root && name == t.buildDirName
}

func (t *SourceTracker) matches(name string) bool {
	return slices.ContainsFunc(t.patterns, func(p string) bool {
		ok, _ := filepath.Match(p, name)
		return ok
	})
}

func (t *SourceTracker) isUnmanaged(path string) bool {
	return slices.ContainsFunc(t.unmanaged, func(u string) bool {
		return u != "" && strings.Contains(path, u)
	})
}

// shouldIgnoreEvent returns true for editor and OS artifacts that must not
// trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Ignore hidden files
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Ignore editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
