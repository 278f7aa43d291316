// Package classpath assembles the ordered list of archives and directories
// the analyzer resolves classes against.
package classpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

// Kind tells how an entry is opened
type Kind int

const (
	// Directory is a tree of .class files
	Directory Kind = iota
	// Archive is a jar or zip file
	Archive
)

// String returns the string representation of the kind
func (k Kind) String() string {
	if k == Archive {
		return "archive"
	}
	return "directory"
}

// Entry is a resolved, existing classpath element
type Entry struct {
	Path string
	Kind Kind
	// Module marks the entry holding the classes being analyzed
	Module bool
}

// String returns "path (kind)"
func (e Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.Path, e.Kind)
}

// Build returns the analysis classpath for a module.
//
// The compiled output directory comes first when it is a directory. The
// extra paths follow in caller order; duplicates keep their first position
// and paths that do not exist are skipped with one warning each.
func Build(outputDir string, extraPaths []string, logger diagnostics.Logger) []Entry {
	var entries []Entry
	seen := make(map[string]bool)

	if outputDir != "" {
		key := normalize(outputDir)
		if info, err := os.Stat(outputDir); err == nil && info.IsDir() {
			entries = append(entries, Entry{Path: key, Kind: Directory, Module: true})
		}
		seen[key] = true
	}

	for _, path := range Dedupe(extraPaths) {
		key := normalize(path)
		if seen[key] {
			continue
		}
		seen[key] = true

		info, err := os.Stat(path)
		if err != nil {
			logger.Warn(fmt.Sprintf("Path %s does not exist", key))
			continue
		}

		kind := Archive
		if info.IsDir() {
			kind = Directory
		}
		entries = append(entries, Entry{Path: key, Kind: kind})
	}

	if logger.Enabled(diagnostics.LevelDebug) {
		for i, e := range entries {
			logger.Debug(fmt.Sprintf("Classpath[%d]: %s", i, e))
		}
	}

	return entries
}

// Dedupe removes empty and repeated paths, keeping first occurrences in order
func Dedupe(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := normalize(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// normalize returns the absolute, cleaned form of path used as identity
func normalize(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
