// Package materializer writes generated descriptors into the output directory.
package materializer

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"

	"github.com/chilicat/scrbuild/internal/diagnostics"
	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

// resourcePrefix is the only bundle directory the materializer writes to
const resourcePrefix = "OSGI-INF/"

// diffContext is the number of context lines in debug diffs
const diffContext = 3

// Write stores each resource at <outputDir>/<path>, overwriting existing
// files, in sorted path order. A failed resource is logged as an error and
// the rest are still written. The written file paths are returned.
func Write(resources map[string][]byte, outputDir string, logger diagnostics.Logger) []string {
	paths := make([]string, 0, len(resources))
	for p := range resources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var written []string
	for _, p := range paths {
		if !isDescriptorPath(p) {
			logger.Warn(fmt.Sprintf("Resource %s is outside %s and was not written", p, resourcePrefix))
			continue
		}
		target := filepath.Join(outputDir, filepath.FromSlash(p))
		if err := writeFile(target, resources[p], logger); err != nil {
			logger.Error(fmt.Sprintf("Cannot write %s", target), diagnostics.Cause(err))
			continue
		}
		written = append(written, target)
	}
	return written
}

// isDescriptorPath accepts clean relative paths below OSGI-INF/
func isDescriptorPath(p string) bool {
	return strings.HasPrefix(p, resourcePrefix) && path.Clean(p) == p && !strings.Contains(p, "..")
}

func writeFile(target string, data []byte, logger diagnostics.Logger) error {
	if logger.Enabled(diagnostics.LevelDebug) {
		if old, err := os.ReadFile(target); err == nil && !bytes.Equal(old, data) {
			logger.Debug(fmt.Sprintf("Updating %s\n%s", target, unified(target, old, data)))
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return screrrors.WrapFileSystemError("create directory for", target, err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return screrrors.WrapFileSystemError("write", target, err)
	}
	return nil
}

// unified renders a unified diff of a descriptor update
func unified(name string, old, new []byte) string {
	s, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(old)),
		B:        difflib.SplitLines(string(new)),
		FromFile: "a/" + filepath.Base(name),
		ToFile:   "b/" + filepath.Base(name),
		Context:  diffContext,
	})
	if err != nil {
		return fmt.Sprintf("(diff unavailable: %v)", err)
	}
	return s
}
