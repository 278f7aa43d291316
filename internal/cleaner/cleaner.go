// Package cleaner removes component descriptors left over from earlier builds.
package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

// DescriptorDir is the bundle directory holding component descriptors
const DescriptorDir = "OSGI-INF"

// descriptorPattern matches the descriptors directly inside DescriptorDir
const descriptorPattern = "*.xml"

// Cleaner handles cleaning up generated descriptors
type Cleaner struct {
	logger diagnostics.Logger
}

// NewCleaner creates a new cleaner
func NewCleaner(logger diagnostics.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean removes the stale descriptors of outputDir. See Cleaner.Clean.
func Clean(outputDir string, sourceRoots []string, logger diagnostics.Logger) []string {
	return NewCleaner(logger).Clean(outputDir, sourceRoots)
}

// Clean deletes every OSGI-INF/*.xml file of outputDir unless a file with
// the same name exists in OSGI-INF of one of the source roots. Those are
// copied in by the resource build and belong to the user. Failures to delete
// are warnings. The removed paths are returned in sorted order.
func (c *Cleaner) Clean(outputDir string, sourceRoots []string) []string {
	preserve := c.preserved(sourceRoots)
	if len(preserve) > 0 {
		diagnostics.Debugf(c.logger, "Preserving descriptors from source roots: %s", strings.Join(sortedKeys(preserve), ", "))
	}

	dir := filepath.Join(outputDir, DescriptorDir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), descriptorPattern)
	if err != nil {
		c.logger.Warn(fmt.Sprintf("Cannot list descriptors in %s", dir), diagnostics.Cause(err))
		return nil
	}
	sort.Strings(matches)

	var removed []string
	for _, name := range matches {
		if preserve[name] {
			continue
		}
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			continue
		}
		if err := os.Remove(path); err != nil {
			c.logger.Warn(fmt.Sprintf("Cannot delete %s", path), diagnostics.Cause(err))
			continue
		}
		diagnostics.Debugf(c.logger, "Deleted %s", path)
		removed = append(removed, path)
	}
	return removed
}

// preserved returns the file names found in OSGI-INF of any source root
func (c *Cleaner) preserved(sourceRoots []string) map[string]bool {
	preserve := make(map[string]bool)
	for _, root := range sourceRoots {
		entries, err := os.ReadDir(filepath.Join(root, DescriptorDir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				preserve[e.Name()] = true
			}
		}
	}
	return preserve
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
