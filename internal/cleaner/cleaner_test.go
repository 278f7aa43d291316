package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<components/>"), 0644))
}

func TestClean_RemovesGeneratedKeepsPreserved(t *testing.T) {
	out := t.TempDir()
	src := t.TempDir()

	touch(t, filepath.Join(out, "OSGI-INF", "Generated.xml"))
	touch(t, filepath.Join(out, "OSGI-INF", "Manual.xml"))
	touch(t, filepath.Join(out, "OSGI-INF", "notes.txt"))
	touch(t, filepath.Join(out, "OSGI-INF", "nested", "Deep.xml"))
	touch(t, filepath.Join(src, "OSGI-INF", "Manual.xml"))

	logger := diagnostics.NewCollector()
	removed := Clean(out, []string{src}, logger)

	assert.Equal(t, []string{filepath.Join(out, "OSGI-INF", "Generated.xml")}, removed)
	assert.NoFileExists(t, filepath.Join(out, "OSGI-INF", "Generated.xml"))
	assert.FileExists(t, filepath.Join(out, "OSGI-INF", "Manual.xml"))
	assert.FileExists(t, filepath.Join(out, "OSGI-INF", "notes.txt"))
	assert.FileExists(t, filepath.Join(out, "OSGI-INF", "nested", "Deep.xml"))
	assert.False(t, logger.ErrorPrinted())
	assert.Equal(t, 0, logger.Count(diagnostics.LevelWarn))
}

func TestClean_PreserveSetIsUnionOfSourceRoots(t *testing.T) {
	out := t.TempDir()
	a, b := t.TempDir(), t.TempDir()
	for _, name := range []string{"A.xml", "B.xml", "C.xml"} {
		touch(t, filepath.Join(out, "OSGI-INF", name))
	}
	touch(t, filepath.Join(a, "OSGI-INF", "A.xml"))
	touch(t, filepath.Join(b, "OSGI-INF", "B.xml"))

	removed := Clean(out, []string{a, b, filepath.Join(t.TempDir(), "missing")}, diagnostics.NewCollector())

	assert.Equal(t, []string{filepath.Join(out, "OSGI-INF", "C.xml")}, removed)
	assert.FileExists(t, filepath.Join(out, "OSGI-INF", "A.xml"))
	assert.FileExists(t, filepath.Join(out, "OSGI-INF", "B.xml"))
}

func TestClean_MissingDescriptorDirectory(t *testing.T) {
	logger := diagnostics.NewCollector()
	removed := NewCleaner(logger).Clean(t.TempDir(), nil)

	assert.Empty(t, removed)
	assert.Empty(t, logger.Entries())
}

func TestClean_LogsEachDeletion(t *testing.T) {
	out := t.TempDir()
	src := t.TempDir()
	touch(t, filepath.Join(out, "OSGI-INF", "Gone.xml"))
	touch(t, filepath.Join(src, "OSGI-INF", "Kept.xml"))

	logger := diagnostics.NewCollector()
	Clean(out, []string{src}, logger)

	var debug []string
	for _, d := range logger.ByLevel(diagnostics.LevelDebug) {
		debug = append(debug, d.Message)
	}
	assert.Equal(t, []string{
		"Preserving descriptors from source roots: Kept.xml",
		"Deleted " + filepath.Join(out, "OSGI-INF", "Gone.xml"),
	}, debug)
}
