package classpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

func TestBuild_OrderAndDedupe(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "classes")
	libDir := filepath.Join(dir, "lib-classes")
	jar := filepath.Join(dir, "api.jar")
	require.NoError(t, os.MkdirAll(out, 0755))
	require.NoError(t, os.MkdirAll(libDir, 0755))
	require.NoError(t, os.WriteFile(jar, []byte("PK"), 0644))

	logger := diagnostics.NewCollector()
	entries := Build(out, []string{jar, libDir, jar, out, filepath.Join(libDir, ".")}, logger)

	want := []Entry{
		{Path: out, Kind: Directory, Module: true},
		{Path: jar, Kind: Archive},
		{Path: libDir, Kind: Directory},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, logger.ByLevel(diagnostics.LevelWarn))
}

func TestBuild_MissingEntryWarnsOnce(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "classes")
	require.NoError(t, os.MkdirAll(out, 0755))
	missing := filepath.Join(dir, "nope.jar")

	logger := diagnostics.NewCollector()
	entries := Build(out, []string{missing, missing}, logger)

	require.Len(t, entries, 1)
	assert.Equal(t, out, entries[0].Path)

	warnings := logger.ByLevel(diagnostics.LevelWarn)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Path "+missing+" does not exist", warnings[0].Message)
	assert.False(t, logger.ErrorPrinted(), "a missing entry is not a build error")
}

func TestBuild_OutputDirNotADirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "missing-classes")

	entries := Build(out, nil, diagnostics.NewCollector())
	assert.Empty(t, entries)
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"a", "", " b ", "a", "./a", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
