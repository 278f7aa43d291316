package materializer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

func TestWrite(t *testing.T) {
	out := t.TempDir()
	logger := diagnostics.NewCollector()

	written := Write(map[string][]byte{
		"OSGI-INF/b.xml": []byte("b"),
		"OSGI-INF/a.xml": []byte("a"),
	}, out, logger)

	assert.Equal(t, []string{
		filepath.Join(out, "OSGI-INF", "a.xml"),
		filepath.Join(out, "OSGI-INF", "b.xml"),
	}, written)
	data, err := os.ReadFile(filepath.Join(out, "OSGI-INF", "a.xml"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
	assert.False(t, logger.ErrorPrinted())
}

func TestWrite_Overwrites(t *testing.T) {
	out := t.TempDir()
	target := filepath.Join(out, "OSGI-INF", "c.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0755))
	require.NoError(t, os.WriteFile(target, []byte("<old/>\n"), 0644))

	logger := diagnostics.NewCollector()
	Write(map[string][]byte{"OSGI-INF/c.xml": []byte("<new/>\n")}, out, logger)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<new/>\n", string(data))

	debug := logger.ByLevel(diagnostics.LevelDebug)
	require.Len(t, debug, 1)
	assert.True(t, strings.HasPrefix(debug[0].Message, "Updating "+target))
	assert.Contains(t, debug[0].Message, "-<old/>")
	assert.Contains(t, debug[0].Message, "+<new/>")
}

func TestWrite_NoDiffWhenUnchangedOrDebugDisabled(t *testing.T) {
	out := t.TempDir()
	resources := map[string][]byte{"OSGI-INF/c.xml": []byte("same")}
	Write(resources, out, diagnostics.NewCollector())

	logger := diagnostics.NewCollector()
	Write(resources, out, logger)
	assert.Empty(t, logger.ByLevel(diagnostics.LevelDebug))

	quiet := diagnostics.NewCollectorAt(diagnostics.LevelInfo)
	Write(map[string][]byte{"OSGI-INF/c.xml": []byte("changed")}, out, quiet)
	assert.Empty(t, quiet.Entries())
}

func TestWrite_FailureDoesNotStopOthers(t *testing.T) {
	out := t.TempDir()
	// a directory where the file should go makes that write fail
	require.NoError(t, os.MkdirAll(filepath.Join(out, "OSGI-INF", "a.xml"), 0755))

	logger := diagnostics.NewCollector()
	written := Write(map[string][]byte{
		"OSGI-INF/a.xml": []byte("a"),
		"OSGI-INF/b.xml": []byte("b"),
	}, out, logger)

	assert.Equal(t, []string{filepath.Join(out, "OSGI-INF", "b.xml")}, written)
	errs := logger.ByLevel(diagnostics.LevelError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Cannot write "+filepath.Join(out, "OSGI-INF", "a.xml"), errs[0].Message)
	assert.Error(t, errs[0].Err)
}

func TestWrite_RejectsPathsOutsideDescriptorDir(t *testing.T) {
	out := t.TempDir()
	logger := diagnostics.NewCollector()

	written := Write(map[string][]byte{
		"META-INF/evil.xml":      []byte("x"),
		"OSGI-INF/../escape.xml": []byte("x"),
		"OSGI-INF/ok.xml":        []byte("x"),
	}, out, logger)

	assert.Equal(t, []string{filepath.Join(out, "OSGI-INF", "ok.xml")}, written)
	assert.Equal(t, 2, logger.Count(diagnostics.LevelWarn))
	assert.NoFileExists(t, filepath.Join(out, "escape.xml"))
}
