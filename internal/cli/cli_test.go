package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/classfile"
	cft "github.com/chilicat/scrbuild/internal/classfile/classfiletest"
	"github.com/chilicat/scrbuild/internal/settings"
)

func fooService() *classfile.Class {
	c := cft.Class("FooService", cft.Felix("Component"), cft.Felix("Service"))
	c.Interfaces = []string{"com/acme/Api"}
	return c
}

func brokenReference() *classfile.Class {
	c := cft.Class("com/acme/Broken", cft.Felix("Component"))
	c.Fields = []classfile.Field{
		cft.Field("ref", "Lcom/acme/Ref;", cft.Felix("Reference", cft.El("bind", classfile.StringValue("setRef")))),
	}
	return c
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := New()
	cmd.SetArgs(append(args, "--no-color"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBuild_OutputDirectory(t *testing.T) {
	out := t.TempDir()
	cft.Write(t, out, fooService())

	stdout, stderr, err := run(t, "build", "-o", out, "--module", "foo")
	require.NoError(t, err, stderr)

	assert.FileExists(t, filepath.Join(out, "OSGI-INF", "FooService.xml"))
	assert.Contains(t, stdout, "foo")
	assert.Contains(t, stdout, "ok")
	assert.Contains(t, strings.ToUpper(stdout), "COMPONENTS")
}

func TestBuild_QuietSkipsSummary(t *testing.T) {
	out := t.TempDir()
	cft.Write(t, out, fooService())

	stdout, _, err := run(t, "build", "-o", out, "--quiet")
	require.NoError(t, err)
	assert.NotContains(t, strings.ToUpper(stdout), "COMPONENTS")
}

func TestBuild_FailedModule(t *testing.T) {
	out := t.TempDir()
	cft.Write(t, out, brokenReference())

	stdout, stderr, err := run(t, "build", "-o", out, "--module", "broken")
	require.ErrorIs(t, err, ErrBuildFailed)
	assert.Contains(t, stdout+stderr, "Missing method setRef for reference ref in class com.acme.Broken")
	assert.Contains(t, stdout, "failed")
}

func TestBuild_ProjectFile(t *testing.T) {
	dir := t.TempDir()
	cft.Write(t, filepath.Join(dir, "core", "classes"), fooService())
	cft.Write(t, filepath.Join(dir, "api", "classes"), fooService())

	project := `settings:
  specVersion: "1.1"
modules:
  - name: core
    output: core/classes
  - name: api
    output: api/classes
`
	path := filepath.Join(dir, settings.ProjectFile)
	require.NoError(t, os.WriteFile(path, []byte(project), 0644))

	_, stderr, err := run(t, "build", "-p", path, "core")
	require.NoError(t, err, stderr)

	assert.FileExists(t, filepath.Join(dir, "core", "classes", "OSGI-INF", "FooService.xml"))
	assert.NoFileExists(t, filepath.Join(dir, "api", "classes", "OSGI-INF", "FooService.xml"))
}

func TestBuild_UnknownModule(t *testing.T) {
	out := t.TempDir()
	_, _, err := run(t, "build", "-o", out, "--module", "foo", "bar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown module "bar"`)
}

func TestBuild_MissingProjectFile(t *testing.T) {
	_, _, err := run(t, "build", "-p", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")
}

func TestBuild_InvalidSpecFlag(t *testing.T) {
	_, _, err := run(t, "build", "-o", t.TempDir(), "--spec", "9.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported spec version")
}

func TestBuild_MetricsTextfile(t *testing.T) {
	out := t.TempDir()
	cft.Write(t, out, fooService())
	textfile := filepath.Join(t.TempDir(), "scrbuild.prom")

	_, stderr, err := run(t, "build", "-o", out, "--module", "metrics", "--metrics-textfile", textfile)
	require.NoError(t, err, stderr)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scrbuild_builds_total{module="metrics",success="true"}`)
}

func TestBuild_JSONLogging(t *testing.T) {
	out := t.TempDir()
	cft.Write(t, out, fooService())

	_, stderr, err := run(t, "build", "-o", out, "--module", "foo", "--logformat", "json", "--loglevel", "debug")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		assert.Equal(t, "foo", entry["module"])
	}
	assert.Contains(t, stderr, "Class dir")
}

func TestBuild_InvalidLogFormat(t *testing.T) {
	_, _, err := run(t, "build", "-o", t.TempDir(), "--logformat", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown log format "xml"`)
}

func TestClean(t *testing.T) {
	out := t.TempDir()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "OSGI-INF"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "OSGI-INF"), 0755))
	stale := filepath.Join(out, "OSGI-INF", "Stale.xml")
	manual := filepath.Join(out, "OSGI-INF", "Manual.xml")
	require.NoError(t, os.WriteFile(stale, []byte("<a/>"), 0644))
	require.NoError(t, os.WriteFile(manual, []byte("<a/>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "OSGI-INF", "Manual.xml"), []byte("<a/>"), 0644))

	stdout, stderr, err := run(t, "clean", "-o", out, "--source", src)
	require.NoError(t, err, stderr)

	assert.Contains(t, stdout, stale)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, manual)
}

func TestSettings_Print(t *testing.T) {
	out := t.TempDir()
	stdout, _, err := run(t, "settings", "-o", out, "--module", "foo", "--strict=false", "--spec", "1.2")
	require.NoError(t, err)

	assert.Contains(t, stdout, "strictMode: false")
	assert.Contains(t, stdout, `specVersion: "1.2"`)
	assert.Contains(t, stdout, "name: foo")
}

func TestSettings_Module(t *testing.T) {
	out := t.TempDir()
	stdout, _, err := run(t, "settings", "-o", out, "--module", "foo", "foo")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "foo:\n"), stdout)
	assert.Contains(t, stdout, "manifestPolicy: Overwrite")
}

func TestSettings_Save(t *testing.T) {
	out := t.TempDir()
	path := filepath.Join(t.TempDir(), settings.ProjectFile)

	_, _, err := run(t, "settings", "-o", out, "--module", "foo", "--optimized=false", "--save", path)
	require.NoError(t, err)

	project, err := settings.LoadProject(path)
	require.NoError(t, err)
	assert.False(t, project.Settings.OptimizedBuild)
	require.Len(t, project.Modules, 1)
	assert.Equal(t, "foo", project.Modules[0].Name)
	assert.Equal(t, out, project.Modules[0].Output)
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(stdout))

	old := BuildVersion
	BuildVersion = "1.2.3"
	t.Cleanup(func() { BuildVersion = old })

	stdout, _, err = run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", stdout)
}

func TestErrorMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), settings.ProjectFile)
	require.NoError(t, os.WriteFile(path, []byte("modules: [\n"), 0644))

	_, _, err := run(t, "settings", "-p", path)
	require.Error(t, err)
	msg := errorMessage(err)
	assert.Contains(t, msg, "failed to parse configuration")
	assert.Contains(t, msg, "(config_type="+path+", operation=parse)")

	assert.Equal(t, "plain", errorMessage(errors.New("plain")))
}

func TestSelectModules(t *testing.T) {
	p := &settings.Project{Modules: []settings.Module{{Name: "a"}, {Name: "b"}}}

	all, err := selectModules(p, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := selectModules(p, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []settings.Module{{Name: "b"}}, one)
}
