package sourcemap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/classfile"
)

const fooSource = `package com.acme;

import org.apache.felix.scr.annotations.*;

@Component
@Service
public class FooService implements Api {

    @Reference(bind = "setRef")
    private Ref ref;

    public FooService() {
    }

    @Activate
    protected void start() {
    }

    static class Helper {
        void help() {}
    }
}
`

func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLocator_FindsDeclarations(t *testing.T) {
	root := t.TempDir()
	path := writeSource(t, root, "com/acme/FooService.java", fooSource)

	class := &classfile.Class{Name: "com/acme/FooService", SourceFile: "FooService.java"}
	l := NewLocator([]string{t.TempDir(), root})
	ctx := context.Background()

	loc := l.Class(ctx, class)
	assert.Equal(t, path, loc.File)
	assert.Equal(t, 5, loc.Line)
	assert.Equal(t, 1, loc.Column)

	assert.Equal(t, 9, l.Field(ctx, class, "ref").Line)
	assert.Equal(t, 15, l.Method(ctx, class, "start").Line)

	// unknown members fall back to the class declaration
	assert.Equal(t, 5, l.Method(ctx, class, "setRef").Line)

	nested := &classfile.Class{Name: "com/acme/FooService$Helper", SourceFile: "FooService.java"}
	assert.Equal(t, 19, l.Class(ctx, nested).Line)
	assert.Equal(t, 20, l.Method(ctx, nested, "help").Line)

	assert.Equal(t, 1, l.cache.size(), "the file is parsed once")
}

func TestLocator_FallsBackToClassFileData(t *testing.T) {
	class := &classfile.Class{
		Name:       "com/acme/Gone",
		SourceFile: "Gone.java",
		Methods:    []classfile.Method{{Name: "bind", Descriptor: "()V", Line: 42}},
	}
	l := NewLocator(nil)

	loc := l.Method(context.Background(), class, "bind")
	assert.Equal(t, "com/acme/Gone.java", loc.File)
	assert.Equal(t, 42, loc.Line)

	assert.Equal(t, 0, l.Class(context.Background(), class).Line)
}

func TestLocator_ReparsesChangedFile(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "Plain.java", "class Plain {\n}\n")
	class := &classfile.Class{Name: "Plain"}
	l := NewLocator([]string{root})

	assert.Equal(t, 1, l.Class(context.Background(), class).Line)

	writeSource(t, root, "Plain.java", "// moved down\n\n\nclass Plain {\n}\n")
	assert.Equal(t, 4, l.Class(context.Background(), class).Line)
}

func TestSourcePath(t *testing.T) {
	assert.Equal(t, "com/acme/Foo.java", SourcePath(&classfile.Class{Name: "com/acme/Foo"}))
	assert.Equal(t, "com/acme/Foo.java", SourcePath(&classfile.Class{Name: "com/acme/Foo$1"}))
	assert.Equal(t, "Bar.java", SourcePath(&classfile.Class{Name: "Bar", SourceFile: "Bar.java"}))
}
