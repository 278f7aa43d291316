package analyzer

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/chilicat/scrbuild/internal/classpath"
	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

// openEntry is a classpath entry opened as a file system
type openEntry struct {
	entry  classpath.Entry
	fsys   fs.FS
	closer io.Closer
}

// Context owns the open classpath of one analysis. Directories are read
// through os.DirFS, archives through zip readers that stay open until Close.
type Context struct {
	entries []openEntry
	closed  bool
}

// Open opens every classpath entry. On failure the entries opened so far
// are closed again.
func Open(entries []classpath.Entry) (*Context, error) {
	c := &Context{}
	for _, e := range entries {
		switch e.Kind {
		case classpath.Directory:
			c.entries = append(c.entries, openEntry{entry: e, fsys: os.DirFS(e.Path)})
		case classpath.Archive:
			zr, err := zip.OpenReader(e.Path)
			if err != nil {
				_ = c.Close()
				return nil, screrrors.WrapFileSystemError("open archive", e.Path, err)
			}
			c.entries = append(c.entries, openEntry{entry: e, fsys: zr, closer: zr})
		default:
			_ = c.Close()
			return nil, screrrors.Newf(screrrors.ConfigurationErrorCode, "unknown classpath entry kind %d for %s", int(e.Kind), e.Path)
		}
	}
	return c, nil
}

// Close releases the open archives. Closing twice is a no-op.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for _, e := range c.entries {
		if e.closer == nil {
			continue
		}
		if err := e.closer.Close(); err != nil {
			errs = append(errs, screrrors.WrapFileSystemError("close archive", e.entry.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Entries returns the classpath entries in lookup order
func (c *Context) Entries() []classpath.Entry {
	out := make([]classpath.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.entry)
	}
	return out
}

// module returns the entry holding the analyzed classes
func (c *Context) module() (openEntry, bool) {
	for _, e := range c.entries {
		if e.entry.Module {
			return e, true
		}
	}
	return openEntry{}, false
}

// ModuleClasses lists the slash paths of every .class file of the module
// entry in lexical order. A classpath without module entry has no classes.
func (c *Context) ModuleClasses() ([]string, error) {
	if c.closed {
		return nil, screrrors.New(screrrors.AnalysisErrorCode, "analysis context is closed")
	}
	m, ok := c.module()
	if !ok {
		return nil, nil
	}

	var classes []string
	err := fs.WalkDir(m.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".class") {
			return nil
		}
		switch path.Base(p) {
		case "module-info.class", "package-info.class":
			return nil
		}
		classes = append(classes, p)
		return nil
	})
	if err != nil {
		return nil, screrrors.WrapFileSystemError("list classes", m.entry.Path, err)
	}
	return classes, nil
}

// ReadModule reads a file of the module entry by slash path
func (c *Context) ReadModule(name string) ([]byte, error) {
	m, ok := c.module()
	if !ok {
		return nil, fs.ErrNotExist
	}
	return fs.ReadFile(m.fsys, name)
}

// ReadClass reads the class with the given internal name from the first
// entry that has it. It returns an error wrapping fs.ErrNotExist when no
// entry does.
func (c *Context) ReadClass(internalName string) ([]byte, classpath.Entry, error) {
	if c.closed {
		return nil, classpath.Entry{}, screrrors.New(screrrors.AnalysisErrorCode, "analysis context is closed")
	}
	name := internalName + ".class"
	for _, e := range c.entries {
		data, err := fs.ReadFile(e.fsys, name)
		if err == nil {
			return data, e.entry, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, e.entry, screrrors.WrapFileSystemError("read class", e.entry.Path+"!"+name, err)
		}
	}
	return nil, classpath.Entry{}, fmt.Errorf("class %s: %w", internalName, fs.ErrNotExist)
}
