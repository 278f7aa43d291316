// Package sourcemap maps classes and their members back to lines in the
// Java sources, so diagnostics can point at the annotation that caused them.
package sourcemap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/chilicat/scrbuild/internal/classfile"
	"github.com/chilicat/scrbuild/internal/diagnostics"
)

// Position is a 1-based line and column
type Position struct {
	Line   int
	Column int
}

// FileIndex holds the declaration positions found in one source file.
// Keys use the nested-class form of the class file: Outer$Inner.
type FileIndex struct {
	Path    string
	Classes map[string]Position
	Methods map[string]Position // "Outer$Inner#method", first overload wins
	Fields  map[string]Position // "Outer$Inner#field"
}

func newFileIndex(path string) *FileIndex {
	return &FileIndex{
		Path:    path,
		Classes: make(map[string]Position),
		Methods: make(map[string]Position),
		Fields:  make(map[string]Position),
	}
}

// Locator resolves locations against a set of source roots
type Locator struct {
	roots []string
	cache *fileCache[*FileIndex]

	mu     sync.Mutex // guards parser, which is not safe for concurrent use
	parser *sitter.Parser
}

// NewLocator creates a locator over the given source roots
func NewLocator(roots []string) *Locator {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Locator{
		roots:  roots,
		cache:  newFileCache[*FileIndex](),
		parser: p,
	}
}

// Class returns the location of the class declaration
func (l *Locator) Class(ctx context.Context, c *classfile.Class) diagnostics.Location {
	return l.locate(ctx, c, func(idx *FileIndex, key string) (Position, bool) {
		pos, ok := idx.Classes[key]
		return pos, ok
	}, 0)
}

// Method returns the location of the first method with the given name
func (l *Locator) Method(ctx context.Context, c *classfile.Class, name string) diagnostics.Location {
	fallback := 0
	if methods := c.MethodsNamed(name); len(methods) > 0 {
		fallback = methods[0].Line
	}
	return l.locate(ctx, c, func(idx *FileIndex, key string) (Position, bool) {
		pos, ok := idx.Methods[key+"#"+name]
		return pos, ok
	}, fallback)
}

// Field returns the location of the field with the given name
func (l *Locator) Field(ctx context.Context, c *classfile.Class, name string) diagnostics.Location {
	return l.locate(ctx, c, func(idx *FileIndex, key string) (Position, bool) {
		pos, ok := idx.Fields[key+"#"+name]
		return pos, ok
	}, 0)
}

// locate finds the source file of c and looks the declaration up in its
// index. Without a source file the location falls back to the class file's
// SourceFile attribute and the given line.
func (l *Locator) locate(ctx context.Context, c *classfile.Class, find func(*FileIndex, string) (Position, bool), fallbackLine int) diagnostics.Location {
	rel := SourcePath(c)
	key := c.SimpleName()

	for _, root := range l.roots {
		path := filepath.Join(root, filepath.FromSlash(rel))
		idx, err := l.index(ctx, path)
		if err != nil {
			continue
		}
		if pos, ok := find(idx, key); ok {
			return diagnostics.Location{File: path, Line: pos.Line, Column: pos.Column}
		}
		if pos, ok := idx.Classes[key]; ok {
			return diagnostics.Location{File: path, Line: pos.Line, Column: pos.Column}
		}
		return diagnostics.Location{File: path, Line: fallbackLine}
	}

	return diagnostics.Location{File: rel, Line: fallbackLine}
}

// SourcePath returns the slash-separated path of the class's source file
// relative to a source root, e.g. com/acme/FooService.java
func SourcePath(c *classfile.Class) string {
	file := c.SourceFile
	if file == "" {
		outer := c.SimpleName()
		if i := strings.IndexByte(outer, '$'); i >= 0 {
			outer = outer[:i]
		}
		file = outer + ".java"
	}
	if pkg := c.Package(); pkg != "" {
		return pkg + "/" + file
	}
	return file
}

// index parses path, reusing the cached index while the file is unchanged
func (l *Locator) index(ctx context.Context, path string) (*FileIndex, error) {
	if idx, ok := l.cache.get(path); ok {
		return idx, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	idx, err := l.parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	_ = l.cache.set(path, idx)
	return idx, nil
}

// parse indexes Java source content without touching the cache
func (l *Locator) parse(ctx context.Context, path string, content []byte) (*FileIndex, error) {
	l.mu.Lock()
	tree, err := l.parser.ParseCtx(ctx, nil, content)
	l.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	idx := newFileIndex(path)
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		collectType(root.NamedChild(i), content, "", idx)
	}
	return idx, nil
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration",
		"record_declaration", "annotation_type_declaration":
		return true
	}
	return false
}

// collectType records a type declaration and walks its body
func collectType(node *sitter.Node, content []byte, outer string, idx *FileIndex) {
	if !isTypeDeclaration(node.Type()) {
		return
	}
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	name := nameNode.Content(content)
	if outer != "" {
		name = outer + "$" + name
	}
	idx.Classes[name] = position(node)

	if body := node.ChildByFieldName("body"); body != nil {
		collectMembers(body, content, name, idx)
	}
}

func collectMembers(body *sitter.Node, content []byte, owner string, idx *FileIndex) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration":
			if nameNode := member.ChildByFieldName("name"); nameNode != nil {
				key := owner + "#" + nameNode.Content(content)
				if _, seen := idx.Methods[key]; !seen {
					idx.Methods[key] = position(member)
				}
			}
		case "constructor_declaration":
			key := owner + "#<init>"
			if _, seen := idx.Methods[key]; !seen {
				idx.Methods[key] = position(member)
			}
		case "field_declaration", "constant_declaration":
			for j := 0; j < int(member.NamedChildCount()); j++ {
				declarator := member.NamedChild(j)
				if declarator.Type() != "variable_declarator" {
					continue
				}
				if nameNode := declarator.ChildByFieldName("name"); nameNode != nil {
					idx.Fields[owner+"#"+nameNode.Content(content)] = position(member)
				}
			}
		case "enum_body_declarations":
			collectMembers(member, content, owner, idx)
		default:
			collectType(member, content, owner, idx)
		}
	}
}

// position returns the start of a declaration, which includes its annotations
func position(node *sitter.Node) Position {
	start := node.StartPoint()
	return Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1}
}
