package analyzer

import (
	"bytes"
	"io"

	"github.com/chilicat/scrbuild/internal/annotations"
	"github.com/chilicat/scrbuild/internal/classfile"
)

// ClassReader decodes class files. The default is classfile.Parse.
type ClassReader interface {
	Read(r io.Reader) (*classfile.Class, error)
}

// ReaderFunc adapts a function to ClassReader
type ReaderFunc func(r io.Reader) (*classfile.Class, error)

// Read calls f(r)
func (f ReaderFunc) Read(r io.Reader) (*classfile.Class, error) {
	return f(r)
}

// DefaultReader parses class files with the classfile package
var DefaultReader ClassReader = ReaderFunc(classfile.Parse)

var annotationMarkers = [][]byte{
	[]byte(annotations.FelixPackage),
	[]byte(annotations.DSPackage),
}

// mentionsAnnotations reports whether the raw class bytes reference one of
// the annotation packages. Class-retention annotations are stored in the
// constant pool as plain descriptors, so a byte search is enough to rule a
// class out without parsing it.
func mentionsAnnotations(data []byte) bool {
	for _, marker := range annotationMarkers {
		if bytes.Contains(data, marker) {
			return true
		}
	}
	return false
}
