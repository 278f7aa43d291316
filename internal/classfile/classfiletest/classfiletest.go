// Package classfiletest builds annotated class files for tests.
package classfiletest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/classfile"
)

const (
	felixPackage = "org/apache/felix/scr/annotations/"
	dsPackage    = "org/osgi/service/component/annotations/"
)

// Felix returns a class-retention Felix SCR annotation
func Felix(name string, elems ...classfile.Element) classfile.Annotation {
	return classfile.Annotation{Type: "L" + felixPackage + name + ";", Elements: elems}
}

// DS returns a class-retention Declarative Services annotation
func DS(name string, elems ...classfile.Element) classfile.Annotation {
	return classfile.Annotation{Type: "L" + dsPackage + name + ";", Elements: elems}
}

// El returns an annotation element
func El(name string, v classfile.Value) classfile.Element {
	return classfile.Element{Name: name, Value: v}
}

// FelixEnum returns an enum value of a Felix annotation enum type
func FelixEnum(enumType, constant string) classfile.Value {
	return classfile.EnumValue("L"+felixPackage+enumType+";", constant)
}

// DSEnum returns an enum value of a DS annotation enum type
func DSEnum(enumType, constant string) classfile.Value {
	return classfile.EnumValue("L"+dsPackage+enumType+";", constant)
}

// Strings returns a string array value
func Strings(values ...string) classfile.Value {
	items := make([]classfile.Value, 0, len(values))
	for _, v := range values {
		items = append(items, classfile.StringValue(v))
	}
	return classfile.ArrayValue(items...)
}

// Classes returns a class literal array value
func Classes(binaryNames ...string) classfile.Value {
	items := make([]classfile.Value, 0, len(binaryNames))
	for _, n := range binaryNames {
		items = append(items, classfile.ClassValue(n))
	}
	return classfile.ArrayValue(items...)
}

// Class returns a public class extending java.lang.Object
func Class(internalName string, annotations ...classfile.Annotation) *classfile.Class {
	return &classfile.Class{
		AccessFlags: classfile.AccPublic | classfile.AccSuper,
		Name:        internalName,
		SuperName:   "java/lang/Object",
		Annotations: annotations,
	}
}

// Interface returns a public interface
func Interface(internalName string, extends ...string) *classfile.Class {
	return &classfile.Class{
		AccessFlags: classfile.AccPublic | classfile.AccInterface | classfile.AccAbstract,
		Name:        internalName,
		SuperName:   "java/lang/Object",
		Interfaces:  extends,
	}
}

// Method returns a public method
func Method(name, descriptor string, annotations ...classfile.Annotation) classfile.Method {
	return classfile.Method{AccessFlags: classfile.AccPublic, Name: name, Descriptor: descriptor, Annotations: annotations}
}

// Field returns a private field
func Field(name, descriptor string, annotations ...classfile.Annotation) classfile.Field {
	return classfile.Field{AccessFlags: classfile.AccPrivate, Name: name, Descriptor: descriptor, Annotations: annotations}
}

// Encode encodes c or fails the test
func Encode(t testing.TB, c *classfile.Class) []byte {
	t.Helper()
	data, err := classfile.Encode(c)
	require.NoError(t, err)
	return data
}

// Write encodes each class into dir/<internal name>.class
func Write(t testing.TB, dir string, classes ...*classfile.Class) {
	t.Helper()
	for _, c := range classes {
		path := filepath.Join(dir, filepath.FromSlash(c.Name)+".class")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, Encode(t, c), 0644))
	}
}

// Jar writes the classes into a zip archive at path
func Jar(t testing.TB, path string, classes ...*classfile.Class) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, c := range classes {
		w, err := zw.Create(c.Name + ".class")
		require.NoError(t, err)
		_, err = w.Write(Encode(t, c))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}
