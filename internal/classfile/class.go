// Package classfile decodes the parts of a Java class file that matter for
// component descriptors: names, hierarchy, members, line numbers and
// annotations (both runtime-visible and class-retention ones).
package classfile

import "strings"

// Magic is the first four bytes of every class file
const Magic uint32 = 0xCAFEBABE

// AccessFlags are the JVM access_flags bits
type AccessFlags uint16

const (
	AccPublic     AccessFlags = 0x0001
	AccPrivate    AccessFlags = 0x0002
	AccProtected  AccessFlags = 0x0004
	AccStatic     AccessFlags = 0x0008
	AccFinal      AccessFlags = 0x0010
	AccSuper      AccessFlags = 0x0020
	AccInterface  AccessFlags = 0x0200
	AccAbstract   AccessFlags = 0x0400
	AccSynthetic  AccessFlags = 0x1000
	AccAnnotation AccessFlags = 0x2000
	AccEnum       AccessFlags = 0x4000
)

// Has reports whether all bits of f are set
func (a AccessFlags) Has(f AccessFlags) bool {
	return a&f == f
}

// Class is a decoded class file
type Class struct {
	MajorVersion uint16
	MinorVersion uint16
	AccessFlags  AccessFlags
	// Name is the internal name, e.g. com/acme/FooService
	Name string
	// SuperName is empty for java/lang/Object
	SuperName   string
	Interfaces  []string
	SourceFile  string
	Fields      []Field
	Methods     []Method
	Annotations []Annotation
}

// Field is a decoded field_info
type Field struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	// ConstantValue holds the static initializer constant, if any:
	// int32, int64, float32, float64 or string
	ConstantValue interface{}
	Annotations   []Annotation
}

// Method is a decoded method_info
type Method struct {
	AccessFlags AccessFlags
	Name        string
	Descriptor  string
	// Line is the smallest source line of the method body, 0 when unknown
	Line        int
	Annotations []Annotation
}

// Annotation is one annotation instance
type Annotation struct {
	// Type is the field descriptor of the annotation, e.g. Lorg/acme/Component;
	Type     string
	Visible  bool
	Elements []Element
}

// Element is a name/value pair of an annotation
type Element struct {
	Name  string
	Value Value
}

// Element value tags
const (
	TagByte       byte = 'B'
	TagChar       byte = 'C'
	TagDouble     byte = 'D'
	TagFloat      byte = 'F'
	TagInt        byte = 'I'
	TagLong       byte = 'J'
	TagShort      byte = 'S'
	TagBoolean    byte = 'Z'
	TagString     byte = 's'
	TagEnum       byte = 'e'
	TagClass      byte = 'c'
	TagAnnotation byte = '@'
	TagArray      byte = '['
)

// Value is an annotation element value
type Value struct {
	Tag byte
	// Const is set for primitive and string tags: int32 (B, C, I, S),
	// bool (Z), int64 (J), float32 (F), float64 (D), string (s)
	Const interface{}
	// EnumType and EnumConst are set for TagEnum
	EnumType  string
	EnumConst string
	// Class is the return descriptor for TagClass, e.g. Lcom/acme/Api;
	Class      string
	Annotation *Annotation
	Array      []Value
}

// BinaryName returns the dotted name, e.g. com.acme.FooService
func (c *Class) BinaryName() string {
	return InternalToBinary(c.Name)
}

// SimpleName returns the name without package
func (c *Class) SimpleName() string {
	name := c.Name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// Package returns the internal package path, e.g. com/acme
func (c *Class) Package() string {
	if i := strings.LastIndexByte(c.Name, '/'); i >= 0 {
		return c.Name[:i]
	}
	return ""
}

// IsAbstract reports whether the class is abstract or an interface
func (c *Class) IsAbstract() bool {
	return c.AccessFlags.Has(AccAbstract) || c.AccessFlags.Has(AccInterface)
}

// IsInterface reports whether the class is an interface
func (c *Class) IsInterface() bool {
	return c.AccessFlags.Has(AccInterface)
}

// MethodsNamed returns every method declared with the given name
func (c *Class) MethodsNamed(name string) []Method {
	var out []Method
	for _, m := range c.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// FindField returns the field with the given name
func (c *Class) FindField(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Element returns the value of the named element
func (a *Annotation) Element(name string) (Value, bool) {
	for _, e := range a.Elements {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// InternalToBinary converts com/acme/Foo to com.acme.Foo
func InternalToBinary(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// BinaryToInternal converts com.acme.Foo to com/acme/Foo
func BinaryToInternal(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}

// DescriptorToBinary converts a field descriptor to a Java type name:
// Lcom/acme/Foo; becomes com.acme.Foo, [I becomes int[], Z becomes boolean
func DescriptorToBinary(desc string) string {
	name, _ := parseFieldType(desc)
	return name
}

// MethodParameters returns the Java type names of a method descriptor's parameters
func MethodParameters(desc string) []string {
	if !strings.HasPrefix(desc, "(") {
		return nil
	}
	end := strings.IndexByte(desc, ')')
	if end < 0 {
		return nil
	}

	var params []string
	rest := desc[1:end]
	for rest != "" {
		name, n := parseFieldType(rest)
		if n == 0 {
			return params
		}
		params = append(params, name)
		rest = rest[n:]
	}
	return params
}

// parseFieldType decodes one field type at the start of desc and returns
// its Java name plus the number of bytes consumed (0 on malformed input)
func parseFieldType(desc string) (string, int) {
	if desc == "" {
		return "", 0
	}
	switch desc[0] {
	case 'B':
		return "byte", 1
	case 'C':
		return "char", 1
	case 'D':
		return "double", 1
	case 'F':
		return "float", 1
	case 'I':
		return "int", 1
	case 'J':
		return "long", 1
	case 'S':
		return "short", 1
	case 'Z':
		return "boolean", 1
	case 'V':
		return "void", 1
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return "", 0
		}
		return InternalToBinary(desc[1:end]), end + 1
	case '[':
		elem, n := parseFieldType(desc[1:])
		if n == 0 {
			return "", 0
		}
		return elem + "[]", n + 1
	default:
		return "", 0
	}
}
