package classfile

import (
	"encoding/binary"
	"io"
	"math"

	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

// Constant pool tags
const (
	constUtf8               = 1
	constInteger            = 3
	constFloat              = 4
	constLong               = 5
	constDouble             = 6
	constClass              = 7
	constString             = 8
	constFieldref           = 9
	constMethodref          = 10
	constInterfaceMethodref = 11
	constNameAndType        = 12
	constMethodHandle       = 15
	constMethodType         = 16
	constDynamic            = 17
	constInvokeDynamic      = 18
	constModule             = 19
	constPackage            = 20
)

// Attribute names the decoder understands
const (
	attrCode                        = "Code"
	attrConstantValue               = "ConstantValue"
	attrLineNumberTable             = "LineNumberTable"
	attrSourceFile                  = "SourceFile"
	attrRuntimeVisibleAnnotations   = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations = "RuntimeInvisibleAnnotations"
)

// maxAnnotationDepth bounds nested annotation values
const maxAnnotationDepth = 32

type constant struct {
	tag   byte
	str   string // Utf8
	value interface{}
	ref1  uint16 // Class/String/MethodType/Module/Package name index, or first ref
	ref2  uint16
}

// Parse decodes a class file read from r
func Parse(r io.Reader) (*Class, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, screrrors.Wrap(screrrors.ClassFormatErrorCode, "failed to read class file", err)
	}
	return ParseBytes(data)
}

// ParseBytes decodes a class file held in memory
func ParseBytes(data []byte) (*Class, error) {
	d := &decoder{buf: data}
	class := d.class()
	if d.err != nil {
		return nil, d.err
	}
	return class, nil
}

// decoder reads big-endian values and keeps the first error
type decoder struct {
	buf  []byte
	pos  int
	err  error
	pool []constant
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = screrrors.NewClassFormatError(format, args...)
	}
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.pos+n > len(d.buf) {
		d.fail("truncated class file at offset %d", d.pos)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) u1() byte {
	b := d.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) u2() uint16 {
	b := d.bytes(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (d *decoder) u4() uint32 {
	b := d.bytes(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (d *decoder) u8() uint64 {
	b := d.bytes(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (d *decoder) class() *Class {
	if magic := d.u4(); d.err == nil && magic != Magic {
		d.fail("bad magic 0x%08X", magic)
	}
	c := &Class{}
	c.MinorVersion = d.u2()
	c.MajorVersion = d.u2()
	d.constantPool()
	if d.err != nil {
		return nil
	}

	c.AccessFlags = AccessFlags(d.u2())
	c.Name = d.className(d.u2())
	if super := d.u2(); super != 0 {
		c.SuperName = d.className(super)
	}

	count := int(d.u2())
	for i := 0; i < count && d.err == nil; i++ {
		c.Interfaces = append(c.Interfaces, d.className(d.u2()))
	}

	count = int(d.u2())
	for i := 0; i < count && d.err == nil; i++ {
		c.Fields = append(c.Fields, d.field())
	}

	count = int(d.u2())
	for i := 0; i < count && d.err == nil; i++ {
		c.Methods = append(c.Methods, d.method())
	}

	d.attributes(func(name string, body *decoder) {
		switch name {
		case attrSourceFile:
			c.SourceFile = body.utf8(body.u2())
		case attrRuntimeVisibleAnnotations:
			c.Annotations = append(c.Annotations, body.annotations(true)...)
		case attrRuntimeInvisibleAnnotations:
			c.Annotations = append(c.Annotations, body.annotations(false)...)
		}
	})

	if d.err != nil {
		return nil
	}
	if c.Name == "" {
		d.fail("class has no name")
		return nil
	}
	return c
}

func (d *decoder) constantPool() {
	count := int(d.u2())
	if count == 0 {
		d.fail("empty constant pool")
		return
	}
	d.pool = make([]constant, count)

	for i := 1; i < count && d.err == nil; i++ {
		tag := d.u1()
		entry := constant{tag: tag}
		switch tag {
		case constUtf8:
			n := int(d.u2())
			entry.str = decodeModifiedUTF8(d.bytes(n))
		case constInteger:
			entry.value = int32(d.u4())
		case constFloat:
			entry.value = math.Float32frombits(d.u4())
		case constLong:
			entry.value = int64(d.u8())
		case constDouble:
			entry.value = math.Float64frombits(d.u8())
		case constClass, constString, constMethodType, constModule, constPackage:
			entry.ref1 = d.u2()
		case constFieldref, constMethodref, constInterfaceMethodref, constNameAndType,
			constDynamic, constInvokeDynamic:
			entry.ref1 = d.u2()
			entry.ref2 = d.u2()
		case constMethodHandle:
			entry.ref1 = uint16(d.u1())
			entry.ref2 = d.u2()
		default:
			d.fail("unknown constant pool tag %d at index %d", tag, i)
			return
		}
		d.pool[i] = entry

		// 8-byte constants take two slots
		if tag == constLong || tag == constDouble {
			i++
		}
	}
}

func (d *decoder) entry(index uint16, tag byte) *constant {
	if d.err != nil {
		return nil
	}
	if int(index) <= 0 || int(index) >= len(d.pool) || d.pool[index].tag != tag {
		d.fail("constant pool index %d is not of tag %d", index, tag)
		return nil
	}
	return &d.pool[index]
}

func (d *decoder) utf8(index uint16) string {
	if e := d.entry(index, constUtf8); e != nil {
		return e.str
	}
	return ""
}

func (d *decoder) className(index uint16) string {
	if e := d.entry(index, constClass); e != nil {
		return d.utf8(e.ref1)
	}
	return ""
}

// loadable resolves a ConstantValue or element const index
func (d *decoder) loadable(index uint16) interface{} {
	if d.err != nil {
		return nil
	}
	if int(index) <= 0 || int(index) >= len(d.pool) {
		d.fail("constant pool index %d out of range", index)
		return nil
	}
	e := d.pool[index]
	switch e.tag {
	case constInteger, constFloat, constLong, constDouble:
		return e.value
	case constString:
		return d.utf8(e.ref1)
	case constUtf8:
		return e.str
	default:
		d.fail("constant pool index %d is not a constant value", index)
		return nil
	}
}

func (d *decoder) field() Field {
	f := Field{
		AccessFlags: AccessFlags(d.u2()),
		Name:        d.utf8(d.u2()),
		Descriptor:  d.utf8(d.u2()),
	}
	d.attributes(func(name string, body *decoder) {
		switch name {
		case attrConstantValue:
			f.ConstantValue = body.loadable(body.u2())
		case attrRuntimeVisibleAnnotations:
			f.Annotations = append(f.Annotations, body.annotations(true)...)
		case attrRuntimeInvisibleAnnotations:
			f.Annotations = append(f.Annotations, body.annotations(false)...)
		}
	})
	return f
}

func (d *decoder) method() Method {
	m := Method{
		AccessFlags: AccessFlags(d.u2()),
		Name:        d.utf8(d.u2()),
		Descriptor:  d.utf8(d.u2()),
	}
	d.attributes(func(name string, body *decoder) {
		switch name {
		case attrCode:
			m.Line = body.firstLine()
		case attrRuntimeVisibleAnnotations:
			m.Annotations = append(m.Annotations, body.annotations(true)...)
		case attrRuntimeInvisibleAnnotations:
			m.Annotations = append(m.Annotations, body.annotations(false)...)
		}
	})
	return m
}

// attributes walks an attribute table. Each attribute body is handed to fn
// through a sub-decoder sharing the constant pool, so a bad attribute cannot
// read past its declared length.
func (d *decoder) attributes(fn func(name string, body *decoder)) {
	count := int(d.u2())
	for i := 0; i < count && d.err == nil; i++ {
		name := d.utf8(d.u2())
		length := d.u4()
		if d.err == nil && uint64(length) > uint64(len(d.buf)-d.pos) {
			d.fail("attribute %s overruns class file", name)
			return
		}
		raw := d.bytes(int(length))
		if d.err != nil {
			return
		}
		body := &decoder{buf: raw, pool: d.pool}
		fn(name, body)
		if body.err != nil {
			d.err = body.err
		}
	}
}

// firstLine reads a Code attribute body and returns its smallest line number
func (d *decoder) firstLine() int {
	d.u2() // max_stack
	d.u2() // max_locals
	codeLength := d.u4()
	d.bytes(int(codeLength))
	exceptions := int(d.u2())
	d.bytes(exceptions * 8)

	line := 0
	d.attributes(func(name string, body *decoder) {
		if name != attrLineNumberTable {
			return
		}
		n := int(body.u2())
		for i := 0; i < n && body.err == nil; i++ {
			body.u2() // start_pc
			l := int(body.u2())
			if line == 0 || l < line {
				line = l
			}
		}
	})
	return line
}

func (d *decoder) annotations(visible bool) []Annotation {
	n := int(d.u2())
	out := make([]Annotation, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		out = append(out, d.annotation(visible, 0))
	}
	return out
}

func (d *decoder) annotation(visible bool, depth int) Annotation {
	a := Annotation{Visible: visible}
	if depth > maxAnnotationDepth {
		d.fail("annotation nesting deeper than %d", maxAnnotationDepth)
		return a
	}
	a.Type = d.utf8(d.u2())
	pairs := int(d.u2())
	for i := 0; i < pairs && d.err == nil; i++ {
		name := d.utf8(d.u2())
		a.Elements = append(a.Elements, Element{Name: name, Value: d.elementValue(visible, depth)})
	}
	return a
}

func (d *decoder) elementValue(visible bool, depth int) Value {
	v := Value{Tag: d.u1()}
	switch v.Tag {
	case TagByte, TagChar, TagInt, TagShort:
		if e := d.entry(d.u2(), constInteger); e != nil {
			v.Const = e.value
		}
	case TagBoolean:
		if e := d.entry(d.u2(), constInteger); e != nil {
			v.Const = e.value.(int32) != 0
		}
	case TagLong:
		if e := d.entry(d.u2(), constLong); e != nil {
			v.Const = e.value
		}
	case TagFloat:
		if e := d.entry(d.u2(), constFloat); e != nil {
			v.Const = e.value
		}
	case TagDouble:
		if e := d.entry(d.u2(), constDouble); e != nil {
			v.Const = e.value
		}
	case TagString:
		v.Const = d.utf8(d.u2())
	case TagEnum:
		v.EnumType = d.utf8(d.u2())
		v.EnumConst = d.utf8(d.u2())
	case TagClass:
		v.Class = d.utf8(d.u2())
	case TagAnnotation:
		nested := d.annotation(visible, depth+1)
		v.Annotation = &nested
	case TagArray:
		n := int(d.u2())
		v.Array = make([]Value, 0, n)
		for i := 0; i < n && d.err == nil; i++ {
			v.Array = append(v.Array, d.elementValue(visible, depth+1))
		}
	default:
		if d.err == nil {
			d.fail("unknown element value tag %q", v.Tag)
		}
	}
	return v
}
