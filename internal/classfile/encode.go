package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes c back into class file form. Method bodies are not
// modelled: a method with a Line gets a stub Code attribute carrying that
// line, so the result round-trips through Parse but is not loadable by a JVM.
func Encode(c *Class) ([]byte, error) {
	e := newEncoder()

	var body bytes.Buffer
	w := &body
	put2(w, uint16(c.AccessFlags))
	put2(w, e.class(c.Name))
	if c.SuperName != "" {
		put2(w, e.class(c.SuperName))
	} else {
		put2(w, 0)
	}

	put2(w, uint16(len(c.Interfaces)))
	for _, iface := range c.Interfaces {
		put2(w, e.class(iface))
	}

	put2(w, uint16(len(c.Fields)))
	for _, f := range c.Fields {
		if err := e.field(w, f); err != nil {
			return nil, err
		}
	}

	put2(w, uint16(len(c.Methods)))
	for _, m := range c.Methods {
		if err := e.method(w, m); err != nil {
			return nil, err
		}
	}

	var attrs []attribute
	if c.SourceFile != "" {
		var b bytes.Buffer
		put2(&b, e.utf8(c.SourceFile))
		attrs = append(attrs, attribute{attrSourceFile, b.Bytes()})
	}
	annAttrs, err := e.annotationAttributes(c.Annotations)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", c.Name, err)
	}
	attrs = append(attrs, annAttrs...)
	e.writeAttributes(w, attrs)

	var out bytes.Buffer
	put4(&out, Magic)
	put2(&out, c.MinorVersion)
	major := c.MajorVersion
	if major == 0 {
		major = 52
	}
	put2(&out, major)
	put2(&out, uint16(e.next))
	out.Write(e.pool.Bytes())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

type attribute struct {
	name string
	data []byte
}

type poolKey struct {
	tag   byte
	value interface{}
}

type encoder struct {
	pool  bytes.Buffer
	index map[poolKey]uint16
	next  int
}

func newEncoder() *encoder {
	return &encoder{index: make(map[poolKey]uint16), next: 1}
}

func (e *encoder) add(key poolKey, write func(b *bytes.Buffer)) uint16 {
	if idx, ok := e.index[key]; ok {
		return idx
	}
	idx := uint16(e.next)
	e.pool.WriteByte(key.tag)
	write(&e.pool)
	e.index[key] = idx
	e.next++
	if key.tag == constLong || key.tag == constDouble {
		e.next++
	}
	return idx
}

func (e *encoder) utf8(s string) uint16 {
	return e.add(poolKey{constUtf8, s}, func(b *bytes.Buffer) {
		raw := encodeModifiedUTF8(s)
		put2(b, uint16(len(raw)))
		b.Write(raw)
	})
}

func (e *encoder) class(name string) uint16 {
	nameIdx := e.utf8(name)
	return e.add(poolKey{constClass, name}, func(b *bytes.Buffer) { put2(b, nameIdx) })
}

func (e *encoder) str(s string) uint16 {
	idx := e.utf8(s)
	return e.add(poolKey{constString, s}, func(b *bytes.Buffer) { put2(b, idx) })
}

func (e *encoder) integer(v int32) uint16 {
	return e.add(poolKey{constInteger, v}, func(b *bytes.Buffer) { put4(b, uint32(v)) })
}

func (e *encoder) long(v int64) uint16 {
	return e.add(poolKey{constLong, v}, func(b *bytes.Buffer) { put8(b, uint64(v)) })
}

func (e *encoder) float(v float32) uint16 {
	return e.add(poolKey{constFloat, v}, func(b *bytes.Buffer) { put4(b, math.Float32bits(v)) })
}

func (e *encoder) double(v float64) uint16 {
	return e.add(poolKey{constDouble, v}, func(b *bytes.Buffer) { put8(b, math.Float64bits(v)) })
}

func (e *encoder) constant(v interface{}) (uint16, error) {
	switch v := v.(type) {
	case int32:
		return e.integer(v), nil
	case int:
		return e.integer(int32(v)), nil
	case int64:
		return e.long(v), nil
	case float32:
		return e.float(v), nil
	case float64:
		return e.double(v), nil
	case string:
		return e.str(v), nil
	default:
		return 0, fmt.Errorf("unsupported constant %T", v)
	}
}

func (e *encoder) field(w *bytes.Buffer, f Field) error {
	put2(w, uint16(f.AccessFlags))
	put2(w, e.utf8(f.Name))
	put2(w, e.utf8(f.Descriptor))

	var attrs []attribute
	if f.ConstantValue != nil {
		idx, err := e.constant(f.ConstantValue)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		var b bytes.Buffer
		put2(&b, idx)
		attrs = append(attrs, attribute{attrConstantValue, b.Bytes()})
	}
	annAttrs, err := e.annotationAttributes(f.Annotations)
	if err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	e.writeAttributes(w, append(attrs, annAttrs...))
	return nil
}

func (e *encoder) method(w *bytes.Buffer, m Method) error {
	put2(w, uint16(m.AccessFlags))
	put2(w, e.utf8(m.Name))
	put2(w, e.utf8(m.Descriptor))

	var attrs []attribute
	if m.Line > 0 {
		var lines bytes.Buffer
		put2(&lines, 1)
		put2(&lines, 0)
		put2(&lines, uint16(m.Line))

		var code bytes.Buffer
		put2(&code, 0) // max_stack
		put2(&code, 1) // max_locals
		put4(&code, 1)
		code.WriteByte(0xB1) // return
		put2(&code, 0)       // exception table
		e.writeAttributes(&code, []attribute{{attrLineNumberTable, lines.Bytes()}})
		attrs = append(attrs, attribute{attrCode, code.Bytes()})
	}
	annAttrs, err := e.annotationAttributes(m.Annotations)
	if err != nil {
		return fmt.Errorf("method %s: %w", m.Name, err)
	}
	e.writeAttributes(w, append(attrs, annAttrs...))
	return nil
}

func (e *encoder) writeAttributes(w *bytes.Buffer, attrs []attribute) {
	put2(w, uint16(len(attrs)))
	for _, a := range attrs {
		put2(w, e.utf8(a.name))
		put4(w, uint32(len(a.data)))
		w.Write(a.data)
	}
}

func (e *encoder) annotationAttributes(anns []Annotation) ([]attribute, error) {
	var visible, invisible []Annotation
	for _, a := range anns {
		if a.Visible {
			visible = append(visible, a)
		} else {
			invisible = append(invisible, a)
		}
	}

	var attrs []attribute
	for _, group := range []struct {
		name string
		anns []Annotation
	}{
		{attrRuntimeVisibleAnnotations, visible},
		{attrRuntimeInvisibleAnnotations, invisible},
	} {
		if len(group.anns) == 0 {
			continue
		}
		var b bytes.Buffer
		put2(&b, uint16(len(group.anns)))
		for _, a := range group.anns {
			if err := e.annotation(&b, a); err != nil {
				return nil, err
			}
		}
		attrs = append(attrs, attribute{group.name, b.Bytes()})
	}
	return attrs, nil
}

func (e *encoder) annotation(w *bytes.Buffer, a Annotation) error {
	put2(w, e.utf8(a.Type))
	put2(w, uint16(len(a.Elements)))
	for _, el := range a.Elements {
		put2(w, e.utf8(el.Name))
		if err := e.elementValue(w, el.Value); err != nil {
			return fmt.Errorf("%s.%s: %w", a.Type, el.Name, err)
		}
	}
	return nil
}

func (e *encoder) elementValue(w *bytes.Buffer, v Value) error {
	w.WriteByte(v.Tag)
	switch v.Tag {
	case TagByte, TagChar, TagInt, TagShort:
		n, ok := v.Const.(int32)
		if !ok {
			return fmt.Errorf("tag %q needs an int32 constant, got %T", v.Tag, v.Const)
		}
		put2(w, e.integer(n))
	case TagBoolean:
		b, ok := v.Const.(bool)
		if !ok {
			return fmt.Errorf("tag %q needs a bool constant, got %T", v.Tag, v.Const)
		}
		var n int32
		if b {
			n = 1
		}
		put2(w, e.integer(n))
	case TagLong:
		n, ok := v.Const.(int64)
		if !ok {
			return fmt.Errorf("tag %q needs an int64 constant, got %T", v.Tag, v.Const)
		}
		put2(w, e.long(n))
	case TagFloat:
		f, ok := v.Const.(float32)
		if !ok {
			return fmt.Errorf("tag %q needs a float32 constant, got %T", v.Tag, v.Const)
		}
		put2(w, e.float(f))
	case TagDouble:
		f, ok := v.Const.(float64)
		if !ok {
			return fmt.Errorf("tag %q needs a float64 constant, got %T", v.Tag, v.Const)
		}
		put2(w, e.double(f))
	case TagString:
		s, ok := v.Const.(string)
		if !ok {
			return fmt.Errorf("tag %q needs a string constant, got %T", v.Tag, v.Const)
		}
		put2(w, e.utf8(s))
	case TagEnum:
		put2(w, e.utf8(v.EnumType))
		put2(w, e.utf8(v.EnumConst))
	case TagClass:
		put2(w, e.utf8(v.Class))
	case TagAnnotation:
		if v.Annotation == nil {
			return fmt.Errorf("nested annotation is nil")
		}
		return e.annotation(w, *v.Annotation)
	case TagArray:
		put2(w, uint16(len(v.Array)))
		for _, item := range v.Array {
			if err := e.elementValue(w, item); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown element value tag %q", v.Tag)
	}
	return nil
}

func put2(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func put4(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func put8(w *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.Write(b[:])
}
