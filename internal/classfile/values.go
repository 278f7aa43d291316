package classfile

// StringValue returns a string element value
func StringValue(s string) Value {
	return Value{Tag: TagString, Const: s}
}

// BoolValue returns a boolean element value
func BoolValue(b bool) Value {
	return Value{Tag: TagBoolean, Const: b}
}

// IntValue returns an int element value
func IntValue(n int32) Value {
	return Value{Tag: TagInt, Const: n}
}

// LongValue returns a long element value
func LongValue(n int64) Value {
	return Value{Tag: TagLong, Const: n}
}

// EnumValue returns an enum element value. typeDesc is a field descriptor
// such as Lorg/acme/Policy;
func EnumValue(typeDesc, constName string) Value {
	return Value{Tag: TagEnum, EnumType: typeDesc, EnumConst: constName}
}

// ClassValue returns a class literal element value for a binary name
func ClassValue(binaryName string) Value {
	return Value{Tag: TagClass, Class: "L" + BinaryToInternal(binaryName) + ";"}
}

// AnnotationValue wraps a nested annotation
func AnnotationValue(a Annotation) Value {
	return Value{Tag: TagAnnotation, Annotation: &a}
}

// ArrayValue returns an array element value
func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{Tag: TagArray, Array: items}
}

// TypeDescriptor returns the field descriptor of a binary class name
func TypeDescriptor(binaryName string) string {
	return "L" + BinaryToInternal(binaryName) + ";"
}

// Strings flattens a string or string array value
func (v Value) Strings() []string {
	if v.Tag == TagArray {
		out := make([]string, 0, len(v.Array))
		for _, item := range v.Array {
			if s, ok := item.Const.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	if s, ok := v.Const.(string); ok {
		return []string{s}
	}
	return nil
}

// Items returns the array items, or v itself for a single value. Java lets
// an array-typed element be written without braces.
func (v Value) Items() []Value {
	if v.Tag == TagArray {
		return v.Array
	}
	return []Value{v}
}

// ClassName returns the binary name of a class literal value
func (v Value) ClassName() string {
	if v.Tag != TagClass {
		return ""
	}
	return DescriptorToBinary(v.Class)
}
