package classfile

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

func sampleClass() *Class {
	component := Annotation{
		Type:    "Lorg/apache/felix/scr/annotations/Component;",
		Visible: false,
		Elements: []Element{
			{Name: "name", Value: StringValue("foo.service")},
			{Name: "immediate", Value: BoolValue(true)},
			{Name: "policy", Value: EnumValue("Lorg/apache/felix/scr/annotations/ConfigurationPolicy;", "REQUIRE")},
		},
	}
	service := Annotation{
		Type: "Lorg/apache/felix/scr/annotations/Service;",
		Elements: []Element{
			{Name: "value", Value: ArrayValue(ClassValue("com.acme.Api"), ClassValue("java.lang.Runnable"))},
		},
	}
	properties := Annotation{
		Type: "Lorg/apache/felix/scr/annotations/Properties;",
		Elements: []Element{
			{Name: "value", Value: ArrayValue(AnnotationValue(Annotation{
				Type:     "Lorg/apache/felix/scr/annotations/Property;",
				Elements: []Element{{Name: "name", Value: StringValue("ranking")}, {Name: "intValue", Value: ArrayValue(IntValue(7))}},
			}))},
		},
	}

	return &Class{
		MajorVersion: 52,
		AccessFlags:  AccPublic | AccSuper,
		Name:         "com/acme/FooService",
		SuperName:    "java/lang/Object",
		Interfaces:   []string{"com/acme/Api", "java/lang/Runnable"},
		SourceFile:   "FooService.java",
		Annotations:  []Annotation{component, service, properties},
		Fields: []Field{
			{
				AccessFlags:   AccPublic | AccStatic | AccFinal,
				Name:          "PROP",
				Descriptor:    "Ljava/lang/String;",
				ConstantValue: "service.ranking",
			},
			{
				AccessFlags:   AccPrivate | AccStatic | AccFinal,
				Name:          "TIMEOUT",
				Descriptor:    "J",
				ConstantValue: int64(1500),
			},
			{
				AccessFlags: AccPrivate,
				Name:        "logService",
				Descriptor:  "Lcom/acme/LogService;",
				Annotations: []Annotation{{
					Type:     "Lorg/apache/felix/scr/annotations/Reference;",
					Elements: []Element{{Name: "bind", Value: StringValue("setLog")}},
				}},
			},
		},
		Methods: []Method{
			{AccessFlags: AccPublic, Name: "<init>", Descriptor: "()V", Line: 12},
			{AccessFlags: AccProtected, Name: "setLog", Descriptor: "(Lcom/acme/LogService;)V", Line: 30},
			{AccessFlags: AccPublic | AccAbstract, Name: "run", Descriptor: "()V"},
		},
	}
}

func TestEncodeParse_RoundTrip(t *testing.T) {
	want := sampleClass()

	data, err := Encode(want)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCA, 0xFE, 0xBA, 0xBE}, data[:4])

	got, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Accessors(t *testing.T) {
	data, err := Encode(sampleClass())
	require.NoError(t, err)
	c, err := ParseBytes(data)
	require.NoError(t, err)

	assert.Equal(t, "com.acme.FooService", c.BinaryName())
	assert.Equal(t, "FooService", c.SimpleName())
	assert.Equal(t, "com/acme", c.Package())
	assert.False(t, c.IsAbstract())
	assert.Len(t, c.MethodsNamed("setLog"), 1)

	f, ok := c.FindField("PROP")
	require.True(t, ok)
	assert.Equal(t, "service.ranking", f.ConstantValue)

	svc := c.Annotations[1]
	v, ok := svc.Element("value")
	require.True(t, ok)
	var names []string
	for _, item := range v.Items() {
		names = append(names, item.ClassName())
	}
	assert.Equal(t, []string{"com.acme.Api", "java.lang.Runnable"}, names)
}

func TestParse_LongConstantsTakeTwoSlots(t *testing.T) {
	c := &Class{
		MajorVersion: 52,
		Name:         "Constants",
		SuperName:    "java/lang/Object",
		Fields: []Field{
			{Name: "A", Descriptor: "J", ConstantValue: int64(-1)},
			{Name: "B", Descriptor: "D", ConstantValue: 2.5},
			{Name: "C", Descriptor: "Ljava/lang/String;", ConstantValue: "after wide constants"},
		},
	}
	data, err := Encode(c)
	require.NoError(t, err)

	got, err := ParseBytes(data)
	require.NoError(t, err)
	require.Len(t, got.Fields, 3)
	assert.Equal(t, int64(-1), got.Fields[0].ConstantValue)
	assert.Equal(t, 2.5, got.Fields[1].ConstantValue)
	assert.Equal(t, "after wide constants", got.Fields[2].ConstantValue)
}

func TestParse_Malformed(t *testing.T) {
	valid, err := Encode(sampleClass())
	require.NoError(t, err)

	tests := map[string][]byte{
		"empty":     {},
		"bad magic": {0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52},
		"truncated": valid[:len(valid)/2],
		"bad tag":   {0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52, 0, 2, 99},
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBytes(data)
			require.Error(t, err)
			assert.True(t, screrrors.HasCode(err, screrrors.ClassFormatErrorCode))
		})
	}
}

func TestModifiedUTF8(t *testing.T) {
	for _, s := range []string{"plain", "nul\x00inside", "grüße", "emoji 😀"} {
		assert.Equal(t, s, decodeModifiedUTF8(encodeModifiedUTF8(s)))
	}
	assert.Equal(t, []byte{0xC0, 0x80}, encodeModifiedUTF8("\x00"))
}

func TestDescriptors(t *testing.T) {
	assert.Equal(t, "com.acme.Foo", DescriptorToBinary("Lcom/acme/Foo;"))
	assert.Equal(t, "int[][]", DescriptorToBinary("[[I"))
	assert.Equal(t, "boolean", DescriptorToBinary("Z"))

	assert.Equal(t,
		[]string{"com.acme.Api", "java.util.Map", "long"},
		MethodParameters("(Lcom/acme/Api;Ljava/util/Map;J)V"))
	assert.Empty(t, MethodParameters("()V"))
	assert.Nil(t, MethodParameters("garbage"))
}
