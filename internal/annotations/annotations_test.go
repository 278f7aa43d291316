package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chilicat/scrbuild/internal/classfile"
)

func felix(name string) string {
	return "L" + FelixPackage + name + ";"
}

func TestDefaultRegistry_Builtins(t *testing.T) {
	r := DefaultRegistry()
	assert.Same(t, r, DefaultRegistry())

	keys := r.ListKeys()
	assert.Len(t, keys, len(BuiltinSchemas()))
	assert.Equal(t, Key{Felix, ComponentAnnotation}, keys[0])

	schema, ok := r.Lookup("Lorg/osgi/service/component/annotations/Reference;")
	require.True(t, ok)
	assert.Equal(t, Key{DS, ReferenceAnnotation}, schema.Key)

	_, ok = r.Lookup("Ljava/lang/Deprecated;")
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	schema := AnnotationSchema{
		Key:        Key{Felix, ActivateAnnotation},
		Parameters: map[string]ParameterSpec{"x": {Type: BoolType, DefaultValue: false}},
	}
	require.NoError(t, r.Register(schema))
	assert.True(t, r.IsRegistered(schema.Key))

	err := r.Register(schema)
	var regErr *RegistrationError
	assert.ErrorAs(t, err, &regErr)

	_, err = r.GetSchema(Key{DS, ModifiedAnnotation})
	assert.Error(t, err)
}

func TestRegistry_RejectsInvalidSchemas(t *testing.T) {
	tests := map[string]AnnotationSchema{
		"empty name": {
			Key:        Key{Felix, ServiceAnnotation},
			Parameters: map[string]ParameterSpec{"": {Type: StringType}},
		},
		"enum without constants": {
			Key:        Key{Felix, ServiceAnnotation},
			Parameters: map[string]ParameterSpec{"p": {Type: EnumType}},
		},
		"default type mismatch": {
			Key:        Key{Felix, ServiceAnnotation},
			Parameters: map[string]ParameterSpec{"p": {Type: BoolType, DefaultValue: "yes"}},
		},
	}

	for name, schema := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, NewRegistry().Register(schema))
		})
	}
}

func TestConvert(t *testing.T) {
	a := classfile.Annotation{
		Type: felix("Component"),
		Elements: []classfile.Element{
			{Name: "name", Value: classfile.StringValue("foo")},
			{Name: "immediate", Value: classfile.BoolValue(true)},
			{Name: "policy", Value: classfile.EnumValue(felix("ConfigurationPolicy"), "REQUIRE")},
		},
	}
	parsed, ok := Convert(DefaultRegistry(), a, "", SourceLocation{File: "Foo.java", Line: 3})
	require.True(t, ok)

	assert.Equal(t, ComponentAnnotation, parsed.Type())
	assert.Equal(t, Felix, parsed.Family())
	assert.Equal(t, "foo", parsed.GetString("name"))
	assert.True(t, parsed.GetBool("immediate"))
	assert.Equal(t, "REQUIRE", parsed.GetString("policy"))
	assert.True(t, parsed.GetBool("enabled", true), "absent parameter falls back to the default argument")
	assert.Equal(t, 3, parsed.Location.Line)

	_, ok = Convert(DefaultRegistry(), classfile.Annotation{Type: "Ljava/lang/Deprecated;"}, "", SourceLocation{})
	assert.False(t, ok)
}

func TestConvert_NestedAndTypedArrays(t *testing.T) {
	prop := classfile.Annotation{
		Type: felix("Property"),
		Elements: []classfile.Element{
			{Name: "name", Value: classfile.StringValue("timeout")},
			{Name: "longValue", Value: classfile.ArrayValue(classfile.LongValue(1500), classfile.LongValue(2))},
		},
	}
	props := classfile.Annotation{
		Type:     felix("Properties"),
		Elements: []classfile.Element{{Name: "value", Value: classfile.ArrayValue(classfile.AnnotationValue(prop))}},
	}

	parsed, ok := Convert(DefaultRegistry(), props, "", SourceLocation{})
	require.True(t, ok)

	nested := parsed.GetAnnotations("value")
	require.Len(t, nested, 1)
	assert.Equal(t, PropertyAnnotation, nested[0].Type())
	assert.Equal(t, []string{"1500", "2"}, nested[0].GetValues("longValue"))

	svc := classfile.Annotation{
		Type:     felix("Service"),
		Elements: []classfile.Element{{Name: "value", Value: classfile.ArrayValue(classfile.ClassValue("com.acme.Api"))}},
	}
	parsed, ok = Convert(DefaultRegistry(), svc, "", SourceLocation{})
	require.True(t, ok)
	assert.Equal(t, []string{"com.acme.Api"}, parsed.GetStringSlice("value"))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "7", FormatValue(int64(7)))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "2.0", FormatValue(2.0))
	assert.Equal(t, "0.5", FormatValue(float32(0.5)))
	assert.Equal(t, "text", FormatValue("text"))
}

func TestValidator_UnknownParameterAndBadEnum(t *testing.T) {
	schema := FelixReferenceSchema
	a := &ParsedAnnotation{
		Key: schema.Key,
		Parameters: map[string]interface{}{
			"policy":  "SOMETIMES",
			"bogus":   "x",
			"target":  "(a=b)",
			"updated": "refUpdated",
		},
	}

	err := NewValidator().Validate(a, schema, "1.1")
	require.Error(t, err)
	errs := Flatten(err)
	require.Len(t, errs, 3)

	multi := err.(*MultipleAnnotationErrors)
	assert.Len(t, multi.GetByType(ValidationErrorCode), 2)
	assert.True(t, multi.HasType(SpecVersionErrorCode))
	assert.Contains(t, err.Error(), "unknown parameter 'bogus'")
	assert.Contains(t, err.Error(), "one of STATIC, DYNAMIC")
	assert.Contains(t, err.Error(), "requires spec version 1.2")

	delete(a.Parameters, "bogus")
	a.Parameters["policy"] = "DYNAMIC"
	assert.NoError(t, NewValidator().Validate(a, schema, "1.2"))
}

func TestValidator_SpecVersionGates(t *testing.T) {
	modified := &ParsedAnnotation{Key: Key{Felix, ModifiedAnnotation}, Parameters: map[string]interface{}{}}
	schema, err := DefaultRegistry().GetSchema(modified.Key)
	require.NoError(t, err)

	err = NewValidator().Validate(modified, schema, "1.0")
	require.Error(t, err)
	var specErr *SpecVersionError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, "1.1", specErr.Required)

	assert.NoError(t, NewValidator().Validate(modified, schema, "1.1-felix"))
	assert.NoError(t, NewValidator().Validate(modified, schema, "1.3"))
}

func TestValidator_RequiredAndCustom(t *testing.T) {
	schema := AnnotationSchema{
		Key:        Key{Felix, ReferenceAnnotation},
		Parameters: map[string]ParameterSpec{"name": {Type: StringType, Required: true}},
	}
	err := NewValidator().Validate(&ParsedAnnotation{Key: schema.Key, Parameters: map[string]interface{}{}}, schema, "1.1")
	errs := Flatten(err)
	require.Len(t, errs, 1)
	assert.Equal(t, RequiredErrorCode, errs[0].Code())

	prop := &ParsedAnnotation{
		Key: Key{Felix, PropertyAnnotation},
		Parameters: map[string]interface{}{
			"name":     "p",
			"value":    []string{"a"},
			"intValue": []interface{}{int64(1)},
		},
	}
	err = NewValidator().Validate(prop, FelixPropertySchema, "1.1")
	errs = Flatten(err)
	require.Len(t, errs, 1)
	assert.Equal(t, SchemaErrorCode, errs[0].Code())
	assert.Contains(t, errs[0].Error(), "intValue, value")
}

func TestValidator_ApplyDefaults(t *testing.T) {
	a := &ParsedAnnotation{Key: Key{Felix, ReferenceAnnotation}}
	NewValidator().ApplyDefaults(a, FelixReferenceSchema)

	assert.Equal(t, "MANDATORY_UNARY", a.GetString("cardinality"))
	assert.Equal(t, "STATIC", a.GetString("policy"))
	assert.Equal(t, "EVENT", a.GetString("strategy"))
	assert.False(t, a.HasParameter("bind"))
}

func TestParseProperty(t *testing.T) {
	tests := []struct {
		in   string
		want PropertyEntry
	}{
		{"service.ranking:Integer=10", PropertyEntry{Name: "service.ranking", Type: "Integer", Value: "10"}},
		{"name=value", PropertyEntry{Name: "name", Type: "String", Value: "value"}},
		{"filter=(objectClass=foo)", PropertyEntry{Name: "filter", Type: "String", Value: "(objectClass=foo)"}},
		{"url=http://host:8080/x", PropertyEntry{Name: "url", Type: "String", Value: "http://host:8080/x"}},
		{"empty=", PropertyEntry{Name: "empty", Type: "String", Value: ""}},
		{" spaced : Boolean = true", PropertyEntry{Name: "spaced", Type: "Boolean", Value: " true"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProperty(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProperty_Invalid(t *testing.T) {
	for _, in := range []string{"noequals", "=value", "a:Widget=1", "  =x"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseProperty(in)
			assert.Error(t, err)
		})
	}
}

func TestDSComponent_InvalidPropertyString(t *testing.T) {
	a := &ParsedAnnotation{
		Key:        Key{DS, ComponentAnnotation},
		Parameters: map[string]interface{}{"property": []string{"ok=1", "broken"}},
	}
	err := NewValidator().Validate(a, DSComponentSchema, "1.3")
	errs := Flatten(err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `invalid property "broken"`)
}
