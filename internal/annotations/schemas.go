package annotations

import (
	"fmt"
	"sort"
	"strings"
)

// Enum constants shared by the schemas
var (
	ConfigurationPolicies  = []string{"OPTIONAL", "REQUIRE", "IGNORE"}
	ReferencePolicies      = []string{"STATIC", "DYNAMIC"}
	ReferencePolicyOptions = []string{"RELUCTANT", "GREEDY"}
	ReferenceStrategies    = []string{"EVENT", "LOOKUP"}
	FelixCardinalities     = []string{"OPTIONAL_UNARY", "MANDATORY_UNARY", "OPTIONAL_MULTIPLE", "MANDATORY_MULTIPLE"}
	DSCardinalities        = []string{"OPTIONAL", "MANDATORY", "MULTIPLE", "AT_LEAST_ONE"}
)

// FelixPropertyValueKinds maps the typed value elements of a Felix @Property
// to the property type written to the descriptor
var FelixPropertyValueKinds = map[string]string{
	"value":       "String",
	"longValue":   "Long",
	"doubleValue": "Double",
	"floatValue":  "Float",
	"intValue":    "Integer",
	"byteValue":   "Byte",
	"charValue":   "Character",
	"boolValue":   "Boolean",
	"shortValue":  "Short",
}

func stringParam(description string) ParameterSpec {
	return ParameterSpec{Type: StringType, Description: description}
}

func boolParam(def bool, description string) ParameterSpec {
	return ParameterSpec{Type: BoolType, DefaultValue: def, Description: description}
}

func enumParam(def string, allowed []string, description string) ParameterSpec {
	return ParameterSpec{Type: EnumType, DefaultValue: def, Allowed: allowed, Description: description}
}

func since(spec ParameterSpec, version string) ParameterSpec {
	spec.Since = version
	return spec
}

// FelixComponentSchema describes org.apache.felix.scr.annotations.Component
var FelixComponentSchema = AnnotationSchema{
	Key:         Key{Felix, ComponentAnnotation},
	Description: "Declares the class as a service component",
	Parameters: map[string]ParameterSpec{
		"name":                 stringParam("Component name, defaults to the class name"),
		"label":                stringParam("Metatype label"),
		"description":          stringParam("Metatype description"),
		"createPid":            boolParam(true, "Add a service.pid property"),
		"factory":              stringParam("Component factory identifier"),
		"enabled":              boolParam(true, "Enable the component when the bundle starts"),
		"immediate":            boolParam(false, "Activate the component immediately"),
		"inherit":              boolParam(true, "Inherit annotations from super classes"),
		"metatype":             boolParam(false, "Generate metatype information"),
		"configurationFactory": boolParam(false, "Metatype factory configuration"),
		"policy":               since(enumParam("OPTIONAL", ConfigurationPolicies, "Configuration policy"), "1.1"),
		"componentAbstract":    boolParam(false, "Abstract component, only used by sub classes"),
		"ds":                   boolParam(true, "Generate a component descriptor"),
		"specVersion":          stringParam("Minimum spec version of this component"),
		"configurationPid":     since(stringParam("Configuration PID, defaults to the component name"), "1.2"),
	},
}

// FelixServiceSchema describes org.apache.felix.scr.annotations.Service
var FelixServiceSchema = AnnotationSchema{
	Key:         Key{Felix, ServiceAnnotation},
	Description: "Registers the component as a service",
	Parameters: map[string]ParameterSpec{
		"value":          {Type: ClassSliceType, Description: "Service interfaces, defaults to the implemented interfaces"},
		"serviceFactory": boolParam(false, "Register as a service factory"),
		"specVersion":    stringParam("Minimum spec version"),
	},
}

// FelixPropertySchema describes org.apache.felix.scr.annotations.Property
var FelixPropertySchema = AnnotationSchema{
	Key:         Key{Felix, PropertyAnnotation},
	Description: "Declares a component property",
	Parameters: map[string]ParameterSpec{
		"name":            stringParam("Property name, defaults to the field constant"),
		"label":           stringParam("Metatype label"),
		"description":     stringParam("Metatype description"),
		"value":           {Type: StringSliceType, Description: "String values"},
		"longValue":       {Type: ValueSliceType, Description: "Long values"},
		"doubleValue":     {Type: ValueSliceType, Description: "Double values"},
		"floatValue":      {Type: ValueSliceType, Description: "Float values"},
		"intValue":        {Type: ValueSliceType, Description: "Integer values"},
		"byteValue":       {Type: ValueSliceType, Description: "Byte values"},
		"charValue":       {Type: ValueSliceType, Description: "Character values"},
		"boolValue":       {Type: ValueSliceType, Description: "Boolean values"},
		"shortValue":      {Type: ValueSliceType, Description: "Short values"},
		"propertyPrivate": boolParam(false, "Hide the property from metatype"),
		"cardinality":     {Type: IntType, Description: "Metatype cardinality"},
		"options":         {Type: AnnotationSliceType, Description: "Metatype options"},
	},
	Validators: []CustomValidator{singleValueKind},
}

// FelixPropertiesSchema describes org.apache.felix.scr.annotations.Properties
var FelixPropertiesSchema = AnnotationSchema{
	Key:         Key{Felix, PropertiesAnnotation},
	Description: "Groups several @Property declarations",
	Parameters: map[string]ParameterSpec{
		"value": {Type: AnnotationSliceType, Description: "Properties"},
	},
}

// FelixPropertyOptionSchema describes org.apache.felix.scr.annotations.PropertyOption
var FelixPropertyOptionSchema = AnnotationSchema{
	Key:         Key{Felix, PropertyOptionAnnotation},
	Description: "Metatype option of a property",
	Parameters: map[string]ParameterSpec{
		"name":  stringParam("Option label"),
		"value": stringParam("Option value"),
	},
}

// FelixReferenceSchema describes org.apache.felix.scr.annotations.Reference
var FelixReferenceSchema = AnnotationSchema{
	Key:         Key{Felix, ReferenceAnnotation},
	Description: "Declares a service reference",
	Parameters: map[string]ParameterSpec{
		"name":               stringParam("Reference name, defaults to the field name"),
		"referenceInterface": {Type: ClassType, Description: "Service interface, defaults to the field type"},
		"cardinality":        enumParam("MANDATORY_UNARY", FelixCardinalities, "Reference cardinality"),
		"policy":             enumParam("STATIC", ReferencePolicies, "Reference policy"),
		"policyOption":       since(enumParam("RELUCTANT", ReferencePolicyOptions, "Reference policy option"), "1.2"),
		"target":             stringParam("Target filter"),
		"bind":               stringParam("Bind method, defaults to bind<Name>"),
		"unbind":             stringParam("Unbind method, defaults to unbind<Name>"),
		"updated":            since(stringParam("Updated method"), "1.2"),
		"strategy":           enumParam("EVENT", ReferenceStrategies, "Binding strategy"),
		"specVersion":        stringParam("Minimum spec version"),
	},
}

// FelixReferencesSchema describes org.apache.felix.scr.annotations.References
var FelixReferencesSchema = AnnotationSchema{
	Key:         Key{Felix, ReferencesAnnotation},
	Description: "Groups several class-level @Reference declarations",
	Parameters: map[string]ParameterSpec{
		"value": {Type: AnnotationSliceType, Description: "References"},
	},
}

// DSComponentSchema describes org.osgi.service.component.annotations.Component
var DSComponentSchema = AnnotationSchema{
	Key:         Key{DS, ComponentAnnotation},
	Description: "Declares the class as a service component",
	Parameters: map[string]ParameterSpec{
		"name":                stringParam("Component name, defaults to the class name"),
		"service":             {Type: ClassSliceType, Description: "Service interfaces, defaults to the implemented interfaces"},
		"factory":             stringParam("Component factory identifier"),
		"servicefactory":      boolParam(false, "Register as a service factory"),
		"enabled":             boolParam(true, "Enable the component when the bundle starts"),
		"immediate":           boolParam(false, "Activate the component immediately"),
		"property":            {Type: StringSliceType, Description: "Properties as name[:Type]=value"},
		"properties":          {Type: StringSliceType, Description: "Property file entries"},
		"xmlns":               stringParam("Descriptor namespace"),
		"configurationPolicy": since(enumParam("OPTIONAL", ConfigurationPolicies, "Configuration policy"), "1.1"),
		"configurationPid":    since(ParameterSpec{Type: StringSliceType, Description: "Configuration PIDs"}, "1.2"),
	},
	Validators: []CustomValidator{validPropertyStrings},
}

// DSReferenceSchema describes org.osgi.service.component.annotations.Reference
var DSReferenceSchema = AnnotationSchema{
	Key:         Key{DS, ReferenceAnnotation},
	Description: "Declares the annotated method as the bind method of a reference",
	Parameters: map[string]ParameterSpec{
		"name":         stringParam("Reference name, derived from the bind method"),
		"service":      {Type: ClassType, Description: "Service interface, defaults to the parameter type"},
		"cardinality":  enumParam("MANDATORY", DSCardinalities, "Reference cardinality"),
		"policy":       enumParam("STATIC", ReferencePolicies, "Reference policy"),
		"policyOption": since(enumParam("RELUCTANT", ReferencePolicyOptions, "Reference policy option"), "1.2"),
		"target":       stringParam("Target filter"),
		"unbind":       stringParam("Unbind method, derived from the bind method"),
		"updated":      since(stringParam("Updated method"), "1.2"),
	},
}

func lifecycleSchema(family Family, t AnnotationType, description, minSpec string) AnnotationSchema {
	return AnnotationSchema{
		Key:         Key{family, t},
		Description: description,
		Parameters:  map[string]ParameterSpec{},
		Since:       minSpec,
	}
}

// BuiltinSchemas returns every schema the analyzer knows
func BuiltinSchemas() []AnnotationSchema {
	return []AnnotationSchema{
		FelixComponentSchema,
		FelixServiceSchema,
		FelixPropertySchema,
		FelixPropertiesSchema,
		FelixPropertyOptionSchema,
		FelixReferenceSchema,
		FelixReferencesSchema,
		lifecycleSchema(Felix, ActivateAnnotation, "Marks the activate method", ""),
		lifecycleSchema(Felix, DeactivateAnnotation, "Marks the deactivate method", ""),
		lifecycleSchema(Felix, ModifiedAnnotation, "Marks the modified method", "1.1"),
		DSComponentSchema,
		DSReferenceSchema,
		lifecycleSchema(DS, ActivateAnnotation, "Marks the activate method", ""),
		lifecycleSchema(DS, DeactivateAnnotation, "Marks the deactivate method", ""),
		lifecycleSchema(DS, ModifiedAnnotation, "Marks the modified method", "1.1"),
	}
}

// RegisterBuiltinSchemas registers every built-in schema in r
func RegisterBuiltinSchemas(r AnnotationRegistry) error {
	for _, schema := range BuiltinSchemas() {
		if err := r.Register(schema); err != nil {
			return err
		}
	}
	return nil
}

// singleValueKind rejects a Felix @Property setting more than one typed value array
func singleValueKind(a *ParsedAnnotation) error {
	var set []string
	for name := range FelixPropertyValueKinds {
		if a.HasParameter(name) {
			set = append(set, name)
		}
	}
	if len(set) > 1 {
		sort.Strings(set)
		return fmt.Errorf("only one of the value elements may be set, found %s", strings.Join(set, ", "))
	}
	return nil
}

// validPropertyStrings checks every DS property string against the grammar
func validPropertyStrings(a *ParsedAnnotation) error {
	for _, raw := range a.GetStringSlice("property") {
		if _, err := ParseProperty(raw); err != nil {
			return err
		}
	}
	return nil
}
