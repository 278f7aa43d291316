package annotations

import (
	"strings"

	"github.com/chilicat/scrbuild/internal/classfile"
)

// IsComponentAnnotation reports whether a descriptor belongs to one of the
// supported annotation packages
func IsComponentAnnotation(descriptor string) bool {
	return strings.HasPrefix(descriptor, "L"+FelixPackage) || strings.HasPrefix(descriptor, "L"+DSPackage)
}

// Convert turns a decoded class file annotation into a ParsedAnnotation.
// It returns false for annotations the registry does not know.
func Convert(r AnnotationRegistry, a classfile.Annotation, target string, loc SourceLocation) (*ParsedAnnotation, bool) {
	schema, ok := r.Lookup(a.Type)
	if !ok {
		return nil, false
	}

	parsed := &ParsedAnnotation{
		Key:        schema.Key,
		Target:     target,
		Parameters: make(map[string]interface{}, len(a.Elements)),
		Location:   loc,
	}
	for _, e := range a.Elements {
		parsed.Parameters[e.Name] = convertValue(r, e.Value, loc)
	}
	return parsed, true
}

func convertValue(r AnnotationRegistry, v classfile.Value, loc SourceLocation) interface{} {
	switch v.Tag {
	case classfile.TagEnum:
		return v.EnumConst
	case classfile.TagClass:
		return v.ClassName()
	case classfile.TagAnnotation:
		if v.Annotation == nil {
			return nil
		}
		nested, ok := Convert(r, *v.Annotation, "", loc)
		if !ok {
			return nil
		}
		return nested
	case classfile.TagArray:
		return convertArray(r, v.Array, loc)
	default:
		return convertConst(v.Const)
	}
}

func convertConst(c interface{}) interface{} {
	switch n := c.(type) {
	case int32:
		return int64(n)
	default:
		return c
	}
}

// convertArray picks the narrowest Go slice type for the items: arrays of
// strings, enums and classes become []string, arrays of annotations become
// []*ParsedAnnotation, everything else []interface{}.
func convertArray(r AnnotationRegistry, items []classfile.Value, loc SourceLocation) interface{} {
	if len(items) == 0 {
		return []string{}
	}

	switch items[0].Tag {
	case classfile.TagString, classfile.TagEnum, classfile.TagClass:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := convertValue(r, item, loc).(string); ok {
				out = append(out, s)
			}
		}
		return out
	case classfile.TagAnnotation:
		out := make([]*ParsedAnnotation, 0, len(items))
		for _, item := range items {
			if nested, ok := convertValue(r, item, loc).(*ParsedAnnotation); ok {
				out = append(out, nested)
			}
		}
		return out
	default:
		out := make([]interface{}, 0, len(items))
		for _, item := range items {
			out = append(out, convertValue(r, item, loc))
		}
		return out
	}
}
