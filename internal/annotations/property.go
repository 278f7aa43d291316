package annotations

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// PropertyTypes are the property types a descriptor may declare
var PropertyTypes = []string{"String", "Long", "Double", "Float", "Integer", "Byte", "Character", "Boolean", "Short"}

// PropertyEntry is one parsed DS property string
type PropertyEntry struct {
	Name  string
	Type  string
	Value string
}

// propertyString is the grammar of a DS property string: name[:Type]=value.
// Everything after the first '=' is the value, verbatim.
type propertyString struct {
	Name  string  `parser:"@Key"`
	Type  *string `parser:"(':' @Key)?"`
	Value *string `parser:"'=' @Text?"`
}

var propertyLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Colon", Pattern: `:`},
		{Name: "Assign", Pattern: `=`, Action: lexer.Push("Value")},
		{Name: "Key", Pattern: `[^:=]+`},
	},
	"Value": {
		{Name: "Text", Pattern: `[\s\S]+`},
	},
})

var propertyParser = participle.MustBuild[propertyString](
	participle.Lexer(propertyLexer),
)

// ParseProperty parses a DS property string such as "service.ranking:Integer=10"
func ParseProperty(s string) (PropertyEntry, error) {
	parsed, err := propertyParser.ParseString("", s)
	if err != nil {
		return PropertyEntry{}, fmt.Errorf("invalid property %q: %w", s, err)
	}

	entry := PropertyEntry{
		Name: strings.TrimSpace(parsed.Name),
		Type: "String",
	}
	if entry.Name == "" {
		return PropertyEntry{}, fmt.Errorf("invalid property %q: empty name", s)
	}
	if parsed.Type != nil {
		entry.Type = strings.TrimSpace(*parsed.Type)
		if !contains(PropertyTypes, entry.Type) {
			return PropertyEntry{}, fmt.Errorf("invalid property %q: unknown type %q (expected one of %s)",
				s, entry.Type, strings.Join(PropertyTypes, ", "))
		}
	}
	if parsed.Value != nil {
		entry.Value = *parsed.Value
	}
	return entry, nil
}
