// Package settings holds the per-build configuration snapshot.
//
// Settings is a plain value: a build receives a copy and nothing it does can
// reach back into the caller's instance. Changes are expressed as Edits and
// applied with Apply, which returns a new value.
package settings

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/mod/semver"

	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

// ManifestPolicy decides how the Service-Component header is written
type ManifestPolicy int

const (
	// ManifestOverwrite replaces the header with the descriptor glob
	ManifestOverwrite ManifestPolicy = iota
)

// String returns the string representation of the policy
func (p ManifestPolicy) String() string {
	switch p {
	case ManifestOverwrite:
		return "Overwrite"
	default:
		return "Unknown"
	}
}

// ParseManifestPolicy converts a policy name to a ManifestPolicy
func ParseManifestPolicy(s string) (ManifestPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "":
		return ManifestOverwrite, nil
	default:
		return ManifestOverwrite, fmt.Errorf("unknown manifest policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (p ManifestPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *ManifestPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseManifestPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Spec versions understood by the descriptor generator
const (
	Spec10      = "1.0"
	Spec11      = "1.1"
	Spec11Felix = "1.1-felix"
	Spec12      = "1.2"
	Spec13      = "1.3"
)

// SpecVersions lists the accepted spec versions in ascending order
var SpecVersions = []string{Spec10, Spec11, Spec11Felix, Spec12, Spec13}

// Settings is the configuration snapshot of one build
type Settings struct {
	Enabled           bool           `yaml:"enabled"`
	StrictMode        bool           `yaml:"strictMode"`
	GenerateAccessors bool           `yaml:"generateAccessors"`
	OptimizedBuild    bool           `yaml:"optimizedBuild"`
	DebugLogging      bool           `yaml:"debugLogging"`
	SpecVersion       string         `yaml:"specVersion"`
	ManifestPolicy    ManifestPolicy `yaml:"manifestPolicy"`

	// Annotations is a glob over class binary names selecting the classes
	// inspected for annotations. "*" inspects every class.
	Annotations string `yaml:"annotations"`

	// ImportPackage mirrors the import policy of the bundle ("*" imports
	// everything referenced). Kept for parity; it does not change descriptors.
	ImportPackage string `yaml:"importPackage"`
}

// Default returns the settings a fresh project starts with
func Default() Settings {
	return Settings{
		Enabled:           true,
		StrictMode:        true,
		GenerateAccessors: true,
		OptimizedBuild:    true,
		DebugLogging:      false,
		SpecVersion:       Spec11,
		ManifestPolicy:    ManifestOverwrite,
		Annotations:       "*",
		ImportPackage:     "*",
	}
}

// Validate checks that the settings can drive a build
func (s Settings) Validate() error {
	if !IsKnownSpec(s.SpecVersion) {
		return screrrors.Newf(screrrors.ConfigurationErrorCode,
			"unsupported spec version %q (supported: %s)", s.SpecVersion, strings.Join(SpecVersions, ", "))
	}
	if s.ManifestPolicy != ManifestOverwrite {
		return screrrors.Newf(screrrors.ConfigurationErrorCode, "unsupported manifest policy %d", int(s.ManifestPolicy))
	}
	if _, err := s.DiscoveryGlob(); err != nil {
		return screrrors.WrapConfigurationError("annotations", "compile", err)
	}
	return nil
}

// DiscoveryGlob compiles the Annotations pattern with '.' as separator,
// so "com.acme.*" matches one package level and "com.acme.**" any depth.
func (s Settings) DiscoveryGlob() (glob.Glob, error) {
	pattern := s.Annotations
	if pattern == "" {
		pattern = "*"
	}
	if pattern == "*" {
		pattern = "**"
	}
	return glob.Compile(pattern, '.')
}

// PluginOptions renders the generator options the way they are logged at
// the start of a build: strictMode=..;generateAccessors=..;specVersion=..;log=..
func (s Settings) PluginOptions() string {
	logLevel := "Warn"
	if s.DebugLogging {
		logLevel = "Debug"
	}
	return fmt.Sprintf("strictMode=%t;generateAccessors=%t;specVersion=%s;log=%s",
		s.StrictMode, s.GenerateAccessors, s.SpecVersion, logLevel)
}

// SupportsSpec reports whether the configured spec version is at least v
func (s Settings) SupportsSpec(v string) bool {
	return CompareSpec(s.SpecVersion, v) >= 0
}

// IsKnownSpec reports whether v is one of SpecVersions
func IsKnownSpec(v string) bool {
	for _, known := range SpecVersions {
		if v == known {
			return true
		}
	}
	return false
}

// CompareSpec compares two spec versions ignoring vendor suffixes.
// The result is -1, 0 or +1 as with semver.Compare.
func CompareSpec(a, b string) int {
	return semver.Compare(specSemver(a), specSemver(b))
}

func specSemver(v string) string {
	if i := strings.Index(v, "-"); i >= 0 {
		v = v[:i]
	}
	return "v" + v
}
