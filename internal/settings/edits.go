package settings

// Edits describes a set of pending changes. Nil fields are left untouched.
type Edits struct {
	Enabled           *bool
	StrictMode        *bool
	GenerateAccessors *bool
	OptimizedBuild    *bool
	DebugLogging      *bool
	SpecVersion       *string
	ManifestPolicy    *ManifestPolicy
	Annotations       *string
}

// IsEmpty reports whether the edits change nothing
func (e Edits) IsEmpty() bool {
	return e.Enabled == nil && e.StrictMode == nil && e.GenerateAccessors == nil &&
		e.OptimizedBuild == nil && e.DebugLogging == nil && e.SpecVersion == nil &&
		e.ManifestPolicy == nil && e.Annotations == nil
}

// Apply returns current with edits applied. current is never modified and
// the result is validated; on error current is returned unchanged.
func Apply(current Settings, edits Edits) (Settings, error) {
	next := current

	if edits.Enabled != nil {
		next.Enabled = *edits.Enabled
	}
	if edits.StrictMode != nil {
		next.StrictMode = *edits.StrictMode
	}
	if edits.GenerateAccessors != nil {
		next.GenerateAccessors = *edits.GenerateAccessors
	}
	if edits.OptimizedBuild != nil {
		next.OptimizedBuild = *edits.OptimizedBuild
	}
	if edits.DebugLogging != nil {
		next.DebugLogging = *edits.DebugLogging
	}
	if edits.SpecVersion != nil {
		next.SpecVersion = *edits.SpecVersion
	}
	if edits.ManifestPolicy != nil {
		next.ManifestPolicy = *edits.ManifestPolicy
	}
	if edits.Annotations != nil {
		next.Annotations = *edits.Annotations
	}

	if err := next.Validate(); err != nil {
		return current, err
	}
	return next, nil
}
