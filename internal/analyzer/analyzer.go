// Package analyzer finds component annotations in a module's compiled
// classes and turns them into component descriptors.
//
// Both the Apache Felix SCR annotations and the OSGi Declarative Services
// annotations are read straight from the class files, including the
// class-retention ones the JVM would never load. Every problem found along
// the way is reported to the diagnostics logger; the analysis itself only
// fails when the classpath cannot be read at all.
package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chilicat/scrbuild/internal/annotations"
	"github.com/chilicat/scrbuild/internal/classfile"
	"github.com/chilicat/scrbuild/internal/descriptor"
	"github.com/chilicat/scrbuild/internal/diagnostics"
	screrrors "github.com/chilicat/scrbuild/internal/errors"
	"github.com/chilicat/scrbuild/internal/models"
	"github.com/chilicat/scrbuild/internal/settings"
	"github.com/chilicat/scrbuild/internal/sourcemap"
)

// Result is what an analysis produced
type Result struct {
	// Resources maps bundle paths (OSGI-INF/<name>.xml) to descriptor bytes
	Resources map[string][]byte
	// Components in discovery order
	Components []*models.Component
	// BundleSymbolicName is the module name the descriptors were built for
	BundleSymbolicName string
	// ClassesScanned counts the classes that were parsed
	ClassesScanned int
	// ClassesSkipped counts the classes excluded by the discovery filter or
	// the optimized pre-scan
	ClassesSkipped int
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithReader replaces the class file reader
func WithReader(r ClassReader) Option {
	return func(a *Analyzer) {
		a.reader = r
	}
}

// WithSourceRoots sets the Java source roots used to locate diagnostics
func WithSourceRoots(roots ...string) Option {
	return func(a *Analyzer) {
		a.sourceRoots = roots
	}
}

// Analyzer turns annotated classes into component descriptors
type Analyzer struct {
	settings    settings.Settings
	logger      diagnostics.Logger
	registry    annotations.AnnotationRegistry
	validator   annotations.SchemaValidator
	reader      ClassReader
	sourceRoots []string
}

// New creates an analyzer for one build
func New(s settings.Settings, logger diagnostics.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		settings:  s,
		logger:    logger,
		registry:  annotations.DefaultRegistry(),
		validator: annotations.NewValidator(),
		reader:    DefaultReader,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs a one-off analysis of the module classes in cp
func Analyze(ctx context.Context, cp *Context, s settings.Settings, moduleName string, logger diagnostics.Logger, opts ...Option) (*Result, error) {
	return New(s, logger, opts...).Analyze(ctx, cp, moduleName)
}

// run is the state of one Analyze call
type run struct {
	*Analyzer
	ctx      context.Context
	resolver *resolver
	locator  *sourcemap.Locator
	scans    map[string]*scanned
	names    map[string]string // component name -> class binary name
}

// Analyze inspects every module class of cp. The returned error is only set
// when the classes cannot be listed or ctx is done; everything else is
// reported to the logger.
func (a *Analyzer) Analyze(ctx context.Context, cp *Context, moduleName string) (*Result, error) {
	filter, err := a.settings.DiscoveryGlob()
	if err != nil {
		return nil, screrrors.WrapConfigurationError("annotations", "compile", err)
	}

	paths, err := cp.ModuleClasses()
	if err != nil {
		return nil, err
	}

	diagnostics.Debugf(a.logger, "Analyzing %d classes of module %s (%s)", len(paths), moduleName, a.settings.PluginOptions())

	r := &run{
		Analyzer: a,
		ctx:      ctx,
		resolver: newResolver(cp, a.reader),
		locator:  sourcemap.NewLocator(a.sourceRoots),
		scans:    make(map[string]*scanned),
		names:    make(map[string]string),
	}
	result := &Result{
		Resources:          make(map[string][]byte),
		BundleSymbolicName: moduleName,
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, screrrors.WrapAnalysisError("analyze "+moduleName, err)
		}

		binaryName := classfile.InternalToBinary(strings.TrimSuffix(p, ".class"))
		if !filter.Match(binaryName) {
			result.ClassesSkipped++
			continue
		}

		data, err := cp.ReadModule(p)
		if err != nil {
			a.logger.Warn(fmt.Sprintf("Cannot read class file %s", p), diagnostics.Cause(err))
			continue
		}
		if a.settings.OptimizedBuild && !mentionsAnnotations(data) {
			result.ClassesSkipped++
			continue
		}

		class, err := a.reader.Read(bytes.NewReader(data))
		if err != nil {
			a.logger.Warn(fmt.Sprintf("Invalid class file %s", modulePath(cp, p)), diagnostics.Cause(err))
			continue
		}
		result.ClassesScanned++
		r.resolver.add(class)

		if c := r.component(class); c != nil {
			result.Components = append(result.Components, c)
		}
	}

	for _, c := range result.Components {
		data, err := descriptor.Generate(c, a.settings.SpecVersion)
		if err != nil {
			a.logger.Error(fmt.Sprintf("Cannot generate descriptor for component %s", c.Name),
				diagnostics.AtLocation(c.Location), diagnostics.Cause(err))
			continue
		}
		path := descriptor.Path(c)
		result.Resources[path] = data
		diagnostics.Debugf(a.logger, "Generated %s for class %s", path, c.Class)
	}

	return result, nil
}

// component maps one class to a component, or returns nil when the class
// declares none
func (r *run) component(class *classfile.Class) *models.Component {
	s := r.scan(class)

	felix := s.classAnnotation(annotations.Key{Family: annotations.Felix, Type: annotations.ComponentAnnotation})
	ds := s.classAnnotation(annotations.Key{Family: annotations.DS, Type: annotations.ComponentAnnotation})

	var c *models.Component
	switch {
	case felix != nil && ds != nil:
		r.problem(fmt.Sprintf("Class %s mixes Felix and Declarative Services @Component; using the Felix annotation", class.BinaryName()), felix.Location)
		c = r.felixComponent(s, felix)
	case felix != nil:
		c = r.felixComponent(s, felix)
	case ds != nil:
		c = r.dsComponent(s, ds)
	default:
		if s.hasAnnotations() {
			diagnostics.Debugf(r.logger, "Class %s has component annotations but no @Component, ignored", class.BinaryName())
		}
		return nil
	}
	if c == nil {
		return nil
	}

	if other, dup := r.names[c.Name]; dup {
		r.logger.Error(fmt.Sprintf("Duplicate component name %s in classes %s and %s", c.Name, other, c.Class),
			diagnostics.AtLocation(c.Location))
		return nil
	}
	r.names[c.Name] = c.Class
	return c
}

// report turns an annotation problem into a diagnostic. Missing required
// parameters are always errors; everything else follows strictMode.
func (r *run) report(e annotations.AnnotationError) {
	if e.Code() == annotations.RequiredErrorCode {
		r.logger.Error(e.Error(), diagnostics.AtLocation(e.Location()))
		return
	}
	r.problem(e.Error(), e.Location())
}

// problem logs msg as an error under strictMode and as a warning otherwise
func (r *run) problem(msg string, loc diagnostics.Location) {
	if r.settings.StrictMode {
		r.logger.Error(msg, diagnostics.AtLocation(loc))
		return
	}
	r.logger.Warn(msg, diagnostics.AtLocation(loc))
}

// validate checks p against its schema and reports every problem. It
// returns false when p cannot be used.
func (r *run) validate(p *annotations.ParsedAnnotation) bool {
	schema, err := r.registry.GetSchema(p.Key)
	if err != nil {
		return false
	}

	usable := true
	for _, e := range annotations.Flatten(r.validator.Validate(p, schema, r.settings.SpecVersion)) {
		r.report(e)
		if e.Code() == annotations.RequiredErrorCode {
			usable = false
		}
	}
	return usable
}

// has reports whether param is explicitly set on p and allowed by the
// configured spec version. Parameters newer than the spec version have
// already been reported by validate and are left out of the descriptor.
func (r *run) has(p *annotations.ParsedAnnotation, param string) bool {
	if !p.HasParameter(param) {
		return false
	}
	schema, err := r.registry.GetSchema(p.Key)
	if err != nil {
		return true
	}
	since := schema.Parameters[param].Since
	return since == "" || r.settings.SupportsSpec(since)
}

// withDefaults returns a copy of p with the schema defaults filled in
func (r *run) withDefaults(p *annotations.ParsedAnnotation) *annotations.ParsedAnnotation {
	out := *p
	out.Parameters = make(map[string]interface{}, len(p.Parameters))
	for k, v := range p.Parameters {
		out.Parameters[k] = v
	}
	if schema, err := r.registry.GetSchema(p.Key); err == nil {
		r.validator.ApplyDefaults(&out, schema)
	}
	return &out
}

// checkMethod verifies that a bind, unbind or updated method exists on the
// class or one of its super classes
func (r *run) checkMethod(class *classfile.Class, method string, ref models.Reference, generated bool) bool {
	found, unresolved := r.resolver.hasMethod(class, method)
	if found {
		return true
	}
	if generated && r.settings.GenerateAccessors {
		diagnostics.Debugf(r.logger, "Method %s for reference %s in class %s is assumed to be generated", method, ref.Name, class.BinaryName())
		return true
	}
	if unresolved != "" {
		r.logger.Warn(fmt.Sprintf("Cannot verify method %s for reference %s in class %s: super class %s is not on the classpath",
			method, ref.Name, class.BinaryName(), classfile.InternalToBinary(unresolved)),
			diagnostics.AtLocation(ref.Location))
		return true
	}
	r.logger.Error(fmt.Sprintf("Missing method %s for reference %s in class %s", method, ref.Name, class.BinaryName()),
		diagnostics.AtLocation(ref.Location))
	return false
}

// checkService verifies that the class implements a declared service interface
func (r *run) checkService(class *classfile.Class, iface string, loc diagnostics.Location) {
	found, unresolved := r.resolver.implements(class, classfile.BinaryToInternal(iface))
	if found {
		return
	}
	if unresolved != "" {
		diagnostics.Debugf(r.logger, "Cannot check service %s of class %s: %s is not on the classpath",
			iface, class.BinaryName(), classfile.InternalToBinary(unresolved))
		return
	}
	r.problem(fmt.Sprintf("Class %s does not implement service interface %s", class.BinaryName(), iface), loc)
}

// modulePath returns the file system path of a module class for messages
func modulePath(cp *Context, p string) string {
	for _, e := range cp.Entries() {
		if e.Module {
			return filepath.Join(e.Path, filepath.FromSlash(p))
		}
	}
	return p
}

// capitalize upper-cases the first letter
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
