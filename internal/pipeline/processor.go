// Package pipeline runs the descriptor build of a module: clean the stale
// descriptors, analyze the classes, write the descriptors and patch the
// manifest.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/chilicat/scrbuild/internal/analyzer"
	"github.com/chilicat/scrbuild/internal/classpath"
	"github.com/chilicat/scrbuild/internal/cleaner"
	"github.com/chilicat/scrbuild/internal/diagnostics"
	"github.com/chilicat/scrbuild/internal/manifest"
	"github.com/chilicat/scrbuild/internal/materializer"
	"github.com/chilicat/scrbuild/internal/metrics"
	"github.com/chilicat/scrbuild/internal/settings"
)

// descriptorGlob matches the generated resources that make a bundle declare
// Service-Component
const descriptorGlob = "OSGI-INF/*.xml"

// State is the step a Processor has reached
type State int

const (
	StateInit State = iota
	StateClassDirResolved
	StateCleaned
	StateAnalyzed
	StateWritten
	StateManifestUpdated
	StateDone
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateClassDirResolved:
		return "ClassDirResolved"
	case StateCleaned:
		return "Cleaned"
	case StateAnalyzed:
		return "Analyzed"
	case StateWritten:
		return "Written"
	case StateManifestUpdated:
		return "ManifestUpdated"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// BuildContext is everything one module build needs. It is read-only while
// the build runs.
type BuildContext struct {
	ModuleName  string
	OutputDir   string
	SourceRoots []string
	Classpath   []string
	Settings    settings.Settings
	Logger      diagnostics.Logger
}

// FromModule creates the build context of a project module
func FromModule(p *settings.Project, m settings.Module, logger diagnostics.Logger) BuildContext {
	return BuildContext{
		ModuleName:  m.Name,
		OutputDir:   m.Output,
		SourceRoots: m.SourceRoots,
		Classpath:   m.Classpath,
		Settings:    p.SettingsFor(m),
		Logger:      logger,
	}
}

// Result summarizes a finished build
type Result struct {
	BuildID         string
	Module          string
	Success         bool
	State           State
	Components      int
	Written         []string
	Removed         []string
	ManifestUpdated bool
	Duration        time.Duration
	Warnings        int
	Errors          int
}

// Option configures a Processor
type Option func(*Processor)

// WithAnalyzerOptions passes options to the analyzer
func WithAnalyzerOptions(opts ...analyzer.Option) Option {
	return func(p *Processor) {
		p.analyzerOpts = append(p.analyzerOpts, opts...)
	}
}

// WithMetrics records the build in the Prometheus collectors
func WithMetrics(enabled bool) Option {
	return func(p *Processor) {
		p.metrics = enabled
	}
}

// Processor runs one descriptor build. It is single use.
type Processor struct {
	bc           BuildContext
	logger       diagnostics.Logger
	counts       *diagnostics.Collector
	state        State
	result       Result
	analyzerOpts []analyzer.Option
	metrics      bool
}

// NewProcessor creates a processor for bc. A nil bc.Logger discards
// everything but still tracks errors. Success only depends on errors of this
// build, so bc.Logger may be shared by several builds.
func NewProcessor(bc BuildContext, opts ...Option) *Processor {
	counts := diagnostics.NewCollectorAt(diagnostics.LevelWarn)
	logger := diagnostics.Logger(counts)
	if bc.Logger != nil {
		logger = diagnostics.NewTee(bc.Logger, counts)
	}

	p := &Processor{
		bc:     bc,
		logger: logger,
		counts: counts,
		result: Result{BuildID: uuid.NewString(), Module: bc.ModuleName},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the step the build has reached
func (p *Processor) State() State {
	return p.state
}

// Result returns the summary of the build. It is complete after Execute.
func (p *Processor) Result() Result {
	return p.result
}

// Execute runs the build. It returns true when no error was logged.
func (p *Processor) Execute() bool {
	return p.ExecuteContext(context.Background())
}

// ExecuteContext runs the build; ctx bounds the class analysis
func (p *Processor) ExecuteContext(ctx context.Context) bool {
	start := time.Now()
	ok := p.execute(ctx)

	p.result.Success = ok
	p.result.State = p.state
	p.result.Duration = time.Since(start)
	p.result.Warnings = p.counts.Count(diagnostics.LevelWarn)
	p.result.Errors = p.counts.Count(diagnostics.LevelError)

	if p.metrics {
		metrics.ObserveBuild(p.bc.ModuleName, ok, p.result.Duration, p.result.Components, len(p.result.Removed))
		metrics.ObserveDiagnostics(p.bc.ModuleName, p.counts)
	}
	diagnostics.Debugf(p.logger, "[%s] Build of module %s finished in %s, success=%t",
		p.result.BuildID, p.bc.ModuleName, p.result.Duration.Round(time.Millisecond), ok)
	return ok
}

func (p *Processor) execute(ctx context.Context) bool {
	bc := p.bc
	s := bc.Settings

	if !s.Enabled {
		p.logger.Info(fmt.Sprintf("SCR processing disabled for module %s", bc.ModuleName))
		p.state = StateDone
		return true
	}

	if bc.OutputDir == "" {
		p.logger.Error(fmt.Sprintf("Compiler Output path must be set for: %s", bc.ModuleName))
		return false
	}
	p.state = StateClassDirResolved
	diagnostics.Debugf(p.logger, "[%s] Class dir: %s", p.result.BuildID, bc.OutputDir)

	p.result.Removed = cleaner.Clean(bc.OutputDir, bc.SourceRoots, p.logger)
	p.state = StateCleaned

	resources, ok := p.analyze(ctx)
	if !ok {
		return false
	}
	p.state = StateAnalyzed

	p.result.Written = materializer.Write(resources, bc.OutputDir, p.logger)
	p.state = StateWritten

	p.result.ManifestUpdated = manifest.Patch(bc.OutputDir, hasDescriptors(resources), bc.ModuleName, s.ManifestPolicy, p.logger)
	p.state = StateManifestUpdated

	p.state = StateDone
	return !p.counts.ErrorPrinted()
}

// analyze opens the analysis context, runs the analyzer and releases the
// context on every path. Failures of the context itself are terminal.
func (p *Processor) analyze(ctx context.Context) (resources map[string][]byte, ok bool) {
	bc := p.bc

	cp, err := analyzer.Open(classpath.Build(bc.OutputDir, bc.Classpath, p.logger))
	if err != nil {
		p.logger.Error(fmt.Sprintf("Cannot open the analysis classpath of module %s", bc.ModuleName), diagnostics.Cause(err))
		return nil, false
	}
	defer func() {
		if err := cp.Close(); err != nil {
			p.logger.Error(fmt.Sprintf("Cannot close the analysis classpath of module %s", bc.ModuleName), diagnostics.Cause(err))
			ok = false
		}
	}()

	opts := append([]analyzer.Option{analyzer.WithSourceRoots(bc.SourceRoots...)}, p.analyzerOpts...)
	res, err := analyzer.Analyze(ctx, cp, bc.Settings, bc.ModuleName, p.logger, opts...)
	if err != nil {
		p.logger.Error(fmt.Sprintf("Analysis of module %s failed", bc.ModuleName), diagnostics.Cause(err))
		return nil, false
	}
	p.result.Components = len(res.Components)
	diagnostics.Debugf(p.logger, "[%s] Scanned %d classes, skipped %d, found %d components",
		p.result.BuildID, res.ClassesScanned, res.ClassesSkipped, len(res.Components))
	return res.Resources, true
}

// hasDescriptors reports whether any resource is a descriptor XML
func hasDescriptors(resources map[string][]byte) bool {
	for p := range resources {
		if ok, _ := doublestar.Match(descriptorGlob, p); ok {
			return true
		}
	}
	return false
}
