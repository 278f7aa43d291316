package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chilicat/scrbuild/internal/analyzer"
	"github.com/chilicat/scrbuild/internal/diagnostics"
)

// RunOptions configures builds of several modules
type RunOptions struct {
	// Concurrency bounds the parallel builds; 0 means GOMAXPROCS
	Concurrency int
	// NewLogger returns a fresh logger for each build of a module. When nil,
	// the logger of the build context is used.
	NewLogger func(module string) diagnostics.Logger
	// AnalyzerOptions are passed to every analyzer
	AnalyzerOptions []analyzer.Option
	// Metrics records every build in the Prometheus collectors
	Metrics bool
}

func (o RunOptions) limit() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Build runs one module build with its own processor and logger
func (o RunOptions) Build(ctx context.Context, bc BuildContext) Result {
	if o.NewLogger != nil {
		bc.Logger = o.NewLogger(bc.ModuleName)
	}
	p := NewProcessor(bc, WithAnalyzerOptions(o.AnalyzerOptions...), WithMetrics(o.Metrics))
	p.ExecuteContext(ctx)
	return p.Result()
}

// RunAll builds the modules concurrently. Builds share nothing; a failed
// build does not stop the others. Results are returned in module order. The
// error is only set when ctx ends before every build has started.
func RunAll(ctx context.Context, modules []BuildContext, opts RunOptions) ([]Result, error) {
	results := make([]Result, len(modules))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.limit())
	for i, bc := range modules {
		if err := gctx.Err(); err != nil {
			break
		}
		i, bc := i, bc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = opts.Build(gctx, bc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// Succeeded reports whether every result is successful
func Succeeded(results []Result) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
