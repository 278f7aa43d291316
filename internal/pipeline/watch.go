package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chilicat/scrbuild/internal/cleaner"
	"github.com/chilicat/scrbuild/internal/diagnostics"
	screrrors "github.com/chilicat/scrbuild/internal/errors"
)

const defaultDebounce = 300 * time.Millisecond

// WatchOptions configures Watch
type WatchOptions struct {
	RunOptions
	// Debounce is how long to wait for more class changes before rebuilding
	Debounce time.Duration
	// OnBuild receives the result of the initial build and of every rebuild
	OnBuild func(Result)
	// Logger receives the watcher's own diagnostics
	Logger diagnostics.Logger
}

func (o WatchOptions) debounce() time.Duration {
	if o.Debounce > 0 {
		return o.Debounce
	}
	return defaultDebounce
}

// Watch builds every module once and then rebuilds a module whenever class
// files below its output directory change. Files the build writes itself
// (OSGI-INF and META-INF) never trigger a rebuild. Watch returns nil when ctx
// is done after the initial build, and ctx's error when it ends before.
func Watch(ctx context.Context, modules []BuildContext, opts WatchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = diagnostics.NewCollectorAt(diagnostics.LevelError)
	}
	onBuild := opts.OnBuild
	if onBuild == nil {
		onBuild = func(Result) {}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return screrrors.WrapFileSystemError("create watcher for", "output directories", err)
	}
	defer w.Close()

	roots := make([]string, len(modules))
	for i, bc := range modules {
		roots[i] = filepath.Clean(bc.OutputDir)
		if err := addRecursive(w, roots[i], roots[i]); err != nil {
			return screrrors.WrapFileSystemError("watch", roots[i], err)
		}
	}

	results, err := RunAll(ctx, modules, opts.RunOptions)
	if err != nil {
		return err
	}
	for _, r := range results {
		onBuild(r)
	}

	d := newDebouncer(opts.debounce())
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			i := owner(roots, ev.Name)
			if i < 0 {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !generated(roots[i], ev.Name) {
					if err := addRecursive(w, roots[i], ev.Name); err != nil {
						logger.Warn(fmt.Sprintf("Cannot watch %s", ev.Name), diagnostics.Cause(err))
					}
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".class") || generated(roots[i], ev.Name) {
				continue
			}
			diagnostics.Debugf(logger, "Change in module %s: %s", modules[i].ModuleName, ev)
			d.schedule(i)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error", diagnostics.Cause(err))

		case i := <-d.fire:
			d.fired(i)
			onBuild(opts.Build(ctx, modules[i]))
		}
	}
}

// debouncer delays a module's rebuild until its changes settle. Pending
// timers never outlive stop.
type debouncer struct {
	delay  time.Duration
	fire   chan int
	done   chan struct{}
	timers map[int]*time.Timer
	wg     sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		fire:   make(chan int),
		done:   make(chan struct{}),
		timers: make(map[int]*time.Timer),
	}
}

// schedule (re)starts the timer of module i
func (d *debouncer) schedule(i int) {
	if t, ok := d.timers[i]; ok && t.Stop() {
		d.wg.Done()
	}
	d.wg.Add(1)
	d.timers[i] = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		select {
		case d.fire <- i:
		case <-d.done:
		}
	})
}

// fired forgets the timer of module i once its rebuild was received
func (d *debouncer) fired(i int) {
	delete(d.timers, i)
}

// stop cancels pending timers and waits for those already running
func (d *debouncer) stop() {
	close(d.done)
	for i, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, i)
	}
	d.wg.Wait()
}

// addRecursive watches dir and its sub directories, except the directories
// the build writes to
func addRecursive(w *fsnotify.Watcher, root, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if generated(root, p) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

// generated reports whether p lies in OSGI-INF or META-INF of root
func generated(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	first, _, _ := strings.Cut(filepath.ToSlash(rel), "/")
	return first == cleaner.DescriptorDir || first == "META-INF"
}

// owner returns the index of the root containing p, preferring the deepest
func owner(roots []string, p string) int {
	best, bestLen := -1, -1
	for i, root := range roots {
		if (p == root || strings.HasPrefix(p, root+string(filepath.Separator))) && len(root) > bestLen {
			best, bestLen = i, len(root)
		}
	}
	return best
}
