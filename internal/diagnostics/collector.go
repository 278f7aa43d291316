package diagnostics

import "sync"

// Collector keeps every diagnostic in memory.
// It is the default sink for tests and the per-build error tracker.
type Collector struct {
	base
	mu      sync.Mutex
	level   Level
	entries []Diagnostic
	errors  int
}

// NewCollector creates a collector that records all levels
func NewCollector() *Collector {
	return NewCollectorAt(LevelDebug)
}

// NewCollectorAt creates a collector that records entries at or above level.
// Errors are always counted, even when the level filters them out.
func NewCollectorAt(level Level) *Collector {
	c := &Collector{level: level}
	c.base = base{r: c}
	return c
}

func (c *Collector) record(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d.Level >= LevelError {
		c.errors++
	}
	if d.Level >= c.level {
		c.entries = append(c.entries, d)
	}
}

// Enabled reports whether entries at level are recorded
func (c *Collector) Enabled(level Level) bool {
	return level >= c.level
}

// ErrorPrinted reports whether an error has been recorded
func (c *Collector) ErrorPrinted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors > 0
}

// Entries returns a copy of the recorded diagnostics
func (c *Collector) Entries() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Diagnostic, len(c.entries))
	copy(out, c.entries)
	return out
}

// ByLevel returns the recorded diagnostics of exactly one level
func (c *Collector) ByLevel(level Level) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Diagnostic
	for _, d := range c.entries {
		if d.Level == level {
			out = append(out, d)
		}
	}
	return out
}

// Count returns how many diagnostics of level were recorded
func (c *Collector) Count(level Level) int {
	return len(c.ByLevel(level))
}

// Reset drops all entries and clears the error state
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.errors = 0
}
