package diagnostics

// Tee fans every diagnostic out to several loggers
type Tee struct {
	base
	loggers []Logger
}

// NewTee creates a logger that forwards to all of loggers.
// ErrorPrinted is true when any of them recorded an error.
func NewTee(loggers ...Logger) *Tee {
	t := &Tee{loggers: loggers}
	t.base = base{r: t}
	return t
}

func (t *Tee) record(d Diagnostic) {
	opts := []Option{AtLocation(d.Location), Cause(d.Err)}
	for _, l := range t.loggers {
		switch d.Level {
		case LevelDebug:
			if l.Enabled(LevelDebug) {
				l.Debug(d.Message, opts...)
			}
		case LevelInfo:
			l.Info(d.Message, opts...)
		case LevelWarn:
			l.Warn(d.Message, opts...)
		default:
			l.Error(d.Message, opts...)
		}
	}
}

// Enabled is true when at least one target accepts level
func (t *Tee) Enabled(level Level) bool {
	for _, l := range t.loggers {
		if l.Enabled(level) {
			return true
		}
	}
	return false
}

// ErrorPrinted is true when any target recorded an error
func (t *Tee) ErrorPrinted() bool {
	for _, l := range t.loggers {
		if l.ErrorPrinted() {
			return true
		}
	}
	return false
}
