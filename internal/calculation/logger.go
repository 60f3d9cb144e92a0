package calculation

// Logger is the logging sink for the mortgage engine. Batch operations report
// per-entity failures here instead of aborting. The default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(format string, args ...any) {}
func (NopLogger) Infof(format string, args ...any)  {}
func (NopLogger) Warnf(format string, args ...any)  {}
func (NopLogger) Errorf(format string, args ...any) {}

// orNop substitutes the no-op logger for nil
func orNop(l Logger) Logger {
	if l == nil {
		return NopLogger{}
	}
	return l
}
