package main

import (
	"fmt"
	"io"
	"log"
)

// cliLogger writes engine log lines to stderr. Debug lines need --verbose.
type cliLogger struct {
	out     *log.Logger
	verbose bool
}

func newCLILogger(w io.Writer, verbose bool) *cliLogger {
	return &cliLogger{out: log.New(w, "", log.Ltime), verbose: verbose}
}

func (l *cliLogger) Debugf(format string, args ...any) {
	if l.verbose {
		l.print("DEBUG", format, args...)
	}
}

func (l *cliLogger) Infof(format string, args ...any) {
	if l.verbose {
		l.print("INFO", format, args...)
	}
}

func (l *cliLogger) Warnf(format string, args ...any)  { l.print("WARN", format, args...) }
func (l *cliLogger) Errorf(format string, args ...any) { l.print("ERROR", format, args...) }

func (l *cliLogger) print(level, format string, args ...any) {
	l.out.Printf("%-5s %s", level, fmt.Sprintf(format, args...))
}
