package logging

import (
	"fmt"
	"io"
	"os"
)

// EarlyLog reports problems before the structured logger exists, i.e. while
// the configuration is still being loaded.
type EarlyLog struct {
	out    io.Writer
	errOut io.Writer
	exit   func(code int)
}

func NewEarlyLog() *EarlyLog {
	return &EarlyLog{out: os.Stdout, errOut: os.Stderr, exit: os.Exit}
}

func NewEarlyLogTo(out, errOut io.Writer) *EarlyLog {
	return &EarlyLog{out: out, errOut: errOut, exit: os.Exit}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	fmt.Fprintf(l.errOut, "ERROR: "+msg+"\n", args...)
}

func (l *EarlyLog) Fatal(msg string, args ...interface{}) {
	fmt.Fprintf(l.errOut, "FATAL: "+msg+"\n", args...)
	l.exit(1)
}

func (l *EarlyLog) Warn(msg string, args ...interface{}) {
	fmt.Fprintf(l.errOut, "WARN: "+msg+"\n", args...)
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	fmt.Fprintf(l.out, "INFO: "+msg+"\n", args...)
}
