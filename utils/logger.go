package utils

import (
	"fmt"
	"io"
)

// Logger writes verbose traces; a nil *Logger discards everything.
type Logger struct {
	io.Writer
}

func (l *Logger) Println(a ...interface{}) {
	if l != nil {
		fmt.Fprintln(l, a...)
	}
}

func (l *Logger) Printf(format string, a ...interface{}) {
	if l != nil {
		fmt.Fprintf(l, format+"\n", a...)
	}
}

// Verbose is the default trace sink of builders and samplers, nil unless
// enabled with SetVerbose.
var Verbose *Logger

func SetVerbose(w io.Writer) {
	if w == nil {
		Verbose = nil
	} else {
		Verbose = &Logger{Writer: w}
	}
}
