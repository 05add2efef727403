package scene

import (
	"fmt"
	"log"

	"github.com/mogaika/haydee_tools/hd"
)

// Diagnostic is a non fatal problem with one record of a file.
type Diagnostic struct {
	Kind    hd.Kind `yaml:"kind,omitempty"`
	Record  string  `yaml:"record,omitempty"`
	Message string  `yaml:"message"`
}

func (d Diagnostic) String() string {
	s := d.Message
	if d.Record != "" {
		s = d.Record + ": " + s
	}
	if d.Kind != 0 {
		s = fmt.Sprintf("[%v] %s", d.Kind, s)
	}
	return s
}

type Diagnostics []Diagnostic

func (ds *Diagnostics) Add(kind hd.Kind, record string, format string, a ...interface{}) {
	*ds = append(*ds, Diagnostic{Kind: kind, Record: record, Message: fmt.Sprintf(format, a...)})
}

// Warnf records a diagnostic that has no taxonomy kind.
func (ds *Diagnostics) Warnf(record string, format string, a ...interface{}) {
	ds.Add(0, record, format, a...)
}

func (ds *Diagnostics) Append(other Diagnostics) {
	*ds = append(*ds, other...)
}

func (ds Diagnostics) Log(prefix string) {
	for _, d := range ds {
		log.Printf("[%s] warning: %v", prefix, d)
	}
}

func (ds Diagnostics) Count(kind hd.Kind) int {
	n := 0
	for _, d := range ds {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
