package txt

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/utils"
)

const VERSION = "300"

// Writer emits tab indented HD_DATA_TXT statements.
type Writer struct {
	buf   bytes.Buffer
	depth int
}

func NewWriter() *Writer {
	w := &Writer{}
	w.buf.WriteString(string(hd.MAGIC_TEXT) + " " + VERSION + "\n\n")
	return w
}

func (w *Writer) indent() {
	for i := 0; i < w.depth; i++ {
		w.buf.WriteByte('\t')
	}
}

func (w *Writer) statement(key string, args []string) {
	w.indent()
	w.buf.WriteString(key)
	for _, a := range args {
		w.buf.WriteByte(' ')
		w.buf.WriteString(a)
	}
}

// Open writes a statement that owns a block and enters it.
func (w *Writer) Open(key string, args ...string) {
	w.statement(key, args)
	w.buf.WriteByte('\n')
	w.indent()
	w.buf.WriteString("{\n")
	w.depth++
}

func (w *Writer) Close() {
	w.depth--
	w.indent()
	w.buf.WriteString("}\n")
}

// Line writes a `key args;` statement.
func (w *Writer) Line(key string, args ...string) {
	w.statement(key, args)
	w.buf.WriteString(";\n")
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func Quote(s string) string {
	return "\"" + s + "\""
}

func Int(i int) string {
	return strconv.Itoa(i)
}

func Float(f float64) string {
	return utils.FormatFloat(f)
}

func Floats(fs ...float64) []string {
	return strings.Fields(utils.FormatFloats(fs...))
}

func Ints(is ...int) []string {
	out := make([]string, len(is))
	for i, v := range is {
		out[i] = strconv.Itoa(v)
	}
	return out
}

func Bool(b bool) string {
	return strconv.FormatBool(b)
}
