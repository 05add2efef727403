package chunk

import (
	"github.com/mogaika/haydee_tools/hd"
)

// Values holds the decoded entries of a container.
type Values struct {
	values  map[string]interface{}
	entries map[string]*Entry
}

// Present reports whether an entry with the name was declared, valued or not.
func (v *Values) Present(name string) bool {
	_, ok := v.entries[name]
	return ok
}

func (v *Values) Int(name string) (int32, bool) {
	i, ok := v.values[name].(int32)
	return i, ok
}

func (v *Values) Float(name string) (float32, bool) {
	f, ok := v.values[name].(float32)
	return f, ok
}

func (v *Values) Floats(name string) ([]float32, bool) {
	fs, ok := v.values[name].([]float32)
	return fs, ok
}

func (v *Values) Text(name string) (string, bool) {
	s, ok := v.values[name].(string)
	return s, ok
}

// MustInt returns a required integer entry.
func (v *Values) MustInt(name string) (int, error) {
	i, ok := v.Int(name)
	if !ok {
		return 0, hd.Errorf(hd.MissingRequiredEntry, "Entry %q is missing", name)
	}
	return int(i), nil
}

// Records splits a record array entry into count records. The stride is
// derived from the entry size and must hold at least minSize bytes.
func (v *Values) Records(name string, count int, minSize int) ([][]byte, error) {
	if count == 0 {
		return nil, nil
	}
	raw, ok := v.values[name].([]byte)
	if !ok {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "Entry %q is missing", name)
	}
	if count < 0 {
		return nil, hd.Errorf(hd.StructuralMismatch, "Entry %q has negative count %d", name, count)
	}
	stride := len(raw) / count
	if stride < minSize {
		return nil, hd.Errorf(hd.StructuralMismatch,
			"Entry %q of %d bytes can not hold %d records of %d bytes", name, len(raw), count, minSize)
	}
	out := make([][]byte, count)
	for i := range out {
		out[i] = raw[i*stride : i*stride+stride]
	}
	return out, nil
}
