package chunk

import (
	"encoding/binary"
	"math"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/utils"
)

// Field is one entry of a decode table: a payload decoder and encoder
// with the arity they were declared with.
type Field struct {
	Decode func(raw []byte, arity int) (interface{}, error)
	Encode func(value interface{}, arity int) ([]byte, error)
	Arity  int
}

// Schema maps entry names to their field decoders.
type Schema map[string]Field

var (
	Int32 = Field{Decode: decodeInt32, Encode: encodeInt32}
	Float = Field{Decode: decodeFloat, Encode: encodeFloat}
	// length prefixed utf-8
	StrA = Field{Decode: decodeStrA, Encode: encodeStrA}
	// character count prefixed utf-16le
	StrW = Field{Decode: decodeStrW, Encode: encodeStrW}
	// payload kept as is, split by the format reader
	Records = Field{Decode: decodeRaw, Encode: encodeRaw}
)

func Floats(n int) Field {
	return Field{Decode: decodeFloats, Encode: encodeFloats, Arity: n}
}

// Latin1 is a zero terminated single byte string of at most max bytes.
func Latin1(max int) Field {
	return Field{Decode: decodeLatin1, Encode: encodeLatin1, Arity: max}
}

func need(raw []byte, n int, what string) error {
	if len(raw) < n {
		return hd.Errorf(hd.StructuralMismatch, "%s needs %d bytes, got %d", what, n, len(raw))
	}
	return nil
}

func decodeInt32(raw []byte, _ int) (interface{}, error) {
	if err := need(raw, 4, "int32"); err != nil {
		return nil, err
	}
	return int32(binary.LittleEndian.Uint32(raw)), nil
}

func encodeInt32(v interface{}, _ int) ([]byte, error) {
	var i int32
	switch t := v.(type) {
	case int32:
		i = t
	case int:
		i = int32(t)
	case uint32:
		i = int32(t)
	default:
		return nil, hd.Errorf(hd.EncodingError, "int32 field got %T", v)
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(i))
	return buf, nil
}

func decodeFloat(raw []byte, _ int) (interface{}, error) {
	if err := need(raw, 4, "float"); err != nil {
		return nil, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(raw)), nil
}

func encodeFloat(v interface{}, _ int) ([]byte, error) {
	var f float32
	switch t := v.(type) {
	case float32:
		f = t
	case float64:
		f = float32(t)
	default:
		return nil, hd.Errorf(hd.EncodingError, "float field got %T", v)
	}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
	return buf, nil
}

func decodeFloats(raw []byte, n int) (interface{}, error) {
	if err := need(raw, n*4, "float vector"); err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}

func encodeFloats(v interface{}, n int) ([]byte, error) {
	fs, ok := v.([]float32)
	if !ok {
		return nil, hd.Errorf(hd.EncodingError, "float vector field got %T", v)
	}
	if len(fs) != n {
		return nil, hd.Errorf(hd.ArityMismatch, "float vector of %d, expected %d", len(fs), n)
	}
	buf := make([]byte, n*4)
	for i, f := range fs {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf, nil
}

func decodeStrA(raw []byte, _ int) (interface{}, error) {
	if err := need(raw, 4, "string length"); err != nil {
		return nil, err
	}
	l := int(int32(binary.LittleEndian.Uint32(raw)))
	if l < 0 {
		return nil, hd.Errorf(hd.StructuralMismatch, "negative string length %d", l)
	}
	if err := need(raw[4:], l, "string"); err != nil {
		return nil, err
	}
	return string(raw[4 : 4+l]), nil
}

func encodeStrA(v interface{}, _ int) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, hd.Errorf(hd.EncodingError, "string field got %T", v)
	}
	buf := make([]byte, 4+len(s)+1)
	binary.LittleEndian.PutUint32(buf, uint32(len(s)))
	copy(buf[4:], s)
	return buf, nil
}

func decodeStrW(raw []byte, _ int) (interface{}, error) {
	if err := need(raw, 4, "wide string length"); err != nil {
		return nil, err
	}
	l := int(int32(binary.LittleEndian.Uint32(raw)))
	if l < 0 {
		return nil, hd.Errorf(hd.StructuralMismatch, "negative string length %d", l)
	}
	if err := need(raw[4:], l*2, "wide string"); err != nil {
		return nil, err
	}
	s, err := utils.DecodeUTF16(raw[4 : 4+l*2])
	if err != nil {
		return nil, hd.Wrapf(hd.EncodingError, err, "wide string")
	}
	return s, nil
}

func encodeStrW(v interface{}, _ int) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, hd.Errorf(hd.EncodingError, "wide string field got %T", v)
	}
	enc, count := utils.EncodeUTF16(s)
	buf := make([]byte, 4, 4+len(enc)+2)
	binary.LittleEndian.PutUint32(buf, uint32(count))
	buf = append(buf, enc...)
	return append(buf, 0, 0), nil
}

func decodeLatin1(raw []byte, max int) (interface{}, error) {
	if max > 0 && len(raw) > max {
		raw = raw[:max]
	}
	return utils.BytesToString(raw), nil
}

func encodeLatin1(v interface{}, max int) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, hd.Errorf(hd.EncodingError, "latin1 field got %T", v)
	}
	buf, err := utils.StringToBytes(s, true)
	if err != nil {
		return nil, hd.Wrapf(hd.EncodingError, err, "latin1 %q", s)
	}
	if max > 0 && len(buf) > max {
		return nil, hd.Errorf(hd.EncodingError, "latin1 %q longer than %d bytes", s, max-1)
	}
	return buf, nil
}

func decodeRaw(raw []byte, _ int) (interface{}, error) {
	return raw, nil
}

func encodeRaw(v interface{}, _ int) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, hd.Errorf(hd.EncodingError, "record field got %T", v)
	}
	return b, nil
}
