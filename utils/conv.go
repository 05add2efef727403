package utils

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mogaika/haydee_tools/config"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// BytesToString decodes a null terminated single-byte string with the configured charmap.
func BytesToString(bs []byte) string {
	n := bytes.IndexByte(bs, 0)
	if n < 0 {
		n = len(bs)
	}

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		// single-byte charmaps decode every byte
		return string(bs[0:n])
	}

	return string(s)
}

// BytesToStringAll decodes the whole buffer with the configured charmap.
func BytesToStringAll(bs []byte) string {
	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs)
	if err != nil {
		return string(bs)
	}
	return string(s)
}

// StringToBytesBuffer encodes s into a zero padded buffer of bufSize bytes.
func StringToBytesBuffer(s string, bufSize int, nilTerminate bool) ([]byte, error) {
	bs, err := StringToBytes(s, nilTerminate)
	if err != nil {
		return nil, err
	}
	if len(bs) > bufSize {
		return nil, errors.Errorf("String %q does not fit into %d bytes", s, bufSize)
	}
	r := make([]byte, bufSize)
	copy(r, bs)
	return r, nil
}

func StringToBytes(s string, nilTerminate bool) ([]byte, error) {
	bs, _, err := transform.Bytes(config.GetEncoding().NewEncoder(), []byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to encode %q as %v", s, config.GetEncoding())
	}

	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs, nil
}

// DecodeUTF16 converts little-endian UTF-16 (without BOM) into a go string.
func DecodeUTF16(bs []byte) (string, error) {
	if len(bs)%2 != 0 {
		return "", errors.Errorf("Odd utf-16 byte length %d", len(bs))
	}
	s, _, err := transform.Bytes(utf16le.NewDecoder(), bs)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to decode utf-16")
	}
	return string(s), nil
}

// EncodeUTF16 returns the little-endian UTF-16 bytes of s and its length in code units.
func EncodeUTF16(s string) ([]byte, int) {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf, len(units)
}

func AsBytes(data interface{}) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
