package config

import (
	"strings"

	"github.com/pkg/errors"
)

type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatH1
	FormatH2 // Haydee 2, vertically flipped UVs
)

var fileFormat FileFormat = FormatH2

func (f FileFormat) String() string {
	switch f {
	case FormatH1:
		return "H1"
	case FormatH2:
		return "H2"
	default:
		return "unknown"
	}
}

// FlipsUV reports whether v is stored as 1-v in files of this format.
func (f FileFormat) FlipsUV() bool {
	return f == FormatH2
}

func ParseFileFormat(s string) (FileFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "H1", "1":
		return FormatH1, nil
	case "H2", "2", "":
		return FormatH2, nil
	}
	return FormatUnknown, errors.Errorf("Unknown file format %q, expected H1 or H2", s)
}

func GetFileFormat() FileFormat {
	return fileFormat
}

func SetFileFormat(f FileFormat) {
	fileFormat = f
}
