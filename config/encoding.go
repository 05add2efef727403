package config

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Chunk names and plain text assets are single-byte Latin-1 unless overridden.
var currentCharMap = charmap.ISO8859_1

func charmaps() []*charmap.Charmap {
	result := make([]*charmap.Charmap, 0, len(charmap.All))
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			result = append(result, cm)
		}
	}
	return result
}

// SetEncoding selects the charmap by its display name, ignoring case.
func SetEncoding(name string) error {
	for _, cm := range charmaps() {
		if strings.EqualFold(cm.String(), strings.TrimSpace(name)) {
			currentCharMap = cm
			return nil
		}
	}
	return errors.Errorf("[config] Unknown encoding %q, see -encodings", name)
}

func ListEncodings() []string {
	cms := charmaps()
	names := make([]string, len(cms))
	for i, cm := range cms {
		names[i] = cm.String()
	}
	return names
}

func GetEncoding() *charmap.Charmap { return currentCharMap }
