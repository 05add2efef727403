package txt

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/utils"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts the raw file into utf-8. UTF-16 files carry a BOM,
// plain files are utf-8 when valid and fall back to the configured charmap.
func DecodeText(data []byte) ([]byte, error) {
	sig, err := hd.DetectSignature(data)
	if err != nil {
		if !bytes.HasPrefix(data, utf8BOM) {
			return nil, err
		}
		data = data[len(utf8BOM):]
		if sig, err = hd.DetectSignature(data); err != nil {
			return nil, err
		}
	}

	switch sig {
	case hd.SignatureTextBOM:
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return nil, hd.Wrapf(hd.EncodingError, err, "Failed to decode utf-16 text")
		}
		return out, nil
	case hd.SignatureText:
		if utf8.Valid(data) {
			return data, nil
		}
		return []byte(utils.BytesToStringAll(data)), nil
	}
	return nil, hd.Errorf(hd.StructuralMismatch, "Signature %v is not a text container", sig)
}
