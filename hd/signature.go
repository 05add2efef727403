package hd

import (
	"bytes"

	"github.com/mogaika/haydee_tools/utils"
)

type Signature int

const (
	SignatureUnknown Signature = iota
	SignatureChunk
	SignatureText
	SignatureTextBOM
	SignatureMotionLegacy
)

const SIGNATURE_PEEK_SIZE = 24

var (
	MAGIC_CHUNK  = []byte("HD_CHUNK")
	MAGIC_TEXT   = []byte("HD_DATA_TXT")
	MAGIC_MOTION = []byte("HD_MOTION\x00")
	// utf-16le byte order mark followed by HD_DATA_TXT
	MAGIC_TEXT_BOM = []byte{
		0xFF, 0xFE, 'H', 0, 'D', 0, '_', 0, 'D', 0, 'A', 0,
		'T', 0, 'A', 0, '_', 0, 'T', 0, 'X', 0, 'T', 0}
)

var signatureOrder = []struct {
	magic []byte
	sig   Signature
}{
	{MAGIC_CHUNK, SignatureChunk},
	{MAGIC_TEXT, SignatureText},
	{MAGIC_TEXT_BOM, SignatureTextBOM},
	{MAGIC_MOTION, SignatureMotionLegacy},
}

func (s Signature) String() string {
	switch s {
	case SignatureChunk:
		return "HD_CHUNK"
	case SignatureText:
		return "HD_DATA_TXT"
	case SignatureTextBOM:
		return "HD_DATA_TXT_BOM"
	case SignatureMotionLegacy:
		return "HD_MOTION"
	}
	return "unrecognized"
}

func (s Signature) IsText() bool {
	return s == SignatureText || s == SignatureTextBOM
}

// DetectSignature classifies data by its leading magic.
func DetectSignature(data []byte) (Signature, error) {
	for _, so := range signatureOrder {
		if bytes.HasPrefix(data, so.magic) {
			return so.sig, nil
		}
	}

	peek := data
	if len(peek) > SIGNATURE_PEEK_SIZE {
		peek = peek[:SIGNATURE_PEEK_SIZE]
	}
	return SignatureUnknown, Errorf(UnrecognizedSignature, "Unrecognized signature %q", utils.DumpToOneLineString(peek))
}
