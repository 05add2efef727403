package hd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/hd"
)

func TestDetectSignature(t *testing.T) {
	for _, tc := range []struct {
		data []byte
		sig  hd.Signature
	}{
		{[]byte("HD_CHUNK\x00\x00\x00\x00"), hd.SignatureChunk},
		{[]byte("HD_DATA_TXT 300\n"), hd.SignatureText},
		{append(append([]byte{}, hd.MAGIC_TEXT_BOM...), ' ', 0, '3', 0), hd.SignatureTextBOM},
		{[]byte("HD_MOTION\x00\x01\x00"), hd.SignatureMotionLegacy},
	} {
		sig, err := hd.DetectSignature(tc.data)
		require.NoError(t, err, tc.sig.String())
		assert.Equal(t, tc.sig, sig)
	}
	assert.True(t, hd.SignatureTextBOM.IsText())
	assert.False(t, hd.SignatureMotionLegacy.IsText())
}

func TestUnrecognizedSignature(t *testing.T) {
	for _, data := range [][]byte{
		nil,
		[]byte("HD_CHUN"),
		[]byte("HD_MOTION"),
		[]byte("hd_chunk"),
		{0xFE, 0xFF, 'H', 0},
	} {
		sig, err := hd.DetectSignature(data)
		assert.Equal(t, hd.SignatureUnknown, sig)
		assert.True(t, hd.IsKind(err, hd.UnrecognizedSignature), "%q", data)
	}
}

func TestErrorKinds(t *testing.T) {
	err := hd.Errorf(hd.ArityMismatch, "face %d", 3)
	assert.Equal(t, hd.ArityMismatch, hd.KindOf(err))
	assert.Contains(t, err.Error(), "arity mismatch: face 3")
	assert.Equal(t, hd.Kind(0), hd.KindOf(nil))
}
