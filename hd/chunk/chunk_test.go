package chunk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/scene"
)

var testSchema = chunk.Schema{
	"numBones": chunk.Int32,
	"duration": chunk.Float,
	"bounds":   chunk.Floats(3),
	"diffuse":  chunk.StrW,
	"label":    chunk.StrA,
	"surface":  chunk.Latin1(64),
	"bones":    chunk.Records,
	"events":   chunk.Records,
}

func buildTestContainer(t *testing.T) []byte {
	w := chunk.NewWriter("skeleton")
	require.NoError(t, w.Put("numBones", chunk.Int32, 2))
	require.NoError(t, w.Put("duration", chunk.Float, float32(1.5)))
	require.NoError(t, w.Put("bounds", chunk.Floats(3), []float32{1, 2, 3}))
	require.NoError(t, w.Put("diffuse", chunk.StrW, "textures\\дом.dds"))
	require.NoError(t, w.Put("label", chunk.StrA, "hello"))
	require.NoError(t, w.Put("surface", chunk.Latin1(64), "metal"))
	require.NoError(t, w.Put("bones", chunk.Records, []byte{1, 1, 1, 2, 2, 2}))
	require.NoError(t, w.Put("events", chunk.Records, nil))
	data, err := w.Bytes()
	require.NoError(t, err)
	return data
}

func TestRoundTrip(t *testing.T) {
	data := buildTestContainer(t)

	sig, err := hd.DetectSignature(data)
	require.NoError(t, err)
	assert.Equal(t, hd.SignatureChunk, sig)

	c, err := chunk.Read(data)
	require.NoError(t, err)
	assert.Equal(t, "HD_CHUNK", c.Tag)
	assert.Equal(t, "skeleton", c.AssetType)
	assert.NoError(t, c.Expect("skeleton"))
	assert.True(t, hd.IsKind(c.Expect("motion"), hd.StructuralMismatch))
	require.Len(t, c.Entries, 8)

	var diags scene.Diagnostics
	v := c.Decode(testSchema, &diags)
	assert.Empty(t, diags)

	n, err := v.MustInt("numBones")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	d, ok := v.Float("duration")
	assert.True(t, ok)
	assert.Equal(t, float32(1.5), d)

	b, ok := v.Floats("bounds")
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, b)

	s, _ := v.Text("diffuse")
	assert.Equal(t, "textures\\дом.dds", s)
	s, _ = v.Text("label")
	assert.Equal(t, "hello", s)
	s, _ = v.Text("surface")
	assert.Equal(t, "metal", s)

	recs, err := v.Records("bones", n, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{1, 1, 1}, {2, 2, 2}}, recs)

	assert.True(t, v.Present("events"))
	_, err = v.Records("events", 1, 1)
	assert.True(t, hd.IsKind(err, hd.MissingRequiredEntry))
}

func TestRecordsStrideTooSmall(t *testing.T) {
	c, err := chunk.Read(buildTestContainer(t))
	require.NoError(t, err)
	v := c.Decode(testSchema, &scene.Diagnostics{})

	_, err = v.Records("bones", 2, 4)
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch))
}

func TestUnknownEntryIsDiagnostic(t *testing.T) {
	c, err := chunk.Read(buildTestContainer(t))
	require.NoError(t, err)

	var diags scene.Diagnostics
	v := c.Decode(chunk.Schema{"numBones": chunk.Int32}, &diags)
	assert.Len(t, diags, 7)
	_, ok := v.Int("numBones")
	assert.True(t, ok)
}

func TestTruncatedContainer(t *testing.T) {
	data := buildTestContainer(t)

	_, err := chunk.Read(data[:40])
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch))

	_, err = chunk.Read([]byte("HD_DATA_TXT 300\n"))
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch))

	_, err = chunk.Read([]byte("garbage garbage garbage garbage"))
	assert.True(t, hd.IsKind(err, hd.UnrecognizedSignature))
}

func TestEntryOutOfBounds(t *testing.T) {
	data := buildTestContainer(t)
	// drop the tail so the last valued entries point past the buffer
	c, err := chunk.Read(data[:len(data)-8])
	require.NoError(t, err)

	var diags scene.Diagnostics
	c.Decode(testSchema, &diags)
	assert.NotZero(t, diags.Count(hd.StructuralMismatch))
}
