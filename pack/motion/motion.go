package motion

import (
	"log"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/pack/pose"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

const ASSET_TYPE = "motion"

const (
	KEY_SIZE   = pose.KEY_SIZE
	TRACK_SIZE = 0x24 // 32sI

	LEGACY_HEADER_OFFSET = 20
	LEGACY_DATA_OFFSET   = 44
)

// frames of every motion format are numbered from one
const FIRST_FRAME = 1

var Schema = chunk.Schema{
	"numFrames": chunk.Int32,
	"duration":  chunk.Int32,
	"numKeys":   chunk.Int32,
	"numTracks": chunk.Int32,
	"numEvents": chunk.Int32,
	"keys":      chunk.Records,
	"tracks":    chunk.Records,
	"events":    chunk.Records,
}

func checkFrames(numFrames int) error {
	if numFrames < 0 {
		return hd.Errorf(hd.StructuralMismatch, "Negative frame count %d", numFrames)
	}
	return nil
}

// readTracks resolves `32sI` track records into their numFrames keys.
// Tracks pointing past the key table are reported and dropped.
func readTracks(tracks [][]byte, keys [][]byte, numFrames int, diags *scene.Diagnostics) []scene.Track {
	result := make([]scene.Track, 0, len(tracks))
	for i, rec := range tracks {
		bs := utils.NewBufStack("track", rec)
		name := utils.BytesToString(bs.Read(32))
		first := int(bs.ReadLU32())
		if err := bs.Err(); err != nil {
			diags.Add(hd.StructuralMismatch, "tracks", "track %d: %v", i, err)
			continue
		}
		if first+numFrames > len(keys) {
			diags.Add(hd.StructuralMismatch, name, "keys %d..%d out of %d", first, first+numFrames, len(keys))
			continue
		}
		t := scene.Track{Bone: name, Keys: make([]scene.PoseKey, numFrames)}
		for f := range t.Keys {
			t.Keys[f] = pose.ReadKey(utils.NewBufStack("key", keys[first+f]))
		}
		result = append(result, t)
	}
	return result
}

func split(raw []byte, size, count int) [][]byte {
	out := make([][]byte, count)
	for i := range out {
		out[i] = raw[i*size : (i+1)*size]
	}
	return out
}

func newChunkMotion(data []byte, name string, diags *scene.Diagnostics) (*scene.Motion, error) {
	c, err := chunk.Read(data)
	if err != nil {
		return nil, err
	}
	if err := c.Expect(ASSET_TYPE); err != nil {
		return nil, err
	}
	v := c.Decode(Schema, diags)

	numFrames, err := v.MustInt("numFrames")
	if err != nil {
		return nil, err
	}
	if err := checkFrames(numFrames); err != nil {
		return nil, err
	}
	numKeys, err := v.MustInt("numKeys")
	if err != nil {
		return nil, err
	}
	numTracks, err := v.MustInt("numTracks")
	if err != nil {
		return nil, err
	}
	keys, err := v.Records("keys", numKeys, KEY_SIZE)
	if err != nil {
		return nil, err
	}
	tracks, err := v.Records("tracks", numTracks, TRACK_SIZE)
	if err != nil {
		return nil, err
	}

	m := &scene.Motion{
		Name:       name,
		FirstFrame: FIRST_FRAME,
		NumFrames:  numFrames,
		RootPre:    true,
		Tracks:     readTracks(tracks, keys, numFrames, diags),
	}
	if duration, ok := v.Int("duration"); ok {
		m.Duration = int(duration)
	}
	if numEvents, ok := v.Int("numEvents"); ok && numEvents != 0 {
		diags.Warnf("events", "%d events skipped", numEvents)
	}
	return m, nil
}

// newLegacyMotion reads an HD_MOTION file: six counters, the key table
// and the track table.
func newLegacyMotion(data []byte, name string, diags *scene.Diagnostics) (*scene.Motion, error) {
	if len(data) < LEGACY_DATA_OFFSET {
		return nil, hd.Errorf(hd.StructuralMismatch, "Legacy motion too short: %d bytes", len(data))
	}
	bs := utils.NewBufStack("motion", data)
	bs.Skip(LEGACY_HEADER_OFFSET)
	numKeys := int(bs.ReadLU32())
	numTracks := int(bs.ReadLU32())
	bs.ReadLU32() // first frame, frames are renumbered from one
	duration := int(bs.ReadLU32())
	numFrames := int(int32(bs.ReadLU32()))
	bs.ReadLU32() // data size
	if err := checkFrames(numFrames); err != nil {
		return nil, err
	}

	need := int64(numKeys)*KEY_SIZE + int64(numTracks)*TRACK_SIZE
	if need > int64(bs.Left()) {
		return nil, hd.Errorf(hd.StructuralMismatch, "%d keys and %d tracks need %d bytes, %d left",
			numKeys, numTracks, need, bs.Left())
	}
	keys := split(bs.Read(numKeys*KEY_SIZE), KEY_SIZE, numKeys)
	tracks := split(bs.Read(numTracks*TRACK_SIZE), TRACK_SIZE, numTracks)
	if err := bs.Err(); err != nil {
		return nil, hd.Wrapf(hd.StructuralMismatch, err, "Legacy motion")
	}

	return &scene.Motion{
		Name:       name,
		FirstFrame: FIRST_FRAME,
		NumFrames:  numFrames,
		Duration:   duration,
		RootPre:    true,
		Tracks:     readTracks(tracks, keys, numFrames, diags),
	}, nil
}

// NewFromData decodes chunked and legacy binary motions.
func NewFromData(data []byte, name string) (*scene.Asset, error) {
	sig, err := hd.DetectSignature(data)
	if err != nil {
		return nil, err
	}

	a := &scene.Asset{Name: name}
	var m *scene.Motion
	switch sig {
	case hd.SignatureChunk:
		m, err = newChunkMotion(data, name, &a.Diagnostics)
	case hd.SignatureMotionLegacy:
		m, err = newLegacyMotion(data, name, &a.Diagnostics)
	default:
		err = hd.Errorf(hd.StructuralMismatch, "Signature %v is not a binary motion", sig)
	}
	if err != nil {
		return nil, err
	}

	a.Motions = []*scene.Motion{m}
	log.Printf("[motion] %q (%v): %d frames, %d tracks", name, sig, m.NumFrames, len(m.Tracks))
	return a, nil
}

// Marshal writes a chunked motion. Keys of every track follow each other.
func Marshal(m *scene.Motion) ([]byte, error) {
	numKeys := 0
	for _, t := range m.Tracks {
		if len(t.Keys) != m.NumFrames {
			return nil, hd.Errorf(hd.StructuralMismatch, "Track %q has %d keys, motion has %d frames",
				t.Bone, len(t.Keys), m.NumFrames)
		}
		numKeys += len(t.Keys)
	}

	keys := make([]byte, numKeys*KEY_SIZE)
	tracks := make([]byte, len(m.Tracks)*TRACK_SIZE)
	first := 0
	for i, t := range m.Tracks {
		buf := tracks[i*TRACK_SIZE:]
		name, err := utils.StringToBytesBuffer(t.Bone, 32, true)
		if err != nil {
			return nil, hd.Wrapf(hd.EncodingError, err, "Track %q", t.Bone)
		}
		copy(buf, name)
		utils.PutLU32(buf[32:], uint32(first))
		for _, k := range t.Keys {
			pose.PutKey(keys[first*KEY_SIZE:], k)
			first++
		}
	}

	duration := m.Duration
	if duration == 0 {
		duration = m.NumFrames
	}

	w := chunk.NewWriter(ASSET_TYPE)
	for _, e := range []struct {
		name  string
		field chunk.Field
		value interface{}
	}{
		{"numFrames", chunk.Int32, m.NumFrames},
		{"duration", chunk.Int32, duration},
		{"numKeys", chunk.Int32, numKeys},
		{"numTracks", chunk.Int32, len(m.Tracks)},
		{"numEvents", chunk.Int32, 0},
		{"keys", chunk.Records, keys},
		{"tracks", chunk.Records, tracks},
		{"events", chunk.Records, nil},
	} {
		if err := w.Put(e.name, e.field, e.value); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}

func init() {
	pack.SetHandler(".MOTION", pack.DataHandler(NewFromData))
	pack.SetEmitter(".MOTION", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		m, err := MotionFor(a, space.RootPre)
		if err != nil {
			return nil, err
		}
		return Marshal(m)
	})
}
