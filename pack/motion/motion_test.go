package motion_test

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/anim"
	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/pack/motion"
	"github.com/mogaika/haydee_tools/pack/pose"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
	"github.com/mogaika/haydee_tools/vfs"
)

func key(x, y, z float64, q mgl64.Quat) scene.PoseKey {
	return scene.PoseKey{Position: mgl64.Vec3{x, y, z}, Rotation: q}
}

func testMotion() *scene.Motion {
	half := mgl64.Quat{W: 0.5, V: mgl64.Vec3{0.5, 0.5, -0.5}}
	return &scene.Motion{
		Name:       "walk",
		FirstFrame: motion.FIRST_FRAME,
		NumFrames:  3,
		Duration:   3,
		RootPre:    true,
		Tracks: []scene.Track{
			{Bone: "SK_Root", Keys: []scene.PoseKey{
				key(0, 1, 0, mgl64.QuatIdent()), key(0, 1, 0.25, half), key(0, 1, 0.5, mgl64.QuatIdent()),
			}},
			{Bone: "SK_R_Arm", Keys: []scene.PoseKey{
				key(0.5, 0, 0, half), key(0.5, 0, 0, half), key(0.5, 0, 0, half),
			}},
		},
	}
}

func TestMotionRoundTrip(t *testing.T) {
	data, err := motion.Marshal(testMotion())
	require.NoError(t, err)

	a, err := motion.NewFromData(data, "walk")
	require.NoError(t, err)
	assert.Empty(t, a.Diagnostics)
	require.Len(t, a.Motions, 1)

	m := a.Motions[0]
	src := testMotion()
	assert.Equal(t, src.NumFrames, m.NumFrames)
	assert.Equal(t, src.Duration, m.Duration)
	assert.True(t, m.RootPre)
	require.Len(t, m.Tracks, 2)
	for i := range src.Tracks {
		assert.Equal(t, src.Tracks[i].Bone, m.Tracks[i].Bone)
		assert.Equal(t, src.Tracks[i].Keys, m.Tracks[i].Keys)
	}
}

func TestMotionShortTrack(t *testing.T) {
	m := testMotion()
	m.Tracks[1].Keys = m.Tracks[1].Keys[:2]
	_, err := motion.Marshal(m)
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)
}

func TestLegacyMotion(t *testing.T) {
	data := make([]byte, motion.LEGACY_DATA_OFFSET+2*motion.KEY_SIZE+motion.TRACK_SIZE)
	copy(data, "HD_MOTION")
	// keys, tracks, first frame, duration, frames, data size
	for i, v := range []uint32{2, 1, 0, 2, 2, 0} {
		utils.PutLU32(data[motion.LEGACY_HEADER_OFFSET+i*4:], v)
	}
	keys := data[motion.LEGACY_DATA_OFFSET:]
	pose.PutKey(keys, key(1, 2, 3, mgl64.QuatIdent()))
	pose.PutKey(keys[motion.KEY_SIZE:], key(4, 5, 6, mgl64.QuatIdent()))
	track := data[motion.LEGACY_DATA_OFFSET+2*motion.KEY_SIZE:]
	copy(track, "SK_Root")

	dir := vfs.NewMemoryDirectory("motions")
	dir.Put("old.motion", data)
	a, err := pack.GetInstanceHandler(dir, "old.motion")
	require.NoError(t, err)
	require.Len(t, a.Motions, 1)
	m := a.Motions[0]
	assert.Equal(t, 2, m.NumFrames)
	assert.Equal(t, motion.FIRST_FRAME, m.FirstFrame)
	require.Len(t, m.Tracks, 1)
	assert.Equal(t, "SK_Root", m.Tracks[0].Bone)
	assert.Equal(t, mgl64.Vec3{4, 5, 6}, m.Tracks[0].Keys[1].Position)
}

func TestLegacyMotionTruncated(t *testing.T) {
	data := make([]byte, motion.LEGACY_DATA_OFFSET)
	copy(data, "HD_MOTION")
	utils.PutLU32(data[motion.LEGACY_HEADER_OFFSET:], 10)

	_, err := motion.NewFromData(data, "old")
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)
}

func TestNegativeFrameCount(t *testing.T) {
	w := chunk.NewWriter(motion.ASSET_TYPE)
	require.NoError(t, w.Put("numFrames", chunk.Int32, -1))
	require.NoError(t, w.Put("numKeys", chunk.Int32, 1))
	require.NoError(t, w.Put("numTracks", chunk.Int32, 1))
	require.NoError(t, w.Put("keys", chunk.Records, make([]byte, motion.KEY_SIZE)))
	require.NoError(t, w.Put("tracks", chunk.Records, make([]byte, motion.TRACK_SIZE)))
	data, err := w.Bytes()
	require.NoError(t, err)

	_, err = motion.NewFromData(data, "broken")
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)

	legacy := make([]byte, motion.LEGACY_DATA_OFFSET)
	copy(legacy, "HD_MOTION")
	utils.PutLU32(legacy[motion.LEGACY_HEADER_OFFSET+16:], 0xffffffff)
	_, err = motion.NewFromData(legacy, "broken")
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)

	text := strings.Replace(testDMot, "numFrames 2;", "numFrames -3;", 1)
	_, err = motion.NewFromDMot([]byte(text), "broken")
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)
}

func restSkeleton(t *testing.T) *scene.Skeleton {
	var diags scene.Diagnostics
	s, err := armature.NewBuilder(armature.FamilyDSkel, &diags).Build("body", []armature.Joint{
		{Name: "SK_Root", Parent: -1, Origin: mgl64.Vec3{0, 1, 0}, Axis: mgl64.QuatIdent(), Length: 0.5},
		{Name: "SK_Spine", ParentName: "SK_Root", Origin: mgl64.Vec3{0, 1.5, 0.1},
			Axis: mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0}), Length: 0.4},
		{Name: "SK_R_Arm", ParentName: "SK_Spine", Origin: mgl64.Vec3{0.3, 1.7, 0},
			Axis: mgl64.QuatRotate(-1.2, mgl64.Vec3{0, 0, 1}), Length: 0.6},
	})
	require.NoError(t, err)
	require.Empty(t, diags)
	return s
}

const testDMot = `HD_DATA_TXT 300

motion
{
	numTracks 2;
	numFrames 2;
	frameRate 29.97;
	track SK_Root
	{
		key 0 1 0 0 0 0 1;
		key 0 1 0.5 0 0 0 1;
	}
	track SK_Spine
	{
		key 0 0.5 0 0 0 0 1;
		key 0 0.5 zero 0 0 0 1;
	}
}
`

func TestDMotRead(t *testing.T) {
	a, err := motion.NewFromDMot([]byte(testDMot), "walk")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Diagnostics.Count(hd.StructuralMismatch))

	m := a.Motions[0]
	assert.Equal(t, 30, m.FrameRate)
	assert.False(t, m.RootPre)
	require.Len(t, m.Tracks, 2)
	assert.Len(t, m.Tracks[1].Keys, 1)

	s := restSkeleton(t)
	require.NoError(t, motion.Sample(a, s))
	// the short track is dropped by the sampler
	assert.Equal(t, 2, a.Diagnostics.Count(hd.StructuralMismatch))
	require.Len(t, a.Frames, 2)
	assert.Equal(t, 1, a.Frames[0].Frame)
	assert.Equal(t, 2, a.Frames[1].Frame)

	text := string(motion.MarshalDMot(m))
	assert.Contains(t, text, "motion\n{\n\tnumTracks 2;\n\tnumFrames 2;\n\tframeRate 30;\n")
	assert.Contains(t, text, "\ttrack SK_Root\n\t{\n\t\tkey 0 1 0 0 0 0 1;\n\t\tkey 0 1 0.5 0 0 0 1;\n\t}\n")
}

func TestConvertRootMode(t *testing.T) {
	s := restSkeleton(t)

	frames := make([]scene.FramePose, 4)
	for f := range frames {
		move := mgl64.Translate3D(0.1*float64(f), 0, 0).Mul4(mgl64.HomogRotate3DZ(0.2 * float64(f)))
		world := make([]mgl64.Mat4, len(s.Bones))
		for i := range s.Bones {
			world[i] = move.Mul4(s.Bones[i].World)
		}
		frames[f] = scene.FramePose{Frame: f + 1, World: world}
	}

	var diags scene.Diagnostics
	m := anim.NewSampler(s, space.RootPost, &diags).MotionFrom("walk", 30, frames)
	dmot := &scene.Asset{Name: "walk", Skeleton: s, Motions: []*scene.Motion{m}}

	data, err := pack.CallEmitter("walk.motion", dmot, config.FormatH2)
	require.NoError(t, err)

	b, err := motion.NewFromData(data, "walk")
	require.NoError(t, err)
	require.True(t, b.Motions[0].RootPre)
	require.NoError(t, motion.Sample(b, s))
	assert.Empty(t, b.Diagnostics)

	require.Len(t, b.Frames, len(frames))
	for f := range frames {
		assert.Equal(t, frames[f].Frame, b.Frames[f].Frame)
		for i := range s.Bones {
			for k := range frames[f].World[i] {
				assert.InDelta(t, frames[f].World[i][k], b.Frames[f].World[i][k], 1e-5,
					"frame %d bone %s", f, s.Bones[i].Name)
			}
		}
	}

	// without a skeleton the keys are written as they are
	keep, err := motion.MotionFor(&scene.Asset{Name: "walk", Motions: []*scene.Motion{m}}, space.RootPre)
	require.NoError(t, err)
	assert.Same(t, m, keep)
}
