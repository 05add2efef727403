package anim_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/anim"
	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
)

func testSkeleton(t *testing.T) *scene.Skeleton {
	s, err := armature.NewBuilder(armature.FamilyDSkel, &scene.Diagnostics{}).Build("test", []armature.Joint{
		{Name: "SK_Root", Parent: -1, Origin: mgl64.Vec3{0, 1, 0}, Axis: mgl64.QuatIdent(), Length: 1},
		{Name: "SK_Spine", Parent: 0, Origin: mgl64.Vec3{0, 1.5, 0}, Axis: mgl64.QuatIdent(), Length: 1},
		{Name: "SK_R_Arm", Parent: 1, Origin: mgl64.Vec3{0.3, 1.5, 0}, Axis: mgl64.AnglesToQuat(0, 0, 0.4, mgl64.XYZ), Length: 1},
	})
	require.NoError(t, err)
	return s
}

var testKey = scene.PoseKey{
	Position: mgl64.Vec3{0.1, 0.9, -0.2},
	Rotation: mgl64.AnglesToQuat(0.3, 0.2, 0.1, mgl64.XYZ),
}

func TestIdenticalKeys(t *testing.T) {
	s, err := armature.NewBuilder(armature.FamilyDSkel, &scene.Diagnostics{}).Build("one", []armature.Joint{
		{Name: "bone", Parent: -1, Axis: mgl64.QuatIdent(), Length: 1},
	})
	require.NoError(t, err)

	var diags scene.Diagnostics
	frames := anim.NewSampler(s, space.RootPost, &diags).Sample(&scene.Motion{
		Name:       "idle",
		FirstFrame: 1,
		NumFrames:  2,
		Tracks:     []scene.Track{{Bone: "bone", Keys: []scene.PoseKey{testKey, testKey}}},
	})
	assert.Empty(t, diags)
	require.Len(t, frames, 2)
	assert.Equal(t, 1, frames[0].Frame)
	assert.Equal(t, 2, frames[1].Frame)
	assert.Equal(t, frames[0].World[0], frames[1].World[0])
}

func TestUntrackedBonesFollowParent(t *testing.T) {
	s := testSkeleton(t)
	sm := anim.NewSampler(s, space.RootPost, &scene.Diagnostics{})

	frame := sm.ApplyPose(&scene.Pose{Transforms: []scene.BoneKey{{Bone: "SK_Root", Key: testKey}}})
	root := frame.World[0]

	for _, i := range []int{1, 2} {
		p := s.Bones[i].Parent
		rest := s.Bones[p].World.Inv().Mul4(s.Bones[i].World)
		assert.True(t, frame.World[p].Mul4(rest).ApproxEqualThreshold(frame.World[i], 1e-9))
	}
	assert.True(t, space.PoseWorld(testKey, nil, space.RootPost).ApproxEqualThreshold(root, 1e-12))
}

func TestMissingBoneReportedOnce(t *testing.T) {
	var diags scene.Diagnostics
	sm := anim.NewSampler(testSkeleton(t), space.RootPre, &diags)
	frames := sm.Sample(&scene.Motion{
		FirstFrame: 1,
		NumFrames:  1,
		Tracks: []scene.Track{
			{Bone: "SK_Tail", Keys: []scene.PoseKey{testKey}},
			{Bone: "SK_Tail", Keys: []scene.PoseKey{testKey}},
			{Bone: "SK_Spine", Keys: []scene.PoseKey{testKey, testKey}},
		},
	})
	assert.Equal(t, 1, diags.Count(hd.UnresolvedReference))
	assert.Equal(t, 1, diags.Count(hd.StructuralMismatch))
	require.Len(t, frames, 1)
	assert.Len(t, frames[0].World, 3)
}

func TestMotionRoundTrip(t *testing.T) {
	for _, mode := range []space.RootMode{space.RootPost, space.RootPre} {
		t.Run(mode.String(), func(t *testing.T) {
			s := testSkeleton(t)
			sm := anim.NewSampler(s, mode, &scene.Diagnostics{})

			second := testKey
			second.Position = mgl64.Vec3{0.5, 0.5, 0.5}
			m := &scene.Motion{
				Name:       "walk",
				FrameRate:  30,
				FirstFrame: 1,
				NumFrames:  2,
				Tracks: []scene.Track{
					{Bone: "SK_Root", Keys: []scene.PoseKey{testKey, second}},
					{Bone: "SK_R_Arm", Keys: []scene.PoseKey{second, testKey}},
				},
			}
			frames := sm.Sample(m)
			back := sm.MotionFrom("walk", 30, frames)
			require.Len(t, back.Tracks, 3)
			assert.Equal(t, 2, back.NumFrames)
			assert.Equal(t, "SK_R_Arm", back.Tracks[2].Bone)

			for _, ti := range []int{0, 2} {
				src := m.Tracks[ti/2]
				for f := range src.Keys {
					got := back.Tracks[ti].Keys[f]
					assert.True(t, got.Position.ApproxEqualThreshold(src.Keys[f].Position, 1e-9), "%v", got.Position)
					assert.True(t, space.SameRotation(got.Rotation, src.Keys[f].Rotation, 1e-9))
				}
			}

			again := sm.Sample(back)
			for f := range frames {
				for i := range frames[f].World {
					assert.True(t, frames[f].World[i].ApproxEqualThreshold(again[f].World[i], 1e-9))
				}
			}
		})
	}
}

func TestNegativeFrameCount(t *testing.T) {
	var diags scene.Diagnostics
	frames := anim.NewSampler(testSkeleton(t), space.RootPost, &diags).Sample(&scene.Motion{
		Name:      "broken",
		NumFrames: -1,
	})
	assert.Empty(t, frames)
	assert.Equal(t, 1, diags.Count(hd.StructuralMismatch))
}
