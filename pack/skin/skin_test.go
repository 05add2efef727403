package skin_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/pack/mesh"
	"github.com/mogaika/haydee_tools/pack/skin"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
)

var boneNames = []string{"SK_Hips", "SK_Spine", "SK_Chest", "SK_Neck", "SK_Head"}

func testSkeleton(t *testing.T) *scene.Skeleton {
	joints := make([]armature.Joint, len(boneNames))
	for i, name := range boneNames {
		joints[i] = armature.Joint{
			Name:   name,
			Parent: -1,
			Origin: mgl64.Vec3{0, float64(i), 0},
			Axis:   mgl64.QuatIdent(),
			Length: 1,
		}
	}
	var diags scene.Diagnostics
	s, err := armature.NewBuilder(armature.FamilyDSkel, &diags).Build("body", joints)
	require.NoError(t, err)
	return s
}

func weightedQuad() *scene.Mesh {
	return &scene.Mesh{
		Name:      "body",
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		Faces: []scene.Face{{
			Verts: []int{0, 1, 2, 3},
			UVs:   []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		}},
		Weights: [][]scene.VertexWeight{
			{{Bone: "SK_Hips", Weight: 1}},
			{{Bone: "SK_Hips", Weight: 0.25}, {Bone: "SK_Spine", Weight: 0.75}},
			{
				{Bone: "SK_Hips", Weight: 0.1}, {Bone: "SK_Spine", Weight: 0.5},
				{Bone: "SK_Chest", Weight: 0.2}, {Bone: "SK_Neck", Weight: 0.1},
				{Bone: "SK_Head", Weight: 0.1},
			},
			{{Bone: "SK_Tail", Weight: 1}},
		},
	}
}

func TestSkinRoundTrip(t *testing.T) {
	s := testSkeleton(t)
	m := weightedQuad()

	data, err := pack.CallEmitter("body.skin", &scene.Asset{Name: "body", Skeleton: s, Meshes: []*scene.Mesh{m}}, config.FormatH2)
	require.NoError(t, err)

	a, err := skin.NewFromData(data, "body")
	require.NoError(t, err)
	assert.Empty(t, a.Diagnostics)
	assert.Equal(t, boneNames, a.Skeleton.Names())
	for _, b := range a.Skeleton.Bones {
		assert.True(t, b.IsRoot())
		assert.Equal(t, skin.BONE_LENGTH, b.Length)
	}

	require.NotNil(t, a.Skin)
	ws := a.Skin.Weights
	require.Len(t, ws, 4)
	assert.Equal(t, []scene.VertexWeight{{Bone: "SK_Hips", Weight: 1}}, ws[0])
	assert.Equal(t, []scene.VertexWeight{{Bone: "SK_Spine", Weight: 0.75}, {Bone: "SK_Hips", Weight: 0.25}}, ws[1])

	// the lightest of five weights is dropped
	require.Len(t, ws[2], skin.WEIGHTS_PER_VERTEX)
	sum := 0.0
	for _, w := range ws[2] {
		sum += w.Weight
		assert.NotEqual(t, "SK_Head", w.Bone)
	}
	assert.InDelta(t, 1, sum, 1e-6)
	assert.Equal(t, "SK_Spine", ws[2][0].Bone)

	// unknown bones are not written
	assert.Empty(t, ws[3])
}

func TestSkinApply(t *testing.T) {
	s := testSkeleton(t)
	src := weightedQuad()

	skinData, err := skin.Marshal(src, s, nil)
	require.NoError(t, err)
	meshData, err := mesh.Marshal(src, config.FormatH2)
	require.NoError(t, err)

	sa, err := skin.NewFromData(skinData, "body")
	require.NoError(t, err)
	ma, err := mesh.NewFromData(meshData, "body", config.FormatH2)
	require.NoError(t, err)

	m := ma.Meshes[0]
	require.NoError(t, sa.Skin.Apply(m))
	require.Len(t, m.Weights, len(m.Positions))
	assert.Equal(t, "SK_Hips", m.Weights[0][0].Bone)

	m.Positions = m.Positions[:2]
	assert.True(t, hd.IsKind(sa.Skin.Apply(m), hd.StructuralMismatch))
}

func TestSkinRawRecords(t *testing.T) {
	payload := make([]byte, skin.INFO_SIZE+2*skin.VERTEX_SIZE+skin.BONE_SIZE)
	utils.PutLU32(payload, 2)
	utils.PutLU32(payload[4:], 1)

	v0 := payload[skin.INFO_SIZE:]
	// bone 0 with weight 0 is padding
	utils.PutLF(v0, 1)
	v1 := payload[skin.INFO_SIZE+skin.VERTEX_SIZE:]
	utils.PutLFs(v1, 0.5, 0.5)
	v1[0x11] = 7

	bone := payload[skin.INFO_SIZE+2*skin.VERTEX_SIZE:]
	copy(bone, "SK_R_Foot")
	for i := 0; i < 4; i++ {
		utils.PutLF(bone[0x20+i*0x14:], 1)
	}

	w := chunk.NewWriter(skin.ASSET_TYPE)
	w.SetPayload(payload)
	data, err := w.Bytes()
	require.NoError(t, err)

	a, err := skin.NewFromData(data, "feet")
	require.NoError(t, err)
	assert.Equal(t, []string{"SK_Foot_R"}, a.Skeleton.Names())
	assert.Equal(t, []scene.VertexWeight{{Bone: "SK_Foot_R", Weight: 1}}, a.Skin.Weights[0])
	assert.Equal(t, []scene.VertexWeight{{Bone: "SK_Foot_R", Weight: 0.5}}, a.Skin.Weights[1])
	assert.Equal(t, 1, a.Diagnostics.Count(hd.UnresolvedReference))
}

func TestSkinTruncated(t *testing.T) {
	payload := make([]byte, skin.INFO_SIZE)
	utils.PutLU32(payload, 100)
	w := chunk.NewWriter(skin.ASSET_TYPE)
	w.SetPayload(payload)
	data, err := w.Bytes()
	require.NoError(t, err)

	_, err = skin.NewFromData(data, "broken")
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)
}

func TestSkinAssetTypeMismatch(t *testing.T) {
	w := chunk.NewWriter(mesh.ASSET_TYPE)
	w.SetPayload(make([]byte, skin.INFO_SIZE))
	data, err := w.Bytes()
	require.NoError(t, err)

	_, err = skin.NewFromData(data, "body")
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)
}
