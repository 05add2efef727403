package scene_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
)

// arena order differs from hierarchy order on purpose
func testSkeleton() *scene.Skeleton {
	s := &scene.Skeleton{Name: "body", Bones: []scene.Bone{
		{Name: "SK_Head", Parent: 2},
		{Name: "SK_Hips", Parent: -1},
		{Name: "SK_Spine", Parent: 1},
	}}
	s.LinkChildren()
	return s
}

func TestInstantiateOrder(t *testing.T) {
	a := &scene.Asset{
		Name:      "suit",
		Source:    "suit.outfit",
		Skeleton:  testSkeleton(),
		Materials: []*scene.Material{scene.NewMaterial("skin")},
		Meshes:    []*scene.Mesh{{Name: "body"}, {Name: "hair"}},
		Frames:    []scene.FramePose{{Frame: 1}, {Frame: 2}},
	}
	a.Diagnostics.Add(hd.UnresolvedReference, "mesh (line 4)", "missing %q", "helmet.mesh")

	var r scene.Recorder
	require.NoError(t, scene.Instantiate(&r, a))
	assert.Equal(t, []string{"suit"}, r.Collections)
	assert.Equal(t, []string{"SK_Hips", "SK_Spine", "SK_Head"}, r.Bones)
	require.Len(t, r.Materials, 1)
	require.Len(t, r.Meshes, 2)
	assert.Equal(t, "hair", r.Meshes[1].Name)
	require.Len(t, r.Animations, 1)
	assert.Equal(t, 2, r.Animations[0].NumFrames)
	assert.Equal(t, 1, r.Animations[0].FirstFrame)
	require.Len(t, r.Diagnostics, 1)
	assert.Equal(t, `[unresolved reference] mesh (line 4): missing "helmet.mesh"`, r.Diagnostics[0].String())
}

func TestAdopt(t *testing.T) {
	s := &scene.Skeleton{Bones: []scene.Bone{{Name: "SK_Hips", Parent: -1}}}
	other := testSkeleton()

	assert.Equal(t, 2, s.Adopt(other))
	assert.Equal(t, []string{"SK_Hips", "SK_Head", "SK_Spine"}, s.Names())
	assert.Equal(t, 2, s.Bones[1].Parent)
	assert.Equal(t, 0, s.Bones[2].Parent)
	assert.Equal(t, []int{0, 2, 1}, s.Order())

	assert.Equal(t, 0, s.Adopt(other))
}

func TestMaterialTexture(t *testing.T) {
	m := scene.NewMaterial("skin")
	m.Props[scene.MatDiffuseMap] = `Textures\skin.tga`

	p, ok := m.Texture(scene.MatDiffuseMap)
	assert.True(t, ok)
	assert.Equal(t, `Textures\skin.tga`, p)

	m.Resolved = map[scene.MaterialKey]string{scene.MatDiffuseMap: "/game/Textures/skin.tga"}
	p, _ = m.Texture(scene.MatDiffuseMap)
	assert.Equal(t, "/game/Textures/skin.tga", p)

	_, ok = m.Texture(scene.MatNormalMap)
	assert.False(t, ok)
	assert.False(t, m.TwoSided())
}

func TestOutfitAddPart(t *testing.T) {
	var o scene.Outfit
	o.AddPart(scene.OutfitPart{Mesh: "body.mesh", Skin: "body.skin"})
	o.AddPart(scene.OutfitPart{Mesh: "body.mesh", Skin: "body.skin"})
	o.AddPart(scene.OutfitPart{Mesh: "body.mesh"})
	assert.Len(t, o.Parts, 2)
}
