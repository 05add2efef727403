package gltfutils_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils/gltfutils"
)

func testAsset() *scene.Asset {
	s := &scene.Skeleton{Name: "body", Bones: []scene.Bone{
		{Name: "SK_Hips", Parent: -1, World: mgl64.Translate3D(0, 0, 1), Length: 1},
		{Name: "SK_Spine", Parent: 0, World: mgl64.Translate3D(0, 0, 2), Length: 1},
	}}
	s.LinkChildren()

	mat := scene.NewMaterial("suit")
	mat.Props[scene.MatType] = scene.MaterialMask
	mat.Props[scene.MatTwoSided] = true
	mat.Props[scene.MatDiffuseMap] = "suit.tga"

	return &scene.Asset{
		Name:      "suit",
		Skeleton:  s,
		Materials: []*scene.Material{mat},
		Meshes: []*scene.Mesh{{
			Name:      "body",
			Material:  "suit",
			Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
			Faces: []scene.Face{{
				Verts: []int{0, 1, 2, 3},
				UVs:   []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
			}},
			Weights: [][]scene.VertexWeight{
				{{Bone: "SK_Hips", Weight: 1}},
				{{Bone: "SK_Hips", Weight: 1}, {Bone: "SK_Spine", Weight: 1}},
				{{Bone: "SK_Spine", Weight: 1}},
				nil,
			},
		}},
	}
}

func pngLoader(t *testing.T, loaded *[]string) gltfutils.ImageLoader {
	return func(path string) ([]byte, error) {
		*loaded = append(*loaded, path)
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 2, 2))))
		return buf.Bytes(), nil
	}
}

func TestExportBinary(t *testing.T) {
	var loaded []string
	var buf bytes.Buffer
	require.NoError(t, gltfutils.ExportBinary(&buf, testAsset(), pngLoader(t, &loaded)))
	assert.Equal(t, []string{"suit.tga"}, loaded)

	var doc gltf.Document
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&doc))

	// root, two joints, one mesh node
	require.Len(t, doc.Nodes, 4)
	assert.Equal(t, "suit", doc.Nodes[0].Name)
	assert.Equal(t, []uint32{1, 3}, doc.Nodes[0].Children)
	assert.Equal(t, []uint32{2}, doc.Nodes[1].Children)
	assert.Equal(t, float32(1), doc.Nodes[2].Matrix[14])

	require.Len(t, doc.Skins, 1)
	assert.Equal(t, []uint32{1, 2}, doc.Skins[0].Joints)
	require.NotNil(t, doc.Nodes[3].Skin)

	require.Len(t, doc.Meshes, 1)
	prim := doc.Meshes[0].Primitives[0]
	assert.Contains(t, prim.Attributes, "JOINTS_0")
	assert.Equal(t, uint32(6), doc.Accessors[*prim.Indices].Count)
	assert.Equal(t, uint32(4), doc.Accessors[prim.Attributes["POSITION"]].Count)

	require.Len(t, doc.Materials, 1)
	m := doc.Materials[0]
	assert.True(t, m.DoubleSided)
	assert.Equal(t, gltf.AlphaMask, m.AlphaMode)
	require.NotNil(t, m.PBRMetallicRoughness.BaseColorTexture)
	assert.Len(t, doc.Images, 1)
}

func TestExportStatic(t *testing.T) {
	a := testAsset()
	a.Skeleton = nil
	a.Materials = nil

	var buf bytes.Buffer
	require.NoError(t, gltfutils.ExportBinary(&buf, a, nil))

	var doc gltf.Document
	require.NoError(t, gltf.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&doc))
	assert.Len(t, doc.Nodes, 2)
	assert.Empty(t, doc.Skins)
	assert.Nil(t, doc.Meshes[0].Primitives[0].Material)
	assert.NotContains(t, doc.Meshes[0].Primitives[0].Attributes, "JOINTS_0")
}
