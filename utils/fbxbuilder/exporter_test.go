package fbxbuilder_test

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils/fbxbuilder"
)

func testAsset() *scene.Asset {
	s := &scene.Skeleton{Name: "body", Bones: []scene.Bone{
		{Name: "SK_Hips", Parent: -1, World: mgl64.Translate3D(0, 0, 1), Length: 1},
		{Name: "SK_Spine", Parent: 0, World: mgl64.Translate3D(0, 0, 2), Length: 1},
		{Name: "SK_Head", Parent: 1, World: mgl64.Translate3D(0, 0, 3), Length: 0.5},
	}}
	s.LinkChildren()

	return &scene.Asset{
		Name:      "suit",
		Skeleton:  s,
		Materials: []*scene.Material{scene.NewMaterial("skin")},
		Meshes: []*scene.Mesh{{
			Name:      "body",
			Material:  "skin",
			Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}, {2, 0, 0}},
			Faces: []scene.Face{
				{Verts: []int{0, 1, 2, 3}, UVs: []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
				{Verts: []int{1, 4, 2}},
			},
		}},
	}
}

func TestExporterNodes(t *testing.T) {
	e := fbxbuilder.NewExporter("suit.fbx")
	require.NoError(t, scene.Instantiate(e, testAsset()))

	kinds := make(map[string]int)
	var geometry []interface{}
	for _, n := range e.Builder().Root().GetNode("Objects").Nodes {
		switch n.Name {
		case "Model":
			kinds[n.Properties[2].(string)]++
		case "Geometry":
			for _, c := range n.Nodes {
				if c.Name == "PolygonVertexIndex" {
					geometry = c.Properties
				}
			}
		}
	}
	assert.Equal(t, map[string]int{"Null": 1, "LimbNode": 3, "Mesh": 1}, kinds)
	require.Len(t, geometry, 1)
	assert.Equal(t, []int32{0, 1, 2, -4, 1, 4, -3}, geometry[0])

	var buf bytes.Buffer
	require.NoError(t, e.Builder().Write(&buf))
	assert.NotEmpty(t, buf.Bytes())
}

func TestExportWithoutSkeleton(t *testing.T) {
	a := testAsset()
	a.Skeleton = nil
	a.Materials = nil

	var buf bytes.Buffer
	require.NoError(t, fbxbuilder.Export(&buf, a))
	assert.NotEmpty(t, buf.Bytes())
}
