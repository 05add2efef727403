package mesh_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/pack/mesh"
	"github.com/mogaika/haydee_tools/scene"
)

func quad() *scene.Mesh {
	return &scene.Mesh{
		Name:      "plate",
		Positions: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
		Faces: []scene.Face{{
			Verts: []int{0, 1, 2, 3},
			UVs:   []mgl64.Vec2{{0, 0}, {0.5, 0}, {0.5, 0.25}, {0, 0.25}},
		}},
	}
}

func TestMeshRoundTrip(t *testing.T) {
	for _, format := range []config.FileFormat{config.FormatH1, config.FormatH2} {
		data, err := mesh.Marshal(quad(), format)
		require.NoError(t, err)

		a, err := mesh.NewFromData(data, "plate", format)
		require.NoError(t, err)
		assert.Empty(t, a.Diagnostics)
		require.Len(t, a.Meshes, 1)
		m := a.Meshes[0]

		src := quad()
		require.Len(t, m.Positions, 4)
		for i := range src.Positions {
			for k := 0; k < 3; k++ {
				assert.InDelta(t, src.Positions[i][k], m.Positions[i][k], 1e-6)
			}
		}
		require.Len(t, m.Faces, 2)
		assert.Equal(t, []int{0, 1, 2}, m.Faces[0].Verts)
		assert.Equal(t, []int{0, 2, 3}, m.Faces[1].Verts)
		assert.Equal(t, []mgl64.Vec2{{0, 0}, {0.5, 0}, {0.5, 0.25}}, m.Faces[0].UVs, format.String())

		// the plate faces -y in tool space
		for _, n := range m.Normals {
			assert.InDelta(t, -1, n.Y(), 1e-6)
		}
		assert.Equal(t, [4]uint8{0xff, 0xff, 0xff, 0xff}, m.Colors[0])
	}
}

func TestMeshSplitsVerticesByUV(t *testing.T) {
	m := quad()
	m.Faces = append(m.Faces, scene.Face{
		Verts: []int{0, 3, 2},
		UVs:   []mgl64.Vec2{{1, 1}, {0, 0.25}, {0.5, 0.25}},
	})
	data, err := mesh.Marshal(m, config.FormatH2)
	require.NoError(t, err)

	a, err := mesh.NewFromData(data, "plate", config.FormatH2)
	require.NoError(t, err)
	// vertex 0 is used with two different uvs
	assert.Len(t, a.Meshes[0].Positions, 5)
	assert.Len(t, a.Meshes[0].Faces, 3)
}

func TestMeshTruncated(t *testing.T) {
	payload := make([]byte, mesh.INFO_SIZE)
	payload[0] = 10
	w := chunk.NewWriter(mesh.ASSET_TYPE)
	w.SetPayload(payload)
	data, err := w.Bytes()
	require.NoError(t, err)

	_, err = mesh.NewFromData(data, "broken", config.FormatH2)
	assert.True(t, hd.IsKind(err, hd.StructuralMismatch), "%v", err)
}

const testDMesh = `HD_DATA_TXT 300

mesh
{
	verts 5
	{
		vert 0 0 0;
		vert 1 0 0;
		vert 1 1 0;
		vert 0 1 0;
		vert 5 5 5;
	}
	uvs 4
	{
		uv 0 0;
		uv 1 0;
		uv 1 1;
		uv 0 1;
	}
	groups 2
	{
		group body 2
		{
			face
			{
				count 3;
				verts  0 1 2;
				uvs  0 1 2;
				smoothGroup 1;
			}
			face
			{
				count 3;
				verts  0 2 3;
				uvs  0 2 3;
				smoothGroup 1;
			}
		}
		group head 1
		{
			face { count 3; verts 2 3 x; smoothGroup 0; }
		}
	}
	joints 2
	{
		joint SK_Root { origin 0 0 0; axis 1 0 0 0; }
		joint SK_R_Arm { parent SK_Root; origin 0 1 0; axis 1 0 0 0; }
	}
	weights 3
	{
		weight 0 0 1;
		weight 1 1 0.5;
		weight 1 0 0.5;
	}
}
`

func TestDMeshRead(t *testing.T) {
	a, err := mesh.NewFromDMesh([]byte(testDMesh), "suit", config.FormatH2)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Diagnostics.Count(hd.StructuralMismatch))

	require.NotNil(t, a.Skeleton)
	assert.Equal(t, []string{"SK_Root", "SK_Arm_R"}, a.Skeleton.Names())
	assert.Equal(t, 0, a.Skeleton.Bones[1].Parent)

	require.Len(t, a.Meshes, 2)
	body := a.Meshes[0]
	assert.Equal(t, "body", body.Name)
	assert.Len(t, body.Positions, 4)
	assert.Equal(t, []int{2, 1, 0}, body.Faces[0].Verts)
	// H2 flips v
	assert.Equal(t, mgl64.Vec2{1, 0}, body.Faces[0].UVs[0])
	assert.False(t, body.IsSharp(scene.MakeEdge(0, 2)))
	assert.True(t, body.IsSharp(scene.MakeEdge(0, 1)))

	require.Len(t, body.Weights, 4)
	assert.Equal(t, []scene.VertexWeight{{Bone: "SK_Root", Weight: 1}}, body.Weights[0])
	assert.Equal(t, []scene.VertexWeight{{Bone: "SK_Arm_R", Weight: 0.5}, {Bone: "SK_Root", Weight: 0.5}}, body.Weights[1])
	assert.Empty(t, body.Weights[2])

	assert.Empty(t, a.Meshes[1].Faces)
}

func TestDMeshRoundTrip(t *testing.T) {
	a, err := mesh.NewFromDMesh([]byte(testDMesh), "suit", config.FormatH2)
	require.NoError(t, err)

	data, err := pack.CallEmitter("suit.dmesh", a, config.FormatH2)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "\tverts 4\n\t{\n\t\tvert 0 0 0;\n\t\tvert 1 0 0;\n")
	assert.Contains(t, text, "\t\tgroup body 2\n\t\t{\n\t\t\tface\n\t\t\t{\n\t\t\t\tcount 3;\n\t\t\t\tverts 0 1 2;\n")
	assert.Contains(t, text, "\t\tjoint SK_R_Arm\n\t\t{\n\t\t\tparent SK_Root;\n")
	assert.Contains(t, text, "\t\tweight 1 1 0.5;\n")
	assert.NotContains(t, text, "group head")

	b, err := mesh.NewFromDMesh(data, "suit", config.FormatH2)
	require.NoError(t, err)
	assert.Empty(t, b.Diagnostics)
	require.Len(t, b.Meshes, 1)

	src, dst := a.Meshes[0], b.Meshes[0]
	assert.Equal(t, src.Positions, dst.Positions)
	require.Len(t, dst.Faces, len(src.Faces))
	for i := range src.Faces {
		assert.Equal(t, src.Faces[i].Verts, dst.Faces[i].Verts)
		assert.Equal(t, src.Faces[i].UVs, dst.Faces[i].UVs)
	}
	assert.Equal(t, src.Weights, dst.Weights)

	require.Len(t, b.Skeleton.Bones, 2)
	for i := range a.Skeleton.Bones {
		for k := range a.Skeleton.Bones[i].World {
			assert.InDelta(t, a.Skeleton.Bones[i].World[k], b.Skeleton.Bones[i].World[k], 1e-5)
		}
	}
}
