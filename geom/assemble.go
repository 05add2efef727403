package geom

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

// Assemble builds one tool space mesh per group. Vertices are compacted
// in first use order, winding is reversed and uvs are kept per loop.
// Broken faces and weights are reported and skipped. The last weight of a
// (vertex, bone) pair wins.
func Assemble(d *DMesh, format config.FileFormat, diags *scene.Diagnostics) []*scene.Mesh {
	boneNames := make([]string, len(d.Joints))
	for i := range d.Joints {
		boneNames[i] = utils.BoneNameToTool(d.Joints[i].Name)
	}

	meshes := make([]*scene.Mesh, 0, len(d.Groups))
	for gi := range d.Groups {
		g := &d.Groups[gi]
		m := &scene.Mesh{Name: g.Name}

		vertDic := make(map[int]int)
		sources := make([]int, 0)

		for fi := range g.Faces {
			f := &g.Faces[fi]
			if !checkFace(d, f, diags) {
				continue
			}

			face := scene.Face{
				Verts:       make([]int, len(f.Verts)),
				SmoothGroup: f.SmoothGroup,
			}
			for i, old := range f.Verts {
				local, ok := vertDic[old]
				if !ok {
					local = len(sources)
					vertDic[old] = local
					sources = append(sources, old)
				}
				face.Verts[len(f.Verts)-1-i] = local
			}
			if len(f.UVs) != 0 {
				face.UVs = make([]mgl64.Vec2, len(f.UVs))
				for i, uv := range f.UVs {
					face.UVs[len(f.UVs)-1-i] = space.UVToTool(d.UVs[uv], format)
				}
			}
			m.Faces = append(m.Faces, face)
		}

		m.Positions = make([]mgl64.Vec3, len(sources))
		for i, old := range sources {
			m.Positions[i] = space.VertexToTool(d.Verts[old])
		}
		m.SharpEdges = SharpEdges(m.Faces)
		m.Weights = assembleWeights(d, vertDic, len(sources), boneNames, diags)

		meshes = append(meshes, m)
	}
	return meshes
}

func checkFace(d *DMesh, f *DFace, diags *scene.Diagnostics) bool {
	if len(f.Verts) < 3 {
		diags.Add(hd.ArityMismatch, f.Record, "face has %d vertices", len(f.Verts))
		return false
	}
	if len(f.UVs) != 0 && len(f.UVs) != len(f.Verts) {
		diags.Add(hd.ArityMismatch, f.Record, "face has %d vertices and %d uvs", len(f.Verts), len(f.UVs))
		return false
	}
	for _, v := range f.Verts {
		if v < 0 || v >= len(d.Verts) {
			diags.Add(hd.UnresolvedReference, f.Record, "vertex %d out of range", v)
			return false
		}
	}
	for _, uv := range f.UVs {
		if uv < 0 || uv >= len(d.UVs) {
			diags.Add(hd.UnresolvedReference, f.Record, "uv %d out of range", uv)
			return false
		}
	}
	return true
}

func assembleWeights(d *DMesh, vertDic map[int]int, count int, boneNames []string, diags *scene.Diagnostics) [][]scene.VertexWeight {
	if len(d.Weights) == 0 {
		return nil
	}
	weights := make([][]scene.VertexWeight, count)
	for _, w := range d.Weights {
		local, ok := vertDic[w.Vert]
		if !ok {
			continue
		}
		if w.Bone < 0 || w.Bone >= len(boneNames) {
			diags.Add(hd.UnresolvedReference, "weight", "vertex %d bone %d out of range", w.Vert, w.Bone)
			continue
		}
		weights[local] = setWeight(weights[local], boneNames[w.Bone], w.Weight)
	}
	return weights
}

// setWeight stores the weight of bone, a repeated bone overwrites the
// earlier value.
func setWeight(ws []scene.VertexWeight, bone string, weight float64) []scene.VertexWeight {
	for i := range ws {
		if ws[i].Bone == bone {
			ws[i].Weight = weight
			return ws
		}
	}
	return append(ws, scene.VertexWeight{Bone: bone, Weight: weight})
}
