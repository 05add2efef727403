package geom

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

// DMeshBuilder collects tool meshes into one text mesh. Vertices of every
// added mesh follow the previous ones, uvs are shared and deduplicated
// bit exactly, and groups of the same name are merged.
type DMeshBuilder struct {
	format    config.FileFormat
	diags     *scene.Diagnostics
	dmesh     DMesh
	uvIndex   map[[2]uint64]int
	groups    map[string]int
	boneIndex map[string]int
}

func NewDMeshBuilder(format config.FileFormat, diags *scene.Diagnostics) *DMeshBuilder {
	return &DMeshBuilder{
		format:    format,
		diags:     diags,
		uvIndex:   make(map[[2]uint64]int),
		groups:    make(map[string]int),
		boneIndex: make(map[string]int),
	}
}

// SetSkeleton writes the joints of s. Call before adding weighted meshes.
func (b *DMeshBuilder) SetSkeleton(s *scene.Skeleton) {
	b.dmesh.Joints = armature.Joints(s, armature.FamilyMeshJoint)
	for i := range s.Bones {
		b.boneIndex[utils.TruncateName(s.Bones[i].Name)] = i
	}
}

// AddObject adds the parts of one object. Parts are split by material;
// with more than one part the group name carries the material name.
func (b *DMeshBuilder) AddObject(name string, parts ...*scene.Mesh) {
	for _, m := range parts {
		groupName := name
		if len(parts) > 1 {
			groupName = name + "_" + m.Material
		}
		b.addMesh(utils.GroupName(groupName), m)
	}
}

func (b *DMeshBuilder) addMesh(groupName string, m *scene.Mesh) {
	if len(m.Positions) == 0 || len(m.Faces) == 0 {
		b.diags.Warnf(groupName, "mesh has no geometry, skipped")
		return
	}
	if !m.HasUVs() {
		b.diags.Add(hd.MissingRequiredEntry, groupName, "mesh has no uv layer, skipped")
		return
	}

	base := len(b.dmesh.Verts)
	for _, p := range m.Positions {
		b.dmesh.Verts = append(b.dmesh.Verts, space.VertexToEngine(p))
	}

	gi, ok := b.groups[groupName]
	if !ok {
		gi = len(b.dmesh.Groups)
		b.groups[groupName] = gi
		b.dmesh.Groups = append(b.dmesh.Groups, DGroup{Name: groupName})
	}
	group := &b.dmesh.Groups[gi]

	smooth := SmoothGroups(m)
	for fi := range m.Faces {
		face := &m.Faces[fi]
		n := len(face.Verts)
		if len(face.UVs) != n {
			b.diags.Add(hd.ArityMismatch, groupName, "face %d has %d vertices and %d uvs", fi, n, len(face.UVs))
			continue
		}
		df := DFace{
			Verts:       make([]int, n),
			UVs:         make([]int, n),
			SmoothGroup: smooth[fi],
		}
		for i, v := range face.Verts {
			df.Verts[n-1-i] = base + v
			df.UVs[n-1-i] = b.uv(face.UVs[i])
		}
		group.Faces = append(group.Faces, df)
	}

	for v, ws := range m.Weights {
		var known []scene.VertexWeight
		for _, w := range ws {
			if _, ok := b.boneIndex[utils.TruncateName(w.Bone)]; ok {
				known = append(known, w)
			}
		}
		for _, w := range NormalizeWeights(known) {
			b.dmesh.Weights = append(b.dmesh.Weights, DWeight{
				Vert:   base + v,
				Bone:   b.boneIndex[utils.TruncateName(w.Bone)],
				Weight: w.Weight,
			})
		}
	}
}

func (b *DMeshBuilder) uv(uv mgl64.Vec2) int {
	key := uvBits(uv)
	if idx, ok := b.uvIndex[key]; ok {
		return idx
	}
	idx := len(b.dmesh.UVs)
	b.uvIndex[key] = idx
	b.dmesh.UVs = append(b.dmesh.UVs, space.UVToEngine(uv, b.format))
	return idx
}

func (b *DMeshBuilder) DMesh() *DMesh {
	return &b.dmesh
}
