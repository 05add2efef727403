package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/scene"
)

// FlatVertex is one render vertex: a connectivity vertex split by uv.
type FlatVertex struct {
	Position  mgl64.Vec3
	UV        mgl64.Vec2
	Color     [4]uint8
	Normal    mgl64.Vec3
	Tangent   mgl64.Vec3
	Bitangent mgl64.Vec3
	// connectivity vertex index
	Source int
}

// FlatMesh is a triangle list over render vertices, tool space and winding.
type FlatMesh struct {
	Vertices  []FlatVertex
	Triangles [][3]int
}

type flatKey struct {
	vert int
	uv   [2]uint64
}

func uvBits(uv mgl64.Vec2) [2]uint64 {
	return [2]uint64{math.Float64bits(uv[0]), math.Float64bits(uv[1])}
}

var defaultColor = [4]uint8{0xff, 0xff, 0xff, 0xff}

// Flatten splits vertices by distinct (vertex, uv) pairs and fans n-gons
// into triangles. Missing normals are accumulated from face normals.
func Flatten(m *scene.Mesh) *FlatMesh {
	f := &FlatMesh{}
	index := make(map[flatKey]int)
	normals := m.Normals
	if len(normals) != len(m.Positions) {
		normals = VertexNormals(m)
	}

	for fi := range m.Faces {
		face := &m.Faces[fi]
		loops := make([]int, len(face.Verts))
		for li, v := range face.Verts {
			var uv mgl64.Vec2
			if len(face.UVs) == len(face.Verts) {
				uv = face.UVs[li]
			}
			key := flatKey{vert: v, uv: uvBits(uv)}
			idx, ok := index[key]
			if !ok {
				idx = len(f.Vertices)
				index[key] = idx
				fv := FlatVertex{
					Position: m.Positions[v],
					UV:       uv,
					Color:    defaultColor,
					Normal:   normals[v],
					Source:   v,
				}
				if v < len(m.Colors) {
					fv.Color = m.Colors[v]
				}
				f.Vertices = append(f.Vertices, fv)
			}
			loops[li] = idx
		}
		for i := 1; i+1 < len(loops); i++ {
			f.Triangles = append(f.Triangles, [3]int{loops[0], loops[i], loops[i+1]})
		}
	}
	f.computeTangents()
	return f
}

// VertexNormals averages the area weighted normals of adjacent faces.
func VertexNormals(m *scene.Mesh) []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(m.Positions))
	for fi := range m.Faces {
		verts := m.Faces[fi].Verts
		for i := 1; i+1 < len(verts); i++ {
			a, b, c := m.Positions[verts[0]], m.Positions[verts[i]], m.Positions[verts[i+1]]
			n := b.Sub(a).Cross(c.Sub(a))
			for _, v := range []int{verts[0], verts[i], verts[i+1]} {
				normals[v] = normals[v].Add(n)
			}
		}
	}
	for i := range normals {
		if normals[i].Len() > 0 {
			normals[i] = normals[i].Normalize()
		}
	}
	return normals
}

func (f *FlatMesh) computeTangents() {
	for _, t := range f.Triangles {
		v0, v1, v2 := &f.Vertices[t[0]], &f.Vertices[t[1]], &f.Vertices[t[2]]
		e1, e2 := v1.Position.Sub(v0.Position), v2.Position.Sub(v0.Position)
		du1, dv1 := v1.UV[0]-v0.UV[0], v1.UV[1]-v0.UV[1]
		du2, dv2 := v2.UV[0]-v0.UV[0], v2.UV[1]-v0.UV[1]
		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		r := 1 / det
		tangent := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(r)
		bitangent := e2.Mul(du1).Sub(e1.Mul(du2)).Mul(r)
		for _, v := range []*FlatVertex{v0, v1, v2} {
			v.Tangent = v.Tangent.Add(tangent)
			v.Bitangent = v.Bitangent.Add(bitangent)
		}
	}
	for i := range f.Vertices {
		v := &f.Vertices[i]
		if v.Tangent.Len() > 0 {
			v.Tangent = v.Tangent.Normalize()
		}
		if v.Bitangent.Len() > 0 {
			v.Bitangent = v.Bitangent.Normalize()
		}
	}
}

// Mesh converts render vertices back into a mesh. Every render vertex
// stays a connectivity vertex and its uv becomes the loop uv.
func (f *FlatMesh) Mesh(name string) *scene.Mesh {
	m := &scene.Mesh{
		Name:      name,
		Positions: make([]mgl64.Vec3, len(f.Vertices)),
		Normals:   make([]mgl64.Vec3, len(f.Vertices)),
		Colors:    make([][4]uint8, len(f.Vertices)),
		Faces:     make([]scene.Face, len(f.Triangles)),
	}
	for i := range f.Vertices {
		m.Positions[i] = f.Vertices[i].Position
		m.Normals[i] = f.Vertices[i].Normal
		m.Colors[i] = f.Vertices[i].Color
	}
	for i, t := range f.Triangles {
		m.Faces[i] = scene.Face{
			Verts: []int{t[0], t[1], t[2]},
			UVs:   []mgl64.Vec2{f.Vertices[t[0]].UV, f.Vertices[t[1]].UV, f.Vertices[t[2]].UV},
		}
	}
	return m
}
