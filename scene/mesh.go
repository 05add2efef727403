package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

type VertexWeight struct {
	Bone   string
	Weight float64
}

// Face lists connectivity vertex indices and one uv per loop, both in tool winding.
type Face struct {
	Verts       []int
	UVs         []mgl64.Vec2 `yaml:",omitempty,flow"`
	SmoothGroup uint32       `yaml:",omitempty"`
}

// Edge is an undirected vertex pair, lower index first.
type Edge [2]int

func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

type Mesh struct {
	Name      string
	Material  string `yaml:",omitempty"`
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3 `yaml:",omitempty"`
	Colors    [][4]uint8   `yaml:",omitempty"`
	Faces     []Face
	// sorted
	SharpEdges []Edge `yaml:",omitempty"`
	// per vertex, nil for unweighted meshes
	Weights [][]VertexWeight `yaml:",omitempty"`
}

func (m *Mesh) HasUVs() bool {
	for i := range m.Faces {
		if len(m.Faces[i].UVs) != 0 {
			return true
		}
	}
	return false
}

func (m *Mesh) LoopCount() int {
	n := 0
	for i := range m.Faces {
		n += len(m.Faces[i].Verts)
	}
	return n
}

func (m *Mesh) IsSharp(e Edge) bool {
	lo, hi := 0, len(m.SharpEdges)
	for lo < hi {
		mid := (lo + hi) / 2
		c := m.SharpEdges[mid]
		if c == e {
			return true
		}
		if c[0] < e[0] || (c[0] == e[0] && c[1] < e[1]) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return false
}
