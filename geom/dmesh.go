package geom

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/armature"
)

// DMesh is the file level content of a text mesh: engine space vertex and
// uv tables shared by all groups, faces in file winding.
type DMesh struct {
	Verts   []mgl64.Vec3
	UVs     []mgl64.Vec2
	Groups  []DGroup
	Joints  []armature.Joint
	Weights []DWeight
}

type DGroup struct {
	Name  string
	Faces []DFace
}

type DFace struct {
	Verts       []int
	UVs         []int
	SmoothGroup uint32
	// source line for diagnostics
	Record string
}

type DWeight struct {
	Vert   int
	Bone   int
	Weight float64
}

func (d *DMesh) JointNames() []string {
	names := make([]string, len(d.Joints))
	for i := range d.Joints {
		names[i] = d.Joints[i].Name
	}
	return names
}
