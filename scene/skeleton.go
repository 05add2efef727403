package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Bone is one joint of a skeleton arena. World is the tool space rest
// matrix: column 3 is the head, column 1 points from head to tail.
type Bone struct {
	Name     string
	Parent   int
	Children []int `yaml:"-"`

	// values as stored by the source file, for round trips
	Origin mgl64.Vec3
	Axis   mgl64.Quat
	Local  mgl64.Mat4 `yaml:"-"`

	Width  float64
	Height float64
	Length float64

	World mgl64.Mat4 `yaml:"-"`
}

func (b *Bone) IsRoot() bool {
	return b.Parent < 0
}

func (b *Bone) Head() mgl64.Vec3 {
	return b.World.Col(3).Vec3()
}

func (b *Bone) Direction() mgl64.Vec3 {
	return b.World.Col(1).Vec3()
}

func (b *Bone) Tail() mgl64.Vec3 {
	return b.Head().Add(b.Direction().Mul(b.Length))
}

// JointLimit is a rotation limit record of a binary skeleton.
type JointLimit struct {
	Bone   int
	Parent int
	Matrix mgl64.Mat4 `yaml:"-"`
	TwistX float64
	TwistY float64
	SwingX float64
	SwingY float64
}

// Fix is kept verbatim; its driver semantics are not applied.
type Fix struct {
	Type  uint32
	Flags uint32
	Fix1  uint32
	Fix2  uint32
	Index uint32
}

type Skeleton struct {
	Name   string
	Bones  []Bone
	Joints []JointLimit `yaml:",omitempty"`
	Fixes  []Fix        `yaml:",omitempty"`
	// raw slot records, unused by the tool
	Slots    []byte `yaml:"-"`
	NumSlots int    `yaml:",omitempty"`
}

func (s *Skeleton) Find(name string) int {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return i
		}
	}
	return -1
}

func (s *Skeleton) Roots() []int {
	roots := make([]int, 0, 1)
	for i := range s.Bones {
		if s.Bones[i].IsRoot() {
			roots = append(roots, i)
		}
	}
	return roots
}

// LinkChildren rebuilds the Children lists from the Parent indices.
func (s *Skeleton) LinkChildren() {
	for i := range s.Bones {
		s.Bones[i].Children = nil
	}
	for i := range s.Bones {
		if p := s.Bones[i].Parent; p >= 0 && p < len(s.Bones) {
			s.Bones[p].Children = append(s.Bones[p].Children, i)
		}
	}
}

// Order returns bone indices with every parent before its children.
// Requires LinkChildren and an acyclic parent graph.
func (s *Skeleton) Order() []int {
	order := make([]int, 0, len(s.Bones))
	var visit func(i int)
	visit = func(i int) {
		order = append(order, i)
		for _, c := range s.Bones[i].Children {
			visit(c)
		}
	}
	for _, r := range s.Roots() {
		visit(r)
	}
	return order
}

func (s *Skeleton) Names() []string {
	names := make([]string, len(s.Bones))
	for i := range s.Bones {
		names[i] = s.Bones[i].Name
	}
	return names
}

// Adopt appends the bones of other that s does not have. Parents are
// matched by name. Returns the number of bones added.
func (s *Skeleton) Adopt(other *Skeleton) int {
	first := len(s.Bones)
	for _, b := range other.Bones {
		if s.Find(b.Name) < 0 {
			b.Children = nil
			s.Bones = append(s.Bones, b)
		}
	}
	// parents of the new bones still index other
	for i := first; i < len(s.Bones); i++ {
		if p := s.Bones[i].Parent; p >= 0 && p < len(other.Bones) {
			s.Bones[i].Parent = s.Find(other.Bones[p].Name)
		}
	}
	if len(s.Bones) != first {
		s.LinkChildren()
	}
	return len(s.Bones) - first
}
