package armature

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

// Family selects the rest pose transform table of the source format.
type Family int

const (
	FamilySkel Family = iota
	FamilyDSkel
	FamilyMeshJoint
	FamilySkin
)

func (f Family) String() string {
	switch f {
	case FamilySkel:
		return "skel"
	case FamilyDSkel:
		return "dskel"
	case FamilyMeshJoint:
		return "dmesh joint"
	case FamilySkin:
		return "skin"
	}
	return "unknown"
}

const (
	PROJECTION_MIN    = 0.1
	PERPENDICULAR_EPS = 0.001
	ROOT_MARKER       = "root"
)

// Joint is a bone record as read from a file.
type Joint struct {
	Name string
	// parent reference by name, takes precedence over Parent
	ParentName string
	// parent index into the joint list, -1 for roots
	Parent int

	// stored local matrix (skel) or matrix rows (skin)
	Matrix mgl64.Mat4
	Origin mgl64.Vec3
	Axis   mgl64.Quat

	Width  float64
	Height float64
	Length float64
}

// Builder turns joint records into a bone arena with tool space rest matrices.
type Builder struct {
	Family Family
	Diags  *scene.Diagnostics
	Log    *utils.Logger
}

func NewBuilder(family Family, diags *scene.Diagnostics) *Builder {
	return &Builder{Family: family, Diags: diags, Log: utils.Verbose}
}

func (b *Builder) Build(name string, joints []Joint) (*scene.Skeleton, error) {
	s := &scene.Skeleton{
		Name:  name,
		Bones: make([]scene.Bone, len(joints)),
	}
	byName := make(map[string]int, len(joints))

	for i := range joints {
		j := &joints[i]
		bname := utils.BoneNameToTool(j.Name)
		if bname == "" {
			return nil, hd.Errorf(hd.StructuralMismatch, "Bone %d has empty name", i)
		}
		if _, dup := byName[bname]; dup {
			b.Diags.Add(hd.StructuralMismatch, bname, "duplicated bone name")
		} else {
			byName[bname] = i
		}
		s.Bones[i] = scene.Bone{
			Name:   bname,
			Parent: -1,
			Origin: j.Origin,
			Axis:   j.Axis,
			Local:  j.Matrix,
			Width:  j.Width,
			Height: j.Height,
			Length: j.Length,
		}
	}

	b.resolveParents(s, joints, byName)
	s.LinkChildren()

	order := s.Order()
	for _, i := range order {
		bone := &s.Bones[i]
		var parent *mgl64.Mat4
		if !bone.IsRoot() {
			parent = &s.Bones[bone.Parent].World
		}

		switch b.Family {
		case FamilySkel:
			bone.World = space.SkelWorld(parent, bone.Local)
		case FamilyDSkel:
			bone.World = space.DSkelWorld(bone.Origin, bone.Axis)
		case FamilyMeshJoint:
			bone.World = space.MeshJointWorld(parent, bone.Origin, bone.Axis)
		case FamilySkin:
			bone.World = space.SkinWorld(bone.Local)
		}
		b.Log.Printf("[armature] %v bone %q parent %d head %v", b.Family, bone.Name, bone.Parent, bone.Head())
	}

	if b.Family != FamilySkin {
		SnapTails(s)
	}
	if b.Family == FamilySkel {
		for _, r := range s.Roots() {
			applyToChain(s, r, space.ChainCorrection)
		}
	}
	return s, nil
}

// resolveParents validates every parent reference before any matrix is
// computed. Broken references leave the bone a root. A cycle is cut at
// its lowest index bone.
func (b *Builder) resolveParents(s *scene.Skeleton, joints []Joint, byName map[string]int) {
	for i := range joints {
		j := &joints[i]
		parent := j.Parent
		ref := ""
		if j.ParentName != "" {
			ref = utils.BoneNameToTool(j.ParentName)
			p, ok := byName[ref]
			if !ok {
				b.Diags.Add(hd.UnresolvedReference, s.Bones[i].Name, "parent %q not found", j.ParentName)
				continue
			}
			parent = p
		}
		if parent < 0 {
			continue
		}
		if parent >= len(joints) || parent == i {
			b.Diags.Add(hd.UnresolvedReference, s.Bones[i].Name, "parent index %d out of range", parent)
			continue
		}
		s.Bones[i].Parent = parent
	}

	for i := range s.Bones {
		if cycle := parentCycle(s, i); len(cycle) != 0 {
			// the lowest index member becomes the root of the former loop
			first := cycle[0]
			for _, c := range cycle {
				if c < first {
					first = c
				}
			}
			b.Diags.Add(hd.StructuralMismatch, s.Bones[first].Name, "parent cycle of %d bones", len(cycle))
			s.Bones[first].Parent = -1
		}
	}
}

// parentCycle returns the bones of the loop reached by walking up from i,
// or nil when the walk ends at a root. Bones leading into a loop are not
// part of it.
func parentCycle(s *scene.Skeleton, i int) []int {
	step := map[int]int{}
	path := []int{}
	for p := i; p >= 0; p = s.Bones[p].Parent {
		if at, ok := step[p]; ok {
			return path[at:]
		}
		step[p] = len(path)
		path = append(path, p)
	}
	return nil
}

// SnapTails sets a bone length to the distance of a child head lying on
// the bone axis beyond PROJECTION_MIN of its length.
func SnapTails(s *scene.Skeleton) {
	for i := range s.Bones {
		bone := &s.Bones[i]
		for _, c := range bone.Children {
			center := s.Bones[c].Head()
			prox := center.Sub(bone.Head())
			boneVec := bone.Tail().Sub(bone.Head())
			lenSqr := boneVec.Dot(boneVec)
			if lenSqr == 0 {
				continue
			}
			norm := prox.Dot(boneVec) / lenSqr
			if norm > PROJECTION_MIN && prox.Sub(boneVec.Mul(norm)).Len() < PERPENDICULAR_EPS {
				bone.Length = prox.Len()
			}
		}
	}
}

// IsRootChain reports whether a root bone keeps its rest orientation.
func IsRootChain(name string) bool {
	return strings.Contains(strings.ToLower(name), ROOT_MARKER)
}

// walkChain visits bone i and its descendants. Bones of a root chain and
// everything below them are skipped.
func walkChain(s *scene.Skeleton, i int, visit func(i int)) {
	if IsRootChain(s.Bones[i].Name) {
		return
	}
	visit(i)
	for _, c := range s.Bones[i].Children {
		walkChain(s, c, visit)
	}
}

func applyToChain(s *scene.Skeleton, i int, m mgl64.Mat4) {
	walkChain(s, i, func(i int) {
		s.Bones[i].World = m.Mul4(s.Bones[i].World)
	})
}
