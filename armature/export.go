package armature

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

// Joints converts tool rest matrices back into joint records of family.
// Names are converted to the engine convention and parents are set both
// by index and by name.
func Joints(s *scene.Skeleton, family Family) []Joint {
	s.LinkChildren()
	rest := restMatrices(s, family)
	joints := make([]Joint, len(s.Bones))

	for i := range s.Bones {
		bone := &s.Bones[i]
		j := Joint{
			Name:   utils.BoneNameToEngine(bone.Name),
			Parent: bone.Parent,
			Width:  bone.Width,
			Height: bone.Height,
			Length: bone.Length,
		}
		var parent *mgl64.Mat4
		if !bone.IsRoot() {
			parent = &rest[bone.Parent]
			j.ParentName = utils.BoneNameToEngine(s.Bones[bone.Parent].Name)
		}

		switch family {
		case FamilySkel:
			j.Matrix = space.SkelLocal(parent, rest[i])
		case FamilyDSkel:
			j.Origin, j.Axis = space.DSkelOrigin(rest[i])
			j.Width = bone.Length / 4
			j.Height = bone.Length / 4
		case FamilyMeshJoint:
			j.Origin, j.Axis = space.MeshJointOrigin(parent, rest[i])
		case FamilySkin:
			j.Matrix = space.SkinRows(rest[i])
		}
		joints[i] = j
	}
	return joints
}

// restMatrices undoes the chain correction applied on binary skeleton import.
func restMatrices(s *scene.Skeleton, family Family) []mgl64.Mat4 {
	rest := make([]mgl64.Mat4, len(s.Bones))
	for i := range s.Bones {
		rest[i] = s.Bones[i].World
	}
	if family != FamilySkel {
		return rest
	}

	undo := space.ChainCorrection.Inv()
	for _, r := range s.Roots() {
		walkChain(s, r, func(i int) {
			rest[i] = undo.Mul4(rest[i])
		})
	}
	return rest
}
