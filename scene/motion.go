package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// PoseKey holds one engine space transform. Rotation is the engine
// quaternion; files store its components in x z y w order.
type PoseKey struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

type BoneKey struct {
	Bone string
	Key  PoseKey
}

type Pose struct {
	Name       string
	Transforms []BoneKey
}

type Track struct {
	Bone string
	Keys []PoseKey `yaml:"-"`
}

type Motion struct {
	Name       string
	FrameRate  int
	FirstFrame int
	NumFrames  int
	Duration   int
	// binary motions apply the root roll before the key
	RootPre bool `yaml:",omitempty"`
	Tracks  []Track
}

// FramePose is the tool space world matrix of every skeleton bone at one frame.
type FramePose struct {
	Frame int
	World []mgl64.Mat4 `yaml:"-"`
}
