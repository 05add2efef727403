package space

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/scene"
)

// RootMode selects on which side the root bone roll correction is applied.
type RootMode int

const (
	// text poses and motions: world = key * Rz(90)
	RootPost RootMode = iota
	// binary motions: world = Rz(90) * key
	RootPre
)

func (m RootMode) String() string {
	if m == RootPre {
		return "pre"
	}
	return "post"
}

func keyRotation(k scene.PoseKey) mgl64.Mat4 {
	q := mgl64.Quat{W: k.Rotation.W, V: mgl64.Vec3{-k.Rotation.V[1], k.Rotation.V[0], k.Rotation.V[2]}}
	return q.Normalize().Mat4()
}

func keyFromRotation(rot mgl64.Mat4, position mgl64.Vec3) scene.PoseKey {
	q := Quat(rot)
	return scene.PoseKey{
		Position: position,
		Rotation: mgl64.Quat{W: q.W, V: mgl64.Vec3{q.V[1], -q.V[0], q.V[2]}},
	}
}

// PoseLocal is the parent relative tool transform of a non root key.
func PoseLocal(k scene.PoseKey) mgl64.Mat4 {
	p := k.Position
	return Compose(keyRotation(k), mgl64.Vec3{-p[2], p[0], p[1]})
}

// PoseWorld maps a key to a tool world matrix. parent is nil for roots.
func PoseWorld(k scene.PoseKey, parent *mgl64.Mat4, mode RootMode) mgl64.Mat4 {
	if parent != nil {
		return parent.Mul4(PoseLocal(k))
	}
	p := k.Position
	switch mode {
	case RootPre:
		return boneRoll.Mul4(Compose(keyRotation(k), mgl64.Vec3{-p[2], p[0], p[1]}))
	default:
		return Compose(keyRotation(k), mgl64.Vec3{-p[0], -p[2], p[1]}).Mul4(boneRoll)
	}
}

// PoseKeyFrom is the inverse of PoseWorld.
func PoseKeyFrom(world mgl64.Mat4, parent *mgl64.Mat4, mode RootMode) scene.PoseKey {
	if parent != nil {
		local := parent.Inv().Mul4(world)
		o := Translation(local)
		return keyFromRotation(local, mgl64.Vec3{o[1], o[2], -o[0]})
	}
	switch mode {
	case RootPre:
		m := boneRollInv.Mul4(world)
		t := Translation(m)
		return keyFromRotation(m, mgl64.Vec3{t[1], t[2], -t[0]})
	default:
		m := world.Mul4(boneRollInv)
		t := Translation(m)
		return keyFromRotation(m, mgl64.Vec3{-t[0], t[2], -t[1]})
	}
}
