// Package space converts transforms between the engine (y up, left
// handed bone axes) and the tool (z up, bones along +Y).
// Every forward mapping has an inverse in the same file.
package space

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// FlipX negates the first basis column.
var FlipX = mgl64.Scale3D(-1, 1, 1)

func Rows(r0, r1, r2, r3 [4]float64) mgl64.Mat4 {
	return mgl64.Mat4FromRows(r0, r1, r2, r3)
}

func Rx(deg float64) mgl64.Mat4 { return mgl64.HomogRotate3DX(mgl64.DegToRad(deg)) }
func Ry(deg float64) mgl64.Mat4 { return mgl64.HomogRotate3DY(mgl64.DegToRad(deg)) }
func Rz(deg float64) mgl64.Mat4 { return mgl64.HomogRotate3DZ(mgl64.DegToRad(deg)) }

// EditBone rebuilds m the way a bone matrix is stored by the tool: the
// X axis is Y cross Z, so a mirrored basis gets its X column negated.
func EditBone(m mgl64.Mat4) mgl64.Mat4 {
	if m.Mat3().Det() < 0 {
		return m.Mul4(FlipX)
	}
	return m
}

// Compose builds a rigid transform from a rotation and translation.
func Compose(rot mgl64.Mat4, t mgl64.Vec3) mgl64.Mat4 {
	rot.SetCol(3, t.Vec4(1))
	return rot
}

func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// Rotation drops the translation of m.
func Rotation(m mgl64.Mat4) mgl64.Mat4 {
	return m.Mat3().Mat4()
}

// Quat extracts the rotation of an orthonormal matrix with w >= 0.
func Quat(m mgl64.Mat4) mgl64.Quat {
	return Canonical(mgl64.Mat4ToQuat(Rotation(m)).Normalize())
}

// Canonical picks the sign of q with non negative w.
func Canonical(q mgl64.Quat) mgl64.Quat {
	if q.W < 0 {
		return q.Scale(-1)
	}
	return q
}

// SameRotation compares orientations ignoring quaternion sign.
func SameRotation(a, b mgl64.Quat, eps float64) bool {
	return math.Abs(math.Abs(a.Normalize().Dot(b.Normalize()))-1) <= eps
}

// Table is a fixed axis correction applied around a local matrix:
// world = parent * Pre * local * Post.
type Table struct {
	Pre  mgl64.Mat4
	Post mgl64.Mat4
}

func (t Table) flips() bool {
	return t.Pre.Mat3().Det()*t.Post.Mat3().Det() < 0
}

func (t Table) Apply(parent, local mgl64.Mat4) mgl64.Mat4 {
	return EditBone(parent.Mul4(t.Pre).Mul4(local).Mul4(t.Post))
}

// Unapply recovers a proper local matrix from a world matrix built by Apply.
func (t Table) Unapply(parent, world mgl64.Mat4) mgl64.Mat4 {
	m := parent.Inv().Mul4(world)
	if t.flips() {
		m = m.Mul4(FlipX)
	}
	return t.Pre.Inv().Mul4(m).Mul4(t.Post.Inv())
}
