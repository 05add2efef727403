package space

import (
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// binary .skel roots
	SkelRoot = Table{
		Pre:  Rows([4]float64{-1, 0, 0, 0}, [4]float64{0, 0, -1, 0}, [4]float64{0, 1, 0, 0}, [4]float64{0, 0, 0, 1}),
		Post: Rows([4]float64{0, 1, 0, 0}, [4]float64{0, 0, 1, 0}, [4]float64{1, 0, 0, 0}, [4]float64{0, 0, 0, 1}),
	}
	// binary .skel children, relative to the parent world matrix
	SkelChild = Table{
		Pre:  Rows([4]float64{0, 0, -1, 0}, [4]float64{1, 0, 0, 0}, [4]float64{0, 1, 0, 0}, [4]float64{0, 0, 0, 1}),
		Post: Rows([4]float64{0, 1, 0, 0}, [4]float64{0, 0, 1, 0}, [4]float64{-1, 0, 0, 0}, [4]float64{0, 0, 0, 1}),
	}
	// rest correction of chains whose root is not named root
	ChainCorrection = Rz(-90)

	// .dmesh joint roots
	MeshJointRoot = Table{
		Pre:  Rows([4]float64{0, 0, 1, 0}, [4]float64{1, 0, 0, 0}, [4]float64{0, 1, 0, 0}, [4]float64{0, 0, 0, 1}),
		Post: Rows([4]float64{1, 0, 0, 0}, [4]float64{0, 0, -1, 0}, [4]float64{0, -1, 0, 0}, [4]float64{0, 0, 0, 1}),
	}
	// .dmesh joint children
	MeshJointChild = Table{
		Pre:  Rows([4]float64{-1, 0, 0, 0}, [4]float64{0, 0, 1, 0}, [4]float64{0, -1, 0, 0}, [4]float64{0, 0, 0, 1}),
		Post: Rows([4]float64{1, 0, 0, 0}, [4]float64{0, 0, 1, 0}, [4]float64{0, 1, 0, 0}, [4]float64{0, 0, 0, 1}),
	}

	SkinAxis   = Rx(-90)
	SkinOrient = Rz(90).Mul4(Ry(-90))

	boneRoll    = Rz(90)
	boneRollInv = Rz(-90)
)

// SkelWorld maps a binary skeleton local matrix (column major as stored)
// into a tool space rest matrix.
func SkelWorld(parent *mgl64.Mat4, local mgl64.Mat4) mgl64.Mat4 {
	if parent == nil {
		return SkelRoot.Apply(mgl64.Ident4(), local)
	}
	return SkelChild.Apply(*parent, local)
}

func SkelLocal(parent *mgl64.Mat4, world mgl64.Mat4) mgl64.Mat4 {
	if parent == nil {
		return SkelRoot.Unapply(mgl64.Ident4(), world)
	}
	return SkelChild.Unapply(*parent, world)
}

// DSkelWorld maps an absolute .dskel origin and axis to a rest matrix.
func DSkelWorld(origin mgl64.Vec3, axis mgl64.Quat) mgl64.Mat4 {
	q := mgl64.Quat{W: -axis.V[2], V: mgl64.Vec3{axis.W, axis.V[1], -axis.V[0]}}.Normalize()
	return Compose(q.Mat4().Mul4(boneRoll), mgl64.Vec3{-origin[0], -origin[2], origin[1]})
}

func DSkelOrigin(world mgl64.Mat4) (mgl64.Vec3, mgl64.Quat) {
	h := Translation(world)
	q := Quat(world.Mul4(boneRollInv))
	axis := mgl64.Quat{W: q.V[0], V: mgl64.Vec3{-q.V[2], q.V[1], -q.W}}
	return mgl64.Vec3{-h[0], h[2], -h[1]}, Canonical(axis)
}

// MeshJointWorld maps a parent relative .dmesh joint to a rest matrix.
func MeshJointWorld(parent *mgl64.Mat4, origin mgl64.Vec3, axis mgl64.Quat) mgl64.Mat4 {
	rot := axis.Normalize().Mat4()
	if parent == nil {
		local := Compose(rot, mgl64.Vec3{-origin[2], origin[1], -origin[0]})
		return MeshJointRoot.Apply(mgl64.Ident4(), local)
	}
	w := parent.Mul4(MeshJointChild.Pre).Mul4(rot).Mul4(MeshJointChild.Post)
	pos := parent.Mul4x1(mgl64.Vec4{-origin[2], origin[0], origin[1], 1}).Vec3()
	return EditBone(Compose(w, pos))
}

func MeshJointOrigin(parent *mgl64.Mat4, world mgl64.Mat4) (mgl64.Vec3, mgl64.Quat) {
	if parent == nil {
		local := MeshJointRoot.Unapply(mgl64.Ident4(), world)
		t := Translation(local)
		return mgl64.Vec3{-t[2], t[1], -t[0]}, Quat(local)
	}
	rel := parent.Inv().Mul4(world)
	p := Translation(rel)
	rot := MeshJointChild.Unapply(mgl64.Ident4(), Rotation(rel))
	return mgl64.Vec3{p[1], p[2], -p[0]}, Quat(rot)
}

// SkinWorld maps a .skin bone matrix, given as stored rows, to a rest matrix.
func SkinWorld(rows mgl64.Mat4) mgl64.Mat4 {
	m3 := rows.Mat3()
	pos := m3.Mul3x1(rows.Row(3).Vec3())
	return EditBone(SkinAxis.Mul4(Compose(m3.Mat4(), pos)).Mul4(SkinOrient))
}

func SkinRows(world mgl64.Mat4) mgl64.Mat4 {
	inner := SkinAxis.Inv().Mul4(world).Mul4(SkinOrient.Inv())
	m3 := inner.Mat3()
	row := m3.Inv().Mul3x1(Translation(inner))
	rows := m3.Mat4()
	rows.SetRow(3, row.Vec4(1))
	return rows
}
