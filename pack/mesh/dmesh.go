package mesh

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/geom"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/txt"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
)

// bones of a text mesh carry no length
const DEFAULT_JOINT_LENGTH = 1.0

func blockChildren(mesh *txt.Node, block, key string) []*txt.Node {
	if n := mesh.Child(block); n != nil {
		return n.ChildrenByKey(key)
	}
	return nil
}

// readTable reads `key v0 v1 ...` statements. A broken record keeps its
// slot as a zero vector so later indices stay valid.
func readTable(nodes []*txt.Node, arity int, diags *scene.Diagnostics) [][]float64 {
	out := make([][]float64, len(nodes))
	for i, n := range nodes {
		fs, err := n.Floats(arity)
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), n.Record(), "%v", err)
			fs = make([]float64, arity)
		}
		out[i] = fs
	}
	return out
}

// indexList reads the indices of a face statement, limited to count.
func indexList(n *txt.Node, count int) ([]int, error) {
	is, err := n.Ints()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		if len(is) < count {
			return nil, hd.Errorf(hd.ArityMismatch, "%s: %d indices, expected %d", n.Record(), len(is), count)
		}
		is = is[:count]
	}
	return is, nil
}

func readFace(n *txt.Node) (geom.DFace, error) {
	f := geom.DFace{Record: n.Record()}

	count := 0
	if c := n.Child("count"); c != nil {
		var err error
		if count, err = c.Int(0); err != nil {
			return f, err
		}
	}
	verts, err := n.Value("verts")
	if err != nil {
		return f, err
	}
	if f.Verts, err = indexList(verts, count); err != nil {
		return f, err
	}
	if uvs := n.Child("uvs"); uvs != nil {
		if f.UVs, err = indexList(uvs, count); err != nil {
			return f, err
		}
	}
	if sg := n.Child("smoothGroup"); sg != nil {
		s, err := sg.Int(0)
		if err != nil {
			return f, err
		}
		f.SmoothGroup = uint32(s)
	}
	return f, nil
}

func readJoint(n *txt.Node) (armature.Joint, error) {
	j := armature.Joint{Parent: -1, Length: DEFAULT_JOINT_LENGTH}
	var err error
	if j.Name, err = n.Arg(0); err != nil {
		return j, err
	}
	j.Name = utils.EngineBoneName(j.Name)
	if p := n.Child("parent"); p != nil {
		if j.ParentName, err = p.Arg(0); err != nil {
			return j, err
		}
		j.ParentName = utils.EngineBoneName(j.ParentName)
	}
	origin, err := n.Value("origin")
	if err != nil {
		return j, err
	}
	o, err := origin.Floats(3)
	if err != nil {
		return j, err
	}
	axis, err := n.Value("axis")
	if err != nil {
		return j, err
	}
	q, err := axis.Floats(4)
	if err != nil {
		return j, err
	}
	j.Origin = mgl64.Vec3{o[0], o[1], o[2]}
	j.Axis = mgl64.Quat{W: q[0], V: mgl64.Vec3{q[1], q[2], q[3]}}
	return j, nil
}

// ParseDMesh reads the `mesh` block of a text mesh.
func ParseDMesh(doc *txt.Document, diags *scene.Diagnostics) (*geom.DMesh, error) {
	mesh := doc.Find("mesh")
	if mesh == nil {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "No mesh block")
	}
	d := &geom.DMesh{}

	for _, v := range readTable(blockChildren(mesh, "verts", "vert"), 3, diags) {
		d.Verts = append(d.Verts, mgl64.Vec3{v[0], v[1], v[2]})
	}
	for _, uv := range readTable(blockChildren(mesh, "uvs", "uv"), 2, diags) {
		d.UVs = append(d.UVs, mgl64.Vec2{uv[0], uv[1]})
	}

	for _, gn := range blockChildren(mesh, "groups", "group") {
		name, err := gn.Arg(0)
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), gn.Record(), "%v", err)
			continue
		}
		g := geom.DGroup{Name: name}
		for _, fn := range gn.ChildrenByKey("face") {
			f, err := readFace(fn)
			if err != nil {
				diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), fn.Record(), "%v", err)
				continue
			}
			g.Faces = append(g.Faces, f)
		}
		d.Groups = append(d.Groups, g)
	}

	for _, jn := range blockChildren(mesh, "joints", "joint") {
		j, err := readJoint(jn)
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), jn.Record(), "%v", err)
			continue
		}
		d.Joints = append(d.Joints, j)
	}

	for _, wn := range blockChildren(mesh, "weights", "weight") {
		vert, err1 := wn.Int(0)
		bone, err2 := wn.Int(1)
		weight, err3 := wn.Float(2)
		for _, err := range []error{err1, err2, err3} {
			if err != nil {
				diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), wn.Record(), "%v", err)
				break
			}
		}
		if err1 == nil && err2 == nil && err3 == nil {
			d.Weights = append(d.Weights, geom.DWeight{Vert: vert, Bone: bone, Weight: weight})
		}
	}
	return d, nil
}

func NewFromDMesh(data []byte, name string, format config.FileFormat) (*scene.Asset, error) {
	doc, err := txt.Parse(data)
	if err != nil {
		return nil, err
	}
	a := &scene.Asset{Name: name}
	d, err := ParseDMesh(doc, &a.Diagnostics)
	if err != nil {
		return nil, err
	}

	if len(d.Joints) != 0 {
		if a.Skeleton, err = armature.NewBuilder(armature.FamilyMeshJoint, &a.Diagnostics).Build(name, d.Joints); err != nil {
			return nil, err
		}
	}
	a.Meshes = geom.Assemble(d, format, &a.Diagnostics)
	log.Printf("[mesh] %q: %d vertices, %d uvs, %d groups, %d joints",
		name, len(d.Verts), len(d.UVs), len(d.Groups), len(d.Joints))
	return a, nil
}

// WriteDMesh lays out d in the text mesh format.
func WriteDMesh(d *geom.DMesh) []byte {
	w := txt.NewWriter()
	w.Open("mesh")

	w.Open("verts", txt.Int(len(d.Verts)))
	for _, v := range d.Verts {
		w.Line("vert", txt.Floats(v[0], v[1], v[2])...)
	}
	w.Close()

	w.Open("uvs", txt.Int(len(d.UVs)))
	for _, uv := range d.UVs {
		w.Line("uv", txt.Floats(uv[0], uv[1])...)
	}
	w.Close()

	w.Open("groups", txt.Int(len(d.Groups)))
	for _, g := range d.Groups {
		w.Open("group", g.Name, txt.Int(len(g.Faces)))
		for _, f := range g.Faces {
			w.Open("face")
			w.Line("count", txt.Int(len(f.Verts)))
			w.Line("verts", txt.Ints(f.Verts...)...)
			if len(f.UVs) != 0 {
				w.Line("uvs", txt.Ints(f.UVs...)...)
			}
			w.Line("smoothGroup", txt.Int(int(f.SmoothGroup)))
			w.Close()
		}
		w.Close()
	}
	w.Close()

	if len(d.Joints) != 0 {
		w.Open("joints", txt.Int(len(d.Joints)))
		for _, j := range d.Joints {
			w.Open("joint", j.Name)
			if j.ParentName != "" {
				w.Line("parent", j.ParentName)
			}
			w.Line("origin", txt.Floats(j.Origin[0], j.Origin[1], j.Origin[2])...)
			w.Line("axis", txt.Floats(j.Axis.W, j.Axis.V[0], j.Axis.V[1], j.Axis.V[2])...)
			w.Close()
		}
		w.Close()
	}

	if len(d.Weights) != 0 {
		w.Open("weights", txt.Int(len(d.Weights)))
		for _, wt := range d.Weights {
			w.Line("weight", txt.Int(wt.Vert), txt.Int(wt.Bone), txt.Float(wt.Weight))
		}
		w.Close()
	}

	w.Close()
	return w.Bytes()
}

// MarshalDMesh writes every mesh of a as its own object, with the joints
// and weights of the asset skeleton.
func MarshalDMesh(a *scene.Asset, format config.FileFormat, diags *scene.Diagnostics) ([]byte, error) {
	b := geom.NewDMeshBuilder(format, diags)
	if a.Skeleton != nil {
		b.SetSkeleton(a.Skeleton)
	}
	for _, m := range a.Meshes {
		b.AddObject(m.Name, m)
	}
	d := b.DMesh()
	if len(d.Verts) == 0 || len(d.Groups) == 0 {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "Nothing to export from %q", a.Name)
	}
	return WriteDMesh(d), nil
}

func init() {
	pack.SetHandler(".DMESH", pack.DataHandler(func(data []byte, name string) (*scene.Asset, error) {
		return NewFromDMesh(data, name, config.GetFileFormat())
	}))
	pack.SetEmitter(".DMESH", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		var diags scene.Diagnostics
		data, err := MarshalDMesh(a, format, &diags)
		diags.Log("mesh")
		return data, err
	})
}
