package skel

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/txt"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
)

// readDBone decodes one `bone NAME { ... }` block.
func readDBone(n *txt.Node) (armature.Joint, error) {
	j := armature.Joint{Parent: -1}

	name, err := n.Arg(0)
	if err != nil {
		return j, err
	}
	j.Name = utils.EngineBoneName(name)

	if p := n.Child("parent"); p != nil {
		parent, err := p.Arg(0)
		if err != nil {
			return j, err
		}
		j.ParentName = utils.EngineBoneName(parent)
	}
	for _, dim := range []struct {
		key string
		out *float64
	}{{"width", &j.Width}, {"height", &j.Height}, {"length", &j.Length}} {
		if c := n.Child(dim.key); c != nil {
			if *dim.out, err = c.Float(0); err != nil {
				return j, err
			}
		}
	}

	origin, err := n.Value("origin")
	if err != nil {
		return j, err
	}
	o, err := origin.Floats(3)
	if err != nil {
		return j, err
	}
	j.Origin = mgl64.Vec3{o[0], o[1], o[2]}

	axis, err := n.Value("axis")
	if err != nil {
		return j, err
	}
	q, err := axis.Floats(4)
	if err != nil {
		return j, err
	}
	j.Axis = mgl64.Quat{W: q[0], V: mgl64.Vec3{q[1], q[2], q[3]}}
	return j, nil
}

// DSkelJoints reads the joints of every `skeleton` block. Broken bones are
// reported and skipped.
func DSkelJoints(doc *txt.Document, diags *scene.Diagnostics) ([]armature.Joint, error) {
	skeleton := doc.Find("skeleton")
	if skeleton == nil {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "No skeleton block")
	}

	joints := make([]armature.Joint, 0, len(skeleton.Children))
	for _, n := range skeleton.ChildrenByKey("bone") {
		j, err := readDBone(n)
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), n.Record(), "%v", err)
			continue
		}
		joints = append(joints, j)
	}
	return joints, nil
}

func NewFromDSkel(data []byte, name string) (*scene.Asset, error) {
	doc, err := txt.Parse(data)
	if err != nil {
		return nil, err
	}

	a := &scene.Asset{Name: name}
	joints, err := DSkelJoints(doc, &a.Diagnostics)
	if err != nil {
		return nil, err
	}
	if a.Skeleton, err = armature.NewBuilder(armature.FamilyDSkel, &a.Diagnostics).Build(name, joints); err != nil {
		return nil, err
	}
	log.Printf("[skel] %q: %d text bones", name, len(a.Skeleton.Bones))
	return a, nil
}

func MarshalDSkel(s *scene.Skeleton) []byte {
	joints := armature.Joints(s, armature.FamilyDSkel)

	w := txt.NewWriter()
	w.Open("skeleton", txt.Int(len(joints)))
	for _, j := range joints {
		w.Open("bone", j.Name)
		w.Line("width", txt.Float(j.Width))
		w.Line("height", txt.Float(j.Height))
		w.Line("length", txt.Float(j.Length))
		if j.ParentName != "" {
			w.Line("parent", j.ParentName)
		}
		w.Line("origin", txt.Floats(j.Origin[0], j.Origin[1], j.Origin[2])...)
		w.Line("axis", txt.Floats(j.Axis.W, j.Axis.V[0], j.Axis.V[1], j.Axis.V[2])...)
		w.Close()
	}
	w.Close()
	return w.Bytes()
}

func init() {
	pack.SetHandler(".DSKEL", pack.DataHandler(NewFromDSkel))
	pack.SetEmitter(".DSKEL", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		if a.Skeleton == nil {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no skeleton", a.Name)
		}
		return MarshalDSkel(a.Skeleton), nil
	})
}
