package pose

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/txt"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
)

// ParseDPose reads `transform NAME x y z qx qz qy qw` statements of the
// pose block. Text poses store the negated quaternion.
func ParseDPose(doc *txt.Document, name string, diags *scene.Diagnostics) (*scene.Pose, error) {
	block := doc.Find("pose")
	if block == nil {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "No pose block")
	}

	p := &scene.Pose{Name: name}
	for _, n := range block.ChildrenByKey("transform") {
		bone, err := n.Arg(0)
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), n.Record(), "%v", err)
			continue
		}
		var f [7]float64
		for i := range f {
			if f[i], err = n.Float(i + 1); err != nil {
				break
			}
		}
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), n.Record(), "%v", err)
			continue
		}
		p.Transforms = append(p.Transforms, scene.BoneKey{
			Bone: bone,
			Key: scene.PoseKey{
				Position: mgl64.Vec3{f[0], f[1], f[2]},
				Rotation: mgl64.Quat{W: -f[6], V: mgl64.Vec3{-f[3], -f[5], -f[4]}},
			},
		})
	}

	if c := block.Child("numTransforms"); c != nil {
		if count, err := c.Int(0); err == nil && count != len(p.Transforms) {
			diags.Warnf("numTransforms", "%d declared, %d read", count, len(p.Transforms))
		}
	}
	return p, nil
}

func NewFromDPose(data []byte, name string) (*scene.Asset, error) {
	doc, err := txt.Parse(data)
	if err != nil {
		return nil, err
	}
	a := &scene.Asset{Name: name}
	p, err := ParseDPose(doc, name, &a.Diagnostics)
	if err != nil {
		return nil, err
	}
	a.Poses = []*scene.Pose{p}
	log.Printf("[pose] %q: %d text transforms", name, len(p.Transforms))
	return a, nil
}

func MarshalDPose(p *scene.Pose) []byte {
	w := txt.NewWriter()
	w.Open("pose")
	w.Line("numTransforms", txt.Int(len(p.Transforms)))
	for _, t := range p.Transforms {
		pos, q := t.Key.Position, t.Key.Rotation
		args := append([]string{t.Bone}, txt.Floats(pos[0], pos[1], pos[2], -q.V[0], -q.V[2], -q.V[1], -q.W)...)
		w.Line("transform", args...)
	}
	w.Close()
	return w.Bytes()
}

func init() {
	pack.SetHandler(".DPOSE", pack.DataHandler(NewFromDPose))
	pack.SetEmitter(".DPOSE", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		p, err := PoseOf(a)
		if err != nil {
			return nil, err
		}
		return MarshalDPose(p), nil
	})
}
