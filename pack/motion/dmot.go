package motion

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/txt"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

const DEFAULT_FRAME_RATE = 30

func readKey(n *txt.Node) (scene.PoseKey, error) {
	f, err := n.Floats(7)
	if err != nil {
		return scene.PoseKey{}, err
	}
	return scene.PoseKey{
		Position: mgl64.Vec3{f[0], f[1], f[2]},
		Rotation: mgl64.Quat{W: f[6], V: mgl64.Vec3{f[3], f[5], f[4]}},
	}, nil
}

// ParseDMot reads the motion block of a text motion. Broken keys are
// reported and dropped, which leaves their track short.
func ParseDMot(doc *txt.Document, name string, diags *scene.Diagnostics) (*scene.Motion, error) {
	block := doc.Find("motion")
	if block == nil {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "No motion block")
	}
	frames, err := block.Value("numFrames")
	if err != nil {
		return nil, err
	}
	numFrames, err := frames.Int(0)
	if err != nil {
		return nil, err
	}
	if err := checkFrames(numFrames); err != nil {
		return nil, err
	}

	m := &scene.Motion{
		Name:       name,
		FrameRate:  DEFAULT_FRAME_RATE,
		FirstFrame: FIRST_FRAME,
		NumFrames:  numFrames,
		Duration:   numFrames,
	}
	if c := block.Child("frameRate"); c != nil {
		if rate, err := c.Float(0); err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), c.Record(), "%v", err)
		} else {
			m.FrameRate = int(math.Round(rate))
		}
	}

	for _, tn := range block.ChildrenByKey("track") {
		bone, err := tn.Arg(0)
		if err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), tn.Record(), "%v", err)
			continue
		}
		t := scene.Track{Bone: utils.EngineBoneName(bone)}
		for _, kn := range tn.ChildrenByKey("key") {
			k, err := readKey(kn)
			if err != nil {
				diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), kn.Record(), "%v", err)
				continue
			}
			t.Keys = append(t.Keys, k)
		}
		m.Tracks = append(m.Tracks, t)
	}

	if c := block.Child("numTracks"); c != nil {
		if count, err := c.Int(0); err == nil && count != len(m.Tracks) {
			diags.Warnf("numTracks", "%d declared, %d read", count, len(m.Tracks))
		}
	}
	return m, nil
}

func NewFromDMot(data []byte, name string) (*scene.Asset, error) {
	doc, err := txt.Parse(data)
	if err != nil {
		return nil, err
	}
	a := &scene.Asset{Name: name}
	m, err := ParseDMot(doc, name, &a.Diagnostics)
	if err != nil {
		return nil, err
	}
	a.Motions = []*scene.Motion{m}
	log.Printf("[motion] %q: %d text frames, %d tracks", name, m.NumFrames, len(m.Tracks))
	return a, nil
}

func MarshalDMot(m *scene.Motion) []byte {
	w := txt.NewWriter()
	w.Open("motion")
	w.Line("numTracks", txt.Int(len(m.Tracks)))
	w.Line("numFrames", txt.Int(m.NumFrames))
	rate := m.FrameRate
	if rate == 0 {
		rate = DEFAULT_FRAME_RATE
	}
	w.Line("frameRate", txt.Int(rate))
	for _, t := range m.Tracks {
		w.Open("track", t.Bone)
		for _, k := range t.Keys {
			p, q := k.Position, k.Rotation
			w.Line("key", txt.Floats(p[0], p[1], p[2], q.V[0], q.V[2], q.V[1], q.W)...)
		}
		w.Close()
	}
	w.Close()
	return w.Bytes()
}

func init() {
	pack.SetHandler(".DMOT", pack.DataHandler(NewFromDMot))
	pack.SetEmitter(".DMOT", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		m, err := MotionFor(a, space.RootPost)
		if err != nil {
			return nil, err
		}
		return MarshalDMot(m), nil
	})
}
