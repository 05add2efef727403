package pose

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/anim"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

const ASSET_TYPE = "pose"

const (
	// 3f4f, rotation stored as x z y w
	KEY_SIZE = 0x1c
	// key followed by the bone name
	TRANSFORM_SIZE = KEY_SIZE + 32
)

// poses store roots like text poses
const ROOT_MODE = space.RootPost

// ReadKey reads one 3f4f engine key.
func ReadKey(bs *utils.BufStack) scene.PoseKey {
	var f [7]float32
	bs.ReadLFs(f[:])
	return scene.PoseKey{
		Position: mgl64.Vec3{float64(f[0]), float64(f[1]), float64(f[2])},
		Rotation: mgl64.Quat{W: float64(f[6]), V: mgl64.Vec3{float64(f[3]), float64(f[5]), float64(f[4])}},
	}
}

// PutKey is the inverse of ReadKey.
func PutKey(buf []byte, k scene.PoseKey) {
	p, q := k.Position, k.Rotation
	utils.PutLFs(buf, p[0], p[1], p[2], q.V[0], q.V[2], q.V[1], q.W)
}

func NewFromData(data []byte, name string) (*scene.Asset, error) {
	c, err := chunk.Read(data)
	if err != nil {
		return nil, err
	}
	if err := c.Expect(ASSET_TYPE); err != nil {
		return nil, err
	}

	bs := c.Data()
	count := int(bs.ReadLU32())
	if err := bs.Err(); err != nil {
		return nil, hd.Wrapf(hd.StructuralMismatch, err, "Pose header")
	}
	if int64(count)*TRANSFORM_SIZE > int64(bs.Left()) {
		return nil, hd.Errorf(hd.StructuralMismatch, "%d transforms need %d bytes, %d left",
			count, count*TRANSFORM_SIZE, bs.Left())
	}

	p := &scene.Pose{Name: name, Transforms: make([]scene.BoneKey, count)}
	for i := range p.Transforms {
		p.Transforms[i].Key = ReadKey(bs)
		p.Transforms[i].Bone = utils.BytesToString(bs.Read(32))
	}

	log.Printf("[pose] %q: %d transforms", name, count)
	return &scene.Asset{Name: name, Poses: []*scene.Pose{p}}, nil
}

func Marshal(p *scene.Pose) ([]byte, error) {
	payload := make([]byte, 4+len(p.Transforms)*TRANSFORM_SIZE)
	utils.PutLU32(payload, uint32(len(p.Transforms)))
	for i, t := range p.Transforms {
		buf := payload[4+i*TRANSFORM_SIZE:]
		PutKey(buf, t.Key)
		name, err := utils.StringToBytesBuffer(t.Bone, 32, true)
		if err != nil {
			return nil, hd.Wrapf(hd.StructuralMismatch, err, "Transform %d", i)
		}
		copy(buf[KEY_SIZE:], name)
	}

	w := chunk.NewWriter(ASSET_TYPE)
	w.SetPayload(payload)
	return w.Bytes()
}

// Apply evaluates the first pose of a against s. The result is stored as
// the single frame of a.
func Apply(a *scene.Asset, s *scene.Skeleton) error {
	if len(a.Poses) == 0 {
		return hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no pose", a.Name)
	}
	sm := anim.NewSampler(s, ROOT_MODE, &a.Diagnostics)
	a.Frames = []scene.FramePose{sm.ApplyPose(a.Poses[0])}
	if a.Skeleton == nil {
		a.Skeleton = s
	}
	return nil
}

// PoseOf returns the pose an asset holds, or reads it back from the first
// evaluated frame or the rest pose of its skeleton.
func PoseOf(a *scene.Asset) (*scene.Pose, error) {
	if len(a.Poses) != 0 {
		return a.Poses[0], nil
	}
	if a.Skeleton == nil {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has neither pose nor skeleton", a.Name)
	}

	var diags scene.Diagnostics
	sm := anim.NewSampler(a.Skeleton, ROOT_MODE, &diags)
	if len(a.Frames) != 0 {
		return sm.PoseFrom(a.Name, a.Frames[0].World), nil
	}
	rest := make([]mgl64.Mat4, len(a.Skeleton.Bones))
	for i := range a.Skeleton.Bones {
		rest[i] = a.Skeleton.Bones[i].World
	}
	return sm.PoseFrom(a.Name, rest), nil
}

func init() {
	pack.SetHandler(".POSE", pack.DataHandler(NewFromData))
	pack.SetEmitter(".POSE", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		p, err := PoseOf(a)
		if err != nil {
			return nil, err
		}
		return Marshal(p)
	})
}
