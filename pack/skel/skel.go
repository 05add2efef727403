package skel

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
)

const ASSET_TYPE = "skeleton"

const (
	BONE_SIZE  = 0x74 // 32s16fi3fi
	JOINT_SIZE = 0x58 // 18f4f
	FIX_SIZE   = 0x14 // 5I
)

var Schema = chunk.Schema{
	"numBones":    chunk.Int32,
	"numJoints":   chunk.Int32,
	"numFixes":    chunk.Int32,
	"numBounds":   chunk.Int32,
	"numTrackers": chunk.Int32,
	"numSlots":    chunk.Int32,
	"bones":       chunk.Records,
	"joints":      chunk.Records,
	"fixes":       chunk.Records,
	"slots":       chunk.Records,
}

func mat4(fs []float32) mgl64.Mat4 {
	var m mgl64.Mat4
	for i := range m {
		m[i] = float64(fs[i])
	}
	return m
}

func readBones(v *chunk.Values) ([]armature.Joint, error) {
	numBones, err := v.MustInt("numBones")
	if err != nil {
		return nil, err
	}
	records, err := v.Records("bones", numBones, BONE_SIZE)
	if err != nil {
		return nil, err
	}

	joints := make([]armature.Joint, len(records))
	var m [16]float32
	for i, rec := range records {
		bs := utils.NewBufStack("bone", rec)
		j := &joints[i]
		j.Name = utils.BytesToString(bs.Read(32))
		bs.ReadLFs(m[:])
		j.Matrix = mat4(m[:])
		j.Parent = int(bs.ReadLI32())
		j.Width = float64(bs.ReadLF())
		j.Height = float64(bs.ReadLF())
		j.Length = float64(bs.ReadLF())
		if err := bs.Err(); err != nil {
			return nil, hd.Wrapf(hd.StructuralMismatch, err, "Bone %d", i)
		}
	}
	return joints, nil
}

// readLimits decodes joint records. Index and parent are stored as floats.
func readLimits(v *chunk.Values, numBones int, diags *scene.Diagnostics) []scene.JointLimit {
	numJoints, _ := v.Int("numJoints")
	records, err := v.Records("joints", int(numJoints), JOINT_SIZE)
	if err != nil {
		diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), "joints", "%v", err)
		return nil
	}

	limits := make([]scene.JointLimit, 0, len(records))
	var m [16]float32
	for _, rec := range records {
		bs := utils.NewBufStack("joint", rec)
		l := scene.JointLimit{
			Bone:   int(bs.ReadLF()),
			Parent: int(bs.ReadLF()),
		}
		bs.ReadLFs(m[:])
		l.Matrix = mat4(m[:])
		l.TwistX = float64(bs.ReadLF())
		l.TwistY = float64(bs.ReadLF())
		l.SwingX = float64(bs.ReadLF())
		l.SwingY = float64(bs.ReadLF())
		if l.Bone < 0 || l.Bone >= numBones {
			diags.Add(hd.UnresolvedReference, "joints", "joint limit for bone %d out of %d bones", l.Bone, numBones)
			continue
		}
		limits = append(limits, l)
	}
	return limits
}

// readFixes keeps fix records verbatim, the driver semantics are not applied.
func readFixes(v *chunk.Values, diags *scene.Diagnostics) []scene.Fix {
	numFixes, _ := v.Int("numFixes")
	records, err := v.Records("fixes", int(numFixes), FIX_SIZE)
	if err != nil {
		diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), "fixes", "%v", err)
		return nil
	}
	fixes := make([]scene.Fix, len(records))
	for i, rec := range records {
		bs := utils.NewBufStack("fix", rec)
		fixes[i] = scene.Fix{
			Type:  bs.ReadLU32(),
			Flags: bs.ReadLU32(),
			Fix1:  bs.ReadLU32(),
			Fix2:  bs.ReadLU32(),
			Index: bs.ReadLU32(),
		}
	}
	return fixes
}

func NewFromData(data []byte, name string) (*scene.Asset, error) {
	c, err := chunk.Read(data)
	if err != nil {
		return nil, err
	}
	if err := c.Expect(ASSET_TYPE); err != nil {
		return nil, err
	}

	a := &scene.Asset{Name: name}
	v := c.Decode(Schema, &a.Diagnostics)

	joints, err := readBones(v)
	if err != nil {
		return nil, err
	}
	s, err := armature.NewBuilder(armature.FamilySkel, &a.Diagnostics).Build(name, joints)
	if err != nil {
		return nil, err
	}
	s.Joints = readLimits(v, len(s.Bones), &a.Diagnostics)
	s.Fixes = readFixes(v, &a.Diagnostics)
	if raw, err := v.Records("slots", 1, 0); err == nil {
		s.Slots = raw[0]
	}
	if numSlots, ok := v.Int("numSlots"); ok {
		s.NumSlots = int(numSlots)
	}

	a.Skeleton = s
	log.Printf("[skel] %q: %d bones, %d joints, %d fixes", name, len(s.Bones), len(s.Joints), len(s.Fixes))
	return a, nil
}

// Marshal encodes the rest pose of s as a binary skeleton.
func Marshal(s *scene.Skeleton) ([]byte, error) {
	joints := armature.Joints(s, armature.FamilySkel)

	bones := make([]byte, len(joints)*BONE_SIZE)
	for i, j := range joints {
		buf := bones[i*BONE_SIZE : (i+1)*BONE_SIZE]
		name, err := utils.StringToBytesBuffer(j.Name, 32, true)
		if err != nil {
			return nil, hd.Wrapf(hd.EncodingError, err, "Bone %q", j.Name)
		}
		copy(buf, name)
		utils.PutLFs(buf[0x20:], j.Matrix[:]...)
		utils.PutLI32(buf[0x60:], j.Parent)
		utils.PutLFs(buf[0x64:], j.Width, j.Height, j.Length)
	}

	limits := make([]byte, len(s.Joints)*JOINT_SIZE)
	for i, l := range s.Joints {
		buf := limits[i*JOINT_SIZE : (i+1)*JOINT_SIZE]
		utils.PutLFs(buf, float64(l.Bone), float64(l.Parent))
		utils.PutLFs(buf[8:], l.Matrix[:]...)
		utils.PutLFs(buf[0x48:], l.TwistX, l.TwistY, l.SwingX, l.SwingY)
	}

	fixes := make([]byte, len(s.Fixes)*FIX_SIZE)
	for i, f := range s.Fixes {
		buf := fixes[i*FIX_SIZE:]
		for k, u := range []uint32{f.Type, f.Flags, f.Fix1, f.Fix2, f.Index} {
			utils.PutLU32(buf[k*4:], u)
		}
	}

	w := chunk.NewWriter(ASSET_TYPE)
	for _, e := range []struct {
		name  string
		field chunk.Field
		value interface{}
	}{
		{"numBones", chunk.Int32, len(joints)},
		{"numJoints", chunk.Int32, len(s.Joints)},
		{"numFixes", chunk.Int32, len(s.Fixes)},
		{"numBounds", chunk.Int32, 0},
		{"numTrackers", chunk.Int32, 0},
		{"numSlots", chunk.Int32, s.NumSlots},
		{"bones", chunk.Records, bones},
		{"joints", chunk.Records, limits},
		{"fixes", chunk.Records, fixes},
		{"slots", chunk.Records, s.Slots},
	} {
		if err := w.Put(e.name, e.field, e.value); err != nil {
			return nil, err
		}
	}
	return w.Bytes()
}

func init() {
	pack.SetHandler(".SKEL", pack.DataHandler(NewFromData))
	pack.SetHandler(".SKELETON", pack.DataHandler(NewFromData))
	pack.SetEmitter(".SKEL", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		if a.Skeleton == nil {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no skeleton", a.Name)
		}
		return Marshal(a.Skeleton)
	})
}
