package skin

import (
	"log"

	"github.com/mogaika/haydee_tools/armature"
	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/geom"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

const ASSET_TYPE = "skin"

const (
	INFO_SIZE   = 0x08 // II
	VERTEX_SIZE = 0x14 // 4f4B
	BONE_SIZE   = 0x70 // 32s16f4f

	WEIGHTS_PER_VERTEX = 4
	MAX_BONES          = 0x100
	// skin bones carry no length
	BONE_LENGTH = 4.0
)

// NewFromData decodes a binary skin. The skin bones become a flat
// skeleton and the weights refer to the vertices of the matching mesh.
func NewFromData(data []byte, name string) (*scene.Asset, error) {
	c, err := chunk.Read(data)
	if err != nil {
		return nil, err
	}
	if err := c.Expect(ASSET_TYPE); err != nil {
		return nil, err
	}
	a := &scene.Asset{Name: name}

	bs := c.Data()
	numVertices, numBones := int(bs.ReadLU32()), int(bs.ReadLU32())
	if err := bs.Err(); err != nil {
		return nil, hd.Wrapf(hd.StructuralMismatch, err, "Skin info")
	}
	need := int64(numVertices)*VERTEX_SIZE + int64(numBones)*BONE_SIZE
	if need > int64(bs.Left()) {
		return nil, hd.Errorf(hd.StructuralMismatch, "%d vertices and %d bones need %d bytes, %d left",
			numVertices, numBones, need, bs.Left())
	}

	type pair struct {
		bone   int
		weight float32
	}
	raw := make([][WEIGHTS_PER_VERTEX]pair, numVertices)
	for i := range raw {
		var ws [WEIGHTS_PER_VERTEX]float32
		bs.ReadLFs(ws[:])
		for k := range ws {
			raw[i][k] = pair{bone: int(bs.ReadByte()), weight: ws[k]}
		}
	}

	joints := make([]armature.Joint, numBones)
	skin := &scene.Skin{Name: name, BoneVectors: make([][4]float32, numBones)}
	var m [16]float32
	for i := range joints {
		joints[i].Name = utils.BytesToString(bs.Read(32))
		joints[i].Parent = -1
		joints[i].Length = BONE_LENGTH
		bs.ReadLFs(m[:])
		joints[i].Matrix = space.Rows(
			[4]float64{float64(m[0]), float64(m[1]), float64(m[2]), float64(m[3])},
			[4]float64{float64(m[4]), float64(m[5]), float64(m[6]), float64(m[7])},
			[4]float64{float64(m[8]), float64(m[9]), float64(m[10]), float64(m[11])},
			[4]float64{float64(m[12]), float64(m[13]), float64(m[14]), float64(m[15])})
		bs.ReadLFs(skin.BoneVectors[i][:])
	}
	if err := bs.Err(); err != nil {
		return nil, hd.Wrapf(hd.StructuralMismatch, err, "Skin bones")
	}

	if a.Skeleton, err = armature.NewBuilder(armature.FamilySkin, &a.Diagnostics).Build(name, joints); err != nil {
		return nil, err
	}

	skin.Weights = make([][]scene.VertexWeight, numVertices)
	for i, pairs := range raw {
		for _, p := range pairs {
			if p.bone == 0 && p.weight == 0 {
				continue
			}
			if p.bone >= numBones {
				a.Diagnostics.Add(hd.UnresolvedReference, "vertices", "vertex %d references bone %d of %d", i, p.bone, numBones)
				continue
			}
			skin.Weights[i] = append(skin.Weights[i], scene.VertexWeight{
				Bone:   a.Skeleton.Bones[p.bone].Name,
				Weight: float64(p.weight),
			})
		}
	}
	a.Skin = skin

	log.Printf("[skin] %q: %d vertices, %d bones", name, numVertices, numBones)
	return a, nil
}

// Marshal writes the weights of m over the vertex order of the binary
// mesh emitter. Every vertex keeps its four heaviest weights.
func Marshal(m *scene.Mesh, s *scene.Skeleton, vectors [][4]float32) ([]byte, error) {
	if len(s.Bones) > MAX_BONES {
		return nil, hd.Errorf(hd.StructuralMismatch, "Skeleton %q has %d bones, skin holds %d", s.Name, len(s.Bones), MAX_BONES)
	}
	if len(m.Weights) != len(m.Positions) {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "Mesh %q has no weights", m.Name)
	}

	boneIndex := make(map[string]int, len(s.Bones))
	for i := range s.Bones {
		boneIndex[s.Bones[i].Name] = i
	}

	flat := geom.Flatten(m)
	vertices := make([]byte, len(flat.Vertices)*VERTEX_SIZE)
	for i, v := range flat.Vertices {
		var known []scene.VertexWeight
		for _, w := range m.Weights[v.Source] {
			if _, ok := boneIndex[w.Bone]; ok {
				known = append(known, w)
			}
		}
		ws := geom.NormalizeWeights(known)
		if len(ws) > WEIGHTS_PER_VERTEX {
			ws = geom.NormalizeWeights(ws[:WEIGHTS_PER_VERTEX])
		}

		buf := vertices[i*VERTEX_SIZE:]
		for k, w := range ws {
			utils.PutLF(buf[k*4:], w.Weight)
			buf[0x10+k] = byte(boneIndex[w.Bone])
		}
	}

	joints := armature.Joints(s, armature.FamilySkin)
	bones := make([]byte, len(joints)*BONE_SIZE)
	for i, j := range joints {
		buf := bones[i*BONE_SIZE:]
		name, err := utils.StringToBytesBuffer(j.Name, 32, true)
		if err != nil {
			return nil, hd.Wrapf(hd.StructuralMismatch, err, "Bone %d", i)
		}
		copy(buf, name)
		for r := 0; r < 4; r++ {
			row := j.Matrix.Row(r)
			utils.PutLFs(buf[0x20+r*0x10:], row[0], row[1], row[2], row[3])
		}
		if len(vectors) == len(joints) {
			v := vectors[i]
			utils.PutLFs(buf[0x60:], float64(v[0]), float64(v[1]), float64(v[2]), float64(v[3]))
		}
	}

	payload := make([]byte, INFO_SIZE, INFO_SIZE+len(vertices)+len(bones))
	utils.PutLU32(payload, uint32(len(flat.Vertices)))
	utils.PutLU32(payload[4:], uint32(len(joints)))
	payload = append(payload, vertices...)
	payload = append(payload, bones...)

	w := chunk.NewWriter(ASSET_TYPE)
	w.SetPayload(payload)
	return w.Bytes()
}

// WeightedMesh returns the first mesh of a carrying weights.
func WeightedMesh(a *scene.Asset) *scene.Mesh {
	for _, m := range a.Meshes {
		if len(m.Weights) != 0 {
			return m
		}
	}
	return nil
}

func init() {
	pack.SetHandler(".SKIN", pack.DataHandler(NewFromData))
	pack.SetEmitter(".SKIN", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		if a.Skeleton == nil {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no skeleton", a.Name)
		}
		m := WeightedMesh(a)
		if m == nil {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no weighted mesh", a.Name)
		}
		var vectors [][4]float32
		if a.Skin != nil {
			vectors = a.Skin.BoneVectors
		}
		return Marshal(m, a.Skeleton, vectors)
	})
}
