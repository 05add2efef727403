package mesh

import (
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/geom"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

const ASSET_TYPE = "mesh"

const (
	INFO_SIZE   = 0x20 // II3f3f
	VERTEX_SIZE = 0x3c // 3f2f4B9f
	FACE_SIZE   = 0x0c // 3I
)

// Info is the header of the binary mesh payload. Bounds are engine space.
type Info struct {
	NumVertices uint32
	NumLoops    uint32
	Max         mgl64.Vec3
	Min         mgl64.Vec3
}

func readVec3(bs *utils.BufStack) mgl64.Vec3 {
	var v [3]float32
	bs.ReadLFs(v[:])
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

// NewFromData decodes a binary mesh. Every file vertex keeps its own uv,
// so loops take the uv of their vertex.
func NewFromData(data []byte, name string, format config.FileFormat) (*scene.Asset, error) {
	c, err := chunk.Read(data)
	if err != nil {
		return nil, err
	}
	if err := c.Expect(ASSET_TYPE); err != nil {
		return nil, err
	}
	a := &scene.Asset{Name: name}

	bs := c.Data()
	var info Info
	info.NumVertices = bs.ReadLU32()
	info.NumLoops = bs.ReadLU32()
	info.Max = readVec3(bs)
	info.Min = readVec3(bs)
	if err := bs.Err(); err != nil {
		return nil, hd.Wrapf(hd.StructuralMismatch, err, "Mesh info")
	}

	numFaces := int(info.NumLoops / 3)
	need := int64(info.NumVertices)*VERTEX_SIZE + int64(numFaces)*FACE_SIZE
	if need > int64(bs.Left()) {
		return nil, hd.Errorf(hd.StructuralMismatch, "%d vertices and %d faces need %d bytes, %d left",
			info.NumVertices, numFaces, need, bs.Left())
	}

	m := &scene.Mesh{
		Name:      name,
		Positions: make([]mgl64.Vec3, info.NumVertices),
		Normals:   make([]mgl64.Vec3, info.NumVertices),
		Colors:    make([][4]uint8, info.NumVertices),
	}
	uvs := make([]mgl64.Vec2, info.NumVertices)
	for i := range m.Positions {
		m.Positions[i] = space.VertexToTool(readVec3(bs))
		u, v := bs.ReadLF(), bs.ReadLF()
		uvs[i] = space.UVToTool(mgl64.Vec2{float64(u), float64(v)}, format)
		copy(m.Colors[i][:], bs.Read(4))
		m.Normals[i] = space.VertexToTool(readVec3(bs))
		// tangent and bitangent are rebuilt on export
		bs.Skip(24)
	}

	m.Faces = make([]scene.Face, 0, numFaces)
	for i := 0; i < numFaces; i++ {
		v1, v2, v3 := int(bs.ReadLU32()), int(bs.ReadLU32()), int(bs.ReadLU32())
		if v1 >= len(uvs) || v2 >= len(uvs) || v3 >= len(uvs) {
			a.Diagnostics.Add(hd.UnresolvedReference, "faces", "face %d references vertex beyond %d", i, len(uvs))
			continue
		}
		m.Faces = append(m.Faces, scene.Face{
			Verts: []int{v3, v2, v1},
			UVs:   []mgl64.Vec2{uvs[v3], uvs[v2], uvs[v1]},
		})
	}

	a.Meshes = []*scene.Mesh{m}
	log.Printf("[mesh] %q: %d vertices, %d faces", name, len(m.Positions), len(m.Faces))
	return a, nil
}

// Marshal encodes m as a binary mesh. Vertices are split by uv and faces
// are triangulated first.
func Marshal(m *scene.Mesh, format config.FileFormat) ([]byte, error) {
	flat := geom.Flatten(m)
	if len(flat.Vertices) == 0 {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "Mesh %q has no vertices", m.Name)
	}

	info := Info{
		NumVertices: uint32(len(flat.Vertices)),
		NumLoops:    uint32(len(flat.Triangles) * 3),
		Max:         mgl64.Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
		Min:         mgl64.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
	}

	vertices := make([]byte, len(flat.Vertices)*VERTEX_SIZE)
	for i, v := range flat.Vertices {
		buf := vertices[i*VERTEX_SIZE:]
		pos := space.VertexToEngine(v.Position)
		for k := 0; k < 3; k++ {
			info.Max[k] = math.Max(info.Max[k], pos[k])
			info.Min[k] = math.Min(info.Min[k], pos[k])
		}
		uv := space.UVToEngine(v.UV, format)
		n := space.VertexToEngine(v.Normal)
		t := space.VertexToEngine(v.Tangent)
		b := space.VertexToEngine(v.Bitangent)

		utils.PutLFs(buf, pos[0], pos[1], pos[2], uv[0], uv[1])
		copy(buf[0x14:0x18], v.Color[:])
		utils.PutLFs(buf[0x18:], n[0], n[1], n[2], t[0], t[1], t[2], b[0], b[1], b[2])
	}

	faces := make([]byte, len(flat.Triangles)*FACE_SIZE)
	for i, t := range flat.Triangles {
		buf := faces[i*FACE_SIZE:]
		utils.PutLU32(buf, uint32(t[2]))
		utils.PutLU32(buf[4:], uint32(t[1]))
		utils.PutLU32(buf[8:], uint32(t[0]))
	}

	payload := make([]byte, INFO_SIZE, INFO_SIZE+len(vertices)+len(faces))
	utils.PutLU32(payload, info.NumVertices)
	utils.PutLU32(payload[4:], info.NumLoops)
	utils.PutLFs(payload[8:], info.Max[0], info.Max[1], info.Max[2], info.Min[0], info.Min[1], info.Min[2])
	payload = append(payload, vertices...)
	payload = append(payload, faces...)

	w := chunk.NewWriter(ASSET_TYPE)
	w.SetPayload(payload)
	return w.Bytes()
}

func init() {
	pack.SetHandler(".MESH", pack.DataHandler(func(data []byte, name string) (*scene.Asset, error) {
		return NewFromData(data, name, config.GetFileFormat())
	}))
	pack.SetEmitter(".MESH", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		if len(a.Meshes) == 0 {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no mesh", a.Name)
		}
		if len(a.Meshes) > 1 {
			log.Printf("[mesh] %q: only the first of %d meshes is written", a.Name, len(a.Meshes))
		}
		return Marshal(a.Meshes[0], format)
	})
}
