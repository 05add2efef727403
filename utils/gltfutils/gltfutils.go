package gltfutils

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/haydee_tools/geom"
	"github.com/mogaika/haydee_tools/scene"
)

const JOINTS_PER_VERTEX = 4

// tool space is z up, gltf is y up
var zUpRotation = [4]float32{-float32(math.Sqrt2 / 2), 0, 0, float32(math.Sqrt2 / 2)}

// ImageLoader returns png data of the texture file at path.
type ImageLoader func(path string) ([]byte, error)

// Exporter builds a binary glTF document through scene.Instantiate.
type Exporter struct {
	Doc *gltf.Document
	// textures are not embedded when nil
	LoadImage ImageLoader

	root     uint32
	skeleton *scene.Skeleton
	joints   []uint32
	skin     *uint32

	materials map[string]uint32
	images    map[string]uint32
}

func NewExporter(loadImage ImageLoader) *Exporter {
	return &Exporter{
		Doc:       gltf.NewDocument(),
		LoadImage: loadImage,
		materials: make(map[string]uint32),
		images:    make(map[string]uint32),
	}
}

func (e *Exporter) addNode(n *gltf.Node, parent *uint32) uint32 {
	idx := uint32(len(e.Doc.Nodes))
	e.Doc.Nodes = append(e.Doc.Nodes, n)
	if parent != nil {
		p := e.Doc.Nodes[*parent]
		p.Children = append(p.Children, idx)
	}
	return idx
}

func (e *Exporter) CreateCollection(name string) error {
	e.root = e.addNode(&gltf.Node{Name: name, Rotation: zUpRotation}, nil)
	e.Doc.Scenes[0].Nodes = append(e.Doc.Scenes[0].Nodes, e.root)
	return nil
}

func matrix(m mgl64.Mat4) [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

func (e *Exporter) CreateBone(s *scene.Skeleton, index int) error {
	if e.skeleton != s {
		e.skeleton = s
		e.joints = make([]uint32, len(s.Bones))
		e.skin = nil
	}

	b := &s.Bones[index]
	local := b.World
	parent := &e.root
	if !b.IsRoot() {
		local = s.Bones[b.Parent].World.Inv().Mul4(b.World)
		parent = &e.joints[b.Parent]
	}
	e.joints[index] = e.addNode(&gltf.Node{Name: b.Name, Matrix: matrix(local)}, parent)
	return nil
}

// addMatrices stores column major matrices as a MAT4 accessor.
func (e *Exporter) addMatrices(ms []mgl64.Mat4) uint32 {
	cols := make([][4]float32, len(ms)*4)
	for i, m := range ms {
		for c := 0; c < 4; c++ {
			v := m.Col(c)
			cols[i*4+c] = [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
		}
	}
	acc := modeler.WriteTangent(e.Doc, cols)
	e.Doc.Accessors[acc].Type = gltf.AccessorMat4
	e.Doc.Accessors[acc].Count /= 4
	e.Doc.BufferViews[*e.Doc.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func (e *Exporter) skinIndex() uint32 {
	if e.skin != nil {
		return *e.skin
	}
	inverse := make([]mgl64.Mat4, len(e.skeleton.Bones))
	for i := range e.skeleton.Bones {
		inverse[i] = e.skeleton.Bones[i].World.Inv()
	}
	e.Doc.Skins = append(e.Doc.Skins, &gltf.Skin{
		Name:                e.skeleton.Name,
		Joints:              append([]uint32(nil), e.joints...),
		InverseBindMatrices: gltf.Index(e.addMatrices(inverse)),
		Skeleton:            gltf.Index(e.root),
	})
	e.skin = gltf.Index(uint32(len(e.Doc.Skins) - 1))
	return *e.skin
}

// jointWeights keeps the four heaviest known weights of every vertex.
// Unweighted vertices follow the first joint.
func (e *Exporter) jointWeights(m *scene.Mesh, flat *geom.FlatMesh) ([][4]uint16, [][4]float32) {
	joints := make([][4]uint16, len(flat.Vertices))
	weights := make([][4]float32, len(flat.Vertices))
	for i, v := range flat.Vertices {
		var known []scene.VertexWeight
		for _, w := range m.Weights[v.Source] {
			if e.skeleton.Find(w.Bone) >= 0 {
				known = append(known, w)
			}
		}
		ws := geom.NormalizeWeights(known)
		if len(ws) > JOINTS_PER_VERTEX {
			ws = geom.NormalizeWeights(ws[:JOINTS_PER_VERTEX])
		}
		if len(ws) == 0 {
			weights[i][0] = 1
			continue
		}
		for k, w := range ws {
			joints[i][k] = uint16(e.skeleton.Find(w.Bone))
			weights[i][k] = float32(w.Weight)
		}
	}
	return joints, weights
}

func (e *Exporter) CreateMesh(m *scene.Mesh) error {
	flat := geom.Flatten(m)
	if len(flat.Triangles) == 0 {
		log.Printf("[gltf] Mesh %q has no faces, skipped", m.Name)
		return nil
	}

	positions := make([][3]float32, len(flat.Vertices))
	normals := make([][3]float32, len(flat.Vertices))
	uvs := make([][2]float32, len(flat.Vertices))
	colors := make([][4]uint8, len(flat.Vertices))
	for i, v := range flat.Vertices {
		positions[i] = [3]float32{float32(v.Position[0]), float32(v.Position[1]), float32(v.Position[2])}
		n := v.Normal
		if n.Len() > 1e-9 {
			n = n.Normalize()
		}
		normals[i] = [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
		uvs[i] = [2]float32{float32(v.UV[0]), float32(1 - v.UV[1])}
		colors[i] = v.Color
	}
	indices := make([]uint32, 0, len(flat.Triangles)*3)
	for _, t := range flat.Triangles {
		indices = append(indices, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}

	attributes := map[string]uint32{
		"POSITION":   modeler.WritePosition(e.Doc, positions),
		"NORMAL":     modeler.WriteNormal(e.Doc, normals),
		"TEXCOORD_0": modeler.WriteTextureCoord(e.Doc, uvs),
		"COLOR_0":    modeler.WriteColor(e.Doc, colors),
	}

	node := &gltf.Node{Name: m.Name}
	if e.skeleton != nil && len(m.Weights) == len(m.Positions) {
		joints, weights := e.jointWeights(m, flat)
		attributes["JOINTS_0"] = modeler.WriteJoints(e.Doc, joints)
		attributes["WEIGHTS_0"] = modeler.WriteWeights(e.Doc, weights)
		node.Skin = gltf.Index(e.skinIndex())
	}

	indicesAccessor := modeler.WriteIndices(e.Doc, indices)
	primitive := &gltf.Primitive{
		Indices:    &indicesAccessor,
		Attributes: attributes,
	}
	if mat, ok := e.materials[m.Material]; ok {
		primitive.Material = gltf.Index(mat)
	}

	e.Doc.Meshes = append(e.Doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{primitive}})
	node.Mesh = gltf.Index(uint32(len(e.Doc.Meshes) - 1))
	e.addNode(node, &e.root)
	return nil
}

func (e *Exporter) texture(m *scene.Material, key scene.MaterialKey) (uint32, bool) {
	path, ok := m.Texture(key)
	if !ok || path == "" || e.LoadImage == nil {
		return 0, false
	}
	if idx, ok := e.images[path]; ok {
		return idx, true
	}

	data, err := e.LoadImage(path)
	if err != nil {
		log.Printf("[gltf] Material %q: %v", m.Name, err)
		return 0, false
	}
	img, err := modeler.WriteImage(e.Doc, fmt.Sprintf("%s_%s", m.Name, key), "image/png", bytes.NewReader(data))
	if err != nil {
		log.Printf("[gltf] Material %q: failed to embed %s: %v", m.Name, key, err)
		return 0, false
	}
	if len(e.Doc.Samplers) == 0 {
		e.Doc.Samplers = append(e.Doc.Samplers, &gltf.Sampler{
			MinFilter: gltf.MinLinear,
			MagFilter: gltf.MagLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		})
	}
	e.Doc.Textures = append(e.Doc.Textures, &gltf.Texture{
		Name:    string(key),
		Sampler: gltf.Index(0),
		Source:  gltf.Index(img),
	})
	idx := uint32(len(e.Doc.Textures) - 1)
	e.images[path] = idx
	return idx, true
}

func (e *Exporter) CreateMaterial(m *scene.Material) error {
	metallic := float32(0)
	gm := &gltf.Material{
		Name:        m.Name,
		DoubleSided: m.TwoSided(),
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			MetallicFactor: &metallic,
		},
	}
	if t, ok := m.Type(); ok && t != scene.MaterialOpaque {
		cutoff := float32(0.5)
		gm.AlphaMode = gltf.AlphaMask
		gm.AlphaCutoff = &cutoff
	}
	if tex, ok := e.texture(m, scene.MatDiffuseMap); ok {
		gm.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: tex}
	}
	if tex, ok := e.texture(m, scene.MatNormalMap); ok {
		gm.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(tex)}
	}
	if tex, ok := e.texture(m, scene.MatEmissionMap); ok {
		gm.EmissiveTexture = &gltf.TextureInfo{Index: tex}
		gm.EmissiveFactor = [3]float32{1, 1, 1}
	}

	e.materials[m.Name] = uint32(len(e.Doc.Materials))
	e.Doc.Materials = append(e.Doc.Materials, gm)
	return nil
}

func (e *Exporter) ReportDiagnostic(source string, d scene.Diagnostic) {
	log.Printf("[gltf] %s: %v", source, d)
}

func (e *Exporter) Write(w io.Writer) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(e.Doc)
}

// ExportBinary writes a as a glb file.
func ExportBinary(w io.Writer, a *scene.Asset, loadImage ImageLoader) error {
	e := NewExporter(loadImage)
	if err := scene.Instantiate(e, a); err != nil {
		return errors.Wrapf(err, "[gltf] Failed to build %q", a.Name)
	}
	return e.Write(w)
}
