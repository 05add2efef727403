package fbxbuilder

import (
	"io"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/haydee_tools/geom"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
)

// Exporter fills an FBXBuilder through scene.Instantiate: a null root
// holding limb node bones and mesh models.
type Exporter struct {
	f *FBXBuilder

	root     int64
	skeleton *scene.Skeleton
	bones    []int64
}

func NewExporter(filename string) *Exporter {
	return &Exporter{f: NewFBXBuilder(filename)}
}

func (e *Exporter) Builder() *FBXBuilder {
	return e.f
}

func quatToEuler(q mgl64.Quat) (e mgl64.Vec3) {
	sinr_cosp := 2 * (q.W*q.X() + q.Y()*q.Z())
	cosr_cosp := 1 - 2*(q.X()*q.X()+q.Y()*q.Y())
	e[0] = math.Atan2(sinr_cosp, cosr_cosp)

	sinp := 2 * (q.W*q.Y() - q.Z()*q.X())
	if math.Abs(sinp) >= 1 {
		e[1] = math.Copysign(math.Pi/2, sinp)
	} else {
		e[1] = math.Asin(sinp)
	}

	siny_cosp := 2 * (q.W*q.Z() + q.X()*q.Y())
	cosy_cosp := 1 - 2*(q.Y()*q.Y()+q.Z()*q.Z())
	e[2] = math.Atan2(siny_cosp, cosy_cosp)
	return e
}

func lclProperties(local mgl64.Mat4) *fbx.Node {
	pos := space.Translation(local)
	rot := quatToEuler(space.Quat(local)).Mul(180.0 / math.Pi)
	return bfbx73.Properties70().AddNodes(
		bfbx73.P("InheritType", "enum", "", "", int32(1)),
		bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
		bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", pos[0], pos[1], pos[2]),
		bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", rot[0], rot[1], rot[2]),
		bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
	)
}

func (e *Exporter) model(name, kind string, local mgl64.Mat4, parent int64) int64 {
	id := e.f.GenerateId()
	e.f.AddObjects(bfbx73.Model(id, name+"\x00\x01Model", kind).AddNodes(
		bfbx73.Version(232),
		lclProperties(local),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	))
	e.f.AddConnections(bfbx73.C("OO", id, parent))
	return id
}

// CreateCollection adds the root null, rotated from tool z up to y up.
func (e *Exporter) CreateCollection(name string) error {
	e.root = e.model(name, "Null", space.Rx(-90), 0)
	attr := bfbx73.NodeAttribute(e.f.GenerateId(), name+"\x00\x01NodeAttribute", "Null").AddNodes(
		bfbx73.TypeFlags("Null"),
	)
	e.f.AddObjects(attr)
	e.f.AddConnections(bfbx73.C("OO", attr.Properties[0].(int64), e.root))
	return nil
}

func (e *Exporter) CreateBone(s *scene.Skeleton, index int) error {
	if e.skeleton != s {
		e.skeleton = s
		e.bones = make([]int64, len(s.Bones))
	}

	b := &s.Bones[index]
	local := b.World
	parent := e.root
	if !b.IsRoot() {
		local = s.Bones[b.Parent].World.Inv().Mul4(b.World)
		parent = e.bones[b.Parent]
	}
	e.bones[index] = e.model(b.Name, "LimbNode", local, parent)

	attr := bfbx73.NodeAttribute(e.f.GenerateId(), b.Name+"\x00\x01NodeAttribute", "LimbNode").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Size", "double", "Number", "", b.Length),
		),
		bfbx73.TypeFlags("Skeleton"),
	)
	e.f.AddObjects(attr)
	e.f.AddConnections(bfbx73.C("OO", attr.Properties[0].(int64), e.bones[index]))
	return nil
}

func (e *Exporter) CreateMaterial(m *scene.Material) error {
	opacity := float64(1)
	if t, ok := m.Type(); ok && t != scene.MaterialOpaque {
		opacity = 0.5
	}

	id := e.f.GenerateId()
	e.f.AddObjects(bfbx73.Material(id, m.Name+"\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("lambert"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(1), float64(1), float64(1)),
			bfbx73.P("Emissive", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Ambient", "Vector3D", "Vector", "", float64(0), float64(0), float64(0)),
			bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(1), float64(1), float64(1)),
			bfbx73.P("Opacity", "double", "Number", "", opacity),
		),
	))
	e.f.AddCache("material:"+m.Name, id)
	return nil
}

// CreateMesh writes connectivity vertices, n-gon polygons and a per loop
// uv layer.
func (e *Exporter) CreateMesh(m *scene.Mesh) error {
	vertices := make([]float64, 0, len(m.Positions)*3)
	for _, p := range m.Positions {
		vertices = append(vertices, p[0], p[1], p[2])
	}

	normals := m.Normals
	if len(normals) != len(m.Positions) {
		normals = geom.VertexNormals(m)
	}
	normalData := make([]float64, 0, len(normals)*3)
	for _, n := range normals {
		if n.Len() > 1e-9 {
			n = n.Normalize()
		}
		normalData = append(normalData, n[0], n[1], n[2])
	}

	indexes := make([]int32, 0, m.LoopCount())
	uvs := make([]float64, 0, m.LoopCount()*2)
	uvIndexes := make([]int32, 0, m.LoopCount())
	for _, face := range m.Faces {
		for li, v := range face.Verts {
			idx := int32(v)
			if li == len(face.Verts)-1 {
				idx = -idx - 1
			}
			indexes = append(indexes, idx)

			var uv mgl64.Vec2
			if len(face.UVs) == len(face.Verts) {
				uv = face.UVs[li]
			}
			uvIndexes = append(uvIndexes, int32(len(uvs)/2))
			uvs = append(uvs, uv[0], uv[1])
		}
	}

	layer := bfbx73.Layer(0).AddNodes(bfbx73.Version(100))
	geometryId := e.f.GenerateId()
	geometry := bfbx73.Geometry(geometryId, m.Name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals(normalData),
		),
		bfbx73.LayerElementUV(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name("UVMap"),
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.UV(uvs),
			bfbx73.UVIndex(uvIndexes),
		),
	)
	layer.AddNodes(
		bfbx73.LayerElement().AddNodes(bfbx73.Type("LayerElementNormal"), bfbx73.TypedIndex(0)),
		bfbx73.LayerElement().AddNodes(bfbx73.Type("LayerElementUV"), bfbx73.TypedIndex(0)),
	)

	material, hasMaterial := e.f.GetCached("material:" + m.Material)
	if hasMaterial {
		geometry.AddNode(bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		))
		layer.AddNode(bfbx73.LayerElement().AddNodes(bfbx73.Type("LayerElementMaterial"), bfbx73.TypedIndex(0)))
	}
	geometry.AddNode(layer)

	modelId := e.model(m.Name, "Mesh", mgl64.Ident4(), e.root)
	e.f.AddObjects(geometry)
	e.f.AddConnections(bfbx73.C("OO", geometryId, modelId))
	if hasMaterial {
		e.f.AddConnections(bfbx73.C("OO", material, modelId))
	}
	return nil
}

func (e *Exporter) ReportDiagnostic(source string, d scene.Diagnostic) {
	log.Printf("[fbx] %s: %v", source, d)
}

// Export writes a as a binary fbx file.
func Export(w io.Writer, a *scene.Asset) error {
	e := NewExporter(a.Name + ".fbx")
	if err := scene.Instantiate(e, a); err != nil {
		return errors.Wrapf(err, "[fbx] Failed to build %q", a.Name)
	}
	return e.f.Write(w)
}
