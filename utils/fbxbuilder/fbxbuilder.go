package fbxbuilder

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	FBX_VERSION     = 7400
	FBX_CREATOR     = "FBX SDK/FBX Plugins version 2013.3 build=20121223"
	FBX_VENDOR      = "Haydee modding community"
	FBX_APPLICATION = "haydee_tools"
	FBX_APP_VERSION = "1.0"
	// exports are reproducible, so every stamp is the epoch
	FBX_EPOCH_GMT      = "01/01/1970 00:00:00.000"
	FBX_EPOCH_CREATION = "1970-01-01 10:00:00:000"
	FIRST_OBJECT_ID    = 1000000
)

var FBX_FILE_ID = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// property templates of the object types the exporter emits
var templates = map[string]func() *fbx.Node{
	"Model": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxNode").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("RotationOrder", "enum", "", "", int32(0)),
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("Show", "bool", "", "", int32(1)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		))
	},
	"NodeAttribute": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxSkeleton").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(0.8), float64(0.8), float64(0.8)),
			bfbx73.P("Size", "double", "Number", "", float64(100)),
			bfbx73.P("LimbLength", "double", "Number", "H", float64(1)),
		))
	},
	"Material": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxSurfaceLambert").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("ShadingModel", "KString", "", "", "Lambert"),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(0.8), float64(0.8), float64(0.8)),
			bfbx73.P("DiffuseFactor", "Number", "", "A", float64(1)),
			bfbx73.P("TransparencyFactor", "Number", "", "A", float64(0)),
		))
	},
	"Geometry": func() *fbx.Node {
		return bfbx73.PropertyTemplate("FbxMesh").AddNodes(bfbx73.Properties70().AddNodes(
			bfbx73.P("Primary Visibility", "bool", "", "", int32(1)),
			bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
			bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
		))
	},
}

// FBXBuilder accumulates objects and connections of one binary FBX 7.4
// document. Definitions are derived from the objects when written.
type FBXBuilder struct {
	f      *fbx.FBX
	ids    map[string]int64
	lastId int64

	definitions *fbx.Node
	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string) *FBXBuilder {
	b := &FBXBuilder{
		f:           fbx.NewFBX(FBX_VERSION),
		ids:         make(map[string]int64),
		lastId:      FIRST_OBJECT_ID,
		definitions: bfbx73.Definitions(),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	b.Root().AddNodes(
		headerExtension(filename),
		bfbx73.FileId(FBX_FILE_ID),
		bfbx73.CreationTime(FBX_EPOCH_CREATION),
		bfbx73.Creator(FBX_CREATOR),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(b.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		b.definitions,
		b.objects,
		b.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return b
}

func applicationInfo(prefix string) []*fbx.Node {
	return []*fbx.Node{
		bfbx73.P(prefix, "Compound", "", ""),
		bfbx73.P(prefix+"|ApplicationVendor", "KString", "", "", FBX_VENDOR),
		bfbx73.P(prefix+"|ApplicationName", "KString", "", "", FBX_APPLICATION),
		bfbx73.P(prefix+"|ApplicationVersion", "KString", "", "", FBX_APP_VERSION),
		bfbx73.P(prefix+"|DateTime_GMT", "DateTime", "", "", FBX_EPOCH_GMT),
	}
}

func headerExtension(filename string) *fbx.Node {
	props := bfbx73.Properties70().AddNodes(
		bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
	)
	props.AddNodes(applicationInfo("Original")...)
	props.AddNodes(bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)))
	props.AddNodes(applicationInfo("LastSaved")...)

	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(FBX_VERSION),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(1970), bfbx73.Month(1), bfbx73.Day(1),
			bfbx73.Hour(10), bfbx73.Minute(0), bfbx73.Second(0), bfbx73.Millisecond(0),
		),
		bfbx73.Creator(FBX_CREATOR),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			bfbx73.MetaData().AddNodes(
				bfbx73.Version(100),
				bfbx73.Title(filepath.Base(filename)),
				bfbx73.Subject(""),
				bfbx73.Author(""),
				bfbx73.Keywords(""),
				bfbx73.Revision(""),
				bfbx73.Comment(""),
			),
			props,
		),
	)
}

// Haydee space is Y up, matching the FBX default axes.
func globalSettings() *fbx.Node {
	axis := func(name string, v int32) *fbx.Node {
		return bfbx73.P(name, "int", "Integer", "", v)
	}
	return bfbx73.GlobalSettings().AddNodes(
		bfbx73.Version(1000),
		bfbx73.Properties70().AddNodes(
			axis("UpAxis", 1), axis("UpAxisSign", 1),
			axis("FrontAxis", 2), axis("FrontAxisSign", 1),
			axis("CoordAxis", 0), axis("CoordAxisSign", 1),
			axis("OriginalUpAxis", 1), axis("OriginalUpAxisSign", 1),
			bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
			bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
		),
	)
}

// fillDefinitions declares every object type present in Objects with its
// count, in a stable order.
func (b *FBXBuilder) fillDefinitions() {
	counts := map[string]int32{}
	for _, o := range b.objects.Nodes {
		counts[o.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	total := int32(1)
	b.definitions.Nodes = nil
	b.definitions.AddNodes(bfbx73.Version(100), bfbx73.Count(0))
	b.definitions.AddNodes(bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)))
	for _, name := range names {
		total += counts[name]
		count := bfbx73.Count(0)
		count.Properties[0] = counts[name]
		ot := bfbx73.ObjectType(name).AddNodes(count)
		if template, ok := templates[name]; ok {
			ot.AddNodes(template())
		}
		b.definitions.AddNodes(ot)
	}
	b.definitions.GetNode("Count").Properties[0] = total
}

func (b *FBXBuilder) Root() *fbx.Node {
	return &b.f.Root
}

// AddCache remembers the object id created for key.
func (b *FBXBuilder) AddCache(key string, id int64) {
	b.ids[key] = id
}

func (b *FBXBuilder) GetCached(key string) (int64, bool) {
	id, ok := b.ids[key]
	return id, ok
}

func (b *FBXBuilder) GenerateId() int64 {
	b.lastId++
	return b.lastId
}

func (b *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { b.objects.AddNodes(nodes...) }
func (b *FBXBuilder) AddConnections(nodes ...*fbx.Node) { b.connections.AddNodes(nodes...) }

// Write encodes the document. The encoder needs to seek, so it goes
// through a temporary file.
func (b *FBXBuilder) Write(w io.Writer) error {
	b.fillDefinitions()

	tmp, err := os.CreateTemp("", "haydee.*.fbx")
	if err != nil {
		return errors.Wrapf(err, "[fbx] Unable to create temporary file")
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := fbx.Write(tmp, b.f); err != nil {
		return errors.Wrapf(err, "[fbx] Encoding failed")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "[fbx] Unable to rewind %q", tmp.Name())
	}
	if _, err := io.Copy(w, tmp); err != nil {
		return errors.Wrapf(err, "[fbx] Unable to copy document")
	}
	return nil
}
