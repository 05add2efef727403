package mtl

import (
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/mogaika/haydee_tools/config"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/chunk"
	"github.com/mogaika/haydee_tools/hd/txt"
	"github.com/mogaika/haydee_tools/pack"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
)

const ASSET_TYPE = "material"

const SURFACE_SIZE = 64

var Schema = chunk.Schema{
	string(scene.MatType):        chunk.Int32,
	string(scene.MatTwoSided):    chunk.Int32,
	string(scene.MatWidth):       chunk.Float,
	string(scene.MatHeight):      chunk.Float,
	string(scene.MatAutoUV):      chunk.Int32,
	string(scene.MatDiffuseMap):  chunk.StrW,
	string(scene.MatNormalMap):   chunk.StrW,
	string(scene.MatSpecularMap): chunk.StrW,
	string(scene.MatEmissionMap): chunk.StrW,
	string(scene.MatCensorMap):   chunk.StrW,
	string(scene.MatMaskMap):     chunk.StrW,
	string(scene.MatSurface):     chunk.Latin1(SURFACE_SIZE),
	string(scene.MatSpeculars):   chunk.Floats(3),
}

func fromValues(v *chunk.Values, name string) *scene.Material {
	m := scene.NewMaterial(name)
	for _, key := range scene.MaterialKeys {
		k := string(key)
		switch key {
		case scene.MatType:
			if t, ok := v.Int(k); ok {
				m.Props[key] = scene.MaterialType(t)
			}
		case scene.MatTwoSided:
			if b, ok := v.Int(k); ok {
				m.Props[key] = b != 0
			}
		case scene.MatAutoUV:
			if i, ok := v.Int(k); ok {
				m.Props[key] = i
			}
		case scene.MatWidth, scene.MatHeight:
			if f, ok := v.Float(k); ok {
				m.Props[key] = f
			}
		case scene.MatSpeculars:
			if fs, ok := v.Floats(k); ok {
				m.Props[key] = [3]float32{fs[0], fs[1], fs[2]}
			}
		default:
			if s, ok := v.Text(k); ok {
				m.Props[key] = s
			}
		}
	}
	return m
}

func newChunkMaterial(data []byte, name string, diags *scene.Diagnostics) (*scene.Material, error) {
	c, err := chunk.Read(data)
	if err != nil {
		return nil, err
	}
	if err := c.Expect(ASSET_TYPE); err != nil {
		return nil, err
	}
	return fromValues(c.Decode(Schema, diags), name), nil
}

func parseProp(m *scene.Material, key scene.MaterialKey, n *txt.Node) error {
	switch key {
	case scene.MatType:
		s, err := n.Arg(0)
		if err != nil {
			return err
		}
		t, err := scene.ParseMaterialType(s)
		if err != nil {
			return hd.Wrapf(hd.StructuralMismatch, err, "type")
		}
		m.Props[key] = t
	case scene.MatTwoSided:
		s, err := n.Arg(0)
		if err != nil {
			return err
		}
		m.Props[key] = strings.ToLower(s) == "true"
	case scene.MatWidth, scene.MatHeight:
		f, err := n.Float(0)
		if err != nil {
			return err
		}
		m.Props[key] = float32(f)
	case scene.MatAutoUV:
		i, err := n.Int(0)
		if err != nil {
			return err
		}
		m.Props[key] = int32(i)
	case scene.MatSpeculars:
		fs, err := n.Floats(3)
		if err != nil {
			return err
		}
		m.Props[key] = [3]float32{float32(fs[0]), float32(fs[1]), float32(fs[2])}
	default:
		if len(n.Args) == 0 {
			return hd.Errorf(hd.ArityMismatch, "%s has no value", key)
		}
		m.Props[key] = strings.Join(n.Args, " ")
	}
	return nil
}

// ParseText reads the statements of the first block of a text material.
func ParseText(doc *txt.Document, name string, diags *scene.Diagnostics) (*scene.Material, error) {
	var block *txt.Node
	for _, n := range doc.Nodes {
		if len(n.Children) != 0 {
			block = n
			break
		}
	}
	if block == nil {
		return nil, hd.Errorf(hd.MissingRequiredEntry, "No material block")
	}

	known := make(map[string]scene.MaterialKey, len(scene.MaterialKeys))
	for _, key := range scene.MaterialKeys {
		known[string(key)] = key
	}

	m := scene.NewMaterial(name)
	for _, n := range block.Children {
		key, ok := known[n.Key]
		if !ok {
			diags.Warnf(n.Record(), "unknown material property")
			continue
		}
		if err := parseProp(m, key, n); err != nil {
			diags.Add(hd.KindOrDefault(err, hd.StructuralMismatch), n.Record(), "%v", err)
		}
	}
	return m, nil
}

// NewFromData decodes binary and text materials.
func NewFromData(data []byte, name string) (*scene.Asset, error) {
	sig, err := hd.DetectSignature(data)
	if err != nil {
		return nil, err
	}

	a := &scene.Asset{Name: name}
	var m *scene.Material
	switch sig {
	case hd.SignatureChunk:
		m, err = newChunkMaterial(data, name, &a.Diagnostics)
	case hd.SignatureText, hd.SignatureTextBOM:
		var doc *txt.Document
		if doc, err = txt.Parse(data); err == nil {
			m, err = ParseText(doc, name, &a.Diagnostics)
		}
	default:
		err = hd.Errorf(hd.UnrecognizedSignature, "Signature %v is not a material", sig)
	}
	if err != nil {
		return nil, err
	}

	a.Materials = []*scene.Material{m}
	log.Printf("[mtl] %q (%v): %d properties", name, sig, len(m.Props))
	return a, nil
}

// Resolve maps the texture references of m to paths relative to dir.
func Resolve(m *scene.Material, dir string) {
	for _, key := range scene.TextureKeys {
		ref, ok := m.Text(key)
		if !ok || ref == "" {
			continue
		}
		if m.Resolved == nil {
			m.Resolved = make(map[scene.MaterialKey]string)
		}
		m.Resolved[key] = pack.ResolveMaterialRef(dir, ref)
	}
}

func load(src utils.ResourceSource, r *io.SectionReader) (*scene.Asset, error) {
	data, err := pack.ReadAll(r)
	if err != nil {
		return nil, err
	}
	a, err := NewFromData(data, pack.AssetName(src))
	if err != nil {
		return nil, err
	}
	a.Source = src.Name()
	dir := filepath.Dir(pack.SourcePath(src))
	for _, m := range a.Materials {
		Resolve(m, dir)
	}
	return a, nil
}

func textValue(m *scene.Material, key scene.MaterialKey) []string {
	switch v := m.Props[key].(type) {
	case scene.MaterialType:
		return []string{v.String()}
	case bool:
		return []string{txt.Bool(v)}
	case float32:
		return []string{txt.Float(float64(v))}
	case int32:
		return []string{txt.Int(int(v))}
	case [3]float32:
		return txt.Floats(float64(v[0]), float64(v[1]), float64(v[2]))
	case string:
		if key == scene.MatSurface && !strings.ContainsAny(v, " \t") {
			return []string{v}
		}
		return []string{txt.Quote(v)}
	}
	return nil
}

// MarshalText writes the properties of m in file order.
func MarshalText(m *scene.Material) []byte {
	w := txt.NewWriter()
	w.Open("material")
	for _, key := range scene.MaterialKeys {
		if args := textValue(m, key); args != nil {
			w.Line(string(key), args...)
		}
	}
	w.Close()
	return w.Bytes()
}

// Marshal writes a chunked material. Absent properties are left out.
func Marshal(m *scene.Material) ([]byte, error) {
	w := chunk.NewWriter(ASSET_TYPE)
	for _, key := range scene.MaterialKeys {
		v, ok := m.Props[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case scene.MaterialType:
			v = int32(t)
		case bool:
			v = int32(0)
			if t {
				v = int32(1)
			}
		case [3]float32:
			v = t[:]
		}
		if err := w.Put(string(key), Schema[string(key)], v); err != nil {
			return nil, hd.Wrapf(hd.EncodingError, err, "Material %q property %s", m.Name, key)
		}
	}
	return w.Bytes()
}

func init() {
	pack.SetHandler(".MTL", load)
	pack.SetEmitter(".MTL", func(a *scene.Asset, format config.FileFormat) ([]byte, error) {
		if len(a.Materials) == 0 {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no material", a.Name)
		}
		return MarshalText(a.Materials[0]), nil
	})
}
