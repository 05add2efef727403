package scene

import "github.com/pkg/errors"

type MaterialKey string

const (
	MatType        MaterialKey = "type"
	MatTwoSided    MaterialKey = "twoSided"
	MatWidth       MaterialKey = "width"
	MatHeight      MaterialKey = "height"
	MatAutoUV      MaterialKey = "autouv"
	MatDiffuseMap  MaterialKey = "diffuseMap"
	MatNormalMap   MaterialKey = "normalMap"
	MatSpecularMap MaterialKey = "specularMap"
	MatEmissionMap MaterialKey = "emissionMap"
	MatCensorMap   MaterialKey = "censorMap"
	MatMaskMap     MaterialKey = "maskMap"
	MatSurface     MaterialKey = "surface"
	MatSpeculars   MaterialKey = "speculars"
)

// MaterialKeys lists every key in file order.
var MaterialKeys = []MaterialKey{
	MatType, MatTwoSided, MatWidth, MatHeight, MatAutoUV,
	MatDiffuseMap, MatNormalMap, MatSpecularMap, MatEmissionMap, MatCensorMap, MatMaskMap,
	MatSurface, MatSpeculars,
}

// TextureKeys lists the keys holding texture paths.
var TextureKeys = []MaterialKey{
	MatDiffuseMap, MatNormalMap, MatSpecularMap, MatEmissionMap, MatCensorMap, MatMaskMap,
}

type MaterialType int32

const (
	MaterialOpaque MaterialType = iota
	MaterialMask
	MaterialHair
)

var materialTypeNames = []string{"OPAQUE", "MASK", "HAIR"}

func (t MaterialType) String() string {
	if t >= 0 && int(t) < len(materialTypeNames) {
		return materialTypeNames[t]
	}
	return "OPAQUE"
}

func ParseMaterialType(s string) (MaterialType, error) {
	for i, n := range materialTypeNames {
		if n == s {
			return MaterialType(i), nil
		}
	}
	return MaterialOpaque, errors.Errorf("Unknown material type %q", s)
}

// Material is a sparse property set. Value types: MaterialType for type,
// bool for twoSided, float32 for width and height, int32 for autouv,
// string for maps and surface, [3]float32 for speculars.
type Material struct {
	Name  string
	Props map[MaterialKey]interface{}
	// texture keys mapped to file system paths
	Resolved map[MaterialKey]string `yaml:",omitempty"`
}

func NewMaterial(name string) *Material {
	return &Material{Name: name, Props: make(map[MaterialKey]interface{})}
}

// Texture returns the resolved path of a texture key, or its raw value.
func (m *Material) Texture(key MaterialKey) (string, bool) {
	if p, ok := m.Resolved[key]; ok {
		return p, true
	}
	return m.Text(key)
}

func (m *Material) Has(key MaterialKey) bool {
	_, ok := m.Props[key]
	return ok
}

func (m *Material) Text(key MaterialKey) (string, bool) {
	s, ok := m.Props[key].(string)
	return s, ok
}

func (m *Material) Type() (MaterialType, bool) {
	t, ok := m.Props[MatType].(MaterialType)
	return t, ok
}

func (m *Material) TwoSided() bool {
	b, _ := m.Props[MatTwoSided].(bool)
	return b
}
