package scene

import (
	"github.com/mogaika/haydee_tools/hd"
)

// Skin holds weights addressed by binary mesh vertex index.
type Skin struct {
	Name    string
	Weights [][]VertexWeight `yaml:",omitempty"`
	// per bone vector record of the skin file, kept verbatim
	BoneVectors [][4]float32 `yaml:"-"`
}

// Apply sets the weights of m. Both must come from the same binary mesh.
func (s *Skin) Apply(m *Mesh) error {
	if len(s.Weights) != len(m.Positions) {
		return hd.Errorf(hd.StructuralMismatch, "Skin %q has %d vertices, mesh %q has %d",
			s.Name, len(s.Weights), m.Name, len(m.Positions))
	}
	m.Weights = make([][]VertexWeight, len(s.Weights))
	for i, ws := range s.Weights {
		m.Weights[i] = append([]VertexWeight(nil), ws...)
	}
	return nil
}
