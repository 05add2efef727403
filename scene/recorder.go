package scene

// Recorder is an in-memory Host; it keeps what it was given in call order.
type Recorder struct {
	Collections []string
	Bones       []string
	Meshes      []*Mesh
	Materials   []*Material
	Animations  []*Motion
	Diagnostics []Diagnostic
}

func (r *Recorder) CreateCollection(name string) error {
	r.Collections = append(r.Collections, name)
	return nil
}

func (r *Recorder) CreateBone(s *Skeleton, index int) error {
	r.Bones = append(r.Bones, s.Bones[index].Name)
	return nil
}

func (r *Recorder) CreateMesh(m *Mesh) error {
	r.Meshes = append(r.Meshes, m)
	return nil
}

func (r *Recorder) CreateMaterial(m *Material) error {
	r.Materials = append(r.Materials, m)
	return nil
}

func (r *Recorder) CreateAnimation(s *Skeleton, m *Motion, frames []FramePose) error {
	r.Animations = append(r.Animations, m)
	return nil
}

func (r *Recorder) ReportDiagnostic(source string, d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}
