package scene

import (
	"github.com/pkg/errors"
)

// Host is the scene graph of the content tool. The codec only talks to
// the tool through it. Bones arrive parents first.
type Host interface {
	CreateCollection(name string) error
	CreateBone(skeleton *Skeleton, index int) error
	CreateMesh(mesh *Mesh) error
	ReportDiagnostic(source string, d Diagnostic)
}

// MaterialHost is implemented by hosts that can build materials.
type MaterialHost interface {
	CreateMaterial(m *Material) error
}

// AnimationHost is implemented by hosts that store sampled animation.
type AnimationHost interface {
	CreateAnimation(skeleton *Skeleton, motion *Motion, frames []FramePose) error
}

// Asset is everything decoded from one file (or one outfit).
type Asset struct {
	Name        string
	Source      string
	Skeleton    *Skeleton   `yaml:",omitempty"`
	Meshes      []*Mesh     `yaml:",omitempty"`
	Skin        *Skin       `yaml:",omitempty"`
	Materials   []*Material `yaml:",omitempty"`
	Poses       []*Pose     `yaml:",omitempty"`
	Motions     []*Motion   `yaml:",omitempty"`
	Outfit      *Outfit     `yaml:",omitempty"`
	Frames      []FramePose `yaml:"-"`
	Diagnostics Diagnostics `yaml:",omitempty"`
}

// Instantiate pushes the asset into host: collection, bones, materials, meshes, animation.
func Instantiate(host Host, a *Asset) error {
	if err := host.CreateCollection(a.Name); err != nil {
		return errors.Wrapf(err, "Failed to create collection %q", a.Name)
	}

	if a.Skeleton != nil {
		for _, i := range a.Skeleton.Order() {
			if err := host.CreateBone(a.Skeleton, i); err != nil {
				return errors.Wrapf(err, "Failed to create bone %q", a.Skeleton.Bones[i].Name)
			}
		}
	}

	if mh, ok := host.(MaterialHost); ok {
		for _, m := range a.Materials {
			if err := mh.CreateMaterial(m); err != nil {
				return errors.Wrapf(err, "Failed to create material %q", m.Name)
			}
		}
	}

	for _, m := range a.Meshes {
		if err := host.CreateMesh(m); err != nil {
			return errors.Wrapf(err, "Failed to create mesh %q", m.Name)
		}
	}

	if ah, ok := host.(AnimationHost); ok && a.Skeleton != nil && len(a.Frames) != 0 {
		var motion *Motion
		if len(a.Motions) != 0 {
			motion = a.Motions[0]
		} else {
			motion = &Motion{Name: a.Name, NumFrames: len(a.Frames), FirstFrame: a.Frames[0].Frame}
		}
		if err := ah.CreateAnimation(a.Skeleton, motion, a.Frames); err != nil {
			return errors.Wrapf(err, "Failed to create animation %q", motion.Name)
		}
	}

	for _, d := range a.Diagnostics {
		host.ReportDiagnostic(a.Source, d)
	}
	return nil
}
