package anim

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
	"github.com/mogaika/haydee_tools/utils"
)

// Sampler evaluates engine keys against a rest skeleton.
type Sampler struct {
	Skeleton *scene.Skeleton
	Mode     space.RootMode
	Diags    *scene.Diagnostics
	Log      *utils.Logger

	order []int
}

func NewSampler(s *scene.Skeleton, mode space.RootMode, diags *scene.Diagnostics) *Sampler {
	s.LinkChildren()
	return &Sampler{Skeleton: s, Mode: mode, Diags: diags, Log: utils.Verbose, order: s.Order()}
}

// resolve maps key bone names to skeleton indices, reporting every
// unknown name once.
func (sm *Sampler) resolve(names []string) []int {
	result := make([]int, len(names))
	reported := make(map[string]bool)
	for i, name := range names {
		result[i] = sm.Skeleton.Find(utils.BoneNameToTool(name))
		if result[i] < 0 && !reported[name] {
			reported[name] = true
			sm.Diags.Add(hd.UnresolvedReference, name, "bone not found in skeleton %q", sm.Skeleton.Name)
		}
	}
	return result
}

// Evaluate computes world matrices of every bone for one set of keys,
// parents first. Bones without a key keep their rest offset to the parent.
func (sm *Sampler) Evaluate(keys map[int]scene.PoseKey) []mgl64.Mat4 {
	bones := sm.Skeleton.Bones
	world := make([]mgl64.Mat4, len(bones))
	for _, i := range sm.order {
		b := &bones[i]
		key, tracked := keys[i]
		switch {
		case tracked && b.IsRoot():
			world[i] = space.PoseWorld(key, nil, sm.Mode)
		case tracked:
			world[i] = space.PoseWorld(key, &world[b.Parent], sm.Mode)
		case b.IsRoot():
			world[i] = b.World
		default:
			rest := bones[b.Parent].World.Inv().Mul4(b.World)
			world[i] = world[b.Parent].Mul4(rest)
		}
	}
	return world
}

// ApplyPose evaluates a single pose.
func (sm *Sampler) ApplyPose(p *scene.Pose) scene.FramePose {
	names := make([]string, len(p.Transforms))
	for i := range p.Transforms {
		names[i] = p.Transforms[i].Bone
	}
	keys := make(map[int]scene.PoseKey)
	for i, bone := range sm.resolve(names) {
		if bone >= 0 {
			keys[bone] = p.Transforms[i].Key
		}
	}
	return scene.FramePose{Frame: 0, World: sm.Evaluate(keys)}
}

// Sample evaluates every frame of a motion. Tracks whose length differs
// from the frame count are reported and dropped.
func (sm *Sampler) Sample(m *scene.Motion) []scene.FramePose {
	if m.NumFrames < 0 {
		sm.Diags.Add(hd.StructuralMismatch, m.Name, "negative frame count %d", m.NumFrames)
		return nil
	}
	names := make([]string, len(m.Tracks))
	for i := range m.Tracks {
		names[i] = m.Tracks[i].Bone
	}
	bones := sm.resolve(names)

	tracks := make(map[int][]scene.PoseKey)
	for i := range m.Tracks {
		if bones[i] < 0 {
			continue
		}
		if len(m.Tracks[i].Keys) != m.NumFrames {
			sm.Diags.Add(hd.StructuralMismatch, m.Tracks[i].Bone,
				"track has %d keys, motion has %d frames", len(m.Tracks[i].Keys), m.NumFrames)
			continue
		}
		tracks[bones[i]] = m.Tracks[i].Keys
	}

	frames := make([]scene.FramePose, m.NumFrames)
	for f := 0; f < m.NumFrames; f++ {
		keys := make(map[int]scene.PoseKey, len(tracks))
		for bone, track := range tracks {
			keys[bone] = track[f]
		}
		frames[f] = scene.FramePose{Frame: m.FirstFrame + f, World: sm.Evaluate(keys)}
		sm.Log.Printf("[anim] %s frame %d: %d tracks", m.Name, frames[f].Frame, len(keys))
	}
	return frames
}

// Keys converts world matrices back into engine keys for every bone.
func (sm *Sampler) Keys(world []mgl64.Mat4) []scene.BoneKey {
	bones := sm.Skeleton.Bones
	keys := make([]scene.BoneKey, 0, len(bones))
	for _, i := range sm.order {
		var parent *mgl64.Mat4
		if !bones[i].IsRoot() {
			parent = &world[bones[i].Parent]
		}
		keys = append(keys, scene.BoneKey{
			Bone: utils.BoneNameToEngine(bones[i].Name),
			Key:  space.PoseKeyFrom(world[i], parent, sm.Mode),
		})
	}
	return keys
}

// PoseFrom is the inverse of ApplyPose.
func (sm *Sampler) PoseFrom(name string, world []mgl64.Mat4) *scene.Pose {
	return &scene.Pose{Name: name, Transforms: sm.Keys(world)}
}

// MotionFrom is the inverse of Sample: one track per bone in parents first order.
func (sm *Sampler) MotionFrom(name string, frameRate int, frames []scene.FramePose) *scene.Motion {
	m := &scene.Motion{
		Name:       name,
		FrameRate:  frameRate,
		FirstFrame: 1,
		NumFrames:  len(frames),
		Duration:   len(frames),
	}
	if len(frames) != 0 {
		m.FirstFrame = frames[0].Frame
	}
	for f, frame := range frames {
		for ti, bk := range sm.Keys(frame.World) {
			if f == 0 {
				m.Tracks = append(m.Tracks, scene.Track{Bone: bk.Bone, Keys: make([]scene.PoseKey, len(frames))})
			}
			m.Tracks[ti].Keys[f] = bk.Key
		}
	}
	return m
}
