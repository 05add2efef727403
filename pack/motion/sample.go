package motion

import (
	"log"

	"github.com/mogaika/haydee_tools/anim"
	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/space"
)

func RootMode(m *scene.Motion) space.RootMode {
	if m.RootPre {
		return space.RootPre
	}
	return space.RootPost
}

// Sample evaluates the first motion of a against s and stores the frames in a.
func Sample(a *scene.Asset, s *scene.Skeleton) error {
	if len(a.Motions) == 0 {
		return hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no motion", a.Name)
	}
	m := a.Motions[0]
	a.Frames = anim.NewSampler(s, RootMode(m), &a.Diagnostics).Sample(m)
	if a.Skeleton == nil {
		a.Skeleton = s
	}
	return nil
}

// MotionFor returns the motion of a with root keys in mode. Motions stored
// in another mode are resampled through the skeleton of a.
func MotionFor(a *scene.Asset, mode space.RootMode) (*scene.Motion, error) {
	var src *scene.Motion
	if len(a.Motions) != 0 {
		src = a.Motions[0]
		if RootMode(src) == mode {
			return src, nil
		}
	}

	if a.Skeleton == nil {
		if src == nil {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has no motion", a.Name)
		}
		log.Printf("[motion] %q: no skeleton, root keys stay in %v mode", a.Name, RootMode(src))
		return src, nil
	}

	frames := a.Frames
	if len(frames) == 0 {
		if src == nil {
			return nil, hd.Errorf(hd.MissingRequiredEntry, "Asset %q has neither motion nor frames", a.Name)
		}
		var diags scene.Diagnostics
		frames = anim.NewSampler(a.Skeleton, RootMode(src), &diags).Sample(src)
		diags.Log("motion")
	}

	var diags scene.Diagnostics
	out := anim.NewSampler(a.Skeleton, mode, &diags).MotionFrom(a.Name, DEFAULT_FRAME_RATE, frames)
	out.RootPre = mode == space.RootPre
	if src != nil {
		out.Name = src.Name
		out.FrameRate = src.FrameRate
		out.Duration = src.Duration
	}
	return out, nil
}
