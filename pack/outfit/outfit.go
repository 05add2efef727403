package outfit

import (
	"io"
	"log"

	"github.com/mogaika/haydee_tools/hd"
	"github.com/mogaika/haydee_tools/hd/txt"
	"github.com/mogaika/haydee_tools/pack"
	_ "github.com/mogaika/haydee_tools/pack/mesh"
	_ "github.com/mogaika/haydee_tools/pack/mtl"
	_ "github.com/mogaika/haydee_tools/pack/skin"
	"github.com/mogaika/haydee_tools/scene"
	"github.com/mogaika/haydee_tools/utils"
)

const (
	// statement depth of the outfit name and of the part references
	DEPTH_NAME = 1
	DEPTH_PART = 2
)

func argument(n *txt.Node, diags *scene.Diagnostics) (string, bool) {
	s, err := n.Arg(0)
	if err != nil {
		diags.Add(hd.KindOrDefault(err, hd.ArityMismatch), n.Record(), "%v", err)
		return "", false
	}
	return s, true
}

// Parse collects the outfit name and its parts. A skin or material
// reference belongs to the last mesh before it.
func Parse(doc *txt.Document, name string, diags *scene.Diagnostics) *scene.Outfit {
	o := &scene.Outfit{Name: name}
	var parts []scene.OutfitPart

	doc.Walk(func(n *txt.Node) {
		switch {
		case n.Key == "outfit" && n.Depth == 0 && len(n.Args) != 0:
			o.Name = n.Args[0]
		case n.Key == "name" && n.Depth == DEPTH_NAME:
			if s, ok := argument(n, diags); ok {
				o.Name = s
			}
		case n.Depth == DEPTH_PART && (n.Key == "mesh" || n.Key == "skin" || n.Key == "material"):
			ref, ok := argument(n, diags)
			if !ok {
				return
			}
			if n.Key == "mesh" {
				parts = append(parts, scene.OutfitPart{Mesh: ref})
				return
			}
			if len(parts) == 0 {
				diags.Add(hd.StructuralMismatch, n.Record(), "%s before any mesh", n.Key)
				return
			}
			if n.Key == "skin" {
				parts[len(parts)-1].Skin = ref
			} else {
				parts[len(parts)-1].Material = ref
			}
		}
	})

	for _, p := range parts {
		o.AddPart(p)
	}
	return o
}

type loaded struct {
	asset *scene.Asset
	err   error
}

// Assemble loads the parts of a.Outfit, which was read from path, into a.
// Missing or broken part files are reported and skipped.
func Assemble(a *scene.Asset, path string) {
	refs := make(map[string]string)
	var paths []string
	for _, p := range a.Outfit.Parts {
		for _, ref := range []string{p.Mesh, p.Skin, p.Material} {
			if ref == "" {
				continue
			}
			if _, ok := refs[ref]; !ok {
				refs[ref] = pack.ResolveOutfitRef(path, ref)
				paths = append(paths, refs[ref])
			}
		}
	}

	files := make(map[string]loaded, len(paths))
	pack.LoadBatch(paths, func(path string, fa *scene.Asset, err error) {
		files[path] = loaded{asset: fa, err: err}
	})
	reported := make(map[string]bool, len(paths))
	get := func(ref string) *scene.Asset {
		f := files[refs[ref]]
		if !reported[ref] {
			reported[ref] = true
			if f.err != nil {
				a.Diagnostics.Add(hd.UnresolvedReference, ref, "%v", f.err)
			} else {
				a.Diagnostics.Append(f.asset.Diagnostics)
			}
		}
		return f.asset
	}

	for _, p := range a.Outfit.Parts {
		ma := get(p.Mesh)
		if ma == nil {
			continue
		}
		adoptSkeleton(a, ma.Skeleton)

		var skin *scene.Asset
		if p.Skin != "" {
			if skin = get(p.Skin); skin != nil {
				adoptSkeleton(a, skin.Skeleton)
			}
		}
		var material *scene.Material
		if p.Material != "" {
			if mat := get(p.Material); mat != nil && len(mat.Materials) != 0 {
				material = addMaterial(a, mat.Materials[0])
			}
		}

		for _, src := range ma.Meshes {
			m := *src
			if skin != nil && skin.Skin != nil {
				if err := skin.Skin.Apply(&m); err != nil {
					a.Diagnostics.Add(hd.KindOrDefault(err, hd.StructuralMismatch), p.Skin, "%v", err)
				}
			}
			if material != nil {
				m.Material = material.Name
			}
			a.Meshes = append(a.Meshes, &m)
		}
	}
	log.Printf("[outfit] %q: %d parts, %d meshes, %d materials", a.Name, len(a.Outfit.Parts), len(a.Meshes), len(a.Materials))
}

func adoptSkeleton(a *scene.Asset, s *scene.Skeleton) {
	if s == nil {
		return
	}
	if a.Skeleton == nil {
		a.Skeleton = &scene.Skeleton{Name: a.Name}
	}
	a.Skeleton.Adopt(s)
}

func addMaterial(a *scene.Asset, m *scene.Material) *scene.Material {
	for _, e := range a.Materials {
		if e.Name == m.Name {
			return e
		}
	}
	a.Materials = append(a.Materials, m)
	return m
}

func load(src utils.ResourceSource, r *io.SectionReader) (*scene.Asset, error) {
	data, err := pack.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := txt.Parse(data)
	if err != nil {
		return nil, err
	}

	a := &scene.Asset{Name: pack.AssetName(src), Source: src.Name()}
	a.Outfit = Parse(doc, a.Name, &a.Diagnostics)
	a.Name = a.Outfit.Name
	Assemble(a, pack.SourcePath(src))
	return a, nil
}

func init() {
	pack.SetHandler(".OUTFIT", load)
}
