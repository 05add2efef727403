package geom

import (
	"sort"

	"github.com/mogaika/haydee_tools/scene"
)

// SharpEdges marks edges used by exactly one face of a smoothing group.
// Faces without a group do not take part.
func SharpEdges(faces []scene.Face) []scene.Edge {
	users := make(map[uint32]map[scene.Edge]int)
	for i := range faces {
		f := &faces[i]
		if f.SmoothGroup == 0 {
			continue
		}
		edges, ok := users[f.SmoothGroup]
		if !ok {
			edges = make(map[scene.Edge]int)
			users[f.SmoothGroup] = edges
		}
		forEachEdge(f.Verts, func(e scene.Edge) {
			edges[e]++
		})
	}

	set := make(map[scene.Edge]struct{})
	for _, edges := range users {
		for e, n := range edges {
			if n == 1 {
				set[e] = struct{}{}
			}
		}
	}
	return sortedEdges(set)
}

func forEachEdge(verts []int, f func(e scene.Edge)) {
	prev := verts[len(verts)-1]
	for _, v := range verts {
		f(scene.MakeEdge(prev, v))
		prev = v
	}
}

func sortedEdges(set map[scene.Edge]struct{}) []scene.Edge {
	if len(set) == 0 {
		return nil
	}
	result := make([]scene.Edge, 0, len(set))
	for e := range set {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i][0] != result[j][0] {
			return result[i][0] < result[j][0]
		}
		return result[i][1] < result[j][1]
	})
	return result
}

// SmoothGroups assigns bit flag smoothing groups: faces connected
// through non sharp edges share an island, and islands touching through
// a sharp edge get different bits. A single group collapses to zero.
func SmoothGroups(m *scene.Mesh) []uint32 {
	parent := make([]int, len(m.Faces))
	for i := range parent {
		parent[i] = i
	}
	var find func(i int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	edgeFaces := make(map[scene.Edge][]int)
	for fi := range m.Faces {
		if len(m.Faces[fi].Verts) == 0 {
			continue
		}
		forEachEdge(m.Faces[fi].Verts, func(e scene.Edge) {
			edgeFaces[e] = append(edgeFaces[e], fi)
		})
	}

	for e, faces := range edgeFaces {
		if m.IsSharp(e) {
			continue
		}
		for _, f := range faces[1:] {
			a, b := find(faces[0]), find(f)
			if a != b {
				parent[b] = a
			}
		}
	}

	neighbours := make(map[int]map[int]bool)
	for e, faces := range edgeFaces {
		if !m.IsSharp(e) {
			continue
		}
		for _, fa := range faces {
			for _, fb := range faces {
				a, b := find(fa), find(fb)
				if a == b {
					continue
				}
				if neighbours[a] == nil {
					neighbours[a] = make(map[int]bool)
				}
				neighbours[a][b] = true
			}
		}
	}

	color := make(map[int]uint)
	used := make(map[uint]bool)
	groups := make([]uint32, len(m.Faces))
	for fi := range m.Faces {
		island := find(fi)
		c, ok := color[island]
		if !ok {
			taken := make(map[uint]bool)
			for n := range neighbours[island] {
				if nc, colored := color[n]; colored {
					taken[nc] = true
				}
			}
			for taken[c] {
				c++
			}
			c %= 32
			color[island] = c
			used[c] = true
		}
		groups[fi] = 1 << c
	}

	if len(used) <= 1 {
		for i := range groups {
			groups[i] = 0
		}
	}
	return groups
}
