package geom

import (
	"sort"

	"github.com/mogaika/haydee_tools/scene"
)

// NormalizeWeights keeps positive weights sorted by descending weight and
// scales them to sum to one. Vertices without positive weight get nil.
func NormalizeWeights(ws []scene.VertexWeight) []scene.VertexWeight {
	result := make([]scene.VertexWeight, 0, len(ws))
	sum := 0.0
	for _, w := range ws {
		if w.Weight > 0 {
			result = append(result, w)
			sum += w.Weight
		}
	}
	if sum == 0 {
		return nil
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})
	for i := range result {
		result[i].Weight /= sum
	}
	return result
}
