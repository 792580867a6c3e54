package compare

import (
	"cmp"
	"slices"

	"github.com/upb/llm-footprint/models"
)

// Rank returns a copy of results ordered for display: measured results by
// ascending latency, then every failed or unmeasured result in its original order.
func Rank(results []models.ProviderResult) []models.ProviderResult {
	ranked := slices.Clone(results)
	slices.SortStableFunc(ranked, func(a, b models.ProviderResult) int {
		am, bm := a.Latency.IsMeasured(), b.Latency.IsMeasured()
		switch {
		case am && bm:
			return cmp.Compare(a.Latency.Duration(), b.Latency.Duration())
		case am:
			return -1
		case bm:
			return 1
		default:
			return 0
		}
	})
	return ranked
}
