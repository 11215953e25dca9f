package demographics

import (
	"github.com/episim-dev/episim/internal/rng"
)

// SampleAges draws n initial ages from a population age-structure table
// (column "value", one row per age bin). Each agent lands in a bin with
// probability proportional to the bin's value and uniformly within the bin;
// the last bin spans five years, matching standard abridged life tables.
func SampleAges(table *RateTable, stream *rng.Stream, n int) []float64 {
	vals := table.Cols["value"]
	total := 0.0
	for _, v := range vals {
		total += v
	}
	ages := make([]float64, n)
	if total <= 0 {
		return ages
	}
	for i := 0; i < n; i++ {
		r := stream.Float64() * total
		idx := len(vals) - 1
		acc := 0.0
		for j, v := range vals {
			acc += v
			if r < acc {
				idx = j
				break
			}
		}
		width := 5.0
		if idx+1 < len(table.Ages) {
			width = table.Ages[idx+1] - table.Ages[idx]
		}
		ages[i] = table.Ages[idx] + stream.Float64()*width
	}
	return ages
}
