package sim

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/episim-dev/episim/internal/results"
)

// SweepResult holds one seed's outcome.
type SweepResult struct {
	Seed    uint64
	Results *results.Set
	Err     error
}

// Sweep runs the same scenario across nSeeds seeds in parallel, with at
// most workers runs in flight. build must return a fresh, uninitialized Sim
// for the given seed; sims share nothing, so runs are independent.
func Sweep(ctx context.Context, build func(seed uint64) (*Sim, error), nSeeds, workers int) []SweepResult {
	if workers <= 0 {
		workers = 1
	}
	out := make([]SweepResult, nSeeds)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := 0; i < nSeeds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			seed := uint64(i)
			out[i].Seed = seed
			s, err := build(seed)
			if err != nil {
				out[i].Err = fmt.Errorf("sweep seed %d: %w", seed, err)
				return
			}
			res, err := s.Run(ctx)
			if err != nil {
				out[i].Err = fmt.Errorf("sweep seed %d: %w", seed, err)
				return
			}
			out[i].Results = res
		}(i)
	}
	wg.Wait()
	return out
}

// SweepSummary averages the final value of each series across successful
// seeds. Keys are series keys ("module.name"), sorted for stable output.
func SweepSummary(runs []SweepResult) (keys []string, means map[string]float64, nOK int) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range runs {
		if r.Err != nil || r.Results == nil {
			continue
		}
		nOK++
		for k, v := range r.Results.Summary() {
			sums[k] += v
			counts[k]++
		}
	}
	means = make(map[string]float64, len(sums))
	for k, total := range sums {
		means[k] = total / float64(counts[k])
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, means, nOK
}
