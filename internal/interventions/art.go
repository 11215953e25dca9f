package interventions

import (
	"fmt"

	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// ART adjusts the number of agents on antiretroviral therapy to match a
// capacity schedule: a step function of years to treatment slots. When
// capacity exceeds enrollment, eligible infected agents are enrolled at
// random; when it falls below, enrolled agents are removed.
type ART struct {
	Years    []float64
	Capacity []int
	HIV      *disease.HIV

	stream *rng.Stream
	resCap *results.Series
}

// NewART creates an ART program with the given capacity schedule.
func NewART(years []float64, capacity []int, hiv *disease.HIV) *ART {
	return &ART{Years: years, Capacity: capacity, HIV: hiv}
}

func (a *ART) Name() string { return "art" }

func (a *ART) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	if a.HIV == nil {
		return fmt.Errorf("art: hiv module is required")
	}
	if len(a.Years) == 0 || len(a.Years) != len(a.Capacity) {
		return fmt.Errorf("art: years and capacity must be non-empty and equal length")
	}
	for i := 1; i < len(a.Years); i++ {
		if a.Years[i] <= a.Years[i-1] {
			return fmt.Errorf("art: years must be ascending")
		}
	}
	s, err := reg.Stream("intv.art")
	if err != nil {
		return err
	}
	a.stream = s
	a.resCap = rs.New("art", "capacity")
	return nil
}

func (a *ART) Apply(ti int, year float64, ppl *people.People) {
	if year < a.Years[0] {
		return
	}
	capacity := a.Capacity[0]
	for i, y := range a.Years {
		if y <= year {
			capacity = a.Capacity[i]
		}
	}
	a.resCap.Values[ti] = float64(capacity)

	var onART, eligible []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !a.HIV.Infected.Get(uid) {
			continue
		}
		if a.HIV.OnART.Get(uid) {
			onART = append(onART, uid)
		} else {
			eligible = append(eligible, uid)
		}
	}

	change := capacity - len(onART)
	switch {
	case change > 0 && len(eligible) > 0:
		for _, uid := range a.stream.Choice(eligible, change) {
			a.HIV.OnART.Set(uid, true)
		}
	case change < 0 && len(onART) > 0:
		for _, uid := range a.stream.Choice(onART, -change) {
			a.HIV.OnART.Set(uid, false)
		}
	}
}
