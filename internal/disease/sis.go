package disease

import (
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// SIS is the susceptible-infected-susceptible model: recovery returns agents
// to the susceptible pool with no immunity.
type SIS struct {
	Infection

	// DurInf is the infectious duration distribution in days.
	DurInf dist.Dist

	TiRecovered *people.FloatState
}

// NewSIS creates an SIS module with default parameters.
func NewSIS() *SIS {
	s := &SIS{
		DurInf: dist.LognormEx{Mean: 10, Stdev: 2},
	}
	s.Beta = 0.05
	s.InitPrev = dist.Bernoulli{P: 0.05}
	return s
}

func (s *SIS) Name() string { return "sis" }

func (s *SIS) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	s.TiRecovered = people.NewFloatState("sis_ti_recovered", math.NaN())
	ppl.AddStates(s.TiRecovered)
	s.Prognoses = s.setPrognoses
	return s.initInfection("sis", ppl, reg, rs, dt)
}

func (s *SIS) setPrognoses(ti int, ppl *people.People, uids []int) {
	durs := s.DurInf.Sample(s.PrognStream(), len(uids))
	for i, uid := range uids {
		s.TiRecovered.Set(uid, float64(ti)+math.Max(1, s.Steps(durs[i])))
	}
}

func (s *SIS) UpdatePre(ti int, ppl *people.People) {
	t := float64(ti)
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !s.Infected.Get(uid) {
			continue
		}
		if r := s.TiRecovered.Get(uid); !math.IsNaN(r) && r <= t {
			s.Infected.Set(uid, false)
			s.Susceptible.Set(uid, true)
		}
	}
}
