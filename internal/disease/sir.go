package disease

import (
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// SIR is the classic susceptible-infected-recovered model. Recovery confers
// permanent immunity; a fraction of cases die instead of recovering.
type SIR struct {
	Infection

	// DurInf is the infectious duration distribution in days.
	DurInf dist.Dist
	// PDeath is the probability an infection is fatal.
	PDeath dist.Bernoulli

	Recovered   *people.BoolState
	TiRecovered *people.FloatState
	TiDead      *people.FloatState

	resNRec *results.Series
}

// NewSIR creates an SIR module with default parameters: 10% initial
// prevalence, infectious for about two weeks, rarely fatal.
func NewSIR() *SIR {
	s := &SIR{
		DurInf: dist.LognormEx{Mean: 14, Stdev: 3},
		PDeath: dist.Bernoulli{P: 0.01},
	}
	s.Beta = 0.08
	s.InitPrev = dist.Bernoulli{P: 0.1}
	return s
}

func (s *SIR) Name() string { return "sir" }

func (s *SIR) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	s.Recovered = people.NewBoolState("sir_recovered", false)
	s.TiRecovered = people.NewFloatState("sir_ti_recovered", math.NaN())
	s.TiDead = people.NewFloatState("sir_ti_dead", math.NaN())
	ppl.AddStates(s.Recovered, s.TiRecovered, s.TiDead)

	s.Prognoses = s.setPrognoses
	if err := s.initInfection("sir", ppl, reg, rs, dt); err != nil {
		return err
	}
	s.resNRec = rs.New("sir", "n_recovered")
	return nil
}

func (s *SIR) setPrognoses(ti int, ppl *people.People, uids []int) {
	durs := s.DurInf.Sample(s.PrognStream(), len(uids))
	dead := s.PDeath.Draw(s.PrognStream(), len(uids))
	for i, uid := range uids {
		end := float64(ti) + math.Max(1, s.Steps(durs[i]))
		if dead[i] {
			s.TiDead.Set(uid, end)
		} else {
			s.TiRecovered.Set(uid, end)
		}
	}
}

func (s *SIR) UpdatePre(ti int, ppl *people.People) {
	t := float64(ti)
	var deaths []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !s.Infected.Get(uid) {
			continue
		}
		if r := s.TiRecovered.Get(uid); !math.IsNaN(r) && r <= t {
			s.Infected.Set(uid, false)
			s.Recovered.Set(uid, true)
			continue
		}
		if d := s.TiDead.Get(uid); !math.IsNaN(d) && d <= t {
			deaths = append(deaths, uid)
		}
	}
	if len(deaths) > 0 {
		ppl.RequestDeath(deaths)
	}
}

func (s *SIR) UpdateResults(ti int, ppl *people.People) {
	s.Infection.UpdateResults(ti, ppl)
	n := 0
	for uid := 0; uid < ppl.N(); uid++ {
		if ppl.Alive.Get(uid) && s.Recovered.Get(uid) {
			n++
		}
	}
	s.resNRec.Values[ti] = float64(n)
}
