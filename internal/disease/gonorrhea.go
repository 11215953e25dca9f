package disease

import (
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// Gonorrhea is an STI with Poisson-distributed infectious duration. Cases
// either clear back to susceptible (no lasting immunity) or, untreated,
// progress to death with probability PDeath.
type Gonorrhea struct {
	Infection

	// DurInfDays is the mean infectious duration in days.
	DurInfDays float64
	// PDeath is the probability an infection is fatal.
	PDeath dist.Bernoulli

	TiRecovered *people.FloatState
	TiDead      *people.FloatState
}

// NewGonorrhea creates a gonorrhea module with default parameters.
func NewGonorrhea() *Gonorrhea {
	g := &Gonorrhea{
		DurInfDays: 90,
		PDeath:     dist.Bernoulli{P: 0.02},
	}
	g.Beta = 0.06
	g.InitPrev = dist.Bernoulli{P: 0.02}
	return g
}

func (g *Gonorrhea) Name() string { return "gonorrhea" }

func (g *Gonorrhea) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	g.TiRecovered = people.NewFloatState("gonorrhea_ti_recovered", math.NaN())
	g.TiDead = people.NewFloatState("gonorrhea_ti_dead", math.NaN())
	ppl.AddStates(g.TiRecovered, g.TiDead)
	g.Prognoses = g.setPrognoses
	return g.initInfection("gonorrhea", ppl, reg, rs, dt)
}

func (g *Gonorrhea) setPrognoses(ti int, ppl *people.People, uids []int) {
	durs := dist.Poisson{Rate: g.Steps(g.DurInfDays)}.Sample(g.PrognStream(), len(uids))
	dead := g.PDeath.Draw(g.PrognStream(), len(uids))
	for i, uid := range uids {
		end := float64(ti) + math.Max(1, durs[i])
		if dead[i] {
			g.TiDead.Set(uid, end)
		} else {
			g.TiRecovered.Set(uid, end)
		}
	}
}

func (g *Gonorrhea) UpdatePre(ti int, ppl *people.People) {
	t := float64(ti)
	var deaths []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !g.Infected.Get(uid) {
			continue
		}
		if r := g.TiRecovered.Get(uid); !math.IsNaN(r) && r <= t {
			g.Infected.Set(uid, false)
			g.Susceptible.Set(uid, true)
			continue
		}
		if d := g.TiDead.Get(uid); !math.IsNaN(d) && d <= t {
			deaths = append(deaths, uid)
		}
	}
	if len(deaths) > 0 {
		ppl.RequestDeath(deaths)
	}
}
