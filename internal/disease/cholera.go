package disease

import (
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/network"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// Cholera models an exposed-infected-symptomatic course with an
// environmental reservoir: infectious agents shed bacteria into a shared
// water compartment whose concentration drives an additional route of
// infection alongside person-to-person contact. Asymptomatic carriers shed
// and transmit at a strongly reduced rate.
type Cholera struct {
	Infection

	// Natural history durations, in days.
	DurExp2Inf   dist.Dist
	DurAsymp2Rec dist.Dist
	DurSymp2Rec  dist.Dist
	DurSymp2Dead dist.Dist
	PDeath       dist.Bernoulli
	PSymp        dist.Bernoulli
	// AsympTrans is the relative transmissibility of asymptomatic carriers.
	AsympTrans float64

	// Environmental reservoir parameters.
	BetaEnv      float64 // scaling of environmental transmission
	HalfSatRate  float64 // dose at which infection probability is half-maximal
	SheddingRate float64 // bacteria shed per infectious agent per day
	DecayRate    float64 // reservoir decay per day

	Exposed     *people.BoolState
	Symptomatic *people.BoolState
	Recovered   *people.BoolState
	TiExposed   *people.FloatState
	TiSymp      *people.FloatState
	TiRecovered *people.FloatState
	TiDead      *people.FloatState

	envConc float64

	resNewDeaths *results.Series
	resCumDeaths *results.Series
	resEnvConc   *results.Series
	newDeaths    int
}

// NewCholera creates a cholera module with published default parameters.
func NewCholera() *Cholera {
	c := &Cholera{
		DurExp2Inf:   dist.LognormEx{Mean: 2.772, Stdev: 4.737},
		DurAsymp2Rec: dist.Uniform{Low: 1, High: 10},
		DurSymp2Rec:  dist.LognormEx{Mean: 5, Stdev: 1.8},
		DurSymp2Dead: dist.LognormEx{Mean: 1, Stdev: 0.5},
		PDeath:       dist.Bernoulli{P: 0.005},
		PSymp:        dist.Bernoulli{P: 0.5},
		AsympTrans:   0.01,
		BetaEnv:      0.5 / 3,
		HalfSatRate:  1e6,
		SheddingRate: 10,
		DecayRate:    0.033,
	}
	c.Beta = 0.3
	c.InitPrev = dist.Bernoulli{P: 0.005}
	return c
}

func (c *Cholera) Name() string { return "cholera" }

func (c *Cholera) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	c.Exposed = people.NewBoolState("cholera_exposed", false)
	c.Symptomatic = people.NewBoolState("cholera_symptomatic", false)
	c.Recovered = people.NewBoolState("cholera_recovered", false)
	c.TiExposed = people.NewFloatState("cholera_ti_exposed", math.NaN())
	c.TiSymp = people.NewFloatState("cholera_ti_symptomatic", math.NaN())
	c.TiRecovered = people.NewFloatState("cholera_ti_recovered", math.NaN())
	c.TiDead = people.NewFloatState("cholera_ti_dead", math.NaN())
	ppl.AddStates(c.Exposed, c.Symptomatic, c.Recovered, c.TiExposed, c.TiSymp, c.TiRecovered, c.TiDead)

	c.Prognoses = c.setPrognoses
	c.InfectiousFn = func(uid int) bool { return c.Infected.Get(uid) || c.Exposed.Get(uid) }

	if err := c.initInfection("cholera", ppl, reg, rs, dt); err != nil {
		return err
	}
	c.resNewDeaths = rs.New("cholera", "new_deaths")
	c.resCumDeaths = rs.New("cholera", "cum_deaths")
	c.resEnvConc = rs.New("cholera", "env_conc")
	return nil
}

// setPrognoses follows the exposed -> infected -> (a)symptomatic branches:
// exposure at ti, symptom onset (or silent infection) after the incubation
// draw, then recovery or death.
func (c *Cholera) setPrognoses(ti int, ppl *people.People, uids []int) {
	s := c.PrognStream()
	t := float64(ti)

	// The base machinery sets infected=true on entry; cholera agents start
	// in the exposed compartment instead.
	for _, uid := range uids {
		c.Infected.Set(uid, false)
		c.Exposed.Set(uid, true)
		c.TiExposed.Set(uid, t)
	}

	incub := c.DurExp2Inf.Sample(s, len(uids))
	for i, uid := range uids {
		c.TiInfected.Set(uid, t+math.Max(1, c.Steps(incub[i])))
	}

	symp := c.PSymp.Filter(s, uids)
	isSymp := make(map[int]bool, len(symp))
	for _, uid := range symp {
		isSymp[uid] = true
		c.TiSymp.Set(uid, c.TiInfected.Get(uid))
	}

	// Asymptomatic carriers clear within days and transmit weakly.
	for _, uid := range uids {
		if isSymp[uid] {
			continue
		}
		rec := c.DurAsymp2Rec.Sample(s, 1)[0]
		c.TiRecovered.Set(uid, c.TiInfected.Get(uid)+math.Max(1, c.Steps(rec)))
		c.RelTrans.Set(uid, c.AsympTrans)
	}

	dead := c.PDeath.Filter(s, symp)
	isDead := make(map[int]bool, len(dead))
	for _, uid := range dead {
		isDead[uid] = true
		d := c.DurSymp2Dead.Sample(s, 1)[0]
		c.TiDead.Set(uid, c.TiSymp.Get(uid)+math.Max(1, c.Steps(d)))
	}
	for _, uid := range symp {
		if isDead[uid] {
			continue
		}
		r := c.DurSymp2Rec.Sample(s, 1)[0]
		c.TiRecovered.Set(uid, c.TiSymp.Get(uid)+math.Max(1, c.Steps(r)))
	}
}

func (c *Cholera) UpdatePre(ti int, ppl *people.People) {
	t := float64(ti)
	var deaths []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) {
			continue
		}
		if c.Exposed.Get(uid) && c.TiInfected.Get(uid) <= t {
			c.Exposed.Set(uid, false)
			c.Infected.Set(uid, true)
		}
		if c.Infected.Get(uid) {
			if s := c.TiSymp.Get(uid); !math.IsNaN(s) && s <= t {
				c.Symptomatic.Set(uid, true)
			}
		}
		if c.Exposed.Get(uid) || c.Infected.Get(uid) {
			if r := c.TiRecovered.Get(uid); !math.IsNaN(r) && r <= t {
				c.Exposed.Set(uid, false)
				c.Infected.Set(uid, false)
				c.Symptomatic.Set(uid, false)
				c.Recovered.Set(uid, true)
				continue
			}
			if d := c.TiDead.Get(uid); !math.IsNaN(d) && d <= t {
				deaths = append(deaths, uid)
			}
		}
	}
	if len(deaths) > 0 {
		ppl.RequestDeath(deaths)
		c.newDeaths += len(deaths)
	}

	// Reservoir dynamics: shedding by the infectious, exponential decay.
	stepDays := c.DT() * DaysPerYear
	nInfectious := 0
	for uid := 0; uid < ppl.N(); uid++ {
		if ppl.Alive.Get(uid) && (c.Infected.Get(uid) || c.Exposed.Get(uid)) {
			nInfectious++
		}
	}
	c.envConc += (c.SheddingRate*float64(nInfectious) - c.DecayRate*c.envConc) * stepDays
	if c.envConc < 0 {
		c.envConc = 0
	}
}

// Transmit adds environmental acquisition on top of contact transmission.
// The per-step probability saturates with reservoir concentration.
func (c *Cholera) Transmit(ti int, ppl *people.People, nets []network.Network) {
	c.Infection.Transmit(ti, ppl, nets)

	if c.envConc <= 0 {
		return
	}
	pEnv := c.BetaEnv * c.envConc / (c.envConc + c.HalfSatRate)
	if pEnv <= 0 {
		return
	}
	var targets []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !c.Susceptible.Get(uid) {
			continue
		}
		p := pEnv * c.RelSus.Get(uid)
		if p > 1 {
			p = 1
		}
		if c.transStream.Float64() < p {
			targets = append(targets, uid)
		}
	}
	c.Infect(ti, ppl, targets)
}

func (c *Cholera) UpdateResults(ti int, ppl *people.People) {
	c.Infection.UpdateResults(ti, ppl)
	c.resNewDeaths.Values[ti] = float64(c.newDeaths)
	prev := 0.0
	if ti > 0 {
		prev = c.resCumDeaths.Values[ti-1]
	}
	c.resCumDeaths.Values[ti] = prev + float64(c.newDeaths)
	c.resEnvConc.Values[ti] = c.envConc
	c.newDeaths = 0
}
