package disease

import (
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// Ebola models an exposed -> infected -> severe course where both severe
// cases and unburied corpses transmit at elevated rates. Burial may be safe
// (immediate) or unsafe (delayed); the agent keeps transmitting until
// burial, at which point the death is resolved.
type Ebola struct {
	Infection

	// Natural history durations, in days.
	DurExp2Symp    dist.Dist
	DurSymp2Sev    dist.Dist
	DurSev2Dead    dist.Dist
	DurDead2Buried dist.Dist
	DurSymp2Rec    dist.Dist
	DurSev2Rec     dist.Dist
	PSev           dist.Bernoulli
	PDeath         dist.Bernoulli
	PSafeBury      dist.Bernoulli
	// SevFactor and UnburiedFactor raise the relative transmissibility of
	// severe cases and unburied corpses.
	SevFactor      float64
	UnburiedFactor float64

	Exposed     *people.BoolState
	Severe      *people.BoolState
	Recovered   *people.BoolState
	Deceased    *people.BoolState // dead but possibly not yet buried
	Buried      *people.BoolState
	TiExposed   *people.FloatState
	TiSevere    *people.FloatState
	TiRecovered *people.FloatState
	TiDead      *people.FloatState
	TiBuried    *people.FloatState

	resNSevere *results.Series
	resNDead   *results.Series
}

// NewEbola creates an ebola module with published default parameters.
func NewEbola() *Ebola {
	e := &Ebola{
		DurExp2Symp:    dist.LognormEx{Mean: 12.7, Stdev: 3},
		DurSymp2Sev:    dist.LognormEx{Mean: 6, Stdev: 2},
		DurSev2Dead:    dist.LognormEx{Mean: 1.5, Stdev: 0.5},
		DurDead2Buried: dist.LognormEx{Mean: 2, Stdev: 1},
		DurSymp2Rec:    dist.LognormEx{Mean: 10, Stdev: 3},
		DurSev2Rec:     dist.LognormEx{Mean: 10.4, Stdev: 3},
		PSev:           dist.Bernoulli{P: 0.7},
		PDeath:         dist.Bernoulli{P: 0.55},
		PSafeBury:      dist.Bernoulli{P: 0.25},
		SevFactor:      2.2,
		UnburiedFactor: 2.1,
	}
	e.Beta = 0.3
	e.InitPrev = dist.Bernoulli{P: 0.005}
	return e
}

func (e *Ebola) Name() string { return "ebola" }

func (e *Ebola) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	e.Exposed = people.NewBoolState("ebola_exposed", false)
	e.Severe = people.NewBoolState("ebola_severe", false)
	e.Recovered = people.NewBoolState("ebola_recovered", false)
	e.Deceased = people.NewBoolState("ebola_deceased", false)
	e.Buried = people.NewBoolState("ebola_buried", false)
	e.TiExposed = people.NewFloatState("ebola_ti_exposed", math.NaN())
	e.TiSevere = people.NewFloatState("ebola_ti_severe", math.NaN())
	e.TiRecovered = people.NewFloatState("ebola_ti_recovered", math.NaN())
	e.TiDead = people.NewFloatState("ebola_ti_dead", math.NaN())
	e.TiBuried = people.NewFloatState("ebola_ti_buried", math.NaN())
	ppl.AddStates(e.Exposed, e.Severe, e.Recovered, e.Deceased, e.Buried,
		e.TiExposed, e.TiSevere, e.TiRecovered, e.TiDead, e.TiBuried)

	e.Prognoses = e.setPrognoses
	e.InfectiousFn = func(uid int) bool {
		return e.Exposed.Get(uid) || e.Infected.Get(uid) || (e.Deceased.Get(uid) && !e.Buried.Get(uid))
	}

	if err := e.initInfection("ebola", ppl, reg, rs, dt); err != nil {
		return err
	}
	e.resNSevere = rs.New("ebola", "n_severe")
	e.resNDead = rs.New("ebola", "cum_deaths")
	return nil
}

func (e *Ebola) setPrognoses(ti int, ppl *people.People, uids []int) {
	s := e.PrognStream()
	t := float64(ti)

	// Newly infected agents start exposed, not yet symptomatic.
	for _, uid := range uids {
		e.Infected.Set(uid, false)
		e.Exposed.Set(uid, true)
		e.TiExposed.Set(uid, t)
	}

	incub := e.DurExp2Symp.Sample(s, len(uids))
	for i, uid := range uids {
		e.TiInfected.Set(uid, t+math.Max(1, e.Steps(incub[i])))
	}

	sev := e.PSev.Filter(s, uids)
	isSev := make(map[int]bool, len(sev))
	for _, uid := range sev {
		isSev[uid] = true
		d := e.DurSymp2Sev.Sample(s, 1)[0]
		e.TiSevere.Set(uid, e.TiInfected.Get(uid)+math.Max(1, e.Steps(d)))
	}

	dead := e.PDeath.Filter(s, sev)
	isDead := make(map[int]bool, len(dead))
	for _, uid := range dead {
		isDead[uid] = true
		d := e.DurSev2Dead.Sample(s, 1)[0]
		e.TiDead.Set(uid, e.TiSevere.Get(uid)+math.Max(1, e.Steps(d)))
	}

	// Survivors recover, from severe or mild disease respectively.
	for _, uid := range sev {
		if isDead[uid] {
			continue
		}
		d := e.DurSev2Rec.Sample(s, 1)[0]
		e.TiRecovered.Set(uid, e.TiSevere.Get(uid)+math.Max(1, e.Steps(d)))
	}
	for _, uid := range uids {
		if isSev[uid] {
			continue
		}
		d := e.DurSymp2Rec.Sample(s, 1)[0]
		e.TiRecovered.Set(uid, e.TiInfected.Get(uid)+math.Max(1, e.Steps(d)))
	}

	// Burial timing: safe burials are immediate, unsafe ones are delayed
	// and keep the corpse infectious in the meantime.
	safe := e.PSafeBury.Filter(s, dead)
	isSafe := make(map[int]bool, len(safe))
	for _, uid := range safe {
		isSafe[uid] = true
		e.TiBuried.Set(uid, e.TiDead.Get(uid))
	}
	for _, uid := range dead {
		if isSafe[uid] {
			continue
		}
		d := e.DurDead2Buried.Sample(s, 1)[0]
		e.TiBuried.Set(uid, e.TiDead.Get(uid)+math.Max(1, e.Steps(d)))
	}
}

func (e *Ebola) UpdatePre(ti int, ppl *people.People) {
	t := float64(ti)
	var buried []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) {
			continue
		}

		if e.Exposed.Get(uid) && e.TiInfected.Get(uid) <= t {
			e.Exposed.Set(uid, false)
			e.Infected.Set(uid, true)
		}
		if e.Infected.Get(uid) && !e.Deceased.Get(uid) {
			if s := e.TiSevere.Get(uid); !math.IsNaN(s) && s <= t {
				e.Severe.Set(uid, true)
				e.RelTrans.Set(uid, e.SevFactor)
			}
			if r := e.TiRecovered.Get(uid); !math.IsNaN(r) && r <= t {
				e.Infected.Set(uid, false)
				e.Severe.Set(uid, false)
				e.Recovered.Set(uid, true)
				e.RelTrans.Set(uid, 1)
				continue
			}
			if d := e.TiDead.Get(uid); !math.IsNaN(d) && d <= t {
				// The agent is dead but transmits until buried; the
				// population-level death resolves at burial.
				e.Deceased.Set(uid, true)
				e.Infected.Set(uid, false)
				e.Severe.Set(uid, false)
				e.RelTrans.Set(uid, e.UnburiedFactor)
			}
		}
		if e.Deceased.Get(uid) && !e.Buried.Get(uid) {
			if b := e.TiBuried.Get(uid); !math.IsNaN(b) && b <= t {
				e.Buried.Set(uid, true)
				e.RelTrans.Set(uid, 1)
				buried = append(buried, uid)
			}
		}
	}
	if len(buried) > 0 {
		ppl.RequestDeath(buried)
	}
}

func (e *Ebola) UpdateResults(ti int, ppl *people.People) {
	e.Infection.UpdateResults(ti, ppl)
	nSev := 0
	nDead := 0
	for uid := 0; uid < ppl.N(); uid++ {
		if ppl.Alive.Get(uid) && e.Severe.Get(uid) {
			nSev++
		}
		if e.Deceased.Get(uid) {
			nDead++
		}
	}
	e.resNSevere.Values[ti] = float64(nSev)
	e.resNDead.Values[ti] = float64(nDead)
}
