// Package disease implements the disease modules: the shared infection
// machinery (states, seeding, network transmission) and the concrete
// natural histories (SIR, SIS, HIV, gonorrhea, cholera, ebola).
//
// Each module owns boolean and timestep states registered with the
// population. State progression happens in UpdatePre, new infections in
// Transmit, and per-step series in UpdateResults.
package disease

import (
	"fmt"
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/network"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// DaysPerYear converts natural-history durations, which published models
// specify in days, to the simulation's fractional-year time axis.
const DaysPerYear = 365.0

// Disease is the contract all disease modules satisfy.
type Disease interface {
	// Name identifies the module in results, parameter files, and
	// intervention targets.
	Name() string
	// Init registers states with the population, allocates result series,
	// and seeds initial infections.
	Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error
	// UpdatePre progresses agent states and schedules deaths. Runs before
	// transmission each step.
	UpdatePre(ti int, ppl *people.People)
	// Transmit creates new infections over the contact networks.
	Transmit(ti int, ppl *people.People, nets []network.Network)
	// UpdateResults records the step's series values.
	UpdateResults(ti int, ppl *people.People)
}

// Infection carries the machinery shared by all transmissible diseases:
// the core states, seeding by initial prevalence, and the per-edge
// transmission loop. Concrete diseases embed it and plug in their natural
// history through the Prognoses and InfectiousFn hooks.
type Infection struct {
	// Beta is the per-contact, per-step transmission probability scale.
	Beta float64
	// InitPrev seeds infections at t=0.
	InitPrev dist.Bernoulli

	Susceptible *people.BoolState
	Infected    *people.BoolState
	RelSus      *people.FloatState
	RelTrans    *people.FloatState
	TiInfected  *people.FloatState

	// Prognoses assigns the course of disease for newly infected uids.
	Prognoses func(ti int, ppl *people.People, uids []int)
	// InfectiousFn reports whether uid can transmit; defaults to Infected.
	InfectiousFn func(uid int) bool

	name     string
	dt       float64
	newCases int

	transStream *rng.Stream
	prognStream *rng.Stream

	resNSus, resNInf, resPrev, resNewInf, resCumInf *results.Series
}

// initInfection wires up the shared states, streams, and series. Called by
// the concrete disease's Init after its hooks are set.
func (inf *Infection) initInfection(name string, ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	if inf.Beta < 0 {
		return fmt.Errorf("disease %s: beta %v is negative", name, inf.Beta)
	}
	inf.name = name
	inf.dt = dt

	var err error
	if inf.transStream, err = reg.Stream(name + ".trans"); err != nil {
		return err
	}
	if inf.prognStream, err = reg.Stream(name + ".progn"); err != nil {
		return err
	}

	inf.Susceptible = people.NewBoolState(name+"_susceptible", true)
	inf.Infected = people.NewBoolState(name+"_infected", false)
	inf.RelSus = people.NewFloatState(name+"_rel_sus", 1)
	inf.RelTrans = people.NewFloatState(name+"_rel_trans", 1)
	inf.TiInfected = people.NewFloatState(name+"_ti_infected", math.NaN())
	ppl.AddStates(inf.Susceptible, inf.Infected, inf.RelSus, inf.RelTrans, inf.TiInfected)

	inf.resNSus = rs.New(name, "n_susceptible")
	inf.resNInf = rs.New(name, "n_infected")
	inf.resPrev = rs.New(name, "prevalence")
	inf.resNewInf = rs.New(name, "new_infections")
	inf.resCumInf = rs.New(name, "cum_infections")

	// Seed initial infections.
	seedStream, err := reg.Stream(name + ".init")
	if err != nil {
		return err
	}
	seeds := inf.InitPrev.Filter(seedStream, ppl.AliveUIDs())
	inf.Infect(0, ppl, seeds)
	return nil
}

// Transmissible is satisfied by every disease built on Infection; it gives
// interventions and connectors access to the shared states.
type Transmissible interface {
	Disease
	Base() *Infection
}

// Base returns the shared infection machinery. Promoted through embedding,
// it makes every concrete disease Transmissible.
func (inf *Infection) Base() *Infection { return inf }

// Name returns the disease name.
func (inf *Infection) Name() string { return inf.name }

// DT returns the timestep length in years.
func (inf *Infection) DT() float64 { return inf.dt }

// Steps converts a duration in days to a (fractional) number of timesteps.
func (inf *Infection) Steps(days float64) float64 {
	return days / (inf.dt * DaysPerYear)
}

// PrognStream returns the stream used for prognosis draws.
func (inf *Infection) PrognStream() *rng.Stream { return inf.prognStream }

// Infect marks uids as infected at ti and assigns their prognoses. UIDs
// already infected or not susceptible are skipped.
func (inf *Infection) Infect(ti int, ppl *people.People, uids []int) {
	var fresh []int
	for _, uid := range uids {
		if !inf.Susceptible.Get(uid) || inf.Infected.Get(uid) {
			continue
		}
		fresh = append(fresh, uid)
	}
	if len(fresh) == 0 {
		return
	}
	inf.Susceptible.SetAll(fresh, false)
	inf.Infected.SetAll(fresh, true)
	inf.TiInfected.SetAll(fresh, float64(ti))
	inf.newCases += len(fresh)
	if inf.Prognoses != nil {
		inf.Prognoses(ti, ppl, fresh)
	}
}

func (inf *Infection) infectious(uid int) bool {
	if inf.InfectiousFn != nil {
		return inf.InfectiousFn(uid)
	}
	return inf.Infected.Get(uid)
}

// Transmit runs the per-edge transmission loop over all networks. For each
// edge the acquisition probability is
//
//	beta * edgeBeta * relTrans[src] * relSus[tgt]
//
// applied in both directions on undirected networks and P1 -> P2 only on
// vertical ones. Dead agents neither transmit nor acquire; the networks
// already prune their edges, this guards newly dead within the step.
func (inf *Infection) Transmit(ti int, ppl *people.People, nets []network.Network) {
	var targets []int
	for _, net := range nets {
		e := net.Edges()
		for i := 0; i < e.Len(); i++ {
			targets = inf.tryEdge(e.P1[i], e.P2[i], e.Beta[i], ppl, targets)
			if !net.Vertical() {
				targets = inf.tryEdge(e.P2[i], e.P1[i], e.Beta[i], ppl, targets)
			}
		}
	}
	inf.Infect(ti, ppl, targets)
}

func (inf *Infection) tryEdge(src, tgt int, edgeBeta float64, ppl *people.People, targets []int) []int {
	if !ppl.Alive.Get(src) || !ppl.Alive.Get(tgt) {
		return targets
	}
	if !inf.infectious(src) || !inf.Susceptible.Get(tgt) {
		return targets
	}
	p := inf.Beta * edgeBeta * inf.RelTrans.Get(src) * inf.RelSus.Get(tgt)
	if p <= 0 {
		return targets
	}
	if p > 1 {
		p = 1
	}
	if inf.transStream.Float64() < p {
		targets = append(targets, tgt)
	}
	return targets
}

// UpdateResults records the standard infection series.
func (inf *Infection) UpdateResults(ti int, ppl *people.People) {
	nSus, nInf, nAlive := 0, 0, 0
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) {
			continue
		}
		nAlive++
		if inf.Susceptible.Get(uid) {
			nSus++
		}
		if inf.Infected.Get(uid) {
			nInf++
		}
	}
	inf.resNSus.Values[ti] = float64(nSus)
	inf.resNInf.Values[ti] = float64(nInf)
	if nAlive > 0 {
		inf.resPrev.Values[ti] = float64(nInf) / float64(nAlive)
	}
	inf.resNewInf.Values[ti] = float64(inf.newCases)
	prev := 0.0
	if ti > 0 {
		prev = inf.resCumInf.Values[ti-1]
	}
	inf.resCumInf.Values[ti] = prev + float64(inf.newCases)
	inf.newCases = 0
}
