// Package sim orchestrates a simulation run: it owns the population, wires
// modules together, and steps them through time in a fixed order.
//
// The per-step order matches how the pieces depend on each other:
// demographics first (births and background deaths), then network refresh,
// then disease state progression, transmission, interventions, connectors,
// death resolution, and finally result collection.
package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/episim-dev/episim/internal/connector"
	"github.com/episim-dev/episim/internal/demographics"
	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/interventions"
	"github.com/episim-dev/episim/internal/logging"
	"github.com/episim-dev/episim/internal/network"
	"github.com/episim-dev/episim/internal/params"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// Sim is a single simulation run.
type Sim struct {
	Pars    params.Pars
	People  *people.People
	Results *results.Set

	Networks      []network.Network
	Demographics  []demographics.Module
	Diseases      []disease.Disease
	Interventions []interventions.Intervention
	Connectors    []connector.Connector

	// InitialAges supplies starting ages; when nil, ages are drawn
	// uniformly in [0, 70).
	InitialAges *demographics.RateTable

	Log    *slog.Logger
	Tracer *logging.StepTracer

	reg         *rng.Registry
	initialized bool
}

// New creates a simulation from parameters. Modules are attached by the
// caller (or the scenario builder) before Init.
func New(pars params.Pars) *Sim {
	return &Sim{
		Pars: pars,
		Log:  slog.Default(),
	}
}

// Init validates parameters, builds the population, and initializes every
// module in dependency order.
func (s *Sim) Init() error {
	if s.initialized {
		return fmt.Errorf("sim: already initialized")
	}
	if err := s.Pars.Validate(); err != nil {
		return err
	}

	s.reg = rng.NewRegistry(s.Pars.RandSeed)
	s.People = people.New(s.Pars.NAgents)
	s.Results = results.NewSet(s.Pars.Timevec())

	// Population structure: sex then age.
	popStream, err := s.reg.Stream("people")
	if err != nil {
		return err
	}
	for uid := 0; uid < s.People.N(); uid++ {
		s.People.Female.Set(uid, popStream.Float64() < 0.5)
	}
	if s.InitialAges != nil {
		ages := demographics.SampleAges(s.InitialAges, popStream, s.People.N())
		for uid, age := range ages {
			s.People.Age.Set(uid, age)
		}
	} else {
		for uid := 0; uid < s.People.N(); uid++ {
			s.People.Age.Set(uid, popStream.Float64()*70)
		}
	}

	for _, net := range s.Networks {
		if err := net.Init(s.People, s.reg, s.Pars.DT); err != nil {
			return fmt.Errorf("sim: init network %s: %w", net.Name(), err)
		}
	}
	for _, dem := range s.Demographics {
		if err := dem.Init(s.People, s.reg, s.Results, s.Pars.DT); err != nil {
			return fmt.Errorf("sim: init demographic %s: %w", dem.Name(), err)
		}
	}
	for _, d := range s.Diseases {
		if err := d.Init(s.People, s.reg, s.Results, s.Pars.DT); err != nil {
			return fmt.Errorf("sim: init disease %s: %w", d.Name(), err)
		}
	}
	for _, intv := range s.Interventions {
		if err := intv.Init(s.People, s.reg, s.Results, s.Pars.DT); err != nil {
			return fmt.Errorf("sim: init intervention %s: %w", intv.Name(), err)
		}
	}

	if err := s.People.Validate(); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Run executes the full time loop. Init is called automatically if needed.
// Cancellation is checked between steps.
func (s *Sim) Run(ctx context.Context) (*results.Set, error) {
	if !s.initialized {
		if err := s.Init(); err != nil {
			return nil, err
		}
	}
	npts := s.Pars.Npts()
	s.Log.Info("starting run",
		"label", s.Pars.Label,
		"n_agents", s.Pars.NAgents,
		"start", s.Pars.Start,
		"stop", s.Pars.Stop,
		"dt", s.Pars.DT,
		"seed", s.Pars.RandSeed,
	)

	for ti := 0; ti < npts; ti++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("sim: run canceled at step %d: %w", ti, ctx.Err())
		default:
		}
		s.step(ti)
	}

	s.Log.Info("run finished", "label", s.Pars.Label, "n_alive", s.People.NumAlive())
	return s.Results, nil
}

func (s *Sim) step(ti int) {
	year := s.Pars.Start + float64(ti)*s.Pars.DT

	var newborns []int
	for _, dem := range s.Demographics {
		newborns = append(newborns, dem.Update(ti, s.People)...)
	}
	if len(newborns) > 0 {
		for _, net := range s.Networks {
			if mf, ok := net.(*network.MFNet); ok {
				mf.AssignNewborns(newborns, s.People)
			}
		}
	}

	for _, net := range s.Networks {
		net.Update(ti, s.People)
	}
	for _, d := range s.Diseases {
		d.UpdatePre(ti, s.People)
	}
	for _, d := range s.Diseases {
		d.Transmit(ti, s.People, s.Networks)
	}
	for _, intv := range s.Interventions {
		intv.Apply(ti, year, s.People)
	}
	for _, c := range s.Connectors {
		c.Apply(ti, s.People)
	}

	died := s.People.ResolveDeaths(ti)

	for _, d := range s.Diseases {
		d.UpdateResults(ti, s.People)
	}
	for _, dem := range s.Demographics {
		dem.UpdateResults(ti, s.People)
	}

	if ti < s.Pars.Npts()-1 {
		s.People.AgeUp(s.Pars.DT)
	}

	s.Log.Debug("step", "ti", ti, "year", year, "n_alive", s.People.NumAlive(), "deaths", died)
	s.Tracer.LogStep(logging.StepEvent{
		Ti:     ti,
		Year:   year,
		NAlive: s.People.NumAlive(),
		Births: len(newborns),
		Deaths: died,
	})
}
