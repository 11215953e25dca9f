// Package params defines the top-level simulation parameter bag with
// defaults, merging, and validation.
package params

import (
	"fmt"
	"strings"
)

// Pars holds the core simulation parameters. Time is measured in fractional
// years; dt is the step length in years.
type Pars struct {
	// NAgents is the initial population size.
	NAgents int `yaml:"n_agents"`
	// Start and Stop are the simulation bounds in years, e.g. 2000 to 2020.
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	// DT is the timestep in years.
	DT float64 `yaml:"dt"`
	// RandSeed seeds every random stream in the run.
	RandSeed uint64 `yaml:"rand_seed"`
	// Label names the run in logs and the run store.
	Label string `yaml:"label"`
}

// Defaults returns the default parameter set: 10k agents, 2000-2020 at a
// one-year step.
func Defaults() Pars {
	return Pars{
		NAgents:  10_000,
		Start:    2000,
		Stop:     2020,
		DT:       1.0,
		RandSeed: 0,
	}
}

// Merge overlays the non-zero fields of other onto p.
func (p Pars) Merge(other Pars) Pars {
	if other.NAgents != 0 {
		p.NAgents = other.NAgents
	}
	if other.Start != 0 {
		p.Start = other.Start
	}
	if other.Stop != 0 {
		p.Stop = other.Stop
	}
	if other.DT != 0 {
		p.DT = other.DT
	}
	if other.RandSeed != 0 {
		p.RandSeed = other.RandSeed
	}
	if other.Label != "" {
		p.Label = other.Label
	}
	return p
}

// Npts returns the number of timesteps, inclusive of both endpoints.
func (p Pars) Npts() int {
	return int((p.Stop-p.Start)/p.DT) + 1
}

// Timevec returns the time axis in fractional years.
func (p Pars) Timevec() []float64 {
	tv := make([]float64, p.Npts())
	for i := range tv {
		tv[i] = p.Start + float64(i)*p.DT
	}
	return tv
}

// Validate reports every problem with the parameter set at once.
func (p Pars) Validate() error {
	var problems []string
	if p.NAgents <= 0 {
		problems = append(problems, fmt.Sprintf("n_agents must be positive, got %d", p.NAgents))
	}
	if p.Stop <= p.Start {
		problems = append(problems, fmt.Sprintf("stop (%v) must be after start (%v)", p.Stop, p.Start))
	}
	if p.DT <= 0 {
		problems = append(problems, fmt.Sprintf("dt must be positive, got %v", p.DT))
	}
	if p.DT > 0 && p.Stop > p.Start && p.DT > p.Stop-p.Start {
		problems = append(problems, "dt is larger than the simulation span")
	}
	if len(problems) > 0 {
		return fmt.Errorf("params: %s", strings.Join(problems, "; "))
	}
	return nil
}
