// Package dist provides the probability distributions used for agent-level
// draws: natural-history durations, participation probabilities, initial
// prevalence, and similar. A Dist samples one value per agent from a module's
// random stream, so draws stay reproducible per stream.
package dist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"github.com/episim-dev/episim/internal/rng"
)

// Dist draws n values from a distribution using the given stream.
type Dist interface {
	Sample(s *rng.Stream, n int) []float64
}

// Constant always returns Value. Bare numbers in parameter files become
// constants.
type Constant struct {
	Value float64
}

func (c Constant) Sample(s *rng.Stream, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = c.Value
	}
	return vals
}

// Uniform draws from [Low, High).
type Uniform struct {
	Low, High float64
}

func (u Uniform) Sample(s *rng.Stream, n int) []float64 {
	d := distuv.Uniform{Min: u.Low, Max: u.High, Src: s.Rand()}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = d.Rand()
	}
	return vals
}

// Normal draws from N(Mean, Std).
type Normal struct {
	Mean, Std float64
}

func (nd Normal) Sample(s *rng.Stream, n int) []float64 {
	d := distuv.Normal{Mu: nd.Mean, Sigma: nd.Std, Src: s.Rand()}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = d.Rand()
	}
	return vals
}

// LognormEx is a lognormal parameterized by the mean and standard deviation
// of the resulting distribution (not of the underlying normal). A Stdev of
// zero degenerates to a constant at Mean.
type LognormEx struct {
	Mean, Stdev float64
}

func (l LognormEx) Sample(s *rng.Stream, n int) []float64 {
	if l.Stdev <= 0 || l.Mean <= 0 {
		return Constant{Value: l.Mean}.Sample(s, n)
	}
	sigma2 := math.Log(1 + (l.Stdev*l.Stdev)/(l.Mean*l.Mean))
	mu := math.Log(l.Mean) - sigma2/2
	d := distuv.LogNormal{Mu: mu, Sigma: math.Sqrt(sigma2), Src: s.Rand()}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = d.Rand()
	}
	return vals
}

// Poisson draws counts with the given rate.
type Poisson struct {
	Rate float64
}

func (p Poisson) Sample(s *rng.Stream, n int) []float64 {
	if p.Rate <= 0 {
		return make([]float64, n)
	}
	d := distuv.Poisson{Lambda: p.Rate, Src: s.Rand()}
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = d.Rand()
	}
	return vals
}

// Bernoulli draws true with probability P. Values are returned as 0/1 from
// Sample; Filter and Draw are the usual entry points.
type Bernoulli struct {
	P float64
}

func (b Bernoulli) Sample(s *rng.Stream, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		if s.Float64() < b.P {
			vals[i] = 1
		}
	}
	return vals
}

// Draw returns a boolean mask of n trials.
func (b Bernoulli) Draw(s *rng.Stream, n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = s.Float64() < b.P
	}
	return mask
}

// Filter returns the subset of uids whose trial succeeded.
func (b Bernoulli) Filter(s *rng.Stream, uids []int) []int {
	var out []int
	for _, uid := range uids {
		if s.Float64() < b.P {
			out = append(out, uid)
		}
	}
	return out
}

// RateToProb converts a continuous rate (events per unit time) into the
// probability of at least one event over an interval of length dt.
func RateToProb(rate, dt float64) float64 {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*dt)
}

// Spec is the YAML-facing form of a distribution. A bare number unmarshals
// as a constant; otherwise a mapping selects the distribution by name:
//
//	dur_inf: 14
//	dur_exp2inf: {dist: lognormal, mean: 2.772, stdev: 4.737}
//	debut: {dist: normal, mean: 16, std: 2}
type Spec struct {
	Dist string  `yaml:"dist"`
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
	// Stdev aliases Std for lognormal specs, matching the parameter name
	// used in published model configurations.
	Stdev float64 `yaml:"stdev"`
	Low   float64 `yaml:"low"`
	High  float64 `yaml:"high"`
	Rate  float64 `yaml:"rate"`
	P     float64 `yaml:"p"`
	Value float64 `yaml:"value"`

	scalar  float64
	wasBare bool
}

// UnmarshalYAML accepts either a scalar or a mapping.
func (sp *Spec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var v float64
		if err := node.Decode(&v); err != nil {
			return err
		}
		sp.scalar = v
		sp.wasBare = true
		return nil
	}
	type plain Spec
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*sp = Spec(p)
	return nil
}

// Build converts the spec into a Dist.
func (sp *Spec) Build() (Dist, error) {
	if sp == nil {
		return nil, fmt.Errorf("dist: nil spec")
	}
	if sp.wasBare {
		return Constant{Value: sp.scalar}, nil
	}
	std := sp.Std
	if std == 0 {
		std = sp.Stdev
	}
	switch sp.Dist {
	case "", "constant":
		return Constant{Value: sp.Value}, nil
	case "uniform":
		if sp.High < sp.Low {
			return nil, fmt.Errorf("dist: uniform high %v < low %v", sp.High, sp.Low)
		}
		return Uniform{Low: sp.Low, High: sp.High}, nil
	case "normal":
		return Normal{Mean: sp.Mean, Std: std}, nil
	case "lognormal":
		return LognormEx{Mean: sp.Mean, Stdev: std}, nil
	case "poisson":
		return Poisson{Rate: sp.Rate}, nil
	case "bernoulli":
		if sp.P < 0 || sp.P > 1 {
			return nil, fmt.Errorf("dist: bernoulli p %v outside [0,1]", sp.P)
		}
		return Bernoulli{P: sp.P}, nil
	default:
		return nil, fmt.Errorf("dist: unknown distribution %q", sp.Dist)
	}
}
