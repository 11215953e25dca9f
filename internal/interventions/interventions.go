// Package interventions implements the actions that modify simulation state
// at specified times: routine and campaign vaccination, and ART capacity
// scheduling. Interventions apply after transmission each step.
package interventions

import (
	"fmt"
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/product"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// Intervention is the contract all interventions satisfy.
type Intervention interface {
	Name() string
	Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error
	Apply(ti int, year float64, ppl *people.People)
}

// RoutineVax delivers a vaccine product to a per-step fraction of the
// eligible population between StartYear and EndYear.
type RoutineVax struct {
	// StartYear and EndYear bound the program; EndYear zero means open-ended.
	StartYear float64
	EndYear   float64
	// Prob is the per-step coverage probability among the eligible.
	Prob float64
	// AgeMin and AgeMax bound eligibility; AgeMax zero means unbounded.
	AgeMin float64
	AgeMax float64
	// Product is the vaccine delivered.
	Product *product.Vaccine
	// Target is the disease the product protects against.
	Target disease.Transmissible

	Vaccinated *people.BoolState
	TiVax      *people.FloatState

	stream   *rng.Stream
	resDoses *results.Series
	resCum   *results.Series
	doses    int
}

// NewRoutineVax creates a routine vaccination program.
func NewRoutineVax(start, prob float64, prod *product.Vaccine, target disease.Transmissible) *RoutineVax {
	return &RoutineVax{StartYear: start, Prob: prob, Product: prod, Target: target}
}

func (rv *RoutineVax) Name() string { return "routine_vax" }

func (rv *RoutineVax) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	if rv.Product == nil || rv.Target == nil {
		return fmt.Errorf("routine_vax: product and target disease are required")
	}
	if err := rv.Product.Validate(); err != nil {
		return err
	}
	if rv.Prob < 0 || rv.Prob > 1 {
		return fmt.Errorf("routine_vax: prob %v outside [0,1]", rv.Prob)
	}
	s, err := reg.Stream("intv.routine_vax." + rv.Target.Name())
	if err != nil {
		return err
	}
	rv.stream = s

	rv.Vaccinated = people.NewBoolState("vax_"+rv.Target.Name(), false)
	rv.TiVax = people.NewFloatState("ti_vax_"+rv.Target.Name(), math.NaN())
	ppl.AddStates(rv.Vaccinated, rv.TiVax)

	rv.resDoses = rs.New("routine_vax", "n_doses")
	rv.resCum = rs.New("routine_vax", "cum_doses")
	return nil
}

func (rv *RoutineVax) Apply(ti int, year float64, ppl *people.People) {
	defer rv.record(ti)
	if year < rv.StartYear || (rv.EndYear > 0 && year > rv.EndYear) {
		return
	}
	var eligible []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || rv.Vaccinated.Get(uid) {
			continue
		}
		age := ppl.Age.Get(uid)
		if age < rv.AgeMin || (rv.AgeMax > 0 && age > rv.AgeMax) {
			continue
		}
		eligible = append(eligible, uid)
	}
	uids := dist.Bernoulli{P: rv.Prob}.Filter(rv.stream, eligible)
	if len(uids) == 0 {
		return
	}
	rv.Product.Administer(rv.Target.Base(), rv.stream, uids)
	rv.Vaccinated.SetAll(uids, true)
	rv.TiVax.SetAll(uids, float64(ti))
	rv.doses += len(uids)
}

func (rv *RoutineVax) record(ti int) {
	rv.resDoses.Values[ti] = float64(rv.doses)
	prev := 0.0
	if ti > 0 {
		prev = rv.resCum.Values[ti-1]
	}
	rv.resCum.Values[ti] = prev + float64(rv.doses)
	rv.doses = 0
}

// CampaignVax delivers a one-shot vaccination round at each listed year,
// covering a fraction of the whole living population.
type CampaignVax struct {
	Years    []float64
	Coverage float64
	Product  *product.Vaccine
	Target   disease.Transmissible

	stream   *rng.Stream
	done     []bool
	resDoses *results.Series
	doses    int
}

// NewCampaignVax creates a campaign vaccination at the given years.
func NewCampaignVax(years []float64, coverage float64, prod *product.Vaccine, target disease.Transmissible) *CampaignVax {
	return &CampaignVax{Years: years, Coverage: coverage, Product: prod, Target: target}
}

func (cv *CampaignVax) Name() string { return "campaign_vax" }

func (cv *CampaignVax) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	if cv.Product == nil || cv.Target == nil {
		return fmt.Errorf("campaign_vax: product and target disease are required")
	}
	if err := cv.Product.Validate(); err != nil {
		return err
	}
	s, err := reg.Stream("intv.campaign_vax." + cv.Target.Name())
	if err != nil {
		return err
	}
	cv.stream = s
	cv.done = make([]bool, len(cv.Years))
	cv.resDoses = rs.New("campaign_vax", "n_doses")
	return nil
}

func (cv *CampaignVax) Apply(ti int, year float64, ppl *people.People) {
	defer func() {
		cv.resDoses.Values[ti] = float64(cv.doses)
		cv.doses = 0
	}()
	for k, y := range cv.Years {
		if cv.done[k] || year < y {
			continue
		}
		cv.done[k] = true
		uids := dist.Bernoulli{P: cv.Coverage}.Filter(cv.stream, ppl.AliveUIDs())
		cv.Product.Administer(cv.Target.Base(), cv.stream, uids)
		cv.doses += len(uids)
	}
}
