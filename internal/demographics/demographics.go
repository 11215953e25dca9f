// Package demographics implements vital dynamics: births, background
// mortality, and pregnancy with maternal-network wiring. Rates may be crude
// (population-wide) or age-specific, loaded from CSV rate tables.
package demographics

import (
	"fmt"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// Module is the contract demographic modules satisfy. Update runs at the
// start of each step and returns the UIDs of agents born this step, if any.
type Module interface {
	Name() string
	Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error
	Update(ti int, ppl *people.People) (newborns []int)
	UpdateResults(ti int, ppl *people.People)
}

// Births grows the population at a crude birth rate.
type Births struct {
	// Rate is the crude birth rate per 1000 population per year.
	Rate float64
	// PFemale is the probability a newborn is female.
	PFemale float64

	dt     float64
	stream *rng.Stream

	resBirths *results.Series
	resCum    *results.Series
	born      int
}

// NewBirths creates a births module at the given crude rate.
func NewBirths(rate float64) *Births {
	return &Births{Rate: rate, PFemale: 0.5}
}

func (b *Births) Name() string { return "births" }

func (b *Births) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	if b.Rate < 0 {
		return fmt.Errorf("births: rate %v is negative", b.Rate)
	}
	s, err := reg.Stream("births")
	if err != nil {
		return err
	}
	b.stream = s
	b.dt = dt
	if b.PFemale == 0 {
		b.PFemale = 0.5
	}
	b.resBirths = rs.New("births", "new")
	b.resCum = rs.New("births", "cumulative")
	return nil
}

func (b *Births) Update(ti int, ppl *people.People) []int {
	mean := b.Rate / 1000 * float64(ppl.NumAlive()) * b.dt
	n := int(dist.Poisson{Rate: mean}.Sample(b.stream, 1)[0])
	if n == 0 {
		return nil
	}
	uids := ppl.Grow(n)
	for _, uid := range uids {
		ppl.Female.Set(uid, b.stream.Float64() < b.PFemale)
	}
	b.born += n
	return uids
}

func (b *Births) UpdateResults(ti int, ppl *people.People) {
	b.resBirths.Values[ti] = float64(b.born)
	prev := 0.0
	if ti > 0 {
		prev = b.resCum.Values[ti-1]
	}
	b.resCum.Values[ti] = prev + float64(b.born)
	b.born = 0
}

// Deaths applies background mortality, either at a crude rate or from an
// age- and sex-specific rate table (columns "male" and "female", rates per
// person per year).
type Deaths struct {
	// Rate is the crude death rate per 1000 population per year. Ignored
	// when Table is set.
	Rate float64
	// Table holds age/sex-specific death rates.
	Table *RateTable

	dt     float64
	stream *rng.Stream

	resDeaths *results.Series
	resCum    *results.Series
	resAlive  *results.Series
	died      int
}

// NewDeaths creates a deaths module at the given crude rate.
func NewDeaths(rate float64) *Deaths {
	return &Deaths{Rate: rate}
}

// NewDeathsFromTable creates a deaths module driven by an age/sex table.
func NewDeathsFromTable(table *RateTable) *Deaths {
	return &Deaths{Table: table}
}

func (d *Deaths) Name() string { return "deaths" }

func (d *Deaths) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	if d.Rate < 0 {
		return fmt.Errorf("deaths: rate %v is negative", d.Rate)
	}
	s, err := reg.Stream("deaths")
	if err != nil {
		return err
	}
	d.stream = s
	d.dt = dt
	d.resDeaths = rs.New("deaths", "new")
	d.resCum = rs.New("deaths", "cumulative")
	d.resAlive = rs.New("deaths", "n_alive")
	return nil
}

func (d *Deaths) Update(ti int, ppl *people.People) []int {
	var doomed []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) {
			continue
		}
		rate := d.Rate / 1000
		if d.Table != nil {
			col := "male"
			if ppl.Female.Get(uid) {
				col = "female"
			}
			rate = d.Table.Rate(col, ppl.Age.Get(uid))
		}
		if d.stream.Float64() < dist.RateToProb(rate, d.dt) {
			doomed = append(doomed, uid)
		}
	}
	if len(doomed) > 0 {
		ppl.RequestDeath(doomed)
		d.died += len(doomed)
	}
	return nil
}

func (d *Deaths) UpdateResults(ti int, ppl *people.People) {
	d.resDeaths.Values[ti] = float64(d.died)
	prev := 0.0
	if ti > 0 {
		prev = d.resCum.Values[ti-1]
	}
	d.resCum.Values[ti] = prev + float64(d.died)
	d.resAlive.Values[ti] = float64(ppl.NumAlive())
	d.died = 0
}
