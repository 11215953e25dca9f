package demographics

import (
	"math"
	"sort"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/network"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// Pregnancy drives fertility-based births and wires each mother-child pair
// into the maternal network for vertical transmission. The child agent is
// created at conception with a negative age that reaches zero at delivery,
// so prenatal transmission can occur over the maternal edge.
type Pregnancy struct {
	// Fertility is the age-specific fertility table (column "rate", births
	// per woman per year). When nil, Rate is used for all fertile ages.
	Fertility *RateTable
	// Rate is the crude fertility rate per woman per year, used without a
	// table.
	Rate float64
	// MinAge and MaxAge bound the fertile age window.
	MinAge, MaxAge float64
	// DurPregnancy and DurPostpartum are in years.
	DurPregnancy  float64
	DurPostpartum float64
	// Maternal is the network that receives mother-child edges; optional.
	Maternal *network.MaternalNet

	dt     float64
	stream *rng.Stream

	Pregnant   *people.BoolState
	TiDelivery *people.FloatState
	childOf    map[int]int // mother uid -> gestating child uid

	resPreg   *results.Series
	resBirths *results.Series
	conceived int
	delivered int
}

// NewPregnancy creates a pregnancy module with standard defaults: fertile
// window 15-49, nine months gestation, six months postpartum.
func NewPregnancy() *Pregnancy {
	return &Pregnancy{
		Rate:          0.1,
		MinAge:        15,
		MaxAge:        49,
		DurPregnancy:  0.75,
		DurPostpartum: 0.5,
	}
}

func (p *Pregnancy) Name() string { return "pregnancy" }

func (p *Pregnancy) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	s, err := reg.Stream("pregnancy")
	if err != nil {
		return err
	}
	p.stream = s
	p.dt = dt
	p.childOf = make(map[int]int)

	p.Pregnant = people.NewBoolState("pregnant", false)
	p.TiDelivery = people.NewFloatState("ti_delivery", math.NaN())
	ppl.AddStates(p.Pregnant, p.TiDelivery)

	p.resPreg = rs.New("pregnancy", "conceptions")
	p.resBirths = rs.New("pregnancy", "births")
	return nil
}

func (p *Pregnancy) Update(ti int, ppl *people.People) []int {
	t := float64(ti)

	// A mother who died mid-gestation does not carry the child to term:
	// the gestating agent dies with her and the pregnancy record is dropped.
	var lost []int
	for mother := range p.childOf {
		if !ppl.Alive.Get(mother) {
			lost = append(lost, mother)
		}
	}
	sort.Ints(lost)
	for _, mother := range lost {
		ppl.RequestDeath([]int{p.childOf[mother]})
		p.Pregnant.Set(mother, false)
		p.TiDelivery.Set(mother, math.NaN())
		delete(p.childOf, mother)
	}

	// Deliveries: the child's age has reached zero. Mothers are processed
	// in ascending UID order so downstream draws over the newborn slice
	// stay reproducible across runs.
	due := make([]int, 0, len(p.childOf))
	for mother := range p.childOf {
		if d := p.TiDelivery.Get(mother); !math.IsNaN(d) && d <= t {
			due = append(due, mother)
		}
	}
	sort.Ints(due)

	var newborns []int
	for _, mother := range due {
		child := p.childOf[mother]
		p.Pregnant.Set(mother, false)
		p.TiDelivery.Set(mother, math.NaN())
		delete(p.childOf, mother)
		if ppl.Alive.Get(child) {
			newborns = append(newborns, child)
			p.delivered++
		}
	}

	// Conceptions.
	gestationSteps := math.Max(1, p.DurPregnancy/p.dt)
	postpartumSteps := p.DurPostpartum / p.dt
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !ppl.Female.Get(uid) || p.Pregnant.Get(uid) {
			continue
		}
		age := ppl.Age.Get(uid)
		if age < p.MinAge || age > p.MaxAge {
			continue
		}
		rate := p.Rate
		if p.Fertility != nil {
			rate = p.Fertility.Rate("rate", age)
		}
		if p.stream.Float64() >= dist.RateToProb(rate, p.dt) {
			continue
		}

		// Conceive: create the child now so the maternal edge exists for
		// prenatal transmission. The child ages into 0 at delivery.
		child := ppl.Grow(1)[0]
		ppl.Age.Set(child, -p.DurPregnancy)
		ppl.Female.Set(child, p.stream.Float64() < 0.5)
		p.Pregnant.Set(uid, true)
		p.TiDelivery.Set(uid, t+gestationSteps)
		p.childOf[uid] = child
		p.conceived++

		if p.Maternal != nil {
			p.Maternal.Connect(uid, child, t+gestationSteps+postpartumSteps)
		}
	}
	return newborns
}

func (p *Pregnancy) UpdateResults(ti int, ppl *people.People) {
	p.resPreg.Values[ti] = float64(p.conceived)
	p.resBirths.Values[ti] = float64(p.delivered)
	p.conceived = 0
	p.delivered = 0
}
