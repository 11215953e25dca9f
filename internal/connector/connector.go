// Package connector couples the states of two disease modules, letting one
// disease modify the course of another. Connectors apply once per step,
// after interventions, so both diseases see a consistent view.
package connector

import (
	"fmt"

	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/people"
)

// Connector is the contract disease couplers satisfy.
type Connector interface {
	Name() string
	Apply(ti int, ppl *people.People)
}

// HIVGonorrhea raises susceptibility to gonorrhea among HIV-positive
// agents: untreated infection multiplies relative susceptibility by
// RelSusUntreated, suppressed infection (on ART) by RelSusOnART.
type HIVGonorrhea struct {
	HIV       *disease.HIV
	Gonorrhea *disease.Gonorrhea

	RelSusUntreated float64
	RelSusOnART     float64
}

// NewHIVGonorrhea creates the connector with default multipliers.
func NewHIVGonorrhea(hiv *disease.HIV, gon *disease.Gonorrhea) (*HIVGonorrhea, error) {
	if hiv == nil || gon == nil {
		return nil, fmt.Errorf("connector: both hiv and gonorrhea modules are required")
	}
	return &HIVGonorrhea{
		HIV:             hiv,
		Gonorrhea:       gon,
		RelSusUntreated: 2.0,
		RelSusOnART:     1.5,
	}, nil
}

func (c *HIVGonorrhea) Name() string { return "hiv_gonorrhea" }

func (c *HIVGonorrhea) Apply(ti int, ppl *people.People) {
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) {
			continue
		}
		switch {
		case !c.HIV.Infected.Get(uid):
			c.Gonorrhea.RelSus.Set(uid, 1)
		case c.HIV.OnART.Get(uid):
			c.Gonorrhea.RelSus.Set(uid, c.RelSusOnART)
		default:
			c.Gonorrhea.RelSus.Set(uid, c.RelSusUntreated)
		}
	}
}
