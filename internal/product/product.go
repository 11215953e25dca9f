// Package product defines the payloads delivered by interventions. A product
// changes agent states when administered; the intervention decides who gets
// it and when.
package product

import (
	"fmt"

	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/rng"
)

// Vaccine reduces susceptibility to a target disease. In leaky mode every
// recipient's relative susceptibility is scaled by 1 - efficacy; in
// all-or-nothing mode a fraction efficacy of recipients become fully immune
// and the rest get no protection.
type Vaccine struct {
	// Efficacy in [0, 1].
	Efficacy float64
	// Mode is "leaky" (default) or "all_or_nothing".
	Mode string
}

// Leaky and AllOrNothing are the recognized vaccine modes.
const (
	Leaky        = "leaky"
	AllOrNothing = "all_or_nothing"
)

// Validate checks the product parameters.
func (v *Vaccine) Validate() error {
	if v.Efficacy < 0 || v.Efficacy > 1 {
		return fmt.Errorf("product: vaccine efficacy %v outside [0,1]", v.Efficacy)
	}
	switch v.Mode {
	case "", Leaky, AllOrNothing:
		return nil
	default:
		return fmt.Errorf("product: unknown vaccine mode %q", v.Mode)
	}
}

// Administer delivers the vaccine to uids against the target disease.
func (v *Vaccine) Administer(target *disease.Infection, stream *rng.Stream, uids []int) {
	switch v.Mode {
	case AllOrNothing:
		for _, uid := range uids {
			if stream.Float64() < v.Efficacy {
				target.RelSus.Set(uid, 0)
			}
		}
	default: // leaky
		scale := 1 - v.Efficacy
		for _, uid := range uids {
			target.RelSus.Set(uid, target.RelSus.Get(uid)*scale)
		}
	}
}
