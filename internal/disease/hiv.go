package disease

import (
	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

// HIV models a chronic infection with CD4 dynamics and antiretroviral
// therapy. CD4 relaxes toward CD4Max while on treatment and toward CD4Min
// otherwise; treatment also suppresses infectiousness.
type HIV struct {
	Infection

	// CD4Min and CD4Max bound the CD4 count; CD4Rate controls how fast the
	// count relaxes toward the bound each step.
	CD4Min  float64
	CD4Max  float64
	CD4Rate float64
	// ARTTransReduction is the multiplier applied to infectiousness while
	// on treatment.
	ARTTransReduction float64

	OnART *people.BoolState
	CD4   *people.FloatState

	resNOnART *results.Series
}

// NewHIV creates an HIV module with default parameters.
func NewHIV() *HIV {
	h := &HIV{
		CD4Min:            100,
		CD4Max:            500,
		CD4Rate:           5,
		ARTTransReduction: 0.1,
	}
	h.Beta = 0.05
	h.InitPrev = dist.Bernoulli{P: 0.01}
	return h
}

func (h *HIV) Name() string { return "hiv" }

func (h *HIV) Init(ppl *people.People, reg *rng.Registry, rs *results.Set, dt float64) error {
	h.OnART = people.NewBoolState("hiv_on_art", false)
	h.CD4 = people.NewFloatState("hiv_cd4", 500)
	ppl.AddStates(h.OnART, h.CD4)

	if err := h.initInfection("hiv", ppl, reg, rs, dt); err != nil {
		return err
	}
	h.resNOnART = rs.New("hiv", "n_on_art")
	return nil
}

func (h *HIV) UpdatePre(ti int, ppl *people.People) {
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !h.Infected.Get(uid) {
			continue
		}
		cd4 := h.CD4.Get(uid)
		if h.OnART.Get(uid) {
			h.CD4.Set(uid, cd4+(h.CD4Max-cd4)/h.CD4Rate)
			h.RelTrans.Set(uid, h.ARTTransReduction)
		} else {
			h.CD4.Set(uid, cd4+(h.CD4Min-cd4)/h.CD4Rate)
			h.RelTrans.Set(uid, 1)
		}
	}
}

func (h *HIV) UpdateResults(ti int, ppl *people.People) {
	h.Infection.UpdateResults(ti, ppl)
	n := 0
	for uid := 0; uid < ppl.N(); uid++ {
		if ppl.Alive.Get(uid) && h.OnART.Get(uid) {
			n++
		}
	}
	h.resNOnART.Values[ti] = float64(n)
}
