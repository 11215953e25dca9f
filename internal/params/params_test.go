package params

import (
	"strings"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestNptsAndTimevec(t *testing.T) {
	p := Pars{Start: 2000, Stop: 2002, DT: 0.5}
	if got := p.Npts(); got != 5 {
		t.Fatalf("Npts = %d, want 5", got)
	}
	tv := p.Timevec()
	want := []float64{2000, 2000.5, 2001, 2001.5, 2002}
	for i, w := range want {
		if tv[i] != w {
			t.Errorf("Timevec[%d] = %v, want %v", i, tv[i], w)
		}
	}
}

func TestMergeOverlaysNonZero(t *testing.T) {
	base := Defaults()
	got := base.Merge(Pars{NAgents: 500, Label: "trial"})
	if got.NAgents != 500 || got.Label != "trial" {
		t.Errorf("overlay fields not applied: %+v", got)
	}
	if got.Start != base.Start || got.Stop != base.Stop || got.DT != base.DT {
		t.Errorf("zero fields overwrote defaults: %+v", got)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	p := Pars{NAgents: -1, Start: 2010, Stop: 2000, DT: 0}
	err := p.Validate()
	if err == nil {
		t.Fatal("invalid parameters accepted")
	}
	for _, want := range []string{"n_agents", "stop", "dt"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidateRejectsOversizedStep(t *testing.T) {
	p := Pars{NAgents: 100, Start: 2000, Stop: 2001, DT: 5}
	if err := p.Validate(); err == nil || !strings.Contains(err.Error(), "span") {
		t.Errorf("dt larger than span accepted: %v", err)
	}
}
