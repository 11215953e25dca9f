package interventions

import (
	"testing"

	"github.com/episim-dev/episim/internal/disease"
	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/product"
	"github.com/episim-dev/episim/internal/results"
	"github.com/episim-dev/episim/internal/rng"
)

func newResultSet(npts int) *results.Set {
	tv := make([]float64, npts)
	for i := range tv {
		tv[i] = float64(i)
	}
	return results.NewSet(tv)
}

func newSIR(t *testing.T, ppl *people.People, reg *rng.Registry, rs *results.Set, initPrev float64) *disease.SIR {
	t.Helper()
	d := disease.NewSIR()
	d.InitPrev = dist.Bernoulli{P: initPrev}
	if err := d.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRoutineVaxCoversEligible(t *testing.T) {
	ppl := people.New(100)
	for uid := 0; uid < 100; uid++ {
		ppl.Age.Set(uid, 30)
	}
	reg := rng.NewRegistry(1)
	rs := newResultSet(5)
	d := newSIR(t, ppl, reg, rs, 0)

	rv := NewRoutineVax(2000, 1, &product.Vaccine{Efficacy: 0.9}, d)
	if err := rv.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	rv.Apply(0, 2000, ppl)

	for uid := 0; uid < 100; uid++ {
		if !rv.Vaccinated.Get(uid) {
			t.Fatalf("agent %d missed at prob 1", uid)
		}
		if got := d.RelSus.Get(uid); got < 0.099 || got > 0.101 {
			t.Fatalf("rel_sus[%d] = %v, want 0.1", uid, got)
		}
	}
	if got := rs.Get("routine_vax", "n_doses").Values[0]; got != 100 {
		t.Errorf("n_doses = %v, want 100", got)
	}

	// Nobody is dosed twice.
	rv.Apply(1, 2001, ppl)
	if got := rs.Get("routine_vax", "n_doses").Values[1]; got != 0 {
		t.Errorf("repeat doses = %v, want 0", got)
	}
}

func TestRoutineVaxRespectsWindow(t *testing.T) {
	ppl := people.New(50)
	for uid := 0; uid < 50; uid++ {
		ppl.Age.Set(uid, 30)
	}
	reg := rng.NewRegistry(2)
	rs := newResultSet(5)
	d := newSIR(t, ppl, reg, rs, 0)

	rv := NewRoutineVax(2010, 1, &product.Vaccine{Efficacy: 0.5}, d)
	rv.EndYear = 2012
	if err := rv.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}

	rv.Apply(0, 2005, ppl) // before start
	if n := rv.Vaccinated.Count(); n != 0 {
		t.Errorf("%d vaccinated before the program start", n)
	}
	rv.Apply(1, 2013, ppl) // after end
	if n := rv.Vaccinated.Count(); n != 0 {
		t.Errorf("%d vaccinated after the program end", n)
	}
	rv.Apply(2, 2011, ppl)
	if n := rv.Vaccinated.Count(); n != 50 {
		t.Errorf("%d vaccinated inside the window, want 50", n)
	}
}

func TestRoutineVaxAgeEligibility(t *testing.T) {
	ppl := people.New(3)
	ppl.Age.Set(0, 0.5)
	ppl.Age.Set(1, 5)
	ppl.Age.Set(2, 40)
	reg := rng.NewRegistry(3)
	rs := newResultSet(2)
	d := newSIR(t, ppl, reg, rs, 0)

	rv := NewRoutineVax(2000, 1, &product.Vaccine{Efficacy: 0.9}, d)
	rv.AgeMin = 1
	rv.AgeMax = 10
	if err := rv.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	rv.Apply(0, 2000, ppl)
	if rv.Vaccinated.Get(0) || rv.Vaccinated.Get(2) {
		t.Error("vaccinated outside the age window")
	}
	if !rv.Vaccinated.Get(1) {
		t.Error("missed the only eligible agent")
	}
}

func TestRoutineVaxValidatesInputs(t *testing.T) {
	ppl := people.New(10)
	reg := rng.NewRegistry(4)
	rs := newResultSet(2)
	d := newSIR(t, ppl, reg, rs, 0)

	rv := NewRoutineVax(2000, 1.5, &product.Vaccine{Efficacy: 0.9}, d)
	if err := rv.Init(ppl, reg, rs, 1.0); err == nil {
		t.Error("prob 1.5 accepted")
	}
	rv = NewRoutineVax(2000, 0.5, nil, d)
	if err := rv.Init(ppl, reg, rs, 1.0); err == nil {
		t.Error("nil product accepted")
	}
}

func TestCampaignVaxFiresOncePerYear(t *testing.T) {
	ppl := people.New(200)
	reg := rng.NewRegistry(5)
	rs := newResultSet(6)
	d := newSIR(t, ppl, reg, rs, 0)

	cv := NewCampaignVax([]float64{2002, 2004}, 1, &product.Vaccine{Efficacy: 0.9}, d)
	if err := cv.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	doses := rs.Get("campaign_vax", "n_doses")
	for ti, year := range []float64{2000, 2001, 2002, 2003, 2004, 2005} {
		cv.Apply(ti, year, ppl)
	}
	want := []float64{0, 0, 200, 0, 200, 0}
	for ti, w := range want {
		if doses.Values[ti] != w {
			t.Errorf("doses[%d] = %v, want %v", ti, doses.Values[ti], w)
		}
	}
}

func TestARTMatchesCapacity(t *testing.T) {
	ppl := people.New(100)
	reg := rng.NewRegistry(6)
	rs := newResultSet(10)
	hiv := disease.NewHIV()
	hiv.InitPrev = dist.Bernoulli{P: 1}
	if err := hiv.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}

	art := NewART([]float64{2000, 2005}, []int{30, 10}, hiv)
	if err := art.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}

	art.Apply(0, 1999, ppl) // before schedule
	if n := hiv.OnART.Count(); n != 0 {
		t.Fatalf("%d on ART before the program", n)
	}
	art.Apply(1, 2000, ppl)
	if n := hiv.OnART.Count(); n != 30 {
		t.Fatalf("%d on ART, want 30", n)
	}
	art.Apply(2, 2001, ppl) // at capacity, no change
	if n := hiv.OnART.Count(); n != 30 {
		t.Fatalf("%d on ART at steady capacity, want 30", n)
	}
	art.Apply(3, 2006, ppl) // capacity drops
	if n := hiv.OnART.Count(); n != 10 {
		t.Fatalf("%d on ART after the drop, want 10", n)
	}
	if got := rs.Get("art", "capacity").Values[3]; got != 10 {
		t.Errorf("capacity series = %v, want 10", got)
	}
}

func TestARTValidatesSchedule(t *testing.T) {
	ppl := people.New(10)
	reg := rng.NewRegistry(7)
	rs := newResultSet(2)
	hiv := disease.NewHIV()
	if err := hiv.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	if err := NewART(nil, nil, hiv).Init(ppl, reg, rs, 1.0); err == nil {
		t.Error("empty schedule accepted")
	}
	if err := NewART([]float64{2005, 2000}, []int{1, 2}, hiv).Init(ppl, reg, rs, 1.0); err == nil {
		t.Error("descending years accepted")
	}
	if err := NewART([]float64{2000}, []int{1}, nil).Init(ppl, reg, rs, 1.0); err == nil {
		t.Error("nil hiv module accepted")
	}
}
