package dist

import (
	"math"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/episim-dev/episim/internal/rng"
)

func newStream(t *testing.T) *rng.Stream {
	t.Helper()
	return rng.NewRegistry(12345).MustStream(t.Name())
}

func TestConstant(t *testing.T) {
	vals := Constant{Value: 3.5}.Sample(newStream(t), 4)
	for _, v := range vals {
		if v != 3.5 {
			t.Fatalf("constant sample = %v, want 3.5", v)
		}
	}
}

func TestUniformBounds(t *testing.T) {
	s := newStream(t)
	for _, v := range (Uniform{Low: 2, High: 5}).Sample(s, 1000) {
		if v < 2 || v >= 5 {
			t.Fatalf("uniform sample %v outside [2,5)", v)
		}
	}
}

func TestLognormExMoments(t *testing.T) {
	s := newStream(t)
	const mean, stdev = 5.0, 1.8
	vals := LognormEx{Mean: mean, Stdev: stdev}.Sample(s, 20000)
	sum := 0.0
	for _, v := range vals {
		if v <= 0 {
			t.Fatalf("lognormal sample %v is not positive", v)
		}
		sum += v
	}
	got := sum / float64(len(vals))
	if math.Abs(got-mean) > 0.15*mean {
		t.Errorf("lognormal sample mean %.3f, want ~%.1f", got, mean)
	}
}

func TestLognormExDegenerate(t *testing.T) {
	vals := LognormEx{Mean: 4, Stdev: 0}.Sample(newStream(t), 3)
	for _, v := range vals {
		if v != 4 {
			t.Errorf("zero-stdev lognormal = %v, want constant 4", v)
		}
	}
}

func TestBernoulliEdges(t *testing.T) {
	s := newStream(t)
	uids := []int{1, 2, 3, 4, 5}
	if got := (Bernoulli{P: 0}).Filter(s, uids); len(got) != 0 {
		t.Errorf("p=0 filter kept %v", got)
	}
	if got := (Bernoulli{P: 1}).Filter(s, uids); len(got) != 5 {
		t.Errorf("p=1 filter kept %d of 5", len(got))
	}
}

func TestPoissonNonNegative(t *testing.T) {
	s := newStream(t)
	for _, v := range (Poisson{Rate: 3}).Sample(s, 1000) {
		if v < 0 || v != math.Trunc(v) {
			t.Fatalf("poisson sample %v is not a non-negative integer", v)
		}
	}
	for _, v := range (Poisson{Rate: 0}).Sample(s, 10) {
		if v != 0 {
			t.Fatalf("zero-rate poisson sample %v", v)
		}
	}
}

func TestRateToProb(t *testing.T) {
	if got := RateToProb(0, 1); got != 0 {
		t.Errorf("RateToProb(0,1) = %v", got)
	}
	p := RateToProb(0.1, 1)
	want := 1 - math.Exp(-0.1)
	if math.Abs(p-want) > 1e-12 {
		t.Errorf("RateToProb(0.1,1) = %v, want %v", p, want)
	}
	if big := RateToProb(100, 1); big <= 0.99 || big > 1 {
		t.Errorf("RateToProb(100,1) = %v, want near 1", big)
	}
}

func TestSpecScalar(t *testing.T) {
	var sp Spec
	if err := yaml.Unmarshal([]byte("14"), &sp); err != nil {
		t.Fatal(err)
	}
	d, err := sp.Build()
	if err != nil {
		t.Fatal(err)
	}
	c, ok := d.(Constant)
	if !ok || c.Value != 14 {
		t.Errorf("bare scalar built %#v, want Constant{14}", d)
	}
}

func TestSpecMapping(t *testing.T) {
	var sp Spec
	if err := yaml.Unmarshal([]byte("{dist: lognormal, mean: 5, stdev: 1.8}"), &sp); err != nil {
		t.Fatal(err)
	}
	d, err := sp.Build()
	if err != nil {
		t.Fatal(err)
	}
	ln, ok := d.(LognormEx)
	if !ok || ln.Mean != 5 || ln.Stdev != 1.8 {
		t.Errorf("mapping built %#v, want LognormEx{5, 1.8}", d)
	}
}

func TestSpecUnknown(t *testing.T) {
	sp := Spec{Dist: "zipf"}
	if _, err := sp.Build(); err == nil {
		t.Error("unknown distribution did not error")
	}
}

func TestSpecBernoulliValidation(t *testing.T) {
	sp := Spec{Dist: "bernoulli", P: 1.5}
	if _, err := sp.Build(); err == nil {
		t.Error("bernoulli p>1 did not error")
	}
}
