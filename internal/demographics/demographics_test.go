package demographics

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/episim-dev/episim/internal/network"
	"github.com/episim-dev/episim/internal/people"
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

func writeCSV(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRateTable(t *testing.T) {
	path := writeCSV(t, "mortality.csv", "age,male,female\n0,0.05,0.04\n15,0.002,0.001\n65,0.03,0.02\n")
	table, err := ReadRateTable(path, "male", "female")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		col  string
		age  float64
		want float64
	}{
		{"male", 0, 0.05},
		{"male", 14.9, 0.05},
		{"female", 15, 0.001},
		{"male", 40, 0.002},
		{"female", 80, 0.02},
		{"female", -1, 0.04}, // below first row clamps to first
	}
	for _, c := range cases {
		if got := table.Rate(c.col, c.age); got != c.want {
			t.Errorf("Rate(%q, %v) = %v, want %v", c.col, c.age, got, c.want)
		}
	}
}

func TestReadRateTableRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", "age,rate\n", "no rows"},
		{"unsorted", "age,rate\n10,0.1\n5,0.1\n", "ascending"},
		{"negative", "age,rate\n0,0.1\n10,-0.5\n", "negative rate"},
	}
	for _, c := range cases {
		path := writeCSV(t, c.name+".csv", c.body)
		_, err := ReadRateTable(path, "rate")
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Errorf("%s: err = %v, want substring %q", c.name, err, c.want)
		}
	}
}

func TestReadRateTableMissingFile(t *testing.T) {
	if _, err := ReadRateTable(filepath.Join(t.TempDir(), "nope.csv"), "rate"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSampleAges(t *testing.T) {
	table := &RateTable{
		Ages: []float64{0, 20, 40},
		Cols: map[string][]float64{"value": {0, 100, 0}},
	}
	reg := rng.NewRegistry(1)
	stream, _ := reg.Stream("ages")
	ages := SampleAges(table, stream, 500)
	if len(ages) != 500 {
		t.Fatalf("got %d ages, want 500", len(ages))
	}
	for _, a := range ages {
		if a < 20 || a >= 40 {
			t.Fatalf("age %v outside the only weighted bin [20, 40)", a)
		}
	}
}

func TestSampleAgesLastBinWidth(t *testing.T) {
	table := &RateTable{
		Ages: []float64{0, 80},
		Cols: map[string][]float64{"value": {0, 10}},
	}
	reg := rng.NewRegistry(2)
	stream, _ := reg.Stream("ages")
	for _, a := range SampleAges(table, stream, 200) {
		if a < 80 || a >= 85 {
			t.Fatalf("age %v outside terminal bin [80, 85)", a)
		}
	}
}

func TestBirthsGrowPopulation(t *testing.T) {
	ppl := people.New(1000)
	reg := rng.NewRegistry(3)
	rs := newResultSet(10)
	b := NewBirths(400) // absurdly high rate so births are certain
	if err := b.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	uids := b.Update(0, ppl)
	if len(uids) == 0 {
		t.Fatal("no births at a crude rate of 400 per 1000")
	}
	for _, uid := range uids {
		if uid < 1000 {
			t.Fatalf("newborn uid %d overlaps existing agents", uid)
		}
		if ppl.Age.Get(uid) != 0 {
			t.Errorf("newborn %d has age %v, want 0", uid, ppl.Age.Get(uid))
		}
	}
	b.UpdateResults(0, ppl)
	if got := rs.Get("births", "new").Values[0]; got != float64(len(uids)) {
		t.Errorf("births.new = %v, want %v", got, len(uids))
	}
}

func TestDeathsCrudeRate(t *testing.T) {
	ppl := people.New(500)
	reg := rng.NewRegistry(4)
	rs := newResultSet(5)
	d := NewDeaths(1000) // rate -> prob 1-exp(-1) per year
	if err := d.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	d.Update(0, ppl)
	ppl.ResolveDeaths(0)
	d.UpdateResults(0, ppl)

	died := rs.Get("deaths", "new").Values[0]
	if died == 0 {
		t.Fatal("nobody died at a crude rate of 1000 per 1000")
	}
	if got := rs.Get("deaths", "n_alive").Values[0]; got != float64(500)-died {
		t.Errorf("n_alive = %v, want %v", got, 500-int(died))
	}
	// 1-exp(-1) is about 0.63; allow a wide band.
	if died < 200 || died > 450 {
		t.Errorf("%v deaths out of 500 is implausible for p=0.63", died)
	}
}

func TestDeathsTableUsesSexColumns(t *testing.T) {
	ppl := people.New(200)
	for uid := 0; uid < 100; uid++ {
		ppl.Female.Set(uid, true)
	}
	reg := rng.NewRegistry(5)
	rs := newResultSet(5)
	table := &RateTable{
		Ages: []float64{0},
		Cols: map[string][]float64{"male": {100}, "female": {0}},
	}
	d := NewDeathsFromTable(table)
	if err := d.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	d.Update(0, ppl)
	ppl.ResolveDeaths(0)
	for uid := 0; uid < 100; uid++ {
		if !ppl.Alive.Get(uid) {
			t.Fatalf("female agent %d died under a zero female rate", uid)
		}
	}
	if ppl.NumAlive() != 100 {
		t.Errorf("%d alive, want exactly the 100 females", ppl.NumAlive())
	}
}

func TestPregnancyConceptionAndDelivery(t *testing.T) {
	ppl := people.New(100)
	for uid := 0; uid < 100; uid++ {
		ppl.Female.Set(uid, true)
		ppl.Age.Set(uid, 25)
	}
	reg := rng.NewRegistry(6)
	rs := newResultSet(10)
	mat := network.NewMaternalNet()

	p := NewPregnancy()
	p.Rate = 100 // guarantee conception
	p.Maternal = mat
	if err := p.Init(ppl, reg, rs, 0.25); err != nil {
		t.Fatal(err)
	}

	if newborns := p.Update(0, ppl); len(newborns) != 0 {
		t.Fatalf("deliveries at conception step: %d", len(newborns))
	}
	nConceived := ppl.N() - 100
	if nConceived == 0 {
		t.Fatal("no conceptions at a saturating rate")
	}
	if mat.Edges().Len() != nConceived {
		t.Errorf("%d maternal edges for %d gestating children", mat.Edges().Len(), nConceived)
	}
	// Gestating children carry negative age until delivery.
	for uid := 100; uid < ppl.N(); uid++ {
		if ppl.Age.Get(uid) >= 0 {
			t.Fatalf("gestating child %d has non-negative age %v", uid, ppl.Age.Get(uid))
		}
	}

	// Walk to delivery: 0.75y gestation at dt=0.25 is 3 steps.
	var delivered []int
	for ti := 1; ti <= 4; ti++ {
		ppl.AgeUp(0.25)
		delivered = append(delivered, p.Update(ti, ppl)...)
	}
	if len(delivered) != nConceived {
		t.Fatalf("%d delivered, want %d", len(delivered), nConceived)
	}
	for _, uid := range delivered {
		if age := ppl.Age.Get(uid); math.Abs(age) > 1e-9 {
			t.Errorf("newborn %d has age %v at delivery, want 0", uid, age)
		}
	}
	for uid := 0; uid < 100; uid++ {
		if p.Pregnant.Get(uid) {
			t.Fatalf("mother %d still pregnant after delivery", uid)
		}
	}
}

func TestPregnancySkipsIneligible(t *testing.T) {
	ppl := people.New(4)
	ppl.Female.Set(0, true)
	ppl.Age.Set(0, 10) // too young
	ppl.Female.Set(1, true)
	ppl.Age.Set(1, 60) // too old
	ppl.Female.Set(2, false)
	ppl.Age.Set(2, 25) // male
	ppl.Female.Set(3, true)
	ppl.Age.Set(3, 25)
	ppl.RequestDeath([]int{3})
	ppl.ResolveDeaths(0) // dead

	reg := rng.NewRegistry(7)
	rs := newResultSet(5)
	p := NewPregnancy()
	p.Rate = 100
	if err := p.Init(ppl, reg, rs, 1.0); err != nil {
		t.Fatal(err)
	}
	p.Update(1, ppl)
	if ppl.N() != 4 {
		t.Errorf("population grew to %d, no agent was eligible to conceive", ppl.N())
	}
}

func runDeliveries(t *testing.T, seed uint64) []int {
	t.Helper()
	ppl := people.New(40)
	for uid := 0; uid < 40; uid++ {
		ppl.Female.Set(uid, true)
		ppl.Age.Set(uid, 25)
	}
	reg := rng.NewRegistry(seed)
	p := NewPregnancy()
	p.Rate = 100
	if err := p.Init(ppl, reg, newResultSet(10), 0.25); err != nil {
		t.Fatal(err)
	}
	var delivered []int
	for ti := 0; ti <= 4; ti++ {
		if ti > 0 {
			ppl.AgeUp(0.25)
		}
		delivered = append(delivered, p.Update(ti, ppl)...)
	}
	return delivered
}

func TestPregnancyDeliveryOrderReproducible(t *testing.T) {
	first := runDeliveries(t, 11)
	second := runDeliveries(t, 11)
	if len(first) == 0 {
		t.Fatal("no deliveries at a saturating rate")
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed, different newborn order:\n%v\n%v", first, second)
	}
	if !sort.IntsAreSorted(first) {
		t.Errorf("newborns not in ascending UID order: %v", first)
	}
}

func TestPregnancyMotherDeathEndsGestation(t *testing.T) {
	ppl := people.New(1)
	ppl.Female.Set(0, true)
	ppl.Age.Set(0, 25)

	reg := rng.NewRegistry(12)
	p := NewPregnancy()
	p.Rate = 100
	if err := p.Init(ppl, reg, newResultSet(10), 0.25); err != nil {
		t.Fatal(err)
	}
	p.Update(0, ppl)
	if ppl.N() != 2 || !p.Pregnant.Get(0) {
		t.Fatal("mother did not conceive at a saturating rate")
	}

	ppl.RequestDeath([]int{0})
	ppl.ResolveDeaths(1)

	// Walk past the due step: no delivery, and the gestating child dies
	// with the mother.
	for ti := 1; ti <= 4; ti++ {
		ppl.AgeUp(0.25)
		if newborns := p.Update(ti, ppl); len(newborns) != 0 {
			t.Fatalf("dead mother delivered at step %d: %v", ti, newborns)
		}
		ppl.ResolveDeaths(ti)
	}
	if p.Pregnant.Get(0) {
		t.Error("dead mother still flagged pregnant")
	}
	if ppl.Alive.Get(1) {
		t.Error("gestating child survived the mother's death")
	}
}
