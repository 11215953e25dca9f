package results

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func TestNewAndGet(t *testing.T) {
	rs := NewSet([]float64{2000, 2001, 2002})
	if rs.Npts() != 3 {
		t.Fatalf("Npts = %d, want 3", rs.Npts())
	}
	s := rs.New("sir", "n_infected")
	if len(s.Values) != 3 {
		t.Fatalf("series length %d, want 3", len(s.Values))
	}
	if rs.Get("sir", "n_infected") != s {
		t.Error("Get did not return the registered series")
	}
	if rs.Get("sir", "missing") != nil {
		t.Error("Get returned a series for an unknown name")
	}
	if s.Key() != "sir.n_infected" {
		t.Errorf("Key = %q", s.Key())
	}
}

func TestDuplicateSeriesPanics(t *testing.T) {
	rs := NewSet([]float64{0})
	rs.New("sir", "n_infected")
	defer func() {
		if recover() == nil {
			t.Error("duplicate registration did not panic")
		}
	}()
	rs.New("sir", "n_infected")
}

func TestModulesSorted(t *testing.T) {
	rs := NewSet([]float64{0})
	rs.New("sir", "a")
	rs.New("deaths", "a")
	rs.New("sir", "b")
	rs.New("births", "a")
	want := []string{"births", "deaths", "sir"}
	if got := rs.Modules(); !reflect.DeepEqual(got, want) {
		t.Errorf("Modules = %v, want %v", got, want)
	}
}

func TestSummaryFinalValues(t *testing.T) {
	rs := NewSet([]float64{0, 1, 2})
	a := rs.New("sir", "cum_infections")
	copy(a.Values, []float64{1, 5, 12})
	b := rs.New("sir", "prevalence")
	copy(b.Values, []float64{0.1, 0.3, 0.2})

	got := rs.Summary()
	if got["sir.cum_infections"] != 12 {
		t.Errorf("cum_infections summary = %v, want 12", got["sir.cum_infections"])
	}
	if got["sir.prevalence"] != 0.2 {
		t.Errorf("prevalence summary = %v, want 0.2", got["sir.prevalence"])
	}
}

func TestExportCSV(t *testing.T) {
	rs := NewSet([]float64{2000, 2000.5})
	a := rs.New("sir", "n_infected")
	copy(a.Values, []float64{3, 7})
	b := rs.New("deaths", "new")
	copy(b.Values, []float64{0, 1})

	var buf bytes.Buffer
	if err := rs.ExportCSV(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		"time,sir.n_infected,deaths.new",
		"2000,3,0",
		"2000.5,7,1",
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("csv = %q, want %q", lines, want)
	}
}

func TestExportArrowIPCRoundtrip(t *testing.T) {
	rs := NewSet([]float64{0, 1, 2})
	s := rs.New("sir", "prevalence")
	copy(s.Values, []float64{0.1, 0.25, 0.15})

	var buf bytes.Buffer
	if err := rs.ExportArrowIPC(&buf); err != nil {
		t.Fatal(err)
	}

	rdr, err := ipc.NewReader(bytes.NewReader(buf.Bytes()), ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		t.Fatal(err)
	}
	defer rdr.Release()

	schema := rdr.Schema()
	if got := schema.NumFields(); got != 2 {
		t.Fatalf("schema has %d fields, want 2", got)
	}
	if schema.Field(0).Name != "time" || schema.Field(1).Name != "sir.prevalence" {
		t.Errorf("field names = %q, %q", schema.Field(0).Name, schema.Field(1).Name)
	}
	if !rdr.Next() {
		t.Fatalf("stream has no records: %v", rdr.Err())
	}
	rec := rdr.Record()
	if rec.NumRows() != 3 {
		t.Errorf("record has %d rows, want 3", rec.NumRows())
	}
	if rdr.Next() {
		t.Error("stream has more than one record")
	}
}
