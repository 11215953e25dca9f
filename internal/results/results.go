// Package results collects named time series produced by simulation modules
// and exports them for analysis. Each series belongs to a module and holds
// one value per timestep.
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Series is a single named time series.
type Series struct {
	Module string
	Name   string
	Values []float64
}

// Key returns the namespaced identifier "module.name".
func (s *Series) Key() string { return s.Module + "." + s.Name }

// Set is an ordered collection of series plus the shared time axis.
type Set struct {
	Timevec []float64 // fractional years, one per timestep
	series  []*Series
	index   map[string]*Series
}

// NewSet creates a result set over the given time axis.
func NewSet(timevec []float64) *Set {
	return &Set{
		Timevec: timevec,
		index:   make(map[string]*Series),
	}
}

// Npts returns the number of timesteps.
func (rs *Set) Npts() int { return len(rs.Timevec) }

// New allocates and registers a series for module with one value per
// timestep. Registering a duplicate key panics: result names are static
// per module, so a collision is a programming error.
func (rs *Set) New(module, name string) *Series {
	s := &Series{Module: module, Name: name, Values: make([]float64, rs.Npts())}
	key := s.Key()
	if _, ok := rs.index[key]; ok {
		panic(fmt.Sprintf("results: duplicate series %q", key))
	}
	rs.series = append(rs.series, s)
	rs.index[key] = s
	return s
}

// Get returns the series for module.name, or nil if absent.
func (rs *Set) Get(module, name string) *Series {
	return rs.index[module+"."+name]
}

// All returns the series in registration order.
func (rs *Set) All() []*Series { return rs.series }

// Modules returns the distinct module names, sorted.
func (rs *Set) Modules() []string {
	seen := make(map[string]bool)
	var mods []string
	for _, s := range rs.series {
		if !seen[s.Module] {
			seen[s.Module] = true
			mods = append(mods, s.Module)
		}
	}
	sort.Strings(mods)
	return mods
}

// Summary reports the final value of each series, keyed by series key.
// Cumulative series end at their totals, so the final value is the natural
// one-number summary for every series kind used here.
func (rs *Set) Summary() map[string]float64 {
	out := make(map[string]float64, len(rs.series))
	for _, s := range rs.series {
		if len(s.Values) == 0 {
			out[s.Key()] = 0
			continue
		}
		out[s.Key()] = s.Values[len(s.Values)-1]
	}
	return out
}

// ExportCSV writes a wide table: a time column followed by one column per
// series in registration order.
func (rs *Set) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(rs.series)+1)
	header = append(header, "time")
	for _, s := range rs.series {
		header = append(header, s.Key())
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("results: write header: %w", err)
	}
	row := make([]string, len(header))
	for i, t := range rs.Timevec {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for j, s := range rs.series {
			row[j+1] = strconv.FormatFloat(s.Values[i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("results: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
