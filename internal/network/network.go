// Package network defines the contact structures over which transmission
// occurs. A network is a set of edges between agent UIDs held as parallel
// arrays: person 1, person 2, a per-edge relative transmissibility, and an
// expiry timestep for dynamic networks.
package network

import (
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/rng"
)

// Edges holds the parallel edge arrays of one network.
type Edges struct {
	P1   []int
	P2   []int
	Beta []float64
	End  []float64 // timestep at which the edge dissolves; +Inf if permanent
}

// Len returns the number of edges.
func (e *Edges) Len() int { return len(e.P1) }

// Add appends one edge.
func (e *Edges) Add(p1, p2 int, beta, end float64) {
	e.P1 = append(e.P1, p1)
	e.P2 = append(e.P2, p2)
	e.Beta = append(e.Beta, beta)
	e.End = append(e.End, end)
}

// Clear drops all edges, retaining capacity.
func (e *Edges) Clear() {
	e.P1 = e.P1[:0]
	e.P2 = e.P2[:0]
	e.Beta = e.Beta[:0]
	e.End = e.End[:0]
}

// prune removes expired edges and edges touching dead agents, in place.
func (e *Edges) prune(ti int, ppl *people.People) {
	keep := 0
	for i := 0; i < e.Len(); i++ {
		if e.End[i] <= float64(ti) {
			continue
		}
		if !ppl.Alive.Get(e.P1[i]) || !ppl.Alive.Get(e.P2[i]) {
			continue
		}
		e.P1[keep] = e.P1[i]
		e.P2[keep] = e.P2[i]
		e.Beta[keep] = e.Beta[i]
		e.End[keep] = e.End[i]
		keep++
	}
	e.P1 = e.P1[:keep]
	e.P2 = e.P2[:keep]
	e.Beta = e.Beta[:keep]
	e.End = e.End[:keep]
}

// Network is the contract all contact networks satisfy.
type Network interface {
	// Name identifies the network in results and parameter files.
	Name() string
	// Init registers states and draws initial contacts.
	Init(ppl *people.People, reg *rng.Registry, dt float64) error
	// Update refreshes the edge set at the start of a timestep, before
	// transmission.
	Update(ti int, ppl *people.People)
	// Edges exposes the current edge arrays.
	Edges() *Edges
	// Vertical reports whether transmission is directional P1 -> P2 only
	// (e.g. mother to child).
	Vertical() bool
}
