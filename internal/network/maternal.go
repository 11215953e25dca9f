package network

import (
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/rng"
)

// MaternalNet links mothers to their children for vertical transmission.
// Edges are created by the pregnancy module at conception and expire at the
// end of the postpartum window. Transmission is directional: mother (P1)
// to child (P2) only.
type MaternalNet struct {
	edges Edges
}

// NewMaternalNet creates an empty maternal network.
func NewMaternalNet() *MaternalNet { return &MaternalNet{} }

func (n *MaternalNet) Name() string { return "maternal" }

func (n *MaternalNet) Init(ppl *people.People, reg *rng.Registry, dt float64) error {
	return nil
}

func (n *MaternalNet) Update(ti int, ppl *people.People) {
	n.edges.prune(ti, ppl)
}

// Connect adds a mother-child edge expiring at endTi.
func (n *MaternalNet) Connect(mother, child int, endTi float64) {
	n.edges.Add(mother, child, 1, endTi)
}

func (n *MaternalNet) Edges() *Edges  { return &n.edges }
func (n *MaternalNet) Vertical() bool { return true }
