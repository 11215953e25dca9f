package network

import (
	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/rng"
)

// RandomNet is a fully mixed contact network: every step it rebuilds a fresh
// edge set where the expected number of contacts per agent is NContacts,
// with partners chosen uniformly among the living.
type RandomNet struct {
	// NContacts is the mean number of contacts per agent per step.
	NContacts float64
	// Beta scales per-edge transmissibility; defaults to 1.
	Beta float64

	edges  Edges
	stream *rng.Stream
}

// NewRandomNet creates a random network with the given mean contacts.
func NewRandomNet(nContacts float64) *RandomNet {
	return &RandomNet{NContacts: nContacts, Beta: 1}
}

func (n *RandomNet) Name() string { return "random" }

func (n *RandomNet) Init(ppl *people.People, reg *rng.Registry, dt float64) error {
	s, err := reg.Stream("network.random")
	if err != nil {
		return err
	}
	n.stream = s
	if n.Beta == 0 {
		n.Beta = 1
	}
	n.rebuild(0, ppl)
	return nil
}

func (n *RandomNet) Update(ti int, ppl *people.People) {
	n.rebuild(ti, ppl)
}

// rebuild draws a Poisson number of edges so the mean degree is NContacts.
func (n *RandomNet) rebuild(ti int, ppl *people.People) {
	n.edges.Clear()
	alive := ppl.AliveUIDs()
	if len(alive) < 2 {
		return
	}
	mean := float64(len(alive)) * n.NContacts / 2
	count := int(dist.Poisson{Rate: mean}.Sample(n.stream, 1)[0])
	end := float64(ti) + 1 // contacts last one step
	for i := 0; i < count; i++ {
		p1 := alive[n.stream.Intn(len(alive))]
		p2 := alive[n.stream.Intn(len(alive))]
		if p1 == p2 {
			continue
		}
		n.edges.Add(p1, p2, n.Beta, end)
	}
}

func (n *RandomNet) Edges() *Edges  { return &n.edges }
func (n *RandomNet) Vertical() bool { return false }
