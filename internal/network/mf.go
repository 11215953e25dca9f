package network

import (
	"math"

	"github.com/episim-dev/episim/internal/dist"
	"github.com/episim-dev/episim/internal/people"
	"github.com/episim-dev/episim/internal/rng"
)

// MFNet is a male-female sexual partnership network. Agents participate
// with a per-sex probability, become eligible after their sexual debut age,
// and form pairs that persist for a drawn duration before dissolving.
type MFNet struct {
	// PartRateM and PartRateF are the lifetime participation probabilities
	// by sex.
	PartRateM float64
	PartRateF float64
	// Debut is the sexual debut age distribution in years.
	Debut dist.Dist
	// Duration is the partnership duration distribution in years.
	Duration dist.Dist
	// Beta scales per-edge transmissibility; defaults to 1.
	Beta float64

	edges       Edges
	participant *people.BoolState
	debut       *people.FloatState
	paired      *people.BoolState
	stream      *rng.Stream
	dt          float64
}

// NewMFNet creates an mf network with typical defaults: 70% male and 60%
// female participation, debut around age 16, partnerships lasting about
// 5 years on average.
func NewMFNet() *MFNet {
	return &MFNet{
		PartRateM: 0.7,
		PartRateF: 0.6,
		Debut:     dist.Normal{Mean: 16, Std: 2},
		Duration:  dist.LognormEx{Mean: 5, Stdev: 3},
		Beta:      1,
	}
}

func (n *MFNet) Name() string { return "mf" }

func (n *MFNet) Init(ppl *people.People, reg *rng.Registry, dt float64) error {
	s, err := reg.Stream("network.mf")
	if err != nil {
		return err
	}
	n.stream = s
	n.dt = dt
	if n.Beta == 0 {
		n.Beta = 1
	}
	if n.Debut == nil {
		n.Debut = dist.Normal{Mean: 16, Std: 2}
	}
	if n.Duration == nil {
		n.Duration = dist.LognormEx{Mean: 5, Stdev: 3}
	}

	n.participant = people.NewBoolState("mf_participant", false)
	n.debut = people.NewFloatState("mf_debut", 0)
	n.paired = people.NewBoolState("mf_paired", false)
	ppl.AddStates(n.participant, n.debut, n.paired)

	for uid := 0; uid < ppl.N(); uid++ {
		n.assign(uid, ppl)
	}
	n.Update(0, ppl)
	return nil
}

// AssignNewborns draws participation and debut for agents born mid-run.
func (n *MFNet) AssignNewborns(uids []int, ppl *people.People) {
	for _, uid := range uids {
		n.assign(uid, ppl)
	}
}

func (n *MFNet) assign(uid int, ppl *people.People) {
	rate := n.PartRateM
	if ppl.Female.Get(uid) {
		rate = n.PartRateF
	}
	n.participant.Set(uid, n.stream.Float64() < rate)
	n.debut.Set(uid, math.Max(0, n.Debut.Sample(n.stream, 1)[0]))
}

func (n *MFNet) Update(ti int, ppl *people.People) {
	// Dissolve expired pairs and pairs broken by death.
	for i := 0; i < n.edges.Len(); i++ {
		if n.edges.End[i] <= float64(ti) || !ppl.Alive.Get(n.edges.P1[i]) || !ppl.Alive.Get(n.edges.P2[i]) {
			n.paired.Set(n.edges.P1[i], false)
			n.paired.Set(n.edges.P2[i], false)
		}
	}
	n.edges.prune(ti, ppl)

	// Form new pairs among eligible singles.
	var males, females []int
	for uid := 0; uid < ppl.N(); uid++ {
		if !ppl.Alive.Get(uid) || !n.participant.Get(uid) || n.paired.Get(uid) {
			continue
		}
		if ppl.Age.Get(uid) < n.debut.Get(uid) {
			continue
		}
		if ppl.Female.Get(uid) {
			females = append(females, uid)
		} else {
			males = append(males, uid)
		}
	}
	pairs := len(males)
	if len(females) < pairs {
		pairs = len(females)
	}
	if pairs == 0 {
		return
	}
	n.stream.Shuffle(males)
	n.stream.Shuffle(females)
	durs := n.Duration.Sample(n.stream, pairs)
	for i := 0; i < pairs; i++ {
		steps := math.Max(1, durs[i]/n.dt)
		n.edges.Add(males[i], females[i], n.Beta, float64(ti)+steps)
		n.paired.Set(males[i], true)
		n.paired.Set(females[i], true)
	}
}

func (n *MFNet) Edges() *Edges  { return &n.edges }
func (n *MFNet) Vertical() bool { return false }
