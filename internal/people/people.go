// Package people holds the agent population: a set of growable, parallel
// state arrays indexed by agent UID. Modules register their own states with
// the population so that everything grows together when agents are born.
// Dead agents are never removed; they are masked by the alive state.
package people

import (
	"fmt"
	"math"
)

// People is the agent population container.
type People struct {
	n int

	// Core states every module can rely on.
	Age    *FloatState
	Female *BoolState
	Alive  *BoolState
	TiDead *FloatState

	states  []State
	pending []int // death requests resolved at end of step
}

// New creates a population of n agents. Ages start at zero; callers assign
// an initial age structure before the run starts.
func New(n int) *People {
	p := &People{}
	p.Age = NewFloatState("age", 0)
	p.Female = NewBoolState("female", false)
	p.Alive = NewBoolState("alive", true)
	p.TiDead = NewFloatState("ti_dead", math.NaN())
	p.AddStates(p.Age, p.Female, p.Alive, p.TiDead)
	p.grow(n)
	return p
}

// N returns the total number of agents ever created, dead included.
func (p *People) N() int { return p.n }

// AddStates registers states so they grow with the population. States added
// after creation are grown to the current size immediately.
func (p *People) AddStates(states ...State) {
	for _, s := range states {
		if s.Len() < p.n {
			s.Grow(p.n - s.Len())
		}
		p.states = append(p.states, s)
	}
}

// Grow adds n agents and returns their UIDs.
func (p *People) Grow(n int) []int {
	start := p.n
	p.grow(n)
	uids := make([]int, n)
	for i := range uids {
		uids[i] = start + i
	}
	return uids
}

func (p *People) grow(n int) {
	for _, s := range p.states {
		s.Grow(n)
	}
	p.n += n
}

// RequestDeath marks uids to die when deaths are resolved at the end of the
// current step. Multiple modules may request the same agent; the first
// resolution wins and later requests are no-ops.
func (p *People) RequestDeath(uids []int) {
	p.pending = append(p.pending, uids...)
}

// ResolveDeaths flips alive to false for all pending requests and records
// the timestep of death. It returns the number of agents newly dead.
func (p *People) ResolveDeaths(ti int) int {
	died := 0
	for _, uid := range p.pending {
		if p.Alive.Get(uid) {
			p.Alive.Set(uid, false)
			p.TiDead.Set(uid, float64(ti))
			died++
		}
	}
	p.pending = p.pending[:0]
	return died
}

// NumAlive counts living agents.
func (p *People) NumAlive() int {
	count := 0
	for i := 0; i < p.n; i++ {
		if p.Alive.Get(i) {
			count++
		}
	}
	return count
}

// AliveUIDs returns the UIDs of all living agents in ascending order.
func (p *People) AliveUIDs() []int {
	uids := make([]int, 0, p.n)
	for i := 0; i < p.n; i++ {
		if p.Alive.Get(i) {
			uids = append(uids, i)
		}
	}
	return uids
}

// AgeUp advances every living agent's age by dt years.
func (p *People) AgeUp(dt float64) {
	for i := 0; i < p.n; i++ {
		if p.Alive.Get(i) {
			p.Age.vals[i] += dt
		}
	}
}

// State is the contract all agent state arrays satisfy.
type State interface {
	Name() string
	Len() int
	Grow(n int)
}

// FloatState is a growable float64 state with a per-agent fill value.
type FloatState struct {
	name string
	fill float64
	vals []float64
}

// NewFloatState creates an empty float state that fills new agents with fill.
func NewFloatState(name string, fill float64) *FloatState {
	return &FloatState{name: name, fill: fill}
}

func (s *FloatState) Name() string { return s.name }
func (s *FloatState) Len() int     { return len(s.vals) }

func (s *FloatState) Grow(n int) {
	for i := 0; i < n; i++ {
		s.vals = append(s.vals, s.fill)
	}
}

// Get returns the value for uid.
func (s *FloatState) Get(uid int) float64 { return s.vals[uid] }

// Set assigns the value for uid.
func (s *FloatState) Set(uid int, v float64) { s.vals[uid] = v }

// Values exposes the backing slice for bulk reads. Callers must not resize.
func (s *FloatState) Values() []float64 { return s.vals }

// SetAll assigns v to every uid in uids.
func (s *FloatState) SetAll(uids []int, v float64) {
	for _, uid := range uids {
		s.vals[uid] = v
	}
}

// BoolState is a growable bool state.
type BoolState struct {
	name string
	fill bool
	vals []bool
}

// NewBoolState creates an empty bool state that fills new agents with fill.
func NewBoolState(name string, fill bool) *BoolState {
	return &BoolState{name: name, fill: fill}
}

func (s *BoolState) Name() string { return s.name }
func (s *BoolState) Len() int     { return len(s.vals) }

func (s *BoolState) Grow(n int) {
	for i := 0; i < n; i++ {
		s.vals = append(s.vals, s.fill)
	}
}

func (s *BoolState) Get(uid int) bool    { return s.vals[uid] }
func (s *BoolState) Set(uid int, v bool) { s.vals[uid] = v }
func (s *BoolState) Values() []bool      { return s.vals }

func (s *BoolState) SetAll(uids []int, v bool) {
	for _, uid := range uids {
		s.vals[uid] = v
	}
}

// Count returns the number of true entries.
func (s *BoolState) Count() int {
	n := 0
	for _, v := range s.vals {
		if v {
			n++
		}
	}
	return n
}

// TrueUIDs returns the UIDs set to true, ascending.
func (s *BoolState) TrueUIDs() []int {
	var uids []int
	for uid, v := range s.vals {
		if v {
			uids = append(uids, uid)
		}
	}
	return uids
}

// IntState is a growable int64 state.
type IntState struct {
	name string
	fill int64
	vals []int64
}

// NewIntState creates an empty int state that fills new agents with fill.
func NewIntState(name string, fill int64) *IntState {
	return &IntState{name: name, fill: fill}
}

func (s *IntState) Name() string { return s.name }
func (s *IntState) Len() int     { return len(s.vals) }

func (s *IntState) Grow(n int) {
	for i := 0; i < n; i++ {
		s.vals = append(s.vals, s.fill)
	}
}

func (s *IntState) Get(uid int) int64    { return s.vals[uid] }
func (s *IntState) Set(uid int, v int64) { s.vals[uid] = v }
func (s *IntState) Values() []int64      { return s.vals }

// Validate checks that all registered states share the population length.
func (p *People) Validate() error {
	for _, s := range p.states {
		if s.Len() != p.n {
			return fmt.Errorf("people: state %q has length %d, population is %d", s.Name(), s.Len(), p.n)
		}
	}
	return nil
}
