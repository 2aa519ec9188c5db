package domdec

import "sync"

// Group is an in-process decomposition: every member runs in its own
// goroutine and CollectiveSum acts as a barrier-synchronized allreduce.
// Mainly used to exercise the distributed code paths without real
// inter-process communication.
type Group struct {
	mu         sync.Mutex
	cond       *sync.Cond
	ranks      int
	arrived    int
	generation int
	buf        []float64
	result     []float64
}

func NewGroup(ranks int) *Group {
	g := &Group{ranks: ranks}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Member returns the handle for one rank. globals lists the global indices
// of the atoms homed on that rank, in local order.
func (g *Group) Member(rank int, globals []int) *Member {
	return &Member{g: g, rank: rank, globals: globals}
}

// Member is one rank's view of a Group.
type Member struct {
	g       *Group
	rank    int
	globals []int
}

func (m *Member) Rank() int                 { return m.rank }
func (m *Member) Ranks() int                { return m.g.ranks }
func (m *Member) HomeRange() (int, int)     { return 0, len(m.globals) }
func (m *Member) GlobalIndex(local int) int { return m.globals[local] }

func (m *Member) CollectiveSum(vals []float64) {
	g := m.g
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.arrived == 0 {
		g.buf = make([]float64, len(vals))
	}
	for i, v := range vals {
		g.buf[i] += v
	}
	g.arrived++

	if g.arrived == g.ranks {
		g.result = g.buf
		g.arrived = 0
		g.generation++
		g.cond.Broadcast()
	} else {
		gen := g.generation
		for gen == g.generation {
			g.cond.Wait()
		}
	}
	copy(vals, g.result)
}
