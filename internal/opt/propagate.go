package opt

const (
	unassigned int8 = -1

	// noCutoff is the objective row limit before any incumbent exists and the
	// bound reported for nodes that cannot be completed.
	noCutoff int64 = 1 << 60
)

// row is a constraint normalized to sum(terms) <= rhs.
type row struct {
	terms []Term
	rhs   int64
}

type occurrence struct {
	row  int
	coef int64
}

// cover is a cardinality requirement sum(vars) >= need, kept for bounding.
type cover struct {
	vars []Var
	need int64
}

// state is the partial assignment of one search together with the
// incremental row activities needed for propagation. Changes are recorded on
// a trail and undone in LIFO order.
type state struct {
	rows   []row
	occ    [][]occurrence
	minAct []int64 // smallest activity reachable from the current partial assignment
	val    []int8
	trail  []Var

	cost      []int64
	fixedCost int64 // objective over assigned vars
	negFree   int64 // sum of negative costs of unassigned vars

	covers  []cover
	objRow  int
	queue   []int
	queued  []bool
	scratch []int64
}

func newState(m *Model) *state {
	n := m.NumVars()
	s := &state{
		occ:  make([][]occurrence, n),
		val:  make([]int8, n),
		cost: make([]int64, n),
	}
	for i := range s.val {
		s.val[i] = unassigned
	}
	for _, c := range m.cons {
		switch c.Sense {
		case LE:
			s.addRow(c.Terms, c.RHS)
		case GE:
			s.addRow(negate(c.Terms), -c.RHS)
		case EQ:
			s.addRow(c.Terms, c.RHS)
			s.addRow(negate(c.Terms), -c.RHS)
		}
		if c.Sense != LE && c.RHS > 0 && unitCoefs(c.Terms) {
			vars := make([]Var, len(c.Terms))
			for i, t := range c.Terms {
				vars[i] = t.Var
			}
			s.covers = append(s.covers, cover{vars: vars, need: c.RHS})
		}
	}
	for _, t := range m.objective {
		s.cost[t.Var] += t.Coef
	}
	for _, c := range s.cost {
		if c < 0 {
			s.negFree += c
		}
	}
	s.objRow = len(s.rows)
	s.addRow(m.objective, noCutoff)
	s.queued = make([]bool, len(s.rows))
	return s
}

func (s *state) addRow(terms []Term, rhs int64) {
	r := len(s.rows)
	var min int64
	for _, t := range terms {
		s.occ[t.Var] = append(s.occ[t.Var], occurrence{row: r, coef: t.Coef})
		if t.Coef < 0 {
			min += t.Coef
		}
	}
	s.rows = append(s.rows, row{terms: terms, rhs: rhs})
	s.minAct = append(s.minAct, min)
}

// defaultVal is the objective-cheapest value of v.
func (s *state) defaultVal(v Var) int8 {
	if s.cost[v] < 0 {
		return 1
	}
	return 0
}

func (s *state) assign(v Var, b int8) {
	s.val[v] = b
	s.trail = append(s.trail, v)
	for _, o := range s.occ[v] {
		if (b == 1 && o.coef > 0) || (b == 0 && o.coef < 0) {
			s.minAct[o.row] += abs64(o.coef)
			s.enqueue(o.row)
		}
	}
	c := s.cost[v]
	if b == 1 {
		s.fixedCost += c
	}
	if c < 0 {
		s.negFree -= c
	}
}

// undo reverts the trail down to mark.
func (s *state) undo(mark int) {
	for len(s.trail) > mark {
		v := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		b := s.val[v]
		for _, o := range s.occ[v] {
			if (b == 1 && o.coef > 0) || (b == 0 && o.coef < 0) {
				s.minAct[o.row] -= abs64(o.coef)
			}
		}
		c := s.cost[v]
		if b == 1 {
			s.fixedCost -= c
		}
		if c < 0 {
			s.negFree += c
		}
		s.val[v] = unassigned
	}
	s.clearQueue()
}

func (s *state) enqueue(r int) {
	if !s.queued[r] {
		s.queued[r] = true
		s.queue = append(s.queue, r)
	}
}

func (s *state) clearQueue() {
	for _, r := range s.queue {
		s.queued[r] = false
	}
	s.queue = s.queue[:0]
}

// propagate fixes every unassigned variable whose opposite value would push a
// row over its right-hand side. It returns false on a conflict.
func (s *state) propagate() bool {
	for len(s.queue) > 0 {
		r := s.queue[len(s.queue)-1]
		s.queue = s.queue[:len(s.queue)-1]
		s.queued[r] = false
		slack := s.rows[r].rhs - s.minAct[r]
		if slack < 0 {
			s.clearQueue()
			return false
		}
		for _, t := range s.rows[r].terms {
			if s.val[t.Var] != unassigned {
				continue
			}
			// setting t.Var to its min-contribution value leaves row r unchanged
			if t.Coef > slack {
				s.assign(t.Var, 0)
			} else if -t.Coef > slack {
				s.assign(t.Var, 1)
			}
		}
	}
	return true
}

// setCutoff restricts the objective to values <= limit.
func (s *state) setCutoff(limit int64) {
	s.rows[s.objRow].rhs = limit
	s.enqueue(s.objRow)
}

// completion returns the current assignment with unassigned variables at
// their default value.
func (s *state) completion() []bool {
	out := make([]bool, len(s.val))
	for v, b := range s.val {
		if b == unassigned {
			b = s.defaultVal(Var(v))
		}
		out[v] = b == 1
	}
	return out
}

func negate(terms []Term) []Term {
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = Term{Var: t.Var, Coef: -t.Coef}
	}
	return out
}

func unitCoefs(terms []Term) bool {
	if len(terms) == 0 {
		return false
	}
	for _, t := range terms {
		if t.Coef != 1 {
			return false
		}
	}
	return true
}

func abs64(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
