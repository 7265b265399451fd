package opt

import "sort"

// branch is a candidate decision: set Var to Val.
type branch struct {
	v   Var
	val int8
}

// maxTrials caps the number of candidates probed per node.
const maxTrials = 48

// pickRow returns the row with the fewest repair candidates among the rows
// violated when every unassigned variable takes its default value, or -1 when
// the default completion satisfies every row. The objective row is skipped.
func (s *state) pickRow() int {
	best, bestCount := -1, 0
	for r, rw := range s.rows {
		if r == s.objRow {
			continue
		}
		var act int64
		count := 0
		for _, t := range rw.terms {
			b := s.val[t.Var]
			if b == unassigned {
				b = s.defaultVal(t.Var)
				if (b == 1 && t.Coef > 0) || (b == 0 && t.Coef < 0) {
					count++
				}
			}
			if b == 1 {
				act += t.Coef
			}
		}
		if act <= rw.rhs {
			continue
		}
		if best < 0 || count < bestCount {
			best, bestCount = r, count
		}
	}
	return best
}

// candidates lists the flips that reduce the activity of row r.
func (s *state) candidates(r int) []branch {
	var out []branch
	for _, t := range s.rows[r].terms {
		if s.val[t.Var] != unassigned {
			continue
		}
		d := s.defaultVal(t.Var)
		if (d == 1 && t.Coef > 0) || (d == 0 && t.Coef < 0) {
			out = append(out, branch{v: t.Var, val: 1 - d})
		}
	}
	return out
}

// choose probes each candidate by propagating it and picks the one whose
// implications raise the objective least. Candidates that fail propagation are
// skipped; when all fail the first is returned and the search backtracks on it.
func (s *state) choose(cands []branch) branch {
	base := s.fixedCost + s.negFree
	best := cands[0]
	bestDelta := int64(-1)
	for i, c := range cands {
		if i >= maxTrials {
			break
		}
		mark := len(s.trail)
		s.assign(c.v, c.val)
		ok := s.propagate()
		delta := s.fixedCost + s.negFree - base
		s.undo(mark)
		if !ok {
			continue
		}
		if bestDelta < 0 || delta < bestDelta {
			best, bestDelta = c, delta
			if delta == 0 {
				break
			}
		}
	}
	return best
}

// lowerBound bounds the objective of every completion of the current
// assignment: negative costs are taken in full, and for each cardinality
// cover the cheapest variables able to satisfy it are charged. The largest
// cover charge is added since covers may overlap.
func (s *state) lowerBound() int64 {
	var extra int64
	for _, c := range s.covers {
		need := c.need
		costs := s.scratch[:0]
		for _, v := range c.vars {
			switch s.val[v] {
			case 1:
				need--
			case unassigned:
				cost := s.cost[v]
				if cost < 0 {
					cost = 0
				}
				costs = append(costs, cost)
			}
		}
		s.scratch = costs
		if need <= 0 {
			continue
		}
		if int64(len(costs)) < need {
			return noCutoff
		}
		sort.Slice(costs, func(i, j int) bool { return costs[i] < costs[j] })
		var sum int64
		for _, c := range costs[:need] {
			sum += c
		}
		if sum > extra {
			extra = sum
		}
	}
	return s.fixedCost + s.negFree + extra
}
