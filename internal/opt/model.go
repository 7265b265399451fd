package opt

import (
	"fmt"
	"sort"
	"strings"
)

// Var indexes a boolean decision variable of a Model.
type Var int

// Term is Coef * Var.
type Term struct {
	Var  Var
	Coef int64
}

// Sense is the relation of a linear constraint.
type Sense int8

const (
	LE Sense = iota // sum <= rhs
	GE              // sum >= rhs
	EQ              // sum == rhs
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	}
	return "?"
}

// Constraint is a named linear constraint over boolean variables.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   int64
}

func (c Constraint) String() string {
	var sb strings.Builder
	for i, t := range c.Terms {
		if i > 0 {
			sb.WriteString(" + ")
		}
		fmt.Fprintf(&sb, "%d*v%d", t.Coef, t.Var)
	}
	fmt.Fprintf(&sb, " %s %d", c.Sense, c.RHS)
	return sb.String()
}

// activity evaluates the left-hand side for a full assignment.
func (c Constraint) activity(values []bool) int64 {
	var sum int64
	for _, t := range c.Terms {
		if values[t.Var] {
			sum += t.Coef
		}
	}
	return sum
}

func (c Constraint) satisfied(values []bool) bool {
	act := c.activity(values)
	switch c.Sense {
	case LE:
		return act <= c.RHS
	case GE:
		return act >= c.RHS
	default:
		return act == c.RHS
	}
}

// Model is an immutable 0/1 linear minimization problem. Build one with Builder.
type Model struct {
	names     []string
	cons      []Constraint
	objective []Term
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.names) }

// VarName returns the name given to v at creation.
func (m *Model) VarName(v Var) string { return m.names[v] }

// Constraints returns a copy of the constraints.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.cons))
	for i, c := range m.cons {
		c.Terms = append([]Term(nil), c.Terms...)
		out[i] = c
	}
	return out
}

// Objective returns a copy of the objective terms.
func (m *Model) Objective() []Term { return append([]Term(nil), m.objective...) }

// Evaluate returns the objective value of a full assignment.
func (m *Model) Evaluate(values []bool) int64 {
	var sum int64
	for _, t := range m.objective {
		if values[t.Var] {
			sum += t.Coef
		}
	}
	return sum
}

// Check verifies a full assignment against every constraint and returns the
// first violated one.
func (m *Model) Check(values []bool) error {
	if len(values) != len(m.names) {
		return fmt.Errorf("opt: assignment has %d values, model has %d vars", len(values), len(m.names))
	}
	for _, c := range m.cons {
		if !c.satisfied(values) {
			return fmt.Errorf("opt: constraint %q violated: %s (activity %d)", c.Name, c, c.activity(values))
		}
	}
	return nil
}

// Builder accumulates variables and constraints. It is not safe for concurrent use.
type Builder struct {
	names     []string
	cons      []Constraint
	objective []Term
	err       error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Bool adds a boolean variable.
func (b *Builder) Bool(name string) Var {
	b.names = append(b.names, name)
	return Var(len(b.names) - 1)
}

// Add appends the constraint sum(terms) sense rhs.
func (b *Builder) Add(name string, terms []Term, sense Sense, rhs int64) {
	if b.err != nil {
		return
	}
	merged, err := b.merge(terms)
	if err != nil {
		b.err = fmt.Errorf("constraint %q: %w", name, err)
		return
	}
	b.cons = append(b.cons, Constraint{Name: name, Terms: merged, Sense: sense, RHS: rhs})
}

// Minimize sets the objective.
func (b *Builder) Minimize(terms []Term) {
	if b.err != nil {
		return
	}
	merged, err := b.merge(terms)
	if err != nil {
		b.err = fmt.Errorf("objective: %w", err)
		return
	}
	b.objective = merged
}

// merge folds repeated variables and drops zero coefficients.
func (b *Builder) merge(terms []Term) ([]Term, error) {
	acc := make(map[Var]int64, len(terms))
	for _, t := range terms {
		if t.Var < 0 || int(t.Var) >= len(b.names) {
			return nil, fmt.Errorf("unknown variable %d", t.Var)
		}
		acc[t.Var] += t.Coef
	}
	out := make([]Term, 0, len(acc))
	for v, c := range acc {
		if c != 0 {
			out = append(out, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return out, nil
}

// Build freezes the builder's content into a Model.
func (b *Builder) Build() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	m := &Model{
		names:     append([]string(nil), b.names...),
		objective: append([]Term(nil), b.objective...),
		cons:      make([]Constraint, len(b.cons)),
	}
	for i, c := range b.cons {
		c.Terms = append([]Term(nil), c.Terms...)
		m.cons[i] = c
	}
	return m, nil
}

// Sum returns unit-coefficient terms over vars.
func Sum(vars ...Var) []Term {
	out := make([]Term, len(vars))
	for i, v := range vars {
		out[i] = Term{Var: v, Coef: 1}
	}
	return out
}

// Scale returns terms with coefficients multiplied by k.
func Scale(terms []Term, k int64) []Term {
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return out
}
