package rational

import (
	"fmt"
	"math/big"
)

// Normalized is the result of one normalization pass: every input as an exact
// fraction and as an integer on the shared Scale.
type Normalized struct {
	Scale  int64
	Values []Rational
	Scaled []int64
}

// Value returns the i-th input reconstructed from its scaled integer.
func (n Normalized) Value(i int) Rational { return New(n.Scaled[i], n.Scale) }

// ScaledOf returns r on the pass's scale. r must have been part of the pass
// (or have a denominator dividing Scale).
func (n Normalized) ScaledOf(r Rational) (int64, error) {
	if n.Scale%r.Den != 0 {
		return 0, fmt.Errorf("rational: %s is not on scale %d", r, n.Scale)
	}
	x := new(big.Int).Mul(big.NewInt(r.Num), big.NewInt(n.Scale/r.Den))
	if !x.IsInt64() {
		return 0, &PrecisionError{Value: r.String(), Denominator: fmt.Sprint(n.Scale), Overflow: true}
	}
	return x.Int64(), nil
}

// Normalize parses values and finds the smallest scale S such that value*S is
// an integer for every value. S is the least common multiple of the reduced
// denominators. A maxDenominator <= 0 selects DefaultMaxDenominator.
func Normalize(values []string, maxDenominator int64) (Normalized, error) {
	if maxDenominator <= 0 {
		maxDenominator = DefaultMaxDenominator
	}
	limit := big.NewInt(maxDenominator)
	rats := make([]*big.Rat, len(values))
	scale := big.NewInt(1)
	for i, s := range values {
		r, err := parseRat(s)
		if err != nil {
			return Normalized{}, err
		}
		if r.Sign() < 0 {
			return Normalized{}, fmt.Errorf("%w: %s", ErrNegative, s)
		}
		rats[i] = r
		scale = lcm(scale, r.Denom())
		if scale.Cmp(limit) > 0 {
			return Normalized{}, &PrecisionError{Value: s, Denominator: scale.String(), MaxDenominator: maxDenominator}
		}
	}
	out := Normalized{
		Scale:  scale.Int64(),
		Values: make([]Rational, len(values)),
		Scaled: make([]int64, len(values)),
	}
	for i, r := range rats {
		v, err := fromRat(values[i], r)
		if err != nil {
			return Normalized{}, err
		}
		// value * S is integral because Denom divides S.
		x := new(big.Int).Mul(r.Num(), new(big.Int).Quo(scale, r.Denom()))
		if !x.IsInt64() {
			return Normalized{}, &PrecisionError{Value: values[i], Denominator: scale.String(), Overflow: true}
		}
		if new(big.Rat).SetFrac(x, scale).Cmp(r) != 0 {
			return Normalized{}, fmt.Errorf("rational: reconstruction of %s drifted", values[i])
		}
		out.Values[i] = v
		out.Scaled[i] = x.Int64()
	}
	return out, nil
}

func lcm(a, b *big.Int) *big.Int {
	g := new(big.Int).GCD(nil, nil, a, b)
	x := new(big.Int).Quo(a, g)
	return x.Mul(x, b)
}
