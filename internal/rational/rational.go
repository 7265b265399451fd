// Package rational converts decimal time values into exact integer ratios.
//
// All times entering the allocation model pass through Normalize so that the
// solver only ever compares integers. No floating point value is used for a
// decision; Float64 exists for display only.
package rational

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// DefaultMaxDenominator bounds the common scale when the caller does not set one.
// Three fractional digits (for example 3.125) fit.
const DefaultMaxDenominator int64 = 1000

var (
	// ErrSyntax is wrapped by every parse failure.
	ErrSyntax = errors.New("rational: invalid number")
	// ErrNegative is returned for values below zero.
	ErrNegative = errors.New("rational: negative value")
)

// PrecisionError reports a value that cannot be expressed under the configured
// maximum denominator, or whose scaled form overflows int64.
type PrecisionError struct {
	Value          string
	Denominator    string
	MaxDenominator int64
	Overflow       bool
}

func (e *PrecisionError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("rational: %s overflows int64 when scaled by %s", e.Value, e.Denominator)
	}
	return fmt.Sprintf("rational: %s needs denominator %s, max is %d", e.Value, e.Denominator, e.MaxDenominator)
}

// Rational is a reduced fraction with a positive denominator.
type Rational struct {
	Num int64
	Den int64
}

// New returns num/den in lowest terms. It panics when den is zero.
func New(num, den int64) Rational {
	if den == 0 {
		panic("rational: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Rational{Num: num, Den: den}
}

// Int returns n/1.
func Int(n int64) Rational { return Rational{Num: n, Den: 1} }

// Parse reads a decimal ("4.5", "18", "3.25e0") or fraction ("9/2") literal exactly.
func Parse(s string) (Rational, error) {
	r, err := parseRat(s)
	if err != nil {
		return Rational{}, err
	}
	return fromRat(s, r)
}

// FromFloat converts f using its shortest decimal representation, so 4.5
// becomes 9/2 and 0.1 becomes 1/10 rather than the nearest binary fraction.
func FromFloat(f float64) (Rational, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Rational{}, fmt.Errorf("%w: %v", ErrSyntax, f)
	}
	return Parse(strconv.FormatFloat(f, 'f', -1, 64))
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Rational {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseRat(s string) (*big.Rat, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil, fmt.Errorf("%w: empty", ErrSyntax)
	}
	r, ok := new(big.Rat).SetString(t)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return r, nil
}

func fromRat(src string, r *big.Rat) (Rational, error) {
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Rational{}, &PrecisionError{Value: src, Denominator: r.Denom().String(), Overflow: true}
	}
	return Rational{Num: r.Num().Int64(), Den: r.Denom().Int64()}, nil
}

func (r Rational) rat() *big.Rat { return big.NewRat(r.Num, r.Den) }

// Cmp returns -1, 0 or +1 as r is less than, equal to, or greater than o.
func (r Rational) Cmp(o Rational) int { return r.rat().Cmp(o.rat()) }

// Sign returns -1, 0 or +1.
func (r Rational) Sign() int {
	switch {
	case r.Num < 0:
		return -1
	case r.Num > 0:
		return 1
	}
	return 0
}

// MulInt returns r*n.
func (r Rational) MulInt(n int64) Rational {
	x := new(big.Rat).Mul(r.rat(), new(big.Rat).SetInt64(n))
	return Rational{Num: x.Num().Int64(), Den: x.Denom().Int64()}
}

// DivInt returns r/n. It panics when n is zero.
func (r Rational) DivInt(n int64) Rational {
	if n == 0 {
		panic("rational: division by zero")
	}
	x := new(big.Rat).Quo(r.rat(), new(big.Rat).SetInt64(n))
	return Rational{Num: x.Num().Int64(), Den: x.Denom().Int64()}
}

// Float64 is the nearest float; for display.
func (r Rational) Float64() float64 {
	f, _ := r.rat().Float64()
	return f
}

// String renders "9/2", or "18" for integers.
func (r Rational) String() string {
	if r.Den == 1 || r.Den == 0 {
		return strconv.FormatInt(r.Num, 10)
	}
	return strconv.FormatInt(r.Num, 10) + "/" + strconv.FormatInt(r.Den, 10)
}

// Decimal renders the exact decimal expansion when it terminates and a value
// rounded to four places otherwise (8.3333 for 25/3).
func (r Rational) Decimal() string {
	if r.Den == 0 {
		return "0"
	}
	d := r.Den
	digits := 0
	for d%10 == 0 {
		d /= 10
		digits++
	}
	for d%2 == 0 {
		d /= 2
		digits++
	}
	for d%5 == 0 {
		d /= 5
		digits++
	}
	if d != 1 {
		return r.rat().FloatString(4)
	}
	return r.rat().FloatString(digits)
}

// Terminating reports whether the decimal expansion of r is finite.
func (r Rational) Terminating() bool {
	d := r.Den
	for d%2 == 0 {
		d /= 2
	}
	for d%5 == 0 {
		d /= 5
	}
	return d == 1
}

// CeilDiv returns ceil(a/b) for a >= 0, b > 0.
func CeilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
