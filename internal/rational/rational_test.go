package rational

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var testCases = []struct {
		description string
		input       string
		expect      Rational
	}{
		{description: "half", input: "4.5", expect: Rational{Num: 9, Den: 2}},
		{description: "integer", input: "18", expect: Rational{Num: 18, Den: 1}},
		{description: "integer with fraction digit", input: "18.0", expect: Rational{Num: 18, Den: 1}},
		{description: "quarter", input: "3.25", expect: Rational{Num: 13, Den: 4}},
		{description: "fraction literal", input: "9/2", expect: Rational{Num: 9, Den: 2}},
		{description: "tenth", input: "4.8", expect: Rational{Num: 24, Den: 5}},
		{description: "padded", input: " 0.5 ", expect: Rational{Num: 1, Den: 2}},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.input)
		require.NoError(t, err, tc.description)
		assert.Equal(t, tc.expect, got, tc.description)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "4,5", "1/0"} {
		_, err := Parse(in)
		assert.True(t, errors.Is(err, ErrSyntax), "input %q: %v", in, err)
	}
}

func TestFromFloat(t *testing.T) {
	r, err := FromFloat(0.1)
	require.NoError(t, err)
	assert.Equal(t, Rational{Num: 1, Den: 10}, r)

	r, err = FromFloat(4.5)
	require.NoError(t, err)
	assert.Equal(t, Rational{Num: 9, Den: 2}, r)
}

func TestDecimal(t *testing.T) {
	assert.Equal(t, "4.5", New(9, 2).Decimal())
	assert.Equal(t, "18", Int(18).Decimal())
	assert.Equal(t, "3.25", New(13, 4).Decimal())
	assert.Equal(t, "8.3333", New(25, 3).Decimal())
	assert.Equal(t, "9/2", New(18, 4).String())
}

func TestCeilDiv(t *testing.T) {
	assert.EqualValues(t, 3, CeilDiv(25, 10))
	assert.EqualValues(t, 2, CeilDiv(20, 10))
	assert.EqualValues(t, 1, CeilDiv(1, 10))
	assert.EqualValues(t, 0, CeilDiv(0, 10))
}

func TestNormalize(t *testing.T) {
	n, err := Normalize([]string{"4.5", "18", "3.2", "0.5"}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10, n.Scale)
	assert.Equal(t, []int64{45, 180, 32, 5}, n.Scaled)
	assert.Equal(t, New(9, 2), n.Values[0])
}

func TestNormalizeSingleDigitReconstruction(t *testing.T) {
	// every value with at most one fractional digit must round trip exactly
	var values []string
	for whole := 0; whole < 30; whole++ {
		for tenth := 0; tenth < 10; tenth++ {
			values = append(values, fmt.Sprintf("%d.%d", whole, tenth))
		}
	}
	n, err := Normalize(values, 10)
	require.NoError(t, err)
	for i, v := range values {
		want := MustParse(v)
		assert.Zero(t, n.Value(i).Cmp(want), "value %s", v)
		assert.Equal(t, want, n.Values[i])
	}
}

func TestNormalizeHalvesOnly(t *testing.T) {
	n, err := Normalize([]string{"4.5", "10", "25"}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n.Scale)
	assert.Equal(t, []int64{9, 20, 50}, n.Scaled)
}

func TestNormalizePrecisionOverflow(t *testing.T) {
	_, err := Normalize([]string{"1.5", "0.001"}, 100)
	var pe *PrecisionError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "0.001", pe.Value)
	assert.EqualValues(t, 100, pe.MaxDenominator)

	_, err = Normalize([]string{"1/3", "1/7", "1/11"}, 100)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "231", pe.Denominator)
}

func TestNormalizeRejectsNegative(t *testing.T) {
	_, err := Normalize([]string{"3", "-1"}, 0)
	assert.True(t, errors.Is(err, ErrNegative))
}

func TestScaledOf(t *testing.T) {
	n, err := Normalize([]string{"0.5", "3"}, 0)
	require.NoError(t, err)
	v, err := n.ScaledOf(Int(4))
	require.NoError(t, err)
	assert.EqualValues(t, 8, v)
	_, err = n.ScaledOf(New(1, 3))
	assert.Error(t, err)
}
