package fixedpoint

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleUnscale(t *testing.T) {
	testCases := []struct {
		name     string
		reward   uint64
		shares   uint64
		amount   uint64
		expected uint64
	}{
		{"single staker gets all", 10555, 20, 20, 10555},
		{"even split", 333, 20, 10, 166},
		{"dust truncated", 333, 59, 59, 332},
		{"zero reward", 0, 100, 100, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			perShare, err := Scale(tc.reward, tc.shares)
			require.NoError(t, err)
			got, err := Unscale(tc.amount, perShare)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestScaleTruncatesPerShare(t *testing.T) {
	perShare, err := Scale(333, 59)
	require.NoError(t, err)
	// 333e12/59 = 5644067796610.169...
	assert.Equal(t, "5644067796610", Format(perShare))
}

func TestScaleZeroShares(t *testing.T) {
	_, err := Scale(1, 0)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestUnscaleOverflow(t *testing.T) {
	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 250)
	_, err := Unscale(math.MaxUint64, huge)
	assert.ErrorIs(t, err, ErrOverflow)

	// product fits in 256 bits but the result does not fit in 64
	big := new(uint256.Int).Lsh(uint256.NewInt(1), 100)
	_, err = Unscale(math.MaxUint64, big)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestProductAndQuo(t *testing.T) {
	p, err := Product(19, 1000, 2000)
	require.NoError(t, err)
	q, err := Quo(p, 3600)
	require.NoError(t, err)
	assert.Equal(t, uint64(10555), q)

	_, err = Quo(p, 0)
	assert.ErrorIs(t, err, ErrDivideByZero)

	_, err = Product(math.MaxUint64, math.MaxUint64, math.MaxUint64, math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrOverflow)

	p, err = Product(math.MaxUint64, 2)
	require.NoError(t, err)
	_, err = Quo(p, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulDiv(t *testing.T) {
	v, err := MulDiv(40, 300, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	v, err = MulDiv(math.MaxUint64, math.MaxUint64, math.MaxUint64)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)
}

func TestAddSub(t *testing.T) {
	s, err := Add(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), s)

	_, err = Add(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	d, err := Sub(5, 5)
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = Sub(4, 5)
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestAccumulate(t *testing.T) {
	acc, err := Accumulate(uint256.NewInt(5), uint256.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, uint64(12), acc.Uint64())

	max := new(uint256.Int).SetAllOne()
	_, err = Accumulate(max, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestParseFormat(t *testing.T) {
	v, err := Parse("44588135593220")
	require.NoError(t, err)
	assert.Equal(t, "44588135593220", Format(v))

	z, err := Parse("")
	require.NoError(t, err)
	assert.True(t, z.IsZero())

	_, err = Parse("not-a-number")
	assert.Error(t, err)
	assert.Equal(t, "0", Format(nil))
}
