package sample

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/params"
)

func TestModN(t *testing.T) {
	n := saferith.ModulusFromUint64(3 * 11 * 65519)
	for i := 0; i < 32; i++ {
		x := ModN(rand.Reader, n)
		_, _, lt := x.CmpMod(n)
		require.Equal(t, saferith.Choice(1), lt, "ModN generated a number >= n")
	}
}

func TestUnitModN(t *testing.T) {
	n := saferith.ModulusFromUint64(3 * 11 * 65519)
	for i := 0; i < 32; i++ {
		x := UnitModN(rand.Reader, n)
		require.Equal(t, saferith.Choice(1), x.IsUnit(n))
	}
}

func TestQNR(t *testing.T) {
	n := saferith.ModulusFromUint64(7 * 11)
	w := QNR(rand.Reader, n)
	assert.Equal(t, -1, big.Jacobi(w.Big(), n.Big()))
}

func TestIntervals(t *testing.T) {
	tests := []struct {
		name   string
		sample func() *saferith.Int
		bits   int
	}{
		{"L", func() *saferith.Int { return IntervalL(rand.Reader) }, params.L},
		{"LEps", func() *saferith.Int { return IntervalLEps(rand.Reader) }, params.LPlusEpsilon},
		{"LPrimeEps", func() *saferith.Int { return IntervalLPrimeEps(rand.Reader) }, params.LPrimePlusEpsilon},
		{"LEpsN", func() *saferith.Int { return IntervalLEpsN(rand.Reader) }, params.LPlusEpsilon + params.BitsIntModN},
		{"Scalar", func() *saferith.Int { return IntervalScalar(rand.Reader) }, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 16; i++ {
				assert.LessOrEqual(t, tt.sample().TrueLen(), tt.bits)
			}
		})
	}
}

func TestScalarUnit(t *testing.T) {
	s := ScalarUnit(rand.Reader)
	assert.False(t, s.IsZero())
}

func TestPedersen(t *testing.T) {
	// p = 23, q = 47 are safe primes congruent to 3 mod 4.
	p, q := uint64(23), uint64(47)
	n := saferith.ModulusFromUint64(p * q)
	phi := new(saferith.Nat).SetUint64((p - 1) * (q - 1))
	s, tt, lambda := Pedersen(rand.Reader, phi, n)
	expected := new(saferith.Nat).Exp(tt, lambda, n)
	assert.Equal(t, saferith.Choice(1), expected.Eq(s))
}

func TestBlumPrime(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping prime generation in short mode")
	}
	p := BlumPrime(rand.Reader).Big()
	assert.Equal(t, params.BitsBlumPrime, p.BitLen())
	assert.True(t, p.ProbablyPrime(halfRounds), "BlumPrime generated a non prime number")
	q := new(big.Int).Rsh(p, 1)
	assert.True(t, q.ProbablyPrime(halfRounds), "p isn't safe because (p - 1) / 2 isn't prime")
	assert.Equal(t, uint64(3), new(big.Int).Mod(p, big.NewInt(4)).Uint64())
}

var resultNat *saferith.Nat

func BenchmarkBlumPrime(b *testing.B) {
	for i := 0; i < b.N; i++ {
		resultNat = BlumPrime(rand.Reader)
	}
}
