package sample

import (
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
)

// Signed returns a uniform integer in ±2ᵇⁱᵗˢ, sampled in constant time.
// bits must be a multiple of 8.
func Signed(rand io.Reader, bits int) *saferith.Int {
	// the first byte only provides the sign
	buf := make([]byte, 1+bits/8)
	mustReadBits(rand, buf)
	out := new(saferith.Int).SetBytes(buf[1:])
	return out.Neg(saferith.Choice(buf[0] & 1))
}

// The proofs mask their secrets with values drawn from these intervals,
// named after their bound: l, l', ε and N the Paillier modulus size.

func IntervalL(rand io.Reader) *saferith.Int         { return Signed(rand, params.L) }
func IntervalLPrime(rand io.Reader) *saferith.Int    { return Signed(rand, params.LPrime) }
func IntervalLEps(rand io.Reader) *saferith.Int      { return Signed(rand, params.LPlusEpsilon) }
func IntervalLPrimeEps(rand io.Reader) *saferith.Int { return Signed(rand, params.LPrimePlusEpsilon) }
func IntervalLN(rand io.Reader) *saferith.Int        { return Signed(rand, params.L+params.BitsIntModN) }
func IntervalLN2(rand io.Reader) *saferith.Int       { return Signed(rand, params.L+2*params.BitsIntModN) }
func IntervalLEpsN(rand io.Reader) *saferith.Int     { return Signed(rand, params.LPlusEpsilon+params.BitsIntModN) }
func IntervalLEpsN2(rand io.Reader) *saferith.Int    { return Signed(rand, params.LPlusEpsilon+2*params.BitsIntModN) }

// IntervalLEpsRootN returns an integer in ±2ˡ⁺ᵉ⋅√N.
func IntervalLEpsRootN(rand io.Reader) *saferith.Int {
	return Signed(rand, params.LPlusEpsilon+(params.BitsIntModN+1)/2)
}

// IntervalScalar returns an integer in ±q, q being the order of the curve.
func IntervalScalar(rand io.Reader) *saferith.Int {
	return Signed(rand, curve.ScalarBits)
}
