package arith

import (
	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/params"
)

// IsValidNatModN checks that ints are all in the range [1,…,N-1] and are co-prime to N.
func IsValidNatModN(N *saferith.Modulus, ints ...*saferith.Nat) bool {
	if N == nil {
		return false
	}
	for _, i := range ints {
		if i == nil {
			return false
		}
		if _, _, lt := i.CmpMod(N); lt != 1 {
			return false
		}
		if i.IsUnit(N) != 1 {
			return false
		}
	}
	return true
}

// IsInIntervalLEps returns true if n ∈ [-2ˡ⁺ᵉ,…,2ˡ⁺ᵉ].
func IsInIntervalLEps(n *saferith.Int) bool {
	return isInInterval(n, params.LPlusEpsilon)
}

// IsInIntervalLPrimeEps returns true if n ∈ [-2ˡ'⁺ᵉ,…,2ˡ'⁺ᵉ].
func IsInIntervalLPrimeEps(n *saferith.Int) bool {
	return isInInterval(n, params.LPrimePlusEpsilon)
}

// IsInIntervalLEpsPlus1RootN returns true if n ∈ [-2¹⁺ˡ⁺ᵉ√N,…,2¹⁺ˡ⁺ᵉ√N], for a Paillier modulus N.
func IsInIntervalLEpsPlus1RootN(n *saferith.Int) bool {
	return isInInterval(n, 1+params.LPlusEpsilon+(params.BitsIntModN+1)/2)
}

func isInInterval(n *saferith.Int, bits int) bool {
	if n == nil {
		return false
	}
	return n.TrueLen() <= bits
}

// Clone returns a copy of x, or nil if x is nil.
func Clone(x *saferith.Nat) *saferith.Nat {
	if x == nil {
		return nil
	}
	return new(saferith.Nat).SetNat(x)
}
