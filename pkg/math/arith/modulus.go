package arith

import (
	"github.com/cronokirby/saferith"
)

// Modulus is a saferith.Modulus n which, when built from the factors of n = p⋅q,
// exponentiates through the Chinese Remainder Theorem.
// Paillier secret keys and ring-Pedersen provers hold such a Modulus; everyone else holds a plain one.
type Modulus struct {
	*saferith.Modulus
	crt *crt
}

// crt holds the values needed to recombine exponentiations mod p and mod q.
type crt struct {
	p, q *saferith.Modulus
	// pNat is p as a Nat, pInv is p⁻¹ (mod q)
	pNat, pInv *saferith.Nat
}

// ModulusFromN wraps n, without copying it.
func ModulusFromN(n *saferith.Modulus) *Modulus {
	return &Modulus{Modulus: n}
}

// ModulusFromFactors returns the Modulus p⋅q. p and q must be coprime.
func ModulusFromFactors(p, q *saferith.Nat) *Modulus {
	qMod := saferith.ModulusFromNat(q)
	return &Modulus{
		Modulus: saferith.ModulusFromNat(new(saferith.Nat).Mul(p, q, -1)),
		crt: &crt{
			p:    saferith.ModulusFromNat(p),
			q:    qMod,
			pNat: new(saferith.Nat).SetNat(p),
			pInv: new(saferith.Nat).ModInverse(p, qMod),
		},
	}
}

// Exp returns xᵉ (mod n).
func (n *Modulus) Exp(x, e *saferith.Nat) *saferith.Nat {
	if n.crt == nil {
		return new(saferith.Nat).Exp(x, e, n.Modulus)
	}
	return n.crt.exp(x, e, n.Modulus)
}

// exp computes xᵉ mod p and mod q, and recombines them as
// x₁ + p⋅[p⁻¹ (mod q)]⋅(x₂ - x₁) (mod n).
func (c *crt) exp(x, e *saferith.Nat, n *saferith.Modulus) *saferith.Nat {
	var x1, x2 saferith.Nat
	x1.Exp(x, e, c.p)
	x2.Exp(x, e, c.q)
	r := x2.ModSub(&x2, &x1, n)
	r.ModMul(r, c.pInv, n)
	r.ModMul(r, c.pNat, n)
	return r.ModAdd(r, &x1, n)
}

// ExpI returns xᵉ (mod n) for a signed exponent. x must be invertible when e < 0.
func (n *Modulus) ExpI(x *saferith.Nat, e *saferith.Int) *saferith.Nat {
	if n.crt == nil {
		return new(saferith.Nat).ExpI(x, e, n.Modulus)
	}
	y := n.Exp(x, e.Abs())
	inverted := new(saferith.Nat).ModInverse(y, n.Modulus)
	y.CondAssign(e.IsNegative(), inverted)
	return y
}

// Mul returns x⋅y (mod n).
func (n *Modulus) Mul(x, y *saferith.Nat) *saferith.Nat {
	return new(saferith.Nat).ModMul(x, y, n.Modulus)
}

// HasFactorization returns true if n was built from its factors.
func (n *Modulus) HasFactorization() bool {
	return n.crt != nil
}
