// Package zkfac proves that the factors of a Paillier modulus N₀ are both larger than 2ˡ.
package zkfac

import (
	"crypto/rand"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/pkg/math/arith"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
)

type Public struct {
	// N0 is the prover's Paillier modulus.
	N0 *saferith.Modulus
	// Aux are the verifier's ring-Pedersen parameters.
	Aux *pedersen.Parameters
}

type Private struct {
	// P, Q are the factors of N0.
	P, Q *saferith.Nat
}

type Commitment struct {
	P *saferith.Nat
	Q *saferith.Nat
	A *saferith.Nat
	B *saferith.Nat
	T *saferith.Nat
}

type Proof struct {
	Comm  Commitment
	Sigma *saferith.Int
	Z1    *saferith.Int
	Z2    *saferith.Int
	W1    *saferith.Int
	W2    *saferith.Int
	V     *saferith.Int
}

func (p *Proof) IsValid(public Public) bool {
	if p == nil || public.Aux == nil || public.N0 == nil {
		return false
	}
	if p.Sigma == nil || p.Z1 == nil || p.Z2 == nil || p.W1 == nil || p.W2 == nil || p.V == nil {
		return false
	}
	return arith.IsValidNatModN(public.Aux.N(), p.Comm.P, p.Comm.Q, p.Comm.A, p.Comm.B, p.Comm.T)
}

// NewProof proves that the factors P, Q of N₀ are larger than roughly √N₀/2ˡ⁺ᵉ.
func NewProof(hash *hash.Hash, public Public, private Private) *Proof {
	aux := public.Aux
	p := new(saferith.Int).SetNat(private.P)
	q := new(saferith.Int).SetNat(private.Q)

	alpha, beta := sample.IntervalLEpsRootN(rand.Reader), sample.IntervalLEpsRootN(rand.Reader)
	mu, nu := sample.IntervalLN(rand.Reader), sample.IntervalLN(rand.Reader)
	x, y := sample.IntervalLEpsN(rand.Reader), sample.IntervalLEpsN(rand.Reader)
	sigma := sample.IntervalLN2(rand.Reader)
	r := sample.IntervalLEpsN2(rand.Reader)

	comm := Commitment{
		P: aux.Commit(p, mu),
		Q: aux.Commit(q, nu),
		A: aux.Commit(alpha, x),
		B: aux.Commit(beta, y),
	}
	// T = Qᵅ tʳ
	N := aux.NArith()
	comm.T = N.ExpI(comm.Q, alpha)
	comm.T.ModMul(comm.T, N.ExpI(aux.T(), r), N.Modulus)

	e, _ := challenge(hash, public, comm)

	// σ̂ = σ - ν⋅p
	sigmaHat := new(saferith.Int).Mul(nu, p, -1).Neg(1)
	sigmaHat.Add(sigmaHat, sigma, -1)

	return &Proof{
		Comm:  comm,
		Sigma: sigma,
		Z1:    respond(e, p, alpha),
		Z2:    respond(e, q, beta),
		W1:    respond(e, mu, x),
		W2:    respond(e, nu, y),
		V:     respond(e, sigmaHat, r),
	}
}

// respond returns mask + e⋅secret.
func respond(e, secret, mask *saferith.Int) *saferith.Int {
	z := new(saferith.Int).Mul(e, secret, -1)
	return z.Add(z, mask, -1)
}

func (p *Proof) Verify(hash *hash.Hash, public Public) bool {
	if !p.IsValid(public) {
		return false
	}
	if !arith.IsInIntervalLEpsPlus1RootN(p.Z1) || !arith.IsInIntervalLEpsPlus1RootN(p.Z2) {
		return false
	}

	e, err := challenge(hash, public, p.Comm)
	if err != nil {
		return false
	}

	aux := public.Aux
	N := aux.NArith()
	// baseᵉ⋅c mod N
	shifted := func(base *saferith.Nat, c *saferith.Nat) *saferith.Nat {
		out := N.ExpI(base, e)
		return out.ModMul(out, c, N.Modulus)
	}

	// R = s^N₀ tᵒ
	R := N.Exp(aux.S(), public.N0.Nat())
	R.ModMul(R, N.ExpI(aux.T(), p.Sigma), N.Modulus)

	// Q^z₁ tᵛ
	last := N.ExpI(p.Comm.Q, p.Z1)
	last.ModMul(last, N.ExpI(aux.T(), p.V), N.Modulus)

	return aux.Commit(p.Z1, p.W1).Eq(shifted(p.Comm.P, p.Comm.A)) == 1 &&
		aux.Commit(p.Z2, p.W2).Eq(shifted(p.Comm.Q, p.Comm.B)) == 1 &&
		last.Eq(shifted(R, p.Comm.T)) == 1
}

func challenge(hash *hash.Hash, public Public, c Commitment) (*saferith.Int, error) {
	if err := hash.WriteAny(public.N0, public.Aux, c.P, c.Q, c.A, c.B, c.T); err != nil {
		return nil, err
	}
	return sample.IntervalScalar(hash.Digest()), nil
}
