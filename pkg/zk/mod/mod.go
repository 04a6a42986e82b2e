// Package zkmod proves that a Paillier modulus N is the product of two primes p, q ≡ 3 mod 4,
// with gcd(N, ϕ(N)) = 1.
package zkmod

import (
	"crypto/rand"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/arith"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

type Public struct {
	// N = p*q
	N *saferith.Modulus
}

type Private struct {
	// P, Q primes such that
	// P, Q ≡ 3 mod 4
	P, Q *saferith.Nat
	// Phi = ϕ(n) = (p-1)(q-1)
	Phi *saferith.Nat
}

type Response struct {
	// A, B s.t. y' = (-1)ᵃ wᵇ y
	A, B bool
	// X = y' ^ {1/4}
	X *saferith.Nat
	// Z = y^{N⁻¹ mod ϕ(N)}
	Z *saferith.Nat
}

type Proof struct {
	W         *saferith.Nat
	Responses [params.ZKModIterations]Response
}

// blum holds the factorization of a Blum integer n = p⋅q, which the prover needs to
// extract fourth roots.
type blum struct {
	n, p, q      *saferith.Modulus
	pHalf, qHalf *saferith.Nat

	// root is the exponent e such that (yᵉ)⁴ = y for a quadratic residue y
	root  *saferith.Nat
	arith *arith.Modulus
}

func newBlum(n *saferith.Modulus, p, q, phi *saferith.Nat) *blum {
	// e = ((ϕ + 4) / 8)²
	e := new(saferith.Nat).SetUint64(4)
	e.Add(e, phi, -1)
	e.Rsh(e, 3, -1)
	e.ModMul(e, e, saferith.ModulusFromNat(phi))
	return &blum{
		n:     n,
		p:     saferith.ModulusFromNat(p),
		q:     saferith.ModulusFromNat(q),
		pHalf: new(saferith.Nat).Rsh(p, 1, -1),
		qHalf: new(saferith.Nat).Rsh(q, 1, -1),
		root:  e,
		arith: arith.ModulusFromFactors(p, q),
	}
}

// isQR uses Euler's criterion modulo both factors.
func (b *blum) isQR(y *saferith.Nat) bool {
	one := new(saferith.Nat).SetUint64(1).Resize(1)
	yp := new(saferith.Nat).Mod(y, b.p)
	yq := new(saferith.Nat).Mod(y, b.q)
	return yp.Exp(yp, b.pHalf, b.p).Eq(one)&yq.Exp(yq, b.qHalf, b.q).Eq(one) == 1
}

// residue returns the quadratic residue y' = (-1)ᵃ⋅wᵇ⋅y, where w is a non residue with Jacobi symbol -1.
// Exactly one of the four candidates is a residue modulo both p and q.
func (b *blum) residue(y, w *saferith.Nat) (negate, mulW bool, out *saferith.Nat) {
	out = new(saferith.Nat).Mod(y, b.n)
	for _, step := range []struct{ negate, mulW bool }{{false, false}, {true, false}, {true, true}, {false, true}} {
		candidate := new(saferith.Nat).SetNat(out)
		if step.mulW {
			candidate.ModMul(candidate, w, b.n)
		}
		if step.negate {
			candidate.ModNeg(candidate, b.n)
		}
		if b.isQR(candidate) {
			return step.negate, step.mulW, candidate
		}
	}
	// n is not a Blum integer, the proof will fail
	return false, true, out.ModMul(out, w, b.n)
}

// NewProof proves that n is a Paillier-Blum modulus.
// For each challenge yᵢ the prover answers with zᵢ = yᵢ^{n⁻¹ mod ϕ(n)} and a fourth root xᵢ of
// y'ᵢ = (-1)ᵃ⋅wᵇ⋅yᵢ.
func NewProof(hash *hash.Hash, private Private, public Public, pl *pool.Pool) *Proof {
	n := public.N
	b := newBlum(n, private.P, private.Q, private.Phi)
	nInverse := new(saferith.Nat).ModInverse(n.Nat(), saferith.ModulusFromNat(private.Phi))
	// w is public, so it is sampled in variable time
	w := sample.QNR(rand.Reader, n)

	ys, _ := challenge(hash, n, w)

	proof := &Proof{W: w}
	pl.Parallelize(params.ZKModIterations, func(i int) interface{} {
		negate, mulW, yPrime := b.residue(ys[i], w)
		proof.Responses[i] = Response{
			A: negate,
			B: mulW,
			X: b.arith.Exp(yPrime, b.root),
			Z: b.arith.Exp(ys[i], nInverse),
		}
		return nil
	})
	return proof
}

// Verify checks a single response against its challenge y.
func (r *Response) Verify(n *saferith.Modulus, w, y *saferith.Nat) bool {
	// lhs = zⁿ mod n
	lhs := new(saferith.Nat).Exp(r.Z, n.Nat(), n)
	if lhs.Eq(y) != 1 {
		return false
	}

	// lhs = x⁴ (mod n)
	lhs.ModMul(r.X, r.X, n)
	lhs.ModMul(lhs, lhs, n)

	// rhs = y' = (-1)ᵃ • wᵇ • y
	rhs := new(saferith.Nat).Mod(y, n)
	if r.A {
		rhs.ModNeg(rhs, n)
	}
	if r.B {
		rhs.ModMul(rhs, w, n)
	}

	return lhs.Eq(rhs) == 1
}

// Verify returns true if the proof is valid for public.
func (p *Proof) Verify(hash *hash.Hash, public Public, pl *pool.Pool) bool {
	if p == nil || public.N == nil {
		return false
	}
	n := public.N
	nBig := n.Big()
	// check if n is odd and not prime
	if nBig.Bit(0) == 0 || nBig.ProbablyPrime(20) {
		return false
	}

	if p.W == nil || big.Jacobi(p.W.Big(), nBig) != -1 {
		return false
	}

	if !arith.IsValidNatModN(n, p.W) {
		return false
	}
	for _, r := range p.Responses {
		if !arith.IsValidNatModN(n, r.X, r.Z) {
			return false
		}
	}

	// get [yᵢ] <- ℤₙ
	ys, err := challenge(hash, n, p.W)
	if err != nil {
		return false
	}
	verifications := pl.Parallelize(params.ZKModIterations, func(i int) interface{} {
		return p.Responses[i].Verify(n, p.W, ys[i])
	})
	for i := 0; i < len(verifications); i++ {
		if !verifications[i].(bool) {
			return false
		}
	}
	return true
}

func challenge(hash *hash.Hash, n *saferith.Modulus, w *saferith.Nat) (es []*saferith.Nat, err error) {
	if err = hash.WriteAny(n, w); err != nil {
		return nil, err
	}
	es = make([]*saferith.Nat, params.ZKModIterations)
	digest := hash.Digest()
	for i := range es {
		es[i] = sample.ModN(digest, n)
	}
	return
}
