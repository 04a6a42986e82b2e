// Package zkprm proves that ring-Pedersen parameters (N, s, t) satisfy s = tˡ for a secret λ.
package zkprm

import (
	"crypto/rand"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/arith"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

type Public struct {
	Aux *pedersen.Parameters
}

type Private struct {
	Lambda, Phi, P, Q *saferith.Nat
}

type Proof struct {
	As, Zs [params.ZKPrmIterations]*saferith.Nat
}

func (p *Proof) IsValid(public Public) bool {
	if p == nil || public.Aux == nil {
		return false
	}
	if !arith.IsValidNatModN(public.Aux.N(), p.As[:]...) {
		return false
	}
	for _, z := range p.Zs {
		if z == nil {
			return false
		}
	}
	return true
}

// NewProof generates a proof that:
// s = t^lambda (mod N).
func NewProof(hash *hash.Hash, private Private, public Public, pl *pool.Pool) *Proof {
	lambda := private.Lambda
	phi := saferith.ModulusFromNat(private.Phi)

	n := arith.ModulusFromFactors(private.P, private.Q)

	var (
		as [params.ZKPrmIterations]*saferith.Nat
		As [params.ZKPrmIterations]*saferith.Nat
	)
	pl.Parallelize(params.ZKPrmIterations, func(i int) interface{} {
		// aᵢ ∈ mod ϕ(N)
		as[i] = sample.ModN(rand.Reader, phi)

		// Aᵢ = tᵃ mod N
		As[i] = n.Exp(public.Aux.T(), as[i])

		return nil
	})

	es, _ := challenge(hash, public, As)
	// Modular addition is not expensive enough to warrant parallelizing
	var Zs [params.ZKPrmIterations]*saferith.Nat
	for i := 0; i < params.ZKPrmIterations; i++ {
		z := as[i]
		// The challenge is public, so branching is ok
		if es[i] {
			z.ModAdd(z, lambda, phi)
		}
		Zs[i] = z
	}

	return &Proof{
		As: As,
		Zs: Zs,
	}
}

// Verify returns true if the proof is valid for public.
func (p *Proof) Verify(hash *hash.Hash, public Public, pl *pool.Pool) bool {
	if !p.IsValid(public) {
		return false
	}

	n, s, t := public.Aux.N(), public.Aux.S(), public.Aux.T()

	es, err := challenge(hash, public, p.As)
	if err != nil {
		return false
	}

	one := new(saferith.Nat).SetUint64(1)
	verifications := pl.Parallelize(params.ZKPrmIterations, func(i int) interface{} {
		z := p.Zs[i]
		a := p.As[i]

		if a.Eq(one) == 1 {
			return false
		}

		lhs := new(saferith.Nat).Exp(t, z, n)
		rhs := new(saferith.Nat).Mod(a, n)
		if es[i] {
			rhs.ModMul(rhs, s, n)
		}
		return lhs.Eq(rhs) == 1
	})
	for i := 0; i < len(verifications); i++ {
		if !verifications[i].(bool) {
			return false
		}
	}
	return true
}

func challenge(hash *hash.Hash, public Public, A [params.ZKPrmIterations]*saferith.Nat) (es []bool, err error) {
	if err = hash.WriteAny(public.Aux); err != nil {
		return nil, err
	}
	for _, a := range A {
		if err = hash.WriteAny(a); err != nil {
			return nil, err
		}
	}

	tmpBytes := make([]byte, params.ZKPrmIterations)
	_, _ = io.ReadFull(hash.Digest(), tmpBytes)

	es = make([]bool, params.ZKPrmIterations)
	for i := range es {
		b := (tmpBytes[i] & 1) == 1
		es[i] = b
	}

	return
}
