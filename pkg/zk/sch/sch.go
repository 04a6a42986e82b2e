// Package zksch implements a Schnorr proof of knowledge of a discrete logarithm.
//
// The commitment can be sent ahead of the response, which lets the key generation
// protocols commit to it before the joint randomness is known.
package zksch

import (
	"crypto/rand"
	"io"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
)

// Randomness = a ← ℤₚ.
type Randomness struct {
	a          *curve.Scalar
	commitment Commitment
}

// Commitment = randomness•G, where.
type Commitment struct {
	C *curve.Point
}

// Response = randomness + H(..., commitment, public)•secret (mod p).
type Response struct {
	Z *curve.Scalar
}

type Proof struct {
	C Commitment
	Z Response
}

// NewProof generates a Schnorr proof of knowledge of exponent for public, using the Fiat-Shamir transform.
func NewProof(hash *hash.Hash, public *curve.Point, private *curve.Scalar) *Proof {
	a := NewRandomness(rand.Reader)
	z := a.Prove(hash, public, private)
	return &Proof{
		C: *a.Commitment(),
		Z: *z,
	}
}

// NewRandomness creates a new a ∈ ℤₚ and the corresponding commitment C = a•G.
// This can be used to run the proof in a non-interactive way.
func NewRandomness(rand io.Reader) *Randomness {
	a, c := sample.ScalarPointPair(rand)
	return &Randomness{
		a:          a,
		commitment: Commitment{C: c},
	}
}

func challenge(hash *hash.Hash, commitment *Commitment, public *curve.Point) (*curve.Scalar, error) {
	err := hash.WriteAny(commitment.C, public, curve.NewBasePoint())
	if err != nil {
		return nil, err
	}
	return sample.Scalar(hash.Digest()), nil
}

// Prove creates a Response = Randomness + H(..., Commitment, public)•secret (mod p).
func (r *Randomness) Prove(hash *hash.Hash, public *curve.Point, secret *curve.Scalar) *Response {
	if public.IsIdentity() || secret.IsZero() {
		return nil
	}
	e, err := challenge(hash, &r.commitment, public)
	if err != nil {
		return nil
	}
	z := e.Mul(secret).Add(r.a)
	return &Response{Z: z}
}

// Commitment returns the commitment C = a•G for the randomness a.
func (r *Randomness) Commitment() *Commitment {
	return &r.commitment
}

// Verify checks that Response•G = Commitment + H(..., Commitment, public)•Public.
func (z *Response) Verify(hash *hash.Hash, public *curve.Point, commitment *Commitment) bool {
	if z == nil || !z.IsValid() || public == nil || public.IsIdentity() || !commitment.IsValid() {
		return false
	}

	e, err := challenge(hash, commitment, public)
	if err != nil {
		return false
	}

	lhs := z.Z.ActOnBase()
	rhs := e.Act(public).Add(commitment.C)

	return lhs.Equal(rhs)
}

// Verify checks that Proof.Response•G = Proof.Commitment + H(..., Proof.Commitment, Public)•Public.
func (p *Proof) Verify(hash *hash.Hash, public *curve.Point) bool {
	if p == nil || !p.IsValid() {
		return false
	}
	return p.Z.Verify(hash, public, &p.C)
}

// IsValid returns true if the commitment is non-nil and not the identity.
func (c *Commitment) IsValid() bool {
	if c == nil || c.C == nil || c.C.IsIdentity() {
		return false
	}
	return true
}

// IsValid returns true if the response is non-nil and non-zero.
func (z *Response) IsValid() bool {
	if z == nil || z.Z == nil || z.Z.IsZero() {
		return false
	}
	return true
}

// IsValid returns true if both the commitment and response are valid.
func (p *Proof) IsValid() bool {
	if p == nil || !p.Z.IsValid() || !p.C.IsValid() {
		return false
	}
	return true
}
