// Package pedersen implements ring-Pedersen commitments over a Blum modulus N,
// used as the auxiliary setup of the range proofs.
package pedersen

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/arith"
)

var (
	ErrNilFields    = errors.New("pedersen: contains nil field")
	ErrSEqualT      = errors.New("pedersen: s cannot be equal to t")
	ErrNotValidModN = errors.New("pedersen: s and t must be units mod N")
)

// Parameters are ring-Pedersen parameters (N, s, t), where t generates the same subgroup as s.
// A party publishes its own, and the others prove statements to it under them.
type Parameters struct {
	n    *arith.Modulus
	s, t *saferith.Nat
}

// New returns the parameters (n, s, t), which must satisfy ValidateParameters.
// n may carry its factorization when the caller is the owner of the parameters.
func New(n *arith.Modulus, s, t *saferith.Nat) *Parameters {
	return &Parameters{n: n, s: s, t: t}
}

// ValidateParameters returns an error unless s and t are distinct units mod n.
func ValidateParameters(n *saferith.Modulus, s, t *saferith.Nat) error {
	switch {
	case n == nil || s == nil || t == nil:
		return ErrNilFields
	case !arith.IsValidNatModN(n, s, t):
		return ErrNotValidModN
	}
	if _, eq, _ := s.Cmp(t); eq == 1 {
		return ErrSEqualT
	}
	return nil
}

func (p Parameters) N() *saferith.Modulus   { return p.n.Modulus }
func (p Parameters) NArith() *arith.Modulus { return p.n }
func (p Parameters) S() *saferith.Nat       { return p.s }
func (p Parameters) T() *saferith.Nat       { return p.t }

// Commit returns sˣ⋅tʸ (mod N), which hides x and y.
func (p Parameters) Commit(x, y *saferith.Int) *saferith.Nat {
	return p.combine(p.s, x, p.t, y)
}

// Verify returns true if sᵃ⋅tᵇ ≡ S⋅Tᵉ (mod N), the verification equation of
// a proof of knowledge of the opening of T.
func (p Parameters) Verify(a, b, e *saferith.Int, S, T *saferith.Nat) bool {
	if a == nil || b == nil || e == nil || S == nil || T == nil {
		return false
	}
	if !arith.IsValidNatModN(p.n.Modulus, S, T) {
		return false
	}
	lhs := p.combine(p.s, a, p.t, b)
	rhs := p.n.ExpI(T, e)
	rhs.ModMul(rhs, S, p.n.Modulus)
	return lhs.Eq(rhs) == 1
}

// combine returns xᵃ⋅yᵇ (mod N).
func (p Parameters) combine(x *saferith.Nat, a *saferith.Int, y *saferith.Nat, b *saferith.Int) *saferith.Nat {
	xa := p.n.ExpI(x, a)
	yb := p.n.ExpI(y, b)
	return xa.ModMul(xa, yb, p.n.Modulus)
}

// elements are N, s and t, in their encoding order.
func (p *Parameters) elements() []*saferith.Nat {
	return []*saferith.Nat{p.n.Nat(), p.s, p.t}
}

// WriteTo implements io.WriterTo. It writes the same bytes as MarshalBinary.
func (p *Parameters) WriteTo(w io.Writer) (int64, error) {
	if p == nil {
		return 0, io.ErrUnexpectedEOF
	}
	data, _ := p.MarshalBinary()
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain, and separates this type within hash.Hash.
func (Parameters) Domain() string {
	return "Pedersen Parameters"
}

// MarshalBinary encodes N, s and t as fixed size big-endian integers.
func (p *Parameters) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 3*params.BytesIntModN)
	for i, x := range p.elements() {
		x.FillBytes(buf[i*params.BytesIntModN : (i+1)*params.BytesIntModN])
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// The decoded parameters are checked with ValidateParameters.
func (p *Parameters) UnmarshalBinary(data []byte) error {
	if len(data) != 3*params.BytesIntModN {
		return fmt.Errorf("pedersen: invalid length %d", len(data))
	}
	n := saferith.ModulusFromBytes(data[:params.BytesIntModN])
	s := new(saferith.Nat).SetBytes(data[params.BytesIntModN : 2*params.BytesIntModN])
	t := new(saferith.Nat).SetBytes(data[2*params.BytesIntModN:])
	if err := ValidateParameters(n, s, t); err != nil {
		return err
	}
	*p = *New(arith.ModulusFromN(n), s, t)
	return nil
}
