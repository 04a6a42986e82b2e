package curve

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/taurusgroup/cmp-ia/internal/params"
)

// Scalar is an element of ℤₙ.
type Scalar struct {
	value secp256k1.ModNScalar
}

// NewScalar returns a new zero Scalar.
func NewScalar() *Scalar {
	return new(Scalar)
}

// NewScalarUInt32 returns a Scalar set to x.
func NewScalarUInt32(x uint32) *Scalar {
	var s Scalar
	s.value.SetInt(x)
	return &s
}

// Clone returns a copy of s.
func (s *Scalar) Clone() *Scalar {
	return NewScalar().Set(s)
}

// Set sets s = x, and returns s.
func (s *Scalar) Set(x *Scalar) *Scalar {
	s.value.Set(&x.value)
	return s
}

// Add sets s = s + x mod n, and returns s.
func (s *Scalar) Add(x *Scalar) *Scalar {
	s.value.Add(&x.value)
	return s
}

// Sub sets s = s - x mod n, and returns s.
func (s *Scalar) Sub(x *Scalar) *Scalar {
	var negX secp256k1.ModNScalar
	negX.NegateVal(&x.value)
	s.value.Add(&negX)
	return s
}

// Mul sets s = s • x mod n, and returns s.
func (s *Scalar) Mul(x *Scalar) *Scalar {
	s.value.Mul(&x.value)
	return s
}

// Negate sets s = -s mod n, and returns s.
func (s *Scalar) Negate() *Scalar {
	s.value.Negate()
	return s
}

// Invert sets s = s⁻¹ mod n, and returns s.
// The inverse of 0 is 0.
func (s *Scalar) Invert() *Scalar {
	s.value.InverseNonConst()
	return s
}

// Equal returns true if s = x.
func (s *Scalar) Equal(x *Scalar) bool {
	return s.value.Equals(&x.value)
}

// IsZero returns true if s = 0.
func (s *Scalar) IsZero() bool {
	return s.value.IsZero()
}

// IsOverHalfOrder returns true if s > n/2.
func (s *Scalar) IsOverHalfOrder() bool {
	return s.value.IsOverHalfOrder()
}

// SetNat sets s = x mod n, and returns s.
func (s *Scalar) SetNat(x *saferith.Nat) *Scalar {
	reduced := new(saferith.Nat).Mod(x, order)
	s.value.SetByteSlice(fixedBytes(reduced.Bytes(), params.BytesScalar))
	return s
}

// SetInt sets s = x mod n, interpreting negative values of x as their representative in ℤₙ.
func (s *Scalar) SetInt(x *saferith.Int) *Scalar {
	return s.SetNat(x.Mod(order))
}

// Nat returns s as a saferith.Nat in [0, n).
func (s *Scalar) Nat() *saferith.Nat {
	bytes := s.value.Bytes()
	return new(saferith.Nat).SetBytes(bytes[:])
}

// Int returns s as a non-negative saferith.Int.
func (s *Scalar) Int() *saferith.Int {
	return new(saferith.Int).SetNat(s.Nat())
}

// Bytes returns the 32 byte big-endian encoding of s.
func (s *Scalar) Bytes() []byte {
	bytes := s.value.Bytes()
	return bytes[:]
}

// Act returns s⋅P.
func (s *Scalar) Act(p *Point) *Point {
	out := NewIdentityPoint()
	if p.IsIdentity() {
		return out
	}
	var normalized secp256k1.JacobianPoint
	normalized.Set(&p.value)
	normalized.ToAffine()
	secp256k1.ScalarMultNonConst(&s.value, &normalized, &out.value)
	return out
}

// ActOnBase returns s⋅G.
func (s *Scalar) ActOnBase() *Point {
	out := NewIdentityPoint()
	secp256k1.ScalarBaseMultNonConst(&s.value, &out.value)
	return out
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Scalar) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesScalar {
		return fmt.Errorf("curve.Scalar: invalid length %d", len(data))
	}
	if s.value.SetByteSlice(data) {
		return errors.New("curve.Scalar: scalar was >= n")
	}
	return nil
}

// WriteTo implements io.WriterTo.
func (s *Scalar) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(s.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (*Scalar) Domain() string { return "secp256k1.Scalar" }

// fixedBytes left pads or truncates the big-endian encoding b to size bytes.
func fixedBytes(b []byte, size int) []byte {
	if len(b) > size {
		return b[len(b)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
