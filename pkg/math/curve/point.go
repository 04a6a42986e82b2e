package curve

import (
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/taurusgroup/cmp-ia/internal/params"
)

// Point is an element of the secp256k1 group.
type Point struct {
	value secp256k1.JacobianPoint
}

// NewIdentityPoint returns the identity element ∞.
func NewIdentityPoint() *Point {
	return new(Point)
}

// NewBasePoint returns the generator G.
func NewBasePoint() *Point {
	return NewScalarUInt32(1).ActOnBase()
}

// Set sets p = q and returns p.
func (p *Point) Set(q *Point) *Point {
	p.value.Set(&q.value)
	return p
}

// Clone returns a copy of p.
func (p *Point) Clone() *Point {
	return NewIdentityPoint().Set(p)
}

// Add returns p + q.
func (p *Point) Add(q *Point) *Point {
	out := NewIdentityPoint()
	secp256k1.AddNonConst(&p.value, &q.value, &out.value)
	return out
}

// Sub returns p - q.
func (p *Point) Sub(q *Point) *Point {
	return p.Add(q.Negate())
}

// Negate returns -p.
func (p *Point) Negate() *Point {
	out := p.Clone()
	if out.IsIdentity() {
		return out
	}
	out.value.Y.Normalize()
	out.value.Y.Negate(1)
	out.value.Y.Normalize()
	return out
}

// IsIdentity returns true if p = ∞.
func (p *Point) IsIdentity() bool {
	var z secp256k1.FieldVal
	z.Set(&p.value.Z).Normalize()
	if z.IsZero() {
		return true
	}
	var affine secp256k1.JacobianPoint
	affine.Set(&p.value)
	affine.ToAffine()
	return affine.X.IsZero() && affine.Y.IsZero()
}

// Equal returns true if p = q.
func (p *Point) Equal(q *Point) bool {
	pIdentity, qIdentity := p.IsIdentity(), q.IsIdentity()
	if pIdentity || qIdentity {
		return pIdentity == qIdentity
	}
	var a, b secp256k1.JacobianPoint
	a.Set(&p.value)
	b.Set(&q.value)
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

// XScalar returns the x coordinate of p reduced modulo n.
// The identity has no x coordinate, and nil is returned instead.
func (p *Point) XScalar() *Scalar {
	if p.IsIdentity() {
		return nil
	}
	var affine secp256k1.JacobianPoint
	affine.Set(&p.value)
	affine.ToAffine()
	out := NewScalar()
	out.value.SetByteSlice(affine.X.Bytes()[:])
	return out
}

// HasEvenY returns true if the y coordinate of p is even.
func (p *Point) HasEvenY() bool {
	var affine secp256k1.JacobianPoint
	affine.Set(&p.value)
	affine.ToAffine()
	return !affine.Y.IsOdd()
}

// ToPublicKey returns p as a secp256k1 public key.
func (p *Point) ToPublicKey() *secp256k1.PublicKey {
	var affine secp256k1.JacobianPoint
	affine.Set(&p.value)
	affine.ToAffine()
	return secp256k1.NewPublicKey(&affine.X, &affine.Y)
}

// MarshalBinary implements encoding.BinaryMarshaler.
//
// Points are encoded in compressed form. The identity is encoded as 33 zero bytes.
func (p *Point) MarshalBinary() ([]byte, error) {
	out := make([]byte, params.BytesPoint)
	if p.IsIdentity() {
		return out, nil
	}
	var affine secp256k1.JacobianPoint
	affine.Set(&p.value)
	affine.ToAffine()
	out[0] = byte(affine.Y.IsOddBit()) + 2
	data := affine.X.Bytes()
	copy(out[1:], data[:])
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Point) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesPoint {
		return fmt.Errorf("curve.Point: invalid length %d", len(data))
	}
	identity := true
	for _, b := range data {
		if b != 0 {
			identity = false
			break
		}
	}
	if identity {
		p.value = secp256k1.JacobianPoint{}
		return nil
	}
	if data[0] != 2 && data[0] != 3 {
		return fmt.Errorf("curve.Point: invalid prefix %d", data[0])
	}
	var value secp256k1.JacobianPoint
	if value.X.SetByteSlice(data[1:]) {
		return errors.New("curve.Point: x coordinate out of range")
	}
	if !secp256k1.DecompressY(&value.X, data[0] == 3, &value.Y) {
		return errors.New("curve.Point: x coordinate not on curve")
	}
	value.X.Normalize()
	value.Y.Normalize()
	value.Z.SetInt(1)
	p.value = value
	return nil
}

// WriteTo implements io.WriterTo.
func (p *Point) WriteTo(w io.Writer) (int64, error) {
	data, _ := p.MarshalBinary()
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (*Point) Domain() string { return "secp256k1.Point" }
