package polynomial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
)

// Exponent represents a polynomial whose coefficients are points on an elliptic curve.
type Exponent struct {
	// IsConstant indicates that the constant coefficient is the identity.
	// We do this so that we never need to send an encoded Identity point, and thus consider it invalid.
	IsConstant bool
	// coefficients is a list of curve.Point representing the coefficients of a polynomial over an elliptic curve.
	coefficients []*curve.Point
}

// NewPolynomialExponent generates an Exponent polynomial F(X) = [secret + a₁•X + … + aₜ•Xᵗ]•G,
// with coefficients in 𝔾, and degree t.
func NewPolynomialExponent(polynomial *Polynomial) *Exponent {
	p := &Exponent{
		IsConstant:   polynomial.coefficients[0].IsZero(),
		coefficients: make([]*curve.Point, 0, len(polynomial.coefficients)),
	}

	for i, c := range polynomial.coefficients {
		if p.IsConstant && i == 0 {
			continue
		}
		p.coefficients = append(p.coefficients, c.ActOnBase())
	}

	return p
}

// Evaluate returns F(x) = [f(x)]•G.
func (p *Exponent) Evaluate(x *curve.Scalar) *curve.Point {
	result := curve.NewIdentityPoint()

	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// B_n-1 = [x]B_n  + A_n-1
		result = x.Act(result).Add(p.coefficients[i])
	}

	if p.IsConstant {
		// result is B_1
		// we want B_0 = [x]B_1 + A_0 = [x]B_1
		result = x.Act(result)
	}

	return result
}

// Degree returns the degree t of the polynomial.
func (p *Exponent) Degree() int {
	if p.IsConstant {
		return len(p.coefficients)
	}
	return len(p.coefficients) - 1
}

func (p *Exponent) add(q *Exponent) error {
	if len(p.coefficients) != len(q.coefficients) {
		return errors.New("polynomial: q is not the same length as p")
	}

	if p.IsConstant != q.IsConstant {
		return errors.New("polynomial: p and q differ in 'IsConstant'")
	}

	for i := 0; i < len(p.coefficients); i++ {
		p.coefficients[i] = p.coefficients[i].Add(q.coefficients[i])
	}

	return nil
}

// Sum creates a new Polynomial in the Exponent, by summing a slice of existing ones.
func Sum(polynomials []*Exponent) (*Exponent, error) {
	if len(polynomials) == 0 {
		return nil, errors.New("polynomial: nothing to sum")
	}
	summed := polynomials[0].Copy()

	// we assume all polynomials have the same degree as the first
	for j := 1; j < len(polynomials); j++ {
		if err := summed.add(polynomials[j]); err != nil {
			return nil, err
		}
	}
	return summed, nil
}

// Copy returns a deep copy of p.
func (p *Exponent) Copy() *Exponent {
	q := &Exponent{
		IsConstant:   p.IsConstant,
		coefficients: make([]*curve.Point, len(p.coefficients)),
	}
	for i := 0; i < len(p.coefficients); i++ {
		q.coefficients[i] = p.coefficients[i].Clone()
	}
	return q
}

// Equal returns true if both polynomials have the same coefficients.
func (p *Exponent) Equal(other *Exponent) bool {
	if p.IsConstant != other.IsConstant {
		return false
	}
	if len(p.coefficients) != len(other.coefficients) {
		return false
	}
	for i := 0; i < len(p.coefficients); i++ {
		if !p.coefficients[i].Equal(other.coefficients[i]) {
			return false
		}
	}
	return true
}

// Constant returns the constant coefficient of the polynomial 'in the exponent'.
func (p *Exponent) Constant() *curve.Point {
	if p.IsConstant {
		return curve.NewIdentityPoint()
	}
	return p.coefficients[0].Clone()
}

// Valid returns an error if p has no coefficient or contains the identity.
func (p *Exponent) Valid() error {
	if p == nil || len(p.coefficients) == 0 {
		return errors.New("polynomial: empty exponent")
	}
	for _, c := range p.coefficients {
		if c.IsIdentity() {
			return errors.New("polynomial: exponent coefficient is the identity")
		}
	}
	return nil
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (p *Exponent) WriteTo(w io.Writer) (int64, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (*Exponent) Domain() string {
	return "Exponent"
}

// MarshalBinary encodes p as a flag byte, a 4 byte count, and the compressed coefficients.
func (p *Exponent) MarshalBinary() ([]byte, error) {
	out := make([]byte, 5, 5+len(p.coefficients)*params.BytesPoint)
	if p.IsConstant {
		out[0] = 1
	}
	binary.BigEndian.PutUint32(out[1:], uint32(len(p.coefficients)))
	for _, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Exponent) UnmarshalBinary(data []byte) error {
	if len(data) < 5 || data[0] > 1 {
		return errors.New("polynomial: invalid exponent encoding")
	}
	isConstant := data[0] == 1
	count := int(binary.BigEndian.Uint32(data[1:5]))
	data = data[5:]
	if len(data) != count*params.BytesPoint {
		return fmt.Errorf("polynomial: expected %d coefficients", count)
	}
	coefficients := make([]*curve.Point, count)
	for i := range coefficients {
		coefficients[i] = curve.NewIdentityPoint()
		if err := coefficients[i].UnmarshalBinary(data[i*params.BytesPoint : (i+1)*params.BytesPoint]); err != nil {
			return err
		}
	}
	p.IsConstant = isConstant
	p.coefficients = coefficients
	return nil
}
