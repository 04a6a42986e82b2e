// Package polynomial implements the Shamir sharing polynomials over the scalar field,
// their Feldman commitments, and Lagrange interpolation at zero.
package polynomial

import (
	"crypto/rand"

	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
)

// Polynomial is f(X) = ∑ᵢ aᵢ⋅Xⁱ with random aᵢ for i > 0.
type Polynomial struct {
	coefficients []*curve.Scalar
}

// NewPolynomial samples a polynomial of the given degree with f(0) = constant.
// A nil constant is zero, which is what refresh polynomials use.
func NewPolynomial(degree int, constant *curve.Scalar) *Polynomial {
	a := make([]*curve.Scalar, 0, degree+1)
	if constant == nil {
		a = append(a, curve.NewScalar())
	} else {
		a = append(a, constant.Clone())
	}
	for len(a) <= degree {
		a = append(a, sample.Scalar(rand.Reader))
	}
	return &Polynomial{coefficients: a}
}

// Evaluate returns f(x) for a party's non zero index x.
// It panics on x = 0, since f(0) is the shared secret.
func (p *Polynomial) Evaluate(x *curve.Scalar) *curve.Scalar {
	if x.IsZero() {
		panic("polynomial: evaluation at 0")
	}
	// Horner
	y := curve.NewScalar()
	for i := p.Degree(); i >= 0; i-- {
		y.Mul(x).Add(p.coefficients[i])
	}
	return y
}

func (p *Polynomial) Constant() *curve.Scalar { return p.coefficients[0].Clone() }
func (p *Polynomial) Degree() int             { return len(p.coefficients) - 1 }
