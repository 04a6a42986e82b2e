package polynomial

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

func TestPolynomial_Constant(t *testing.T) {
	deg := 10
	secret := sample.Scalar(rand.Reader)
	poly := NewPolynomial(deg, secret)
	require.True(t, poly.Constant().Equal(secret))
	require.Equal(t, deg, poly.Degree())
}

func TestPolynomial_Evaluate(t *testing.T) {
	polynomial := &Polynomial{[]*curve.Scalar{
		curve.NewScalarUInt32(1),
		curve.NewScalarUInt32(0),
		curve.NewScalarUInt32(1),
	}}

	for index := 0; index < 100; index++ {
		x := mrand.Uint32() | 1
		result := big.NewInt(int64(x))
		result.Mul(result, result)
		result.Add(result, big.NewInt(1))
		computedResult := polynomial.Evaluate(curve.NewScalarUInt32(x))
		expectedResult := curve.NewScalar().SetNat(new(saferith.Nat).SetBig(result, result.BitLen()))
		assert.True(t, expectedResult.Equal(computedResult))
	}
}

func TestExponent_Evaluate(t *testing.T) {
	for x := 0; x < 5; x++ {
		var secret *curve.Scalar
		if x%2 == 0 {
			secret = sample.Scalar(rand.Reader)
		}
		poly := NewPolynomial(20, secret)
		polyExp := NewPolynomialExponent(poly)

		randomIndex := sample.ScalarUnit(rand.Reader)

		lhs := poly.Evaluate(randomIndex).ActOnBase()
		rhs := polyExp.Evaluate(randomIndex)
		assert.True(t, lhs.Equal(rhs), "base eval differs from exponent eval")
		assert.Equal(t, 20, polyExp.Degree())
	}
}

func TestExponent_Sum(t *testing.T) {
	n, deg := 10, 5
	randomIndex := sample.ScalarUnit(rand.Reader)

	evaluationScalar := curve.NewScalar()
	polysExp := make([]*Exponent, n)
	for i := range polysExp {
		poly := NewPolynomial(deg, sample.Scalar(rand.Reader))
		polysExp[i] = NewPolynomialExponent(poly)
		evaluationScalar.Add(poly.Evaluate(randomIndex))
	}

	summed, err := Sum(polysExp)
	require.NoError(t, err)
	assert.True(t, summed.Evaluate(randomIndex).Equal(evaluationScalar.ActOnBase()))

	_, err = Sum(nil)
	assert.Error(t, err)
}

func TestExponent_Marshal(t *testing.T) {
	for _, constant := range []*curve.Scalar{nil, sample.Scalar(rand.Reader)} {
		polyExp := NewPolynomialExponent(NewPolynomial(3, constant))
		data, err := polyExp.MarshalBinary()
		require.NoError(t, err)
		decoded := &Exponent{}
		require.NoError(t, decoded.UnmarshalBinary(data))
		assert.True(t, polyExp.Equal(decoded))
		require.NoError(t, decoded.Valid())
	}

	assert.Error(t, new(Exponent).UnmarshalBinary([]byte{2, 0, 0, 0, 0}))
	assert.Error(t, new(Exponent).UnmarshalBinary([]byte{0, 0, 0, 0, 1}))
}

func TestLagrange(t *testing.T) {
	ids := make([]party.ID, 10)
	for i := range ids {
		s, err := party.GenerateSigner(rand.Reader)
		require.NoError(t, err)
		ids[i] = s.ID()
	}
	all := party.NewIDSlice(ids)

	for _, domain := range []party.IDSlice{all, all[:9], all[:1]} {
		sum := curve.NewScalar()
		for _, c := range Lagrange(domain) {
			sum.Add(c)
		}
		assert.True(t, sum.Equal(curve.NewScalarUInt32(1)))
	}

	// interpolation of f(X) = s + aX recovers s from any two points
	secret := sample.Scalar(rand.Reader)
	poly := NewPolynomial(1, secret)
	subset := party.IDSlice{all[3], all[7]}
	coefficients := Lagrange(subset)
	recovered := curve.NewScalar()
	for _, id := range subset {
		recovered.Add(poly.Evaluate(id.Scalar()).Mul(coefficients[id]))
	}
	assert.True(t, recovered.Equal(secret))
	assert.True(t, LagrangeSingle(subset, all[3]).Equal(coefficients[all[3]]))
}
