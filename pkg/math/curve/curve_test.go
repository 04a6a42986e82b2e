package curve

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomScalar(t *testing.T) *Scalar {
	buf := make([]byte, SafeScalarBytes)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return NewScalar().SetNat(new(saferith.Nat).SetBytes(buf))
}

func TestScalar_Arithmetic(t *testing.T) {
	a, b := randomScalar(t), randomScalar(t)

	sum := a.Clone().Add(b)
	assert.True(t, sum.Sub(b).Equal(a))

	product := a.Clone().Mul(b)
	assert.True(t, product.Mul(b.Clone().Invert()).Equal(a))

	neg := a.Clone().Negate()
	assert.True(t, neg.Add(a).IsZero())

	assert.True(t, NewScalar().Invert().IsZero())
}

func TestScalar_SetInt(t *testing.T) {
	a := randomScalar(t)
	negA := new(saferith.Int).SetNat(a.Nat())
	negA.Neg(1)
	assert.True(t, NewScalar().SetInt(negA).Equal(a.Clone().Negate()))
}

func TestScalar_Marshal(t *testing.T) {
	a := randomScalar(t)
	data, err := a.MarshalBinary()
	require.NoError(t, err)
	b := NewScalar()
	require.NoError(t, b.UnmarshalBinary(data))
	assert.True(t, a.Equal(b))

	assert.Error(t, b.UnmarshalBinary(data[:31]))
	overflow := make([]byte, 32)
	for i := range overflow {
		overflow[i] = 0xff
	}
	assert.Error(t, b.UnmarshalBinary(overflow))
}

func TestPoint_Arithmetic(t *testing.T) {
	a, b := randomScalar(t), randomScalar(t)
	A, B := a.ActOnBase(), b.ActOnBase()

	assert.True(t, A.Add(B).Equal(a.Clone().Add(b).ActOnBase()))
	assert.True(t, A.Sub(A).IsIdentity())
	assert.True(t, A.Add(A.Negate()).IsIdentity())
	assert.True(t, b.Act(A).Equal(a.Act(B)))
	assert.True(t, a.Act(NewIdentityPoint()).IsIdentity())
	assert.True(t, NewScalar().ActOnBase().IsIdentity())
	assert.True(t, A.Add(NewIdentityPoint()).Equal(A))
	assert.True(t, NewBasePoint().Equal(NewScalarUInt32(1).ActOnBase()))
	assert.False(t, A.Equal(NewIdentityPoint()))
}

func TestPoint_Marshal(t *testing.T) {
	for _, p := range []*Point{randomScalar(t).ActOnBase(), NewIdentityPoint(), NewBasePoint()} {
		data, err := p.MarshalBinary()
		require.NoError(t, err)
		require.Len(t, data, 33)
		q := NewIdentityPoint()
		require.NoError(t, q.UnmarshalBinary(data))
		assert.True(t, p.Equal(q))
	}

	bad := make([]byte, 33)
	bad[0] = 4
	assert.Error(t, NewIdentityPoint().UnmarshalBinary(bad))
	assert.Error(t, NewIdentityPoint().UnmarshalBinary(bad[:10]))
}

func TestPoint_XScalar(t *testing.T) {
	assert.Nil(t, NewIdentityPoint().XScalar())
	p := randomScalar(t).ActOnBase()
	data, _ := p.MarshalBinary()
	x := NewScalar().SetNat(new(saferith.Nat).SetBytes(data[1:]))
	assert.True(t, x.Equal(p.XScalar()))
}

func TestFromHash(t *testing.T) {
	digest := sha256.Sum256([]byte("message"))
	s := FromHash(digest[:])
	assert.Equal(t, digest[:], s.Bytes())

	long := make([]byte, 64)
	copy(long, digest[:])
	assert.True(t, FromHash(long).Equal(s))
}
