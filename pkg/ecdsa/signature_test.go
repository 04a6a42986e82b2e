package ecdsa

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
)

func newSignature(x *curve.Scalar, hash []byte, k *curve.Scalar) Signature {
	if k == nil {
		k = sample.ScalarUnit(rand.Reader)
	}
	m := curve.FromHash(hash)
	kInv := k.Clone().Invert()
	R := kInv.ActOnBase()
	r := R.XScalar()
	s := r.Mul(x).Add(m).Mul(k)
	return Signature{
		R: R,
		S: s,
	}
}

func TestSignature_Verify(t *testing.T) {
	m := sha256.Sum256([]byte("hello"))
	x, X := sample.ScalarPointPair(rand.Reader)
	sig := newSignature(x, m[:], nil)
	assert.True(t, sig.Verify(X, m[:]), "verify failed")

	other := sha256.Sum256([]byte("world"))
	assert.False(t, sig.Verify(X, other[:]), "verified a different message")

	_, Y := sample.ScalarPointPair(rand.Reader)
	assert.False(t, sig.Verify(Y, m[:]), "verified with a different key")
}

func TestSignature_Normalize(t *testing.T) {
	m := sha256.Sum256([]byte("normalize"))
	x, X := sample.ScalarPointPair(rand.Reader)
	for i := 0; i < 8; i++ {
		sig := newSignature(x, m[:], nil)
		sig.Normalize()
		assert.False(t, sig.S.IsOverHalfOrder())
		assert.True(t, sig.Verify(X, m[:]), "normalized signature must verify")

		eth, err := sig.SigEthereum()
		require.NoError(t, err)
		assert.Len(t, eth, 65)
		assert.Contains(t, []byte{0, 1}, eth[64])
	}
}

func TestSignature_Btcec(t *testing.T) {
	m := sha256.Sum256([]byte("btcec"))
	x, X := sample.ScalarPointPair(rand.Reader)
	sig := newSignature(x, m[:], nil)
	sig.Normalize()

	btcSig, err := sig.ToBtcec()
	require.NoError(t, err)

	XBytes, err := X.MarshalBinary()
	require.NoError(t, err)
	pub, err := btcec.ParsePubKey(XBytes)
	require.NoError(t, err)
	assert.True(t, btcSig.Verify(m[:], pub), "btcec failed to verify")

	serialized, err := sig.Serialize()
	require.NoError(t, err)
	assert.Len(t, serialized, 64)
}

func TestSignature_Marshal(t *testing.T) {
	m := sha256.Sum256([]byte("marshal"))
	x, X := sample.ScalarPointPair(rand.Reader)
	sig := newSignature(x, m[:], nil)

	data, err := sig.MarshalBinary()
	require.NoError(t, err)
	sig2 := EmptySignature()
	require.NoError(t, sig2.UnmarshalBinary(data))
	assert.True(t, sig2.Verify(X, m[:]))
	assert.Error(t, sig2.UnmarshalBinary(data[1:]))
}
