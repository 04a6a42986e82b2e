package mta

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
)

func TestMtA(t *testing.T) {
	ski, skj := test.PaillierSecretKey(0), test.PaillierSecretKey(1)
	auxI, _ := ski.GeneratePedersen()
	auxJ, _ := skj.GeneratePedersen()
	toJ := Keys{Sender: ski.PublicKey, Receiver: skj.PublicKey, Aux: auxJ}
	toI := Keys{Sender: skj.PublicKey, Receiver: ski.PublicKey, Aux: auxI}

	a := sample.Scalar(rand.Reader)
	b := sample.Scalar(rand.Reader)
	A := a.ActOnBase()
	B, _ := skj.PublicKey.Enc(b.Int())

	m, beta := Send(hash.New(), ski, toJ, a.Int(), A, B)
	assert.True(t, m.Verify(hash.New(), toJ, A, B))

	t.Run("wrong point", func(t *testing.T) {
		assert.False(t, m.Verify(hash.New(), toJ, curve.NewBasePoint(), B))
	})
	t.Run("wrong direction", func(t *testing.T) {
		assert.False(t, m.Verify(hash.New(), toI, A, B))
	})
	t.Run("wrong transcript", func(t *testing.T) {
		assert.False(t, m.Verify(hash.New().Fork([]byte("j")), toJ, A, B))
	})
	t.Run("missing fields", func(t *testing.T) {
		var nilMessage *Message
		assert.False(t, nilMessage.Verify(hash.New(), toJ, A, B))
		assert.False(t, (&Message{D: m.D, F: m.F}).Verify(hash.New(), toJ, A, B))
	})

	// α + β = a⋅b
	alpha, err := skj.Dec(m.D)
	require.NoError(t, err)
	sum := alpha.Add(alpha, beta, -1)
	assert.True(t, a.Clone().Mul(b).Equal(curve.NewScalar().SetInt(sum)))
}
