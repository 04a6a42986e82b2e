package zkmod

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

func TestMod(t *testing.T) {
	pl := pool.NewPool(0)

	sk := test.PaillierSecretKey(0)
	public := Public{N: sk.N()}
	private := Private{
		P:   sk.P(),
		Q:   sk.Q(),
		Phi: sk.Phi(),
	}
	proof := NewProof(hash.New(), private, public, pl)
	assert.True(t, proof.Verify(hash.New(), public, pl), "failed to verify proof")
	assert.False(t, proof.Verify(hash.New(), Public{N: test.PaillierSecretKey(1).N()}, pl), "proof verified for another modulus")

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(hash.New(), public, pl), "failed to verify unmarshalled proof")

	proof.W = new(saferith.Nat).SetUint64(0)
	for idx := range proof.Responses {
		proof.Responses[idx].X = new(saferith.Nat).SetUint64(0)
	}
	assert.False(t, proof.Verify(hash.New(), public, pl), "proof should have failed")
}

func TestModNilProof(t *testing.T) {
	var proof *Proof
	assert.False(t, proof.Verify(hash.New(), Public{N: test.PaillierSecretKey(0).N()}, nil))
}

func TestFourthRoot(t *testing.T) {
	p := new(saferith.Nat).SetUint64(311)
	q := new(saferith.Nat).SetUint64(331)
	n := saferith.ModulusFromUint64(311 * 331)
	phi := new(saferith.Nat).SetUint64(310 * 330)
	b := newBlum(n, p, q, phi)
	w := sample.QNR(rand.Reader, n)

	for _, v := range []uint64{502, 2, 3, 1000} {
		y := new(saferith.Nat).SetUint64(v)
		negate, mulW, yPrime := b.residue(y, w)
		require.True(t, b.isQR(yPrime))

		if mulW {
			y.ModMul(y, w, n)
		}
		if negate {
			y.ModNeg(y, n)
		}
		assert.Equal(t, saferith.Choice(1), yPrime.Eq(y), "y' should be (-1)ᵃwᵇy")

		root := new(saferith.Nat).Exp(yPrime, b.root, n)
		root.Exp(root, new(saferith.Nat).SetUint64(4), n)
		assert.Equal(t, saferith.Choice(1), root.Eq(y), "root^4 should be equal to y'")
	}
}
