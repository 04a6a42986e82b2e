package zksch

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
)

func TestResponse(t *testing.T) {
	x, X := sample.ScalarPointPair(rand.Reader)
	a := NewRandomness(rand.Reader)
	z := a.Prove(hash.New(), X, x)

	other := NewRandomness(rand.Reader)
	tests := []struct {
		name       string
		public     *curve.Point
		commitment *Commitment
		h          *hash.Hash
		ok         bool
	}{
		{"valid", X, a.Commitment(), hash.New(), true},
		{"other point", X.Add(curve.NewBasePoint()), a.Commitment(), hash.New(), false},
		{"other commitment", X, other.Commitment(), hash.New(), false},
		{"other transcript", X, a.Commitment(), hash.New().Fork([]byte("keygen")), false},
		{"identity", curve.NewIdentityPoint(), a.Commitment(), hash.New(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, z.Verify(tt.h, tt.public, tt.commitment))
		})
	}
}

func TestProofOfZero(t *testing.T) {
	a := NewRandomness(rand.Reader)
	z := a.Prove(hash.New(), curve.NewIdentityPoint(), curve.NewScalar())
	assert.False(t, z.Verify(hash.New(), curve.NewIdentityPoint(), a.Commitment()))
}

func TestProofEncoding(t *testing.T) {
	x, X := sample.ScalarPointPair(rand.Reader)
	data, err := cbor.Marshal(NewProof(hash.New(), X, x))
	require.NoError(t, err)

	var decoded Proof
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	assert.True(t, decoded.IsValid())
	assert.True(t, decoded.Verify(hash.New(), X))
	assert.False(t, decoded.Verify(hash.New(), curve.NewBasePoint()))
}
