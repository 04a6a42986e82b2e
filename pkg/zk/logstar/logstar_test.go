package zklogstar

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
)

func TestLogStar(t *testing.T) {
	verifier, _ := test.PaillierSecretKey(1).GeneratePedersen()
	prover := test.PaillierSecretKey(0).PublicKey

	G := sample.ScalarUnit(rand.Reader).ActOnBase()

	x := sample.IntervalL(rand.Reader)
	C, rho := prover.Enc(x)
	X := new(curve.Scalar).SetInt(x).Act(G)
	public := Public{
		C:      C,
		X:      X,
		G:      G,
		Prover: prover,
		Aux:    verifier,
	}

	proof := NewProof(hash.New(), public, Private{
		X:   x,
		Rho: rho,
	})
	assert.True(t, proof.Verify(hash.New(), public))

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(hash.New(), public))

	public.G = nil
	assert.False(t, proof.Verify(hash.New(), public), "proof verified for the wrong base")
}

func TestLogStarGenerator(t *testing.T) {
	verifier, _ := test.PaillierSecretKey(3).GeneratePedersen()
	prover := test.PaillierSecretKey(2).PublicKey

	x := sample.IntervalL(rand.Reader)
	C, rho := prover.Enc(x)
	public := Public{
		C:      C,
		X:      new(curve.Scalar).SetInt(x).ActOnBase(),
		Prover: prover,
		Aux:    verifier,
	}
	proof := NewProof(hash.New(), public, Private{X: x, Rho: rho})
	assert.True(t, proof.Verify(hash.New(), public))

	_, public.X = sample.ScalarPointPair(rand.Reader)
	assert.False(t, proof.Verify(hash.New(), public))
}
