package zkenc

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
)

func TestEnc(t *testing.T) {
	verifier, _ := test.PaillierSecretKey(1).GeneratePedersen()
	prover := test.PaillierSecretKey(0).PublicKey

	k := sample.IntervalL(rand.Reader)
	K, rho := prover.Enc(k)
	public := Public{
		K:      K,
		Prover: prover,
		Aux:    verifier,
	}

	proof := NewProof(hash.New(), public, Private{
		K:   k,
		Rho: rho,
	})
	assert.True(t, proof.Verify(hash.New(), public))

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(hash.New(), public))

	other, _ := prover.Enc(sample.IntervalL(rand.Reader))
	public.K = other
	assert.False(t, proof.Verify(hash.New(), public), "proof verified for another ciphertext")
}

func TestEncOutOfRange(t *testing.T) {
	verifier, _ := test.PaillierSecretKey(1).GeneratePedersen()
	prover := test.PaillierSecretKey(0).PublicKey

	k := sample.IntervalLPrime(rand.Reader)
	K, rho := prover.Enc(k)
	public := Public{
		K:      K,
		Prover: prover,
		Aux:    verifier,
	}
	proof := NewProof(hash.New(), public, Private{
		K:   k,
		Rho: rho,
	})
	assert.False(t, proof.Verify(hash.New(), public), "proof should fail for a plaintext outside ±2ˡ")
}
