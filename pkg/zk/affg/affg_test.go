package zkaffg

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
)

func setup() (Public, Private) {
	verifierPaillier := test.PaillierSecretKey(1).PublicKey
	verifierPedersen, _ := test.PaillierSecretKey(2).GeneratePedersen()
	prover := test.PaillierSecretKey(0).PublicKey

	c := new(saferith.Int).SetNat(new(saferith.Nat).SetUint64(12))
	C, _ := verifierPaillier.Enc(c)

	x := sample.IntervalL(rand.Reader)
	X := new(curve.Scalar).SetInt(x).ActOnBase()

	y := sample.IntervalLPrime(rand.Reader)
	Y, rhoY := prover.Enc(y)

	tmp := C.Clone().Mul(verifierPaillier, x)
	D, rho := verifierPaillier.Enc(y)
	D.Add(verifierPaillier, tmp)

	public := Public{
		Kv:       C,
		Dv:       D,
		Fp:       Y,
		Xp:       X,
		Prover:   prover,
		Verifier: verifierPaillier,
		Aux:      verifierPedersen,
	}
	private := Private{
		X: x,
		Y: y,
		S: rho,
		R: rhoY,
	}
	return public, private
}

func TestAffG(t *testing.T) {
	public, private := setup()

	proof := NewProof(hash.New(), public, private)
	assert.True(t, proof.Verify(hash.New(), public))

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(hash.New(), public))
}

func TestAffGWrongShare(t *testing.T) {
	public, private := setup()

	// X no longer matches the multiplier used for D
	_, public.Xp = sample.ScalarPointPair(rand.Reader)
	proof := NewProof(hash.New(), public, private)
	assert.False(t, proof.Verify(hash.New(), public))
}

func TestAffGWrongCiphertext(t *testing.T) {
	public, private := setup()

	var ct *paillier.Ciphertext
	ct, _ = public.Verifier.Enc(new(saferith.Int).SetNat(new(saferith.Nat).SetUint64(1)))
	public.Dv = ct
	proof := NewProof(hash.New(), public, private)
	assert.False(t, proof.Verify(hash.New(), public))
}
