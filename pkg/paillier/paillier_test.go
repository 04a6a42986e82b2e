package paillier_test

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
)

func TestCiphertextValidate(t *testing.T) {
	sk := test.PaillierSecretKey(0)
	pk := sk.PublicKey

	zero := make([]byte, 512)
	ct := new(paillier.Ciphertext)
	require.NoError(t, ct.UnmarshalBinary(zero))
	assert.False(t, pk.ValidateCiphertexts(ct), "zero is not a valid ciphertext")
	_, err := sk.Dec(ct)
	assert.Error(t, err)

	m := sample.IntervalL(rand.Reader)
	valid, _ := pk.Enc(m)
	assert.True(t, pk.ValidateCiphertexts(valid))
	assert.False(t, pk.ValidateCiphertexts(valid, nil))
}

func TestEncDecRoundTrip(t *testing.T) {
	sk := test.PaillierSecretKey(1)
	for i := 0; i < 4; i++ {
		m := sample.IntervalLEps(rand.Reader)
		ciphertext, nonce := sk.Enc(m)
		shouldBeM, err := sk.Dec(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, saferith.Choice(1), m.Eq(shouldBeM), "decryption should recover the plaintext")

		shouldBeM, shouldBeNonce, err := sk.DecWithRandomness(ciphertext)
		require.NoError(t, err)
		assert.Equal(t, saferith.Choice(1), m.Eq(shouldBeM))
		assert.Equal(t, saferith.Choice(1), nonce.Eq(shouldBeNonce), "decryption should recover the nonce")
	}
}

func TestEncDecHomomorphic(t *testing.T) {
	sk := test.PaillierSecretKey(2)
	pk := sk.PublicKey

	a := sample.IntervalL(rand.Reader)
	b := sample.IntervalL(rand.Reader)
	c := sample.IntervalL(rand.Reader)

	ctA, _ := pk.Enc(a)
	ctB, _ := pk.Enc(b)

	// Enc(a)⊕Enc(b) = Enc(a+b)
	sum, err := sk.Dec(ctA.Clone().Add(pk, ctB))
	require.NoError(t, err)
	expected := new(saferith.Int).Add(a, b, -1)
	assert.Equal(t, saferith.Choice(1), expected.Eq(sum))

	// c⊙Enc(a) = Enc(c⋅a)
	product, err := sk.Dec(ctA.Clone().Mul(pk, c))
	require.NoError(t, err)
	expected = new(saferith.Int).Mul(a, c, -1)
	assert.Equal(t, saferith.Choice(1), expected.Eq(product))

	// re-randomizing keeps the plaintext
	ct := ctA.Clone()
	ct.Randomize(pk, nil)
	assert.False(t, ct.Equal(ctA))
	decrypted, err := sk.Dec(ct)
	require.NoError(t, err)
	assert.Equal(t, saferith.Choice(1), a.Eq(decrypted))
}

func TestMarshal(t *testing.T) {
	sk := test.PaillierSecretKey(3)

	data, err := sk.PublicKey.MarshalBinary()
	require.NoError(t, err)
	pk := new(paillier.PublicKey)
	require.NoError(t, pk.UnmarshalBinary(data))
	assert.True(t, pk.Equal(sk.PublicKey))

	data, err = sk.MarshalBinary()
	require.NoError(t, err)
	sk2 := new(paillier.SecretKey)
	require.NoError(t, sk2.UnmarshalBinary(data))
	assert.Equal(t, saferith.Choice(1), sk2.Phi().Eq(sk.Phi()))

	ct, _ := sk.Enc(sample.IntervalL(rand.Reader))
	data, err = ct.MarshalBinary()
	require.NoError(t, err)
	ct2 := new(paillier.Ciphertext)
	require.NoError(t, ct2.UnmarshalBinary(data))
	assert.True(t, ct.Equal(ct2))

	assert.Error(t, new(paillier.PublicKey).UnmarshalBinary(data[:10]))
}

func TestValidatePrime(t *testing.T) {
	sk := test.PaillierSecretKey(4)
	assert.NoError(t, paillier.ValidatePrime(sk.P()))
	assert.NoError(t, paillier.ValidatePrime(sk.Q()))
	assert.ErrorIs(t, paillier.ValidatePrime(new(saferith.Nat).SetUint64(7)), paillier.ErrPrimeBadLength)
	assert.ErrorIs(t, paillier.ValidatePrime(nil), paillier.ErrPrimeNil)
	assert.NoError(t, paillier.ValidateN(sk.N()))
}

func TestPedersen(t *testing.T) {
	sk := test.PaillierSecretKey(5)
	ped, lambda := sk.GeneratePedersen()
	s := new(saferith.Nat).Exp(ped.T(), lambda, ped.N())
	assert.Equal(t, saferith.Choice(1), s.Eq(ped.S()))

	x := sample.IntervalL(rand.Reader)
	y := sample.IntervalLN(rand.Reader)
	alpha := sample.IntervalLEps(rand.Reader)
	gamma := sample.IntervalLEpsN(rand.Reader)
	e := sample.IntervalScalar(rand.Reader)

	S := ped.Commit(x, y)
	T := ped.Commit(alpha, gamma)

	// z₁ = α + e⋅x, z₂ = γ + e⋅y
	z1 := new(saferith.Int).Mul(e, x, -1)
	z1.Add(z1, alpha, -1)
	z2 := new(saferith.Int).Mul(e, y, -1)
	z2.Add(z2, gamma, -1)
	assert.True(t, ped.Verify(z1, z2, e, T, S))
	assert.False(t, ped.Verify(z2, z1, e, T, S))
}
