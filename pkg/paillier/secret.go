package paillier

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/arith"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

var (
	ErrPrimeBadLength = errors.New("prime factor is not the right length")
	ErrNotBlum        = errors.New("prime factor is not equivalent to 3 (mod 4)")
	ErrNotSafePrime   = errors.New("supposed prime factor is not a safe prime")
	ErrPrimeNil       = errors.New("prime is nil")

	ErrInvalidCiphertext = errors.New("paillier: failed to decrypt invalid ciphertext")
)

// SecretKey is the factorization N = p⋅q of a PublicKey.
// It decrypts, and lets its owner prove statements about N.
type SecretKey struct {
	*PublicKey
	p, q *saferith.Nat
	// phi = ϕ(N) = (p-1)(q-1), phiInv = ϕ⁻¹ (mod N)
	phi, phiInv *saferith.Nat
}

func (sk *SecretKey) P() *saferith.Nat { return sk.p }
func (sk *SecretKey) Q() *saferith.Nat { return sk.q }

// Phi returns ϕ(N), the number of units mod N.
func (sk *SecretKey) Phi() *saferith.Nat { return sk.phi }

// NewSecretKey samples two safe Blum primes of params.BitsBlumPrime bits, using pl to search in parallel.
func NewSecretKey(pl *pool.Pool) *SecretKey {
	return NewSecretKeyFromPrimes(sample.Paillier(rand.Reader, pl))
}

// NewSecretKeyFromPrimes returns the key with factors P and Q, which must be distinct primes.
// Both N and N² keep their factorization, so that decryption uses CRT.
func NewSecretKeyFromPrimes(P, Q *saferith.Nat) *SecretKey {
	one := new(saferith.Nat).SetUint64(1)
	minusOne := func(x *saferith.Nat) *saferith.Nat { return new(saferith.Nat).Sub(x, one, -1) }
	square := func(x *saferith.Nat) *saferith.Nat { return new(saferith.Nat).Mul(x, x, -1) }

	n := arith.ModulusFromFactors(P, Q)
	nNat := n.Nat()
	// N is public, so its length may be tightened
	nPlusOne := new(saferith.Nat).Add(nNat, one, -1)
	nPlusOne.Resize(nPlusOne.TrueLen())

	phi := new(saferith.Nat).Mul(minusOne(P), minusOne(Q), -1)
	return &SecretKey{
		p:      P,
		q:      Q,
		phi:    phi,
		phiInv: new(saferith.Nat).ModInverse(phi, n.Modulus),
		PublicKey: &PublicKey{
			n:        n,
			nSquared: arith.ModulusFromFactors(square(P), square(Q)),
			nNat:     nNat,
			nPlusOne: nPlusOne,
		},
	}
}

// Dec decrypts c and returns the plaintext m ∈ ± (N-2)/2.
// It returns an error if gcd(c, N²) != 1 or if c is not in [1, N²-1].
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Int, error) {
	if !sk.ValidateCiphertexts(ct) {
		return nil, ErrInvalidCiphertext
	}
	n := sk.n.Modulus

	// m = L(c^ϕ mod N²)⋅ϕ⁻¹ (mod N), with L(u) = (u-1)/N
	m := sk.nSquared.Exp(ct.c, sk.phi)
	m.Sub(m, new(saferith.Nat).SetUint64(1), -1)
	m.Div(m, n, -1)
	m.ModMul(m, sk.phiInv, n)

	// the plaintext is recentered around 0, see section 6.1 of https://www.iacr.org/archive/crypto2001/21390136.pdf
	return new(saferith.Int).SetModSymmetric(m, n), nil
}

// DecWithRandomness returns the underlying plaintext, as well as the randomness used.
func (sk *SecretKey) DecWithRandomness(ct *Ciphertext) (*saferith.Int, *saferith.Nat, error) {
	m, err := sk.Dec(ct)
	if err != nil {
		return nil, nil, err
	}
	mNeg := new(saferith.Int).SetInt(m).Neg(1)

	// x = C(N+1)⁻ᵐ (mod N)
	x := sk.n.ExpI(sk.nPlusOne, mNeg)
	x.ModMul(x, ct.c, sk.n.Modulus)

	// r = xⁿ⁻¹ (mod N)
	nInverse := new(saferith.Nat).ModInverse(sk.nNat, saferith.ModulusFromNat(sk.phi))
	r := sk.n.Exp(x, nInverse)
	return m, r, nil
}

// GeneratePedersen samples ring-Pedersen parameters over N, and the secret λ such that s = tˡ.
// The prm proof shows knowledge of λ.
func (sk *SecretKey) GeneratePedersen() (*pedersen.Parameters, *saferith.Nat) {
	s, t, lambda := sample.Pedersen(rand.Reader, sk.phi, sk.n.Modulus)
	ped := pedersen.New(sk.n, s, t)
	return ped, lambda
}

// ValidatePrime checks whether p is a suitable prime for Paillier.
// Checks:
// - log₂(p) ≡ params.BitsBlumPrime.
// - p ≡ 3 (mod 4).
// - q := (p-1)/2 is prime.
func ValidatePrime(p *saferith.Nat) error {
	if p == nil {
		return ErrPrimeNil
	}
	const bitsWant = params.BitsBlumPrime
	// Technically, this leaks the number of bits, but this is fine, since returning
	// an error asserts this number statically, anyways.
	if bits := p.TrueLen(); bits != bitsWant {
		return fmt.Errorf("invalid prime size: have: %d, need %d: %w", bits, bitsWant, ErrPrimeBadLength)
	}
	// check == 3 (mod 4)
	if p.Byte(0)&0b11 != 3 {
		return ErrNotBlum
	}

	// check (p-1)/2 is prime
	pMinus1Div2 := new(saferith.Nat).Rsh(p, 1, -1)

	if !pMinus1Div2.Big().ProbablyPrime(1) {
		return ErrNotSafePrime
	}
	return nil
}

// MarshalBinary encodes the two prime factors of the key.
func (sk *SecretKey) MarshalBinary() ([]byte, error) {
	const size = params.BitsBlumPrime / 8
	buf := make([]byte, 2*size)
	sk.p.FillBytes(buf[:size])
	sk.q.FillBytes(buf[size:])
	return buf, nil
}

// UnmarshalBinary decodes and validates the prime factors of the key.
func (sk *SecretKey) UnmarshalBinary(data []byte) error {
	const size = params.BitsBlumPrime / 8
	if len(data) != 2*size {
		return fmt.Errorf("paillier: invalid secret key length %d", len(data))
	}
	p := new(saferith.Nat).SetBytes(data[:size])
	q := new(saferith.Nat).SetBytes(data[size:])
	for _, prime := range []*saferith.Nat{p, q} {
		if err := ValidatePrime(prime); err != nil {
			return fmt.Errorf("paillier: %w", err)
		}
	}
	*sk = *NewSecretKeyFromPrimes(p, q)
	return nil
}
