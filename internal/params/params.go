// Package params fixes the sizes used by the Paillier based protocols and their proofs.
package params

// Security levels, in bits.
const (
	SecParam  = 256
	StatParam = 80

	SecBytes = SecParam / 8
)

// Proof ranges. A secret in [±2ˡ] is masked by values in [±2ˡ⁺ᵉ].
const (
	L       = SecParam
	LPrime  = 5 * SecParam
	Epsilon = 2 * SecParam

	LPlusEpsilon      = L + Epsilon
	LPrimePlusEpsilon = LPrime + Epsilon
)

// Repetitions of the proofs with small challenge spaces.
const (
	// ZKModIterations challenges are answered in the Blum modulus proof.
	// Since they are derived after the joint RID is fixed, fewer than StatParam suffice.
	ZKModIterations = 12
	ZKPrmIterations = StatParam
)

// Sizes of moduli and encodings.
const (
	BitsBlumPrime = 4 * SecParam
	BitsPaillier  = 2 * BitsBlumPrime
	BitsIntModN   = 8 * SecParam

	BytesPaillier   = BitsPaillier / 8
	BytesIntModN    = BitsIntModN / 8
	BytesCiphertext = 2 * BytesPaillier

	BytesScalar = 32
	BytesPoint  = 33
)
