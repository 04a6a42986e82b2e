// Package curve implements the secp256k1 group used by the protocols.
//
// Scalars are elements of ℤₙ, where n is the order of the group,
// and Points are elements of the group written additively.
// All operations on Scalar modify the receiver and return it,
// while operations on Point return a new value.
package curve

import (
	"encoding/hex"

	"github.com/cronokirby/saferith"
)

// orderHex is the order n of the secp256k1 group.
const orderHex = "FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141"

var order *saferith.Modulus

func init() {
	bytes, err := hex.DecodeString(orderHex)
	if err != nil {
		panic(err)
	}
	order = saferith.ModulusFromBytes(bytes)
}

// Order returns the order n of the secp256k1 group.
func Order() *saferith.Modulus {
	return order
}

// ScalarBits is the bit length of the group order.
const ScalarBits = 256

// SafeScalarBytes is the number of bytes of randomness required to sample
// a statistically uniform Scalar.
const SafeScalarBytes = 32 + 16

// FromHash converts a hash value to a Scalar.
//
// There is some disagreement about how this should be done.
// [NSA] suggests that this is done in the obvious
// manner, but [SECG] truncates the hash to the bit-length of the curve order
// first. We follow [SECG] because that's what OpenSSL does. Additionally,
// OpenSSL right shifts excess bits from the number if the hash is too large
// and we mirror that too.
//
// Taken from crypto/ecdsa.
func FromHash(h []byte) *Scalar {
	orderBits := order.BitLen()
	orderBytes := (orderBits + 7) / 8
	if len(h) > orderBytes {
		h = h[:orderBytes]
	}
	s := new(saferith.Nat).SetBytes(h)
	excess := len(h)*8 - orderBits
	if excess > 0 {
		s.Rsh(s, uint(excess), -1)
	}
	return NewScalar().SetNat(s)
}
