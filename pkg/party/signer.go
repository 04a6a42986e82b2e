package party

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/hkdf"
)

// Signer holds the long-term identity key of a party and authenticates its messages.
type Signer struct {
	key *secp256k1.PrivateKey
	id  ID
}

// NewSigner wraps an existing identity key.
func NewSigner(key *secp256k1.PrivateKey) *Signer {
	return &Signer{
		key: key,
		id:  IDFromPublicKey(key.PubKey()),
	}
}

// GenerateSigner samples a fresh identity key from rand.
func GenerateSigner(rand io.Reader) (*Signer, error) {
	var buf [32]byte
	for i := 0; i < 16; i++ {
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return nil, fmt.Errorf("party: failed to read randomness: %w", err)
		}
		var k secp256k1.ModNScalar
		if overflow := k.SetBytes(&buf); overflow != 0 || k.IsZero() {
			continue
		}
		return NewSigner(secp256k1.NewPrivateKey(&k)), nil
	}
	return nil, errors.New("party: failed to sample identity key")
}

// SignerFromSeed derives an identity key from seed using HKDF-SHA256 with the given label.
// The same seed and label always give the same identity.
func SignerFromSeed(seed []byte, label string) (*Signer, error) {
	if len(seed) < 16 {
		return nil, errors.New("party: seed must be at least 16 bytes")
	}
	return GenerateSigner(hkdf.New(sha256.New, seed, nil, []byte(label)))
}

// SignerFromBytes parses a 32 byte identity key.
func SignerFromBytes(b []byte) (*Signer, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("party: invalid identity key length %d", len(b))
	}
	var k secp256k1.ModNScalar
	if k.SetByteSlice(b) || k.IsZero() {
		return nil, errors.New("party: invalid identity key")
	}
	return NewSigner(secp256k1.NewPrivateKey(&k)), nil
}

// ID returns the identity of the signer.
func (s *Signer) ID() ID {
	return s.id
}

// Bytes returns the 32 byte identity key.
func (s *Signer) Bytes() []byte {
	return s.key.Serialize()
}

// Sign returns a deterministic (RFC 6979) DER encoded ECDSA signature of digest.
func (s *Signer) Sign(digest []byte) []byte {
	return ecdsa.Sign(s.key, digest).Serialize()
}

// Verify returns true if signature is a valid signature of digest by id.
func Verify(id ID, digest, signature []byte) bool {
	key, err := id.PublicKey()
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(digest, key)
}
