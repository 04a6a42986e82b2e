// Package party defines the identities of protocol participants.
//
// A participant is identified by its secp256k1 verification key, encoded as
// the lowercase hex of the 33 byte compressed point. Since hex preserves byte
// order, sorting IDs as strings sorts the underlying keys.
package party

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	lru "github.com/hashicorp/golang-lru"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
)

// ID represents the identifier of a particular party.
type ID string

var ErrInvalidID = errors.New("party: invalid ID")

// keyCacheSize bounds the number of parsed verification keys kept in memory.
const keyCacheSize = 1024

var keyCache *lru.Cache

func init() {
	var err error
	keyCache, err = lru.New(keyCacheSize)
	if err != nil {
		panic(err)
	}
}

// IDFromPublicKey returns the ID of the holder of key.
func IDFromPublicKey(key *secp256k1.PublicKey) ID {
	return ID(hex.EncodeToString(key.SerializeCompressed()))
}

// Bytes returns the compressed verification key encoded in id, or nil if id is malformed.
func (id ID) Bytes() []byte {
	b, err := hex.DecodeString(string(id))
	if err != nil || len(b) != params.BytesPoint {
		return nil
	}
	return b
}

// PublicKey returns the verification key of id.
// Parsed keys are cached, since the same identities verify every message of a session.
func (id ID) PublicKey() (*secp256k1.PublicKey, error) {
	if cached, ok := keyCache.Get(id); ok {
		return cached.(*secp256k1.PublicKey), nil
	}
	b := id.Bytes()
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, string(id))
	}
	key, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	keyCache.Add(id, key)
	return key, nil
}

// Validate returns an error if id does not encode a valid verification key.
func (id ID) Validate() error {
	_, err := id.PublicKey()
	return err
}

// Scalar returns the evaluation point of id for Shamir secret sharing.
func (id ID) Scalar() *curve.Scalar {
	return curve.FromHash(id.digest())
}

// Short returns an abbreviated form of id suitable for logs.
func (id ID) Short() string {
	if len(id) <= 12 {
		return string(id)
	}
	return string(id[:12])
}

// WriteTo implements io.WriterTo.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	if id == "" {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write([]byte(id))
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (ID) Domain() string {
	return "party.ID"
}
