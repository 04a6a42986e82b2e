package hash

import (
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/zeebo/blake3"
)

const DigestLengthBytes = params.SecBytes * 2 // 64

// Hash is the hash function we use for generating commitments, consuming protocol types, etc.
//
// Internally, this is a wrapper around blake3, and its extendable output is used
// whenever a challenge larger than a digest is needed.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct with the given data written to it with domain separation.
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	_, _ = hash.h.WriteString("CMP-IA-BLAKE3")
	for _, d := range initialData {
		_ = hash.WriteAny(d)
	}
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - *saferith.Nat
//   - *saferith.Int
//   - *saferith.Modulus
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the first types.
// The last type already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var toBeWritten WriterToWithDomain
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			toBeWritten = &Tagged{"[]byte", t}
		case *saferith.Nat:
			if t == nil {
				return fmt.Errorf("hash.WriteAny: nil *saferith.Nat")
			}
			toBeWritten = &Tagged{"saferith.Nat", t.Bytes()}
		case *saferith.Int:
			if t == nil {
				return fmt.Errorf("hash.WriteAny: nil *saferith.Int")
			}
			bytes := make([]byte, 1, 1+params.BytesIntModN)
			bytes[0] = byte(t.IsNegative())
			bytes = append(bytes, t.Abs().Bytes()...)
			toBeWritten = &Tagged{"saferith.Int", bytes}
		case *saferith.Modulus:
			if t == nil {
				return fmt.Errorf("hash.WriteAny: nil *saferith.Modulus")
			}
			toBeWritten = &Tagged{"saferith.Modulus", t.Bytes()}
		case WriterToWithDomain:
			toBeWritten = t
		default:
			return fmt.Errorf("hash.WriteAny: unsupported type %T", d)
		}
		if err := writeWithDomain(hash.h, toBeWritten); err != nil {
			return fmt.Errorf("hash.WriteAny: %w", err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

// Fork clones this hash, and then writes some data to the clone.
func (hash *Hash) Fork(data ...interface{}) *Hash {
	newHash := hash.Clone()
	_ = newHash.WriteAny(data...)
	return newHash
}
