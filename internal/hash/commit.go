package hash

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/taurusgroup/cmp-ia/internal/params"
)

// Commitment is H(data, decommitment) and Decommitment the random nonce opening it.
type (
	Commitment   []byte
	Decommitment []byte
)

func (c Commitment) WriteTo(w io.Writer) (int64, error)   { return writeBytes(w, c) }
func (d Decommitment) WriteTo(w io.Writer) (int64, error) { return writeBytes(w, d) }

func (Commitment) Domain() string   { return "Commitment" }
func (Decommitment) Domain() string { return "Decommitment" }

// Validate checks the length of c, so that a truncated commitment is rejected before hashing.
func (c Commitment) Validate() error { return checkLength("commitment", c, DigestLengthBytes) }

// Validate checks the length of d.
func (d Decommitment) Validate() error { return checkLength("decommitment", d, params.SecBytes) }

// Commit returns a commitment to data under a fresh decommitment nonce.
// The receiver is not modified, so the same transcript fork can later Decommit.
func (hash *Hash) Commit(data ...interface{}) (Commitment, Decommitment, error) {
	d := make(Decommitment, params.SecBytes)
	if _, err := rand.Read(d); err != nil {
		return nil, nil, fmt.Errorf("hash.Commit: failed to sample decommitment: %w", err)
	}
	c, err := hash.commitment(d, data)
	if err != nil {
		return nil, nil, fmt.Errorf("hash.Commit: %w", err)
	}
	return c, d, nil
}

// Decommit returns true if c opens to data with d.
func (hash *Hash) Decommit(c Commitment, d Decommitment, data ...interface{}) bool {
	if c.Validate() != nil || d.Validate() != nil {
		return false
	}
	expected, err := hash.commitment(d, data)
	return err == nil && bytes.Equal(expected, c)
}

func (hash *Hash) commitment(d Decommitment, data []interface{}) (Commitment, error) {
	h := hash.Clone()
	if err := h.WriteAny(data...); err != nil {
		return nil, err
	}
	if err := h.WriteAny(d); err != nil {
		return nil, err
	}
	return h.Sum(), nil
}

func writeBytes(w io.Writer, b []byte) (int64, error) {
	n, err := w.Write(b)
	return int64(n), err
}

func checkLength(name string, b []byte, expected int) error {
	if len(b) != expected {
		return fmt.Errorf("%s: expected %d bytes, got %d", name, expected, len(b))
	}
	return nil
}
