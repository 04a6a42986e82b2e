package types

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SigningMessage wraps the prehashed message given to the signing protocol.
type SigningMessage []byte

// WriteTo implements io.WriterTo interface.
func (t SigningMessage) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(t)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (SigningMessage) Domain() string { return "Prehashed Message" }

// Validate checks that the message has the size of a 32 byte digest.
func (t SigningMessage) Validate() error {
	if len(t) != 32 {
		return fmt.Errorf("signing message: expected a 32 byte prehashed message, got %d bytes", len(t))
	}
	return nil
}

// ThresholdWrapper wraps the threshold of a protocol so that it can be hashed.
type ThresholdWrapper uint32

// WriteTo implements io.WriterTo interface.
func (t ThresholdWrapper) WriteTo(w io.Writer) (int64, error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(t))
	n, err := w.Write(buf[:])
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (ThresholdWrapper) Domain() string { return "Threshold" }
