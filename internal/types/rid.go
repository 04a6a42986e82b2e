package types

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

var ErrZeroRID = errors.New("rid: all zero")

// RID is a random identifier of params.SecBytes bytes, contributed by each party
// and combined by XOR so that no party controls the result.
type RID []byte

// EmptyRID returns the all zero RID, the neutral element of XOR.
func EmptyRID() RID {
	return make(RID, params.SecBytes)
}

// NewRID samples a RID from r.
func NewRID(r io.Reader) (RID, error) {
	rid := EmptyRID()
	if _, err := io.ReadFull(r, rid); err != nil {
		return nil, fmt.Errorf("rid: %w", err)
	}
	return rid, nil
}

// CombineRIDs returns the XOR of the contributions of ids.
// All contributions must have been validated.
func CombineRIDs(contributions map[party.ID]RID, ids party.IDSlice) RID {
	rid := EmptyRID()
	for _, id := range ids {
		rid.XOR(contributions[id])
	}
	return rid
}

// XOR sets rid to rid ⊕ other.
func (rid RID) XOR(other RID) {
	for i := range rid {
		rid[i] ^= other[i]
	}
}

// Validate returns an error if rid has the wrong length or is zero.
func (rid RID) Validate() error {
	if len(rid) != params.SecBytes {
		return fmt.Errorf("rid: expected %d bytes, got %d", params.SecBytes, len(rid))
	}
	if bytes.Equal(rid, EmptyRID()) {
		return ErrZeroRID
	}
	return nil
}

// Copy returns a RID with the same bytes, of the canonical length.
func (rid RID) Copy() RID {
	c := EmptyRID()
	copy(c, rid)
	return c
}

// WriteTo implements io.WriterTo interface.
func (rid RID) WriteTo(w io.Writer) (int64, error) {
	if rid == nil {
		return 0, io.ErrUnexpectedEOF
	}
	n, err := w.Write(rid)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (RID) Domain() string { return "RID" }
