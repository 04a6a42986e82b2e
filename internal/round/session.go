package round

import (
	"encoding/binary"
	"io"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

// Info is the associated data of an execution, which all parties must agree on.
type Info struct {
	ProtocolID string
	// FinalRoundNumber is the last round which exchanges messages. The output round follows it.
	FinalRoundNumber Number
	SelfID           party.ID
	// PartyIDs need not be sorted, but must not contain duplicates.
	PartyIDs []party.ID
	// Threshold is the number of corrupted parties tolerated; Threshold+1 parties can sign.
	Threshold int
}

// Session is a Round together with the execution it belongs to.
// Protocol rounds get everything but Round from an embedded *Helper.
type Session interface {
	Round

	// Hash and HashForID fork the transcript, the latter binding the fork to a party.
	Hash() *hash.Hash
	HashForID(id party.ID) *hash.Hash

	ProtocolID() string
	FinalRoundNumber() Number
	// SSID identifies the execution. Envelopes are signed over it.
	// It is derived from SSIDBase and FinalRoundNumber with DeriveSSID.
	SSID() []byte
	SSIDBase() []byte
	SelfID() party.ID
	PartyIDs() party.IDSlice
	OtherPartyIDs() party.IDSlice
	Threshold() int
	N() int
	// Pool may be nil, in which case work happens on the calling goroutine.
	Pool() *pool.Pool
}

// Number is the index of a round, starting at 1.
// Terminal rounds have number 0.
type Number uint16

// WriteTo implements io.WriterTo interface.
func (n Number) WriteTo(w io.Writer) (int64, error) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(n))
	written, err := w.Write(buf[:])
	return int64(written), err
}

// Domain implements hash.WriterToWithDomain.
func (Number) Domain() string { return "Round Number" }
