package round

import (
	"errors"
	"fmt"
	"sync"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

var (
	ErrInvalidPartyIDs  = errors.New("session: partyIDs invalid")
	ErrSelfNotIncluded  = errors.New("session: selfID not included in partyIDs")
	ErrInvalidThreshold = errors.New("session: invalid threshold")
)

// Helper holds everything a protocol's rounds share: the associated data of the execution,
// its transcript hash and the worker pool.
// Embedded in the first round, it completes the Session interface.
type Helper struct {
	info Info
	pool *pool.Pool

	partyIDs      party.IDSlice
	otherPartyIDs party.IDSlice

	ssid     []byte
	ssidBase []byte

	// mtx guards hash, which rounds may fork from parallel proofs.
	mtx  sync.Mutex
	hash *hash.Hash
}

// NewSession validates info and derives the session's transcript from it.
//
// sessionID must be fresh for each execution, such as the output of protocol.NewSessionID.
// auxInfo is any additional data the parties must agree on, like the key being refreshed.
// Nil entries are skipped.
func NewSession(info Info, sessionID []byte, pl *pool.Pool, auxInfo ...hash.WriterToWithDomain) (*Helper, error) {
	partyIDs, err := checkInfo(info)
	if err != nil {
		return nil, err
	}

	values := []hash.WriterToWithDomain{
		&hash.Tagged{Tag: "Session ID", Data: sessionID},
		&hash.Tagged{Tag: "Protocol ID", Data: []byte(info.ProtocolID)},
		partyIDs,
		types.ThresholdWrapper(info.Threshold),
	}
	h := hash.New()
	for _, v := range append(values, auxInfo...) {
		if v == nil {
			continue
		}
		if err = h.WriteAny(v); err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}

	base := h.Clone().Sum()
	if err = h.WriteAny(info.FinalRoundNumber); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	info.PartyIDs = partyIDs
	return &Helper{
		info:          info,
		pool:          pl,
		partyIDs:      partyIDs,
		otherPartyIDs: partyIDs.Remove(info.SelfID),
		ssid:          DeriveSSID(base, info.FinalRoundNumber),
		ssidBase:      base,
		hash:          h,
	}, nil
}

// DeriveSSID binds the digest of an execution's associated data to the number of its final round.
// Anyone holding base can check which final round an SSID commits to.
func DeriveSSID(base []byte, finalRound Number) []byte {
	return hash.New(&hash.Tagged{Tag: "SSID Base", Data: base}, finalRound).Sum()
}

// checkInfo returns the canonical party set of info, or the reason it cannot be used.
func checkInfo(info Info) (party.IDSlice, error) {
	partyIDs := party.NewIDSlice(info.PartyIDs)
	switch {
	case len(partyIDs) != len(info.PartyIDs):
		return nil, fmt.Errorf("%w: duplicate identities", ErrInvalidPartyIDs)
	case !partyIDs.Valid():
		return nil, ErrInvalidPartyIDs
	case !partyIDs.Contains(info.SelfID):
		return nil, ErrSelfNotIncluded
	case info.Threshold < 0 || info.Threshold > len(partyIDs)-1:
		return nil, fmt.Errorf("%w: %d for %d parties", ErrInvalidThreshold, info.Threshold, len(partyIDs))
	}
	return partyIDs, nil
}

// HashForID returns a fork of the transcript with id appended.
// Proofs made by id are bound to it, so that they cannot be replayed by another party.
func (h *Helper) HashForID(id party.ID) *hash.Hash {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	forked := h.hash.Clone()
	if id != "" {
		_ = forked.WriteAny(id)
	}
	return forked
}

// UpdateHashState appends value to the transcript. Later forks include it.
func (h *Helper) UpdateHashState(value hash.WriterToWithDomain) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	_ = h.hash.WriteAny(value)
}

// Hash returns a fork of the transcript.
func (h *Helper) Hash() *hash.Hash {
	return h.HashForID("")
}

// BroadcastMessage queues content for every other party.
func (h *Helper) BroadcastMessage(out chan<- *Message, content Content) error {
	return h.send(out, &Message{From: h.info.SelfID, Broadcast: true, Content: content})
}

// SendMessage queues content for the party to.
func (h *Helper) SendMessage(out chan<- *Message, content Content, to party.ID) error {
	return h.send(out, &Message{From: h.info.SelfID, To: to, Content: content})
}

// send never blocks: out is sized by the session for every message of a round.
func (h *Helper) send(out chan<- *Message, msg *Message) error {
	select {
	case out <- msg:
		return nil
	default:
		return ErrOutChanFull
	}
}

// ResultRound ends the protocol with result.
func (h *Helper) ResultRound(result interface{}) Session {
	return &Output{Helper: h, Result: result}
}

// AbortRound ends the protocol because of err, blaming culprits if any are known.
// Finalize returns it with a nil error.
func (h *Helper) AbortRound(err error, culprits ...party.ID) Session {
	return &Abort{Helper: h, Culprits: culprits, Err: err}
}

func (h *Helper) ProtocolID() string           { return h.info.ProtocolID }
func (h *Helper) FinalRoundNumber() Number     { return h.info.FinalRoundNumber }
func (h *Helper) SSID() []byte                 { return h.ssid }
func (h *Helper) SSIDBase() []byte             { return h.ssidBase }
func (h *Helper) SelfID() party.ID             { return h.info.SelfID }
func (h *Helper) PartyIDs() party.IDSlice      { return h.partyIDs }
func (h *Helper) OtherPartyIDs() party.IDSlice { return h.otherPartyIDs }
func (h *Helper) Threshold() int               { return h.info.Threshold }
func (h *Helper) N() int                       { return len(h.partyIDs) }
func (h *Helper) Pool() *pool.Pool             { return h.pool }
