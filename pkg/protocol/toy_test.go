package protocol_test

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
)

// The toy protocol has every party broadcast a value reliably and send it again directly to every peer.
// The result is the hash of all values.

var errBlamed = errors.New("toy: blamed value")

type toyBroadcast struct {
	round.ReliableBroadcastContent
	Value []byte
}

func (toyBroadcast) RoundNumber() round.Number { return 2 }

type toyDirect struct {
	Value []byte
}

func (toyDirect) RoundNumber() round.Number { return 2 }

type toyRound1 struct {
	*round.Helper
	value []byte
}

func (r *toyRound1) VerifyMessage(round.Message) error { return nil }

func (r *toyRound1) StoreMessage(round.Message) error { return nil }

func (r *toyRound1) Finalize(out chan<- *round.Message) (round.Session, error) {
	if err := r.BroadcastMessage(out, &toyBroadcast{Value: r.value}); err != nil {
		return r, err
	}
	for _, j := range r.OtherPartyIDs() {
		if err := r.SendMessage(out, &toyDirect{Value: r.value}, j); err != nil {
			return r, err
		}
	}
	return &toyRound2{
		toyRound1:  r,
		broadcasts: map[party.ID][]byte{},
		directs:    map[party.ID][]byte{},
	}, nil
}

func (toyRound1) MessageContent() round.Content { return nil }

func (toyRound1) Number() round.Number { return 1 }

type toyRound2 struct {
	*toyRound1
	broadcasts map[party.ID][]byte
	directs    map[party.ID][]byte
}

func (r *toyRound2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*toyBroadcast)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if len(body.Value) == 0 {
		return round.ErrNilFields
	}
	r.broadcasts[msg.From] = body.Value
	return nil
}

func (r *toyRound2) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*toyDirect)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if !bytes.Equal(body.Value, r.broadcasts[msg.From]) {
		return errors.New("toy: direct value differs from broadcast")
	}
	return nil
}

func (r *toyRound2) StoreMessage(msg round.Message) error {
	r.directs[msg.From] = msg.Content.(*toyDirect).Value
	return nil
}

func (r *toyRound2) Finalize(chan<- *round.Message) (round.Session, error) {
	h := r.Hash()
	for _, id := range r.PartyIDs() {
		value := r.value
		if id != r.SelfID() {
			value = r.broadcasts[id]
			if bytes.Equal(value, []byte("blame")) {
				return r.AbortRound(errBlamed, id), nil
			}
		}
		if err := h.WriteAny(value); err != nil {
			return r, err
		}
	}
	return r.ResultRound(h.Sum()), nil
}

func (r *toyRound2) MessageContent() round.Content { return &toyDirect{} }

func (r *toyRound2) BroadcastContent() round.BroadcastContent { return &toyBroadcast{} }

func (toyRound2) Number() round.Number { return 2 }

func toyStart(selfID party.ID, ids party.IDSlice, value []byte) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		info := round.Info{
			ProtocolID:       "test/toy",
			FinalRoundNumber: 2,
			SelfID:           selfID,
			PartyIDs:         ids,
			Threshold:        len(ids) - 1,
		}
		helper, err := round.NewSession(info, sessionID, nil)
		if err != nil {
			return nil, err
		}
		return &toyRound1{Helper: helper, value: value}, nil
	}
}

// interceptor may replace an envelope before it is delivered to a party, or drop it by returning nil.
type interceptor func(to party.ID, msg *protocol.SignedMessage) *protocol.SignedMessage

// network delivers envelopes synchronously between sessions, in a fixed order.
type network struct {
	ids       party.IDSlice
	sessions  map[party.ID]*protocol.Session
	intercept interceptor
}

func newToyNetwork(signers []*party.Signer, sessionID []byte, values map[party.ID][]byte) (*network, error) {
	ids := make([]party.ID, len(signers))
	for i, s := range signers {
		ids[i] = s.ID()
	}
	n := &network{
		ids:      party.NewIDSlice(ids),
		sessions: map[party.ID]*protocol.Session{},
	}
	for _, s := range signers {
		value := values[s.ID()]
		if value == nil {
			value = []byte(fmt.Sprintf("value of %s", s.ID().Short()))
		}
		session, err := protocol.NewSession(s, sessionID, toyStart(s.ID(), n.ids, value))
		if err != nil {
			return nil, err
		}
		n.sessions[s.ID()] = session
	}
	return n, nil
}

// deliver sends all pending envelopes of from.
func (n *network) deliver(from party.ID) bool {
	progress := false
	for _, out := range n.sessions[from].OutgoingMessages() {
		for _, to := range out.To {
			msg := out.Message
			if n.intercept != nil {
				if msg = n.intercept(to, msg); msg == nil {
					continue
				}
			}
			_ = n.sessions[to].AddMessage(msg)
			progress = true
		}
	}
	return progress
}

// run drives all sessions until none of them can make progress, and returns their terminal outcomes.
func (n *network) run() (map[party.ID]*protocol.FinalizeOutcome, error) {
	outcomes := map[party.ID]*protocol.FinalizeOutcome{}
	for progress := true; progress; {
		progress = false
		for _, id := range n.ids {
			if n.deliver(id) {
				progress = true
			}
			s := n.sessions[id]
			if !s.CanFinalize() {
				continue
			}
			outcome, err := s.Finalize()
			if err != nil {
				return nil, err
			}
			progress = true
			if outcome.Terminal() {
				outcomes[id] = outcome
			}
		}
	}
	return outcomes, nil
}
