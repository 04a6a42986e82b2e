package round

import (
	"errors"

	"github.com/taurusgroup/cmp-ia/pkg/party"
)

var (
	ErrNilFields      = errors.New("message contained empty fields")
	ErrInvalidContent = errors.New("content is not the right type")
	ErrOutChanFull    = errors.New("out channel is full")
	ErrInvalidProof   = errors.New("zero-knowledge proof failed to verify")
)

// Content represents the message, either broadcast or P2P returned by a round
// during finalization.
type Content interface {
	RoundNumber() Number
}

// BroadcastContent wraps a Content, but also indicates whether this content
// requires a reliable broadcast.
type BroadcastContent interface {
	Content
	Reliable() bool
}

// These structs can be embedded in a broadcast message as a way of
// 1. implementing BroadcastContent
// 2. indicating to the engine whether the message must be echo checked.
type (
	ReliableBroadcastContent struct{}
	NormalBroadcastContent   struct{}
)

func (ReliableBroadcastContent) Reliable() bool { return true }
func (NormalBroadcastContent) Reliable() bool   { return false }

// Message is the unit exchanged between a Session and its rounds.
// To is empty for broadcast messages.
type Message struct {
	From, To  party.ID
	Broadcast bool
	Content   Content
}
