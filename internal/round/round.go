package round

import (
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// Round is one step of a protocol, as seen by a single party.
//
// Rounds form a closed set per protocol: each protocol package defines its round types,
// and the engine only dispatches on this interface.
type Round interface {
	// VerifyMessage handles an incoming direct Message and validates its content with regard to the protocol.
	// The content argument can be cast to the appropriate type for this round without error check.
	// This function should not modify any saved state.
	VerifyMessage(msg Message) error

	// StoreMessage should be called after VerifyMessage and should only store the appropriate fields from the
	// content.
	StoreMessage(msg Message) error

	// Finalize is called after all messages from the parties have been processed in the current round.
	// Messages for the next round are sent out through the out channel.
	//
	// A protocol failure attributable to some parties is returned as an Abort session with a nil error.
	// A non-nil error is a local failure of this party.
	//
	// In the last round, Finalize should return
	//   r.ResultRound(result), nil
	// where result is the output of the protocol.
	Finalize(out chan<- *Message) (Session, error)

	// MessageContent returns an uninitialized direct message.Content for this round.
	//
	// A round which does not expect direct messages returns nil.
	MessageContent() Content

	// Number returns the current round number.
	Number() Number
}

// BroadcastRound extends Round in that it expects a broadcast message before the p2p message.
// Due to the way Go struct inheritance works, it is important to implement the StoreBroadcastMessage
// and BroadcastContent methods on a pointer receiver.
type BroadcastRound interface {
	// StoreBroadcastMessage must be run before Round.VerifyMessage and Round.StoreMessage,
	// since those may depend on the content from the broadcast.
	// It changes the round's state to store the message after performing basic validation.
	StoreBroadcastMessage(msg Message) error

	// BroadcastContent returns an uninitialized message.Content for this round's broadcast message.
	BroadcastContent() BroadcastContent

	// Round must be implemented by an inherited round which would otherwise implement it.
	Round
}

// Senders is implemented by rounds whose expected senders differ from the other parties of the session.
type Senders interface {
	ExpectedSenders() party.IDSlice
}

// DirectSenders is implemented by rounds which expect direct messages from only some of their senders.
type DirectSenders interface {
	DirectSenders() party.IDSlice
}

// ExpectedSenders returns the parties a Session must receive from before finalizing r.
func ExpectedSenders(r Session) party.IDSlice {
	if s, ok := r.(Senders); ok {
		return s.ExpectedSenders()
	}
	return r.OtherPartyIDs()
}

// ExpectedDirectSenders returns the parties r expects a direct message from.
// It is empty when r does not take direct messages.
func ExpectedDirectSenders(r Session) party.IDSlice {
	if r.MessageContent() == nil {
		return nil
	}
	if s, ok := r.(DirectSenders); ok {
		return s.DirectSenders()
	}
	return ExpectedSenders(r)
}

// ExpectsBroadcast returns true if r expects a broadcast message from each of its expected senders.
func ExpectsBroadcast(r Session) bool {
	b, ok := r.(BroadcastRound)
	return ok && b.BroadcastContent() != nil
}

// RequiresConsensus returns true if r's broadcast must be echo checked before it is finalized.
func RequiresConsensus(r Session) bool {
	b, ok := r.(BroadcastRound)
	if !ok {
		return false
	}
	content := b.BroadcastContent()
	return content != nil && content.Reliable()
}
