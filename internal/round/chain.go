package round

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// Next starts a protocol of a Chain, given the result of the protocol before it.
// sessionID is the SSID of the chain.
type Next func(sessionID []byte, previous interface{}) (Session, error)

var _ BroadcastRound = (*chain)(nil)

// chain runs protocols one after the other in a single execution, described by outer.
type chain struct {
	Session

	outer   *Helper
	offset  Number
	next    []Next
	results []interface{}
	combine func(results []interface{}) interface{}
}

// Chain returns a Session running first, and then each protocol started by next in turn.
// first should be started with the SSID of outer as session ID.
//
// The first round of every protocol after first must not expect messages. It is finalized as soon
// as the previous protocol ends, and the rounds after it are numbered from the last round of that protocol.
// The output of the chain is combine applied to the results of all protocols, in order.
func Chain(outer *Helper, first Session, combine func(results []interface{}) interface{}, next ...Next) Session {
	return &chain{
		Session: first,
		outer:   outer,
		next:    next,
		combine: combine,
	}
}

func (c *chain) Finalize(out chan<- *Message) (Session, error) {
	last := c.Number()
	next, err := c.relay(c.Session, out)
	if err != nil {
		return c, err
	}
	for {
		switch r := next.(type) {
		case *Abort:
			return r, nil
		case *Output:
			c.results = append(c.results, r.Result)
			if len(c.next) == 0 {
				return c.outer.ResultRound(c.combine(c.results)), nil
			}
			if next, err = c.start(last, out); err != nil {
				return c, err
			}
			continue
		}
		c.Session = next
		return c, nil
	}
}

// start begins the following protocol and finalizes its first round.
func (c *chain) start(last Number, out chan<- *Message) (Session, error) {
	start := c.next[0]
	c.next = c.next[1:]
	first, err := start(c.outer.SSID(), c.results[len(c.results)-1])
	if err != nil {
		return nil, fmt.Errorf("round: failed to start chained protocol: %w", err)
	}
	if first.MessageContent() != nil || ExpectsBroadcast(first) {
		return nil, errors.New("round: chained protocol expects messages in its first round")
	}
	c.offset = last - first.Number()
	return c.relay(first, out)
}

// relay finalizes r, and renumbers the messages it sends.
func (c *chain) relay(r Session, out chan<- *Message) (Session, error) {
	inner := make(chan *Message, cap(out))
	next, err := r.Finalize(inner)
	close(inner)
	for msg := range inner {
		shifted := *msg
		shifted.Content = shiftedContent{Content: msg.Content, by: c.offset}
		select {
		case out <- &shifted:
		default:
			return nil, ErrOutChanFull
		}
	}
	return next, err
}

func (c *chain) Number() Number {
	return c.Session.Number() + c.offset
}

func (c *chain) StoreBroadcastMessage(msg Message) error {
	r, ok := c.Session.(BroadcastRound)
	if !ok {
		return ErrInvalidContent
	}
	return r.StoreBroadcastMessage(msg)
}

func (c *chain) BroadcastContent() BroadcastContent {
	if r, ok := c.Session.(BroadcastRound); ok {
		return r.BroadcastContent()
	}
	return nil
}

func (c *chain) ExpectedSenders() party.IDSlice { return ExpectedSenders(c.Session) }
func (c *chain) DirectSenders() party.IDSlice   { return ExpectedDirectSenders(c.Session) }

func (c *chain) ProtocolID() string       { return c.outer.ProtocolID() }
func (c *chain) FinalRoundNumber() Number { return c.outer.FinalRoundNumber() }
func (c *chain) SSID() []byte             { return c.outer.SSID() }
func (c *chain) SSIDBase() []byte         { return c.outer.SSIDBase() }

// shiftedContent numbers a message of a chained protocol in the rounds of the chain.
// It is encoded as the content it wraps.
type shiftedContent struct {
	Content
	by Number
}

func (s shiftedContent) RoundNumber() Number { return s.Content.RoundNumber() + s.by }

func (s shiftedContent) MarshalCBOR() ([]byte, error) { return cbor.Marshal(s.Content) }
