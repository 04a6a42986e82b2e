package test

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"golang.org/x/sync/errgroup"
)

// Rule describes various hooks that can be applied to a protocol execution.
type Rule interface {
	// ModifyBefore modifies r before r.Finalize() is called.
	ModifyBefore(r round.Session)
	// ModifyAfter modifies rNext, which is the round returned by r.Finalize().
	ModifyAfter(rNext round.Session)
	// ModifyContent modifies content for the message that is delivered in rNext.
	ModifyContent(rNext round.Session, to party.ID, content round.Content)
}

// Rounds finalizes every round, and delivers the resulting messages to the next rounds,
// without going through a protocol.Session: there is no envelope, echo or deadline.
// It is meant to test the logic of a protocol's rounds in isolation.
//
// The boolean is true once every round has reached a terminal state (round.Output or round.Abort).
func Rounds(rounds []round.Session, rule Rule) (error, bool) {
	var (
		errGroup errgroup.Group
		N        = len(rounds)
		out      = make(chan *round.Message, N*(2*N+1))
	)

	if err := checkAllRoundsSame(rounds); err != nil {
		return err, false
	}

	for idx := range rounds {
		idx := idx
		r := rounds[idx]
		errGroup.Go(func() error {
			if rule == nil {
				rNew, err := r.Finalize(out)
				if err != nil {
					return err
				}
				rounds[idx] = rNew
				return nil
			}

			rule.ModifyBefore(r)
			outFake := make(chan *round.Message, 2*N+1)
			rNew, err := r.Finalize(outFake)
			close(outFake)
			if err != nil {
				return err
			}
			rule.ModifyAfter(rNew)
			for msg := range outFake {
				rule.ModifyContent(rNew, msg.To, msg.Content)
				out <- msg
			}
			rounds[idx] = rNew
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return err, false
	}
	close(out)

	if terminal(rounds) {
		return nil, true
	}
	if err := checkAllRoundsSame(rounds); err != nil {
		return err, false
	}

	// broadcasts are delivered first, since direct messages may depend on them
	var broadcasts, directs []*round.Message
	for msg := range out {
		if msg.Broadcast {
			broadcasts = append(broadcasts, msg)
		} else {
			directs = append(directs, msg)
		}
	}
	for _, batch := range [][]*round.Message{broadcasts, directs} {
		for _, msg := range batch {
			if err := deliver(rounds, msg); err != nil {
				return err, false
			}
		}
	}
	return nil, false
}

// deliver hands msg to every round expecting it, concurrently.
func deliver(rounds []round.Session, msg *round.Message) error {
	var errGroup errgroup.Group
	msgBytes, err := cbor.Marshal(msg.Content)
	if err != nil {
		return err
	}
	for _, r := range rounds {
		r := r
		m := *msg
		if m.From == r.SelfID() || m.Content.RoundNumber() != r.Number() {
			continue
		}
		if !m.Broadcast && m.To != r.SelfID() {
			continue
		}
		errGroup.Go(func() error {
			if m.Broadcast {
				if !round.ExpectsBroadcast(r) || !round.ExpectedSenders(r).Contains(m.From) {
					return nil
				}
				b := r.(round.BroadcastRound)
				m.Content = b.BroadcastContent()
				if err := cbor.Unmarshal(msgBytes, m.Content); err != nil {
					return err
				}
				return b.StoreBroadcastMessage(m)
			}

			if !round.ExpectedDirectSenders(r).Contains(m.From) {
				return fmt.Errorf("unexpected message from %s", m.From)
			}
			m.Content = r.MessageContent()
			if err := cbor.Unmarshal(msgBytes, m.Content); err != nil {
				return err
			}
			if err := r.VerifyMessage(m); err != nil {
				return err
			}
			return r.StoreMessage(m)
		})
	}
	return errGroup.Wait()
}

func terminal(rounds []round.Session) bool {
	for _, r := range rounds {
		switch r.(type) {
		case *round.Output, *round.Abort:
		default:
			return false
		}
	}
	return true
}

// checkAllRoundsSame returns an error if the rounds are not all at the same number.
func checkAllRoundsSame(rounds []round.Session) error {
	if len(rounds) == 0 {
		return errors.New("no rounds")
	}
	number := rounds[0].Number()
	for _, r := range rounds[1:] {
		if r.Number() != number {
			return fmt.Errorf("two different rounds: %d %d", number, r.Number())
		}
	}
	return nil
}
