// Package runner drives a set of in-process sessions to completion, routing their envelopes
// through per-party mailboxes.
package runner

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/cmp-ia/pkg/metrics"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"golang.org/x/sync/errgroup"
)

// Interceptor is called for every delivery of msg to the party to.
// It returns the envelope to deliver instead, or nil to drop it.
type Interceptor func(to party.ID, msg *protocol.SignedMessage) *protocol.SignedMessage

// Runner routes envelopes between sessions and enforces a per-round deadline.
type Runner struct {
	clock     clockwork.Clock
	timeout   time.Duration
	log       zerolog.Logger
	intercept Interceptor
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the clock used for round deadlines.
func WithClock(c clockwork.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithTimeout sets the time a session may wait in a round before it fails with missing messages.
// A zero timeout waits forever.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithLogger sets the logger of the runner.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithInterceptor lets tests tamper with or drop envelopes in flight.
func WithInterceptor(i Interceptor) Option {
	return func(r *Runner) { r.intercept = i }
}

// New returns a Runner using the real clock and no deadline.
func New(opts ...Option) *Runner {
	r := &Runner{
		clock: clockwork.NewRealClock(),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives every session until it reaches a terminal outcome, each in its own goroutine.
// A session whose round waits only on parties that have stopped times out without waiting
// for the deadline.
//
// It returns the results of the sessions which finished, indexed by party.
// The errors of the others are aggregated in a *multierror.Error, each prefixed by its party.
func (r *Runner) Run(ctx context.Context, sessions ...*protocol.Session) (map[party.ID]interface{}, error) {
	net := newNetwork(sessions)

	var (
		mtx     sync.Mutex
		group   errgroup.Group
		errs    *multierror.Error
		results = make(map[party.ID]interface{}, len(sessions))
	)
	for _, s := range sessions {
		s := s
		metrics.SessionsStarted.WithLabelValues(s.ProtocolID()).Inc()
		group.Go(func() error {
			result, err := r.drive(ctx, s, net)
			net.stop(s.SelfID())
			metrics.ObserveOutcome(s.ProtocolID(), err)

			mtx.Lock()
			defer mtx.Unlock()
			if err != nil {
				errs = multierror.Append(errs, &PartyError{Party: s.SelfID(), Err: err})
				return nil
			}
			results[s.SelfID()] = result
			return nil
		})
	}
	_ = group.Wait()
	return results, errs.ErrorOrNil()
}

// PartyError is the terminal error of one party's session.
type PartyError struct {
	Party party.ID
	Err   error
}

func (e *PartyError) Error() string {
	return fmt.Sprintf("party %s: %v", e.Party.Short(), e.Err)
}

func (e *PartyError) Unwrap() error { return e.Err }

// PartyErrors returns the errors of each party contained in err, as returned by Run.
func PartyErrors(err error) map[party.ID]error {
	out := map[party.ID]error{}
	merr, ok := err.(*multierror.Error)
	if !ok {
		return out
	}
	for _, e := range merr.Errors {
		if pe, ok := e.(*PartyError); ok {
			out[pe.Party] = pe.Err
		}
	}
	return out
}

func (r *Runner) drive(ctx context.Context, s *protocol.Session, net *network) (interface{}, error) {
	var (
		box        = net.boxes[s.SelfID()]
		protocolID = s.ProtocolID()
		log        = r.log.With().Str("party", s.SelfID().Short()).Str("protocol", protocolID).Logger()
		number     = s.Round()
		started    = r.clock.Now()
		deadline   = r.deadline()
	)
	for {
		r.flush(s, net)
		if s.CanFinalize() {
			outcome, err := s.Finalize()
			if err != nil {
				return nil, err
			}
			metrics.RoundDuration.WithLabelValues(protocolID, strconv.Itoa(int(number))).
				Observe(r.clock.Since(started).Seconds())

			switch outcome.Kind {
			case protocol.OutcomeAnotherRound:
				log.Debug().Int("round", int(outcome.Round)).Msg("next round")
				number, started, deadline = outcome.Round, r.clock.Now(), r.deadline()
				continue
			case protocol.OutcomeResult:
				r.flush(s, net)
				return outcome.Result, nil
			default:
				r.flush(s, net)
				return nil, outcome.Err
			}
		}

		// parties stop only after their last flush, so what they sent is already in the box
		if net.stopped(s.Missing()) {
			r.deliver(s, box.drain(), log)
			if s.CanFinalize() {
				continue
			}
			log.Warn().Int("round", int(number)).Msg("every awaited party has stopped")
			err := s.Timeout()
			r.flush(s, net)
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-box.notify:
			r.deliver(s, box.drain(), log)
		case <-deadline:
			log.Warn().Int("round", int(number)).Msg("round deadline expired")
			err := s.Timeout()
			r.flush(s, net)
			return nil, err
		}
	}
}

// deliver hands msgs to s. Accusations of peers are counted apart from rejected envelopes.
func (r *Runner) deliver(s *protocol.Session, msgs []*protocol.SignedMessage, log zerolog.Logger) {
	for _, msg := range msgs {
		err := s.AddMessage(msg)
		switch {
		case err == nil || s.Done():
		case protocol.IsRemote(err):
			metrics.Accusations.WithLabelValues(s.ProtocolID()).Inc()
			log.Warn().Err(err).Msg("peer aborted")
		default:
			metrics.MessagesRejected.WithLabelValues(s.ProtocolID()).Inc()
			log.Debug().Err(err).Msg("message rejected")
		}
	}
}

// flush routes the pending envelopes of s.
func (r *Runner) flush(s *protocol.Session, net *network) {
	for _, out := range s.OutgoingMessages() {
		metrics.MessagesSent.WithLabelValues(s.ProtocolID(), out.Message.Kind.String()).Inc()
		for _, to := range out.To {
			box, ok := net.boxes[to]
			if !ok {
				continue
			}
			msg := out.Message
			if r.intercept != nil {
				if msg = r.intercept(to, msg); msg == nil {
					continue
				}
			}
			box.push(msg)
		}
	}
}

// deadline returns a channel firing when the current round times out, or nil if there is no timeout.
func (r *Runner) deadline() <-chan time.Time {
	if r.timeout <= 0 {
		return nil
	}
	return r.clock.After(r.timeout)
}

// network holds the mailboxes of a Run, and the parties whose session has returned.
type network struct {
	boxes map[party.ID]*mailbox

	mtx  sync.Mutex
	done map[party.ID]bool
}

func newNetwork(sessions []*protocol.Session) *network {
	n := &network{
		boxes: make(map[party.ID]*mailbox, len(sessions)),
		done:  make(map[party.ID]bool, len(sessions)),
	}
	for _, s := range sessions {
		n.boxes[s.SelfID()] = newMailbox()
	}
	return n
}

// stop records that id will not send anything more, and wakes up every other party.
func (n *network) stop(id party.ID) {
	n.mtx.Lock()
	n.done[id] = true
	n.mtx.Unlock()
	for other, box := range n.boxes {
		if other != id {
			box.wake()
		}
	}
}

// stopped reports whether ids is not empty and every party in it is driven by this run and has stopped.
func (n *network) stopped(ids party.IDSlice) bool {
	if len(ids) == 0 {
		return false
	}
	n.mtx.Lock()
	defer n.mtx.Unlock()
	for _, id := range ids {
		if !n.done[id] {
			return false
		}
	}
	return true
}

// mailbox is an unbounded queue of envelopes for one party.
type mailbox struct {
	mtx    sync.Mutex
	queue  []*protocol.SignedMessage
	notify chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

func (m *mailbox) push(msg *protocol.SignedMessage) {
	m.mtx.Lock()
	m.queue = append(m.queue, msg)
	m.mtx.Unlock()
	m.wake()
}

func (m *mailbox) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *mailbox) drain() []*protocol.SignedMessage {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	out := m.queue
	m.queue = nil
	return out
}
