package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// StartFunc is function that creates the first round of a protocol.
// If the creation fails (likely due to misconfiguration), and error is returned.
type StartFunc func(sessionID []byte) (round.Session, error)

// Session represents one party's execution of a protocol.
//
// A Session never blocks: the driver delivers envelopes with AddMessage, sends the envelopes
// returned by OutgoingMessages, and calls Finalize whenever CanFinalize returns true,
// until Finalize returns a Result or an Error outcome.
// It is safe for concurrent use.
type Session struct {
	mtx    sync.Mutex
	signer *party.Signer
	log    zerolog.Logger

	r          round.Session
	ssid       []byte
	ssidBase   []byte
	finalRound round.Number
	protocolID string
	partyIDs   party.IDSlice

	// state of the current round
	broadcasts   map[party.ID]*SignedMessage
	directs      map[party.ID]*SignedMessage
	held         map[party.ID]*SignedMessage
	echoes       map[party.ID]bool
	omitting     map[party.ID]*SignedMessage
	echoSent     bool
	consensus    *consensus
	ownBroadcast map[round.Number]*SignedMessage

	queue      map[round.Number][]*SignedMessage
	seen       map[slot]*SignedMessage
	transcript []*SignedMessage
	outgoing   []*Outgoing

	accusations []*RemoteError

	result   interface{}
	finished bool
	err      error
	reported bool
}

// slot identifies the single envelope a party may send for a given round and kind.
type slot struct {
	round round.Number
	kind  Kind
	from  party.ID
}

// abortNotice is the payload of a KindAbort envelope.
// Evidence holds the bundles of the provable faults which made the sender fail.
type abortNotice struct {
	Reason   string
	Evidence []*Evidence
}

// NewSession creates the first round of a protocol with start, and returns a Session driving it
// on behalf of signer.
//
// sessionID should be unique for every execution, such as the output of NewSessionID.
func NewSession(signer *party.Signer, sessionID []byte, start StartFunc, opts ...Option) (*Session, error) {
	if signer == nil {
		return nil, &LocalError{Err: errors.New("protocol: nil signer")}
	}
	r, err := start(sessionID)
	if err != nil {
		return nil, &LocalError{Err: fmt.Errorf("protocol: failed to create round: %w", err)}
	}
	if r.SelfID() != signer.ID() {
		return nil, &LocalError{Err: fmt.Errorf("protocol: signer %s does not match session party %s",
			signer.ID().Short(), r.SelfID().Short())}
	}

	s := &Session{
		signer:       signer,
		log:          zerolog.Nop(),
		ssid:         r.SSID(),
		ssidBase:     r.SSIDBase(),
		finalRound:   r.FinalRoundNumber(),
		protocolID:   r.ProtocolID(),
		partyIDs:     r.PartyIDs().Copy(),
		ownBroadcast: map[round.Number]*SignedMessage{},
		queue:        map[round.Number][]*SignedMessage{},
		seen:         map[slot]*SignedMessage{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().
		Str("protocol", r.ProtocolID()).
		Str("party", signer.ID().Short()).
		Int("round", int(r.Number())).
		Logger()

	s.enter(r)
	s.log.Info().Msg("start")
	return s, nil
}

// AddMessage authenticates msg and hands it to the current round.
// Messages for later rounds are queued until the session reaches them.
//
// The returned error is one of LocalError, RemoteError or ProvableError.
// Envelopes which do not authenticate, or which are not meant for this round, are rejected
// without failing the session; Done reports whether the session has reached a terminal state.
// An abort notice fails the session only if it carries evidence proving a fault in this session.
// Otherwise it is returned as a RemoteError and kept in Accusations.
func (s *Session) AddMessage(msg *SignedMessage) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.finished || s.err != nil {
		return &LocalError{Round: s.r.Number(), Err: ErrSessionDone}
	}
	if err := msg.validate(); err != nil {
		return s.reject(msg, &LocalError{Round: s.r.Number(), Err: err})
	}
	if msg.From == s.signer.ID() || !s.partyIDs.Contains(msg.From) {
		return s.reject(msg, &LocalError{Round: s.r.Number(), Err: fmt.Errorf("%w %s", ErrUnknownSender, msg.From.Short())})
	}
	if msg.Kind == KindDirect && msg.To != s.signer.ID() {
		return s.reject(msg, &LocalError{Round: s.r.Number(), Err: fmt.Errorf("%w: addressed to %s", ErrUnexpectedMessage, msg.To.Short())})
	}

	if _, err := msg.Open(s.ssid); err != nil {
		kind := EvidenceInvalidSignature
		if errors.Is(err, ErrWrongSession) {
			kind = EvidenceWrongSession
		}
		return s.reject(msg, &ProvableError{
			Party:    msg.From,
			Round:    msg.Round,
			Err:      err,
			Evidence: s.evidence(kind, msg.From, msg.Round, msg),
		})
	}
	s.log.Debug().Stringer("msg", msg).Msg("received message")

	if msg.Kind == KindAbort {
		return s.handleAbort(msg)
	}

	if msg.Round == 0 || msg.Round > s.finalRound {
		return s.fail(&ProvableError{
			Party:    msg.From,
			Round:    msg.Round,
			Err:      ErrRoundOutOfRange,
			Evidence: s.evidence(EvidenceRoundOutOfRange, msg.From, msg.Round, msg),
		})
	}

	key := slot{round: msg.Round, kind: msg.Kind, from: msg.From}
	if previous, ok := s.seen[key]; ok {
		if previous.Equal(msg) {
			return nil
		}
		return s.fail(&ProvableError{
			Party:    msg.From,
			Round:    msg.Round,
			Err:      ErrDuplicateMessage,
			Evidence: s.evidence(EvidenceEquivocation, msg.From, msg.Round, previous, msg),
		})
	}
	s.seen[key] = msg
	s.transcript = append(s.transcript, msg)

	current := s.r.Number()
	switch {
	case msg.Round > current:
		s.queue[msg.Round] = append(s.queue[msg.Round], msg)
		return nil
	case msg.Round < current:
		return s.reject(msg, &LocalError{Round: current, Err: fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg)})
	}
	return s.handle(msg)
}

// CanFinalize returns true if Finalize would produce an outcome.
func (s *Session) CanFinalize() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.reported {
		return false
	}
	return s.err != nil || (!s.finished && s.ready())
}

// Finalize ends the current round.
//
// Calling it before CanFinalize returns true yields a LocalError wrapping ErrNotReady,
// and leaves the session unchanged.
func (s *Session) Finalize() (*FinalizeOutcome, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	number := s.r.Number()
	if s.reported || s.finished {
		return nil, &LocalError{Round: number, Err: ErrSessionDone}
	}
	if s.err != nil {
		s.reported = true
		return &FinalizeOutcome{Kind: OutcomeError, Err: s.err}, nil
	}
	if !s.ready() {
		return nil, &LocalError{Round: number, Err: ErrNotReady}
	}

	out := make(chan *round.Message, 2*s.r.N()+1)
	next, err := s.r.Finalize(out)
	close(out)
	if err != nil {
		return s.terminal(s.fail(&LocalError{Round: number, Err: err})), nil
	}

	switch r := next.(type) {
	case *round.Output:
		s.result = r.Result
		s.finished = true
		s.log.Info().Msg("finished")
		return &FinalizeOutcome{Kind: OutcomeResult, Result: r.Result}, nil
	case *round.Abort:
		return s.terminal(s.fail(s.abortError(number, r))), nil
	}

	if err = s.send(out); err != nil {
		return s.terminal(s.fail(&LocalError{Round: number, Err: err})), nil
	}
	s.enter(next)
	s.log.Info().Msg("round advanced")
	return &FinalizeOutcome{Kind: OutcomeAnotherRound, Round: next.Number()}, nil
}

// OutgoingMessages returns the envelopes produced since the last call.
func (s *Session) OutgoingMessages() []*Outgoing {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := s.outgoing
	s.outgoing = nil
	return out
}

// Timeout is called by the driver when its deadline for the current round expires.
// The session fails with a LocalError wrapping a MissingMessagesError.
func (s *Session) Timeout() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.finished {
		return nil
	}
	number := s.r.Number()
	return s.fail(&LocalError{Round: number, Err: &MissingMessagesError{Round: number, Missing: s.missing()}})
}

// Result returns the output of the protocol once it has finished.
func (s *Session) Result() (interface{}, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if !s.finished {
		return nil, &LocalError{Round: s.r.Number(), Err: ErrNotReady}
	}
	return s.result, nil
}

// Err returns the terminal error of the session, if any.
func (s *Session) Err() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.err
}

// Done returns true once the session has a result or a terminal error.
func (s *Session) Done() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.finished || s.err != nil
}

// Transcript returns every envelope accepted by this session, in order of arrival.
func (s *Session) Transcript() []*SignedMessage {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]*SignedMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// SSID returns the identifier all envelopes of this session are bound to.
func (s *Session) SSID() []byte { return s.ssid }

// SelfID returns the identity of the party running this session.
func (s *Session) SelfID() party.ID { return s.signer.ID() }

// Round returns the number of the current round.
func (s *Session) Round() round.Number {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.r.Number()
}

// PartyIDs returns every party of the session.
func (s *Session) PartyIDs() party.IDSlice { return s.partyIDs.Copy() }

// ProtocolID returns the identifier of the protocol being run.
func (s *Session) ProtocolID() string { return s.protocolID }

func (s *Session) String() string {
	return fmt.Sprintf("party: %s, protocol: %s", s.signer.ID().Short(), s.protocolID)
}

// Missing returns the parties from which the current round still expects a message.
func (s *Session) Missing() party.IDSlice {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.finished || s.err != nil {
		return nil
	}
	return s.missing()
}

// Accusations returns the abort notices of peers which carried no conclusive evidence.
func (s *Session) Accusations() []*RemoteError {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	out := make([]*RemoteError, len(s.accusations))
	copy(out, s.accusations)
	return out
}

// enter makes r the current round and replays the messages queued for it.
func (s *Session) enter(r round.Session) {
	number := r.Number()
	s.r = r
	s.broadcasts = map[party.ID]*SignedMessage{}
	s.directs = map[party.ID]*SignedMessage{}
	s.held = map[party.ID]*SignedMessage{}
	s.echoes = map[party.ID]bool{}
	s.omitting = map[party.ID]*SignedMessage{}
	s.echoSent = false
	s.consensus = newConsensus(number)
	if own := s.ownBroadcast[number]; own != nil {
		_ = s.consensus.add(Claim{
			Reporter:    own.From,
			Sender:      own.From,
			PayloadHash: own.PayloadHash(),
			Signature:   own.Signature,
		})
	}
	s.log.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Int("round", int(number))
	})

	queued := s.queue[number]
	delete(s.queue, number)
	for _, msg := range queued {
		if s.err != nil {
			return
		}
		_ = s.handle(msg)
	}
	s.maybeEcho()
}

// handle dispatches an authenticated envelope for the current round.
func (s *Session) handle(msg *SignedMessage) error {
	switch msg.Kind {
	case KindBroadcast:
		if !s.wantsBroadcast(msg.From) {
			break
		}
		return s.handleBroadcast(msg)
	case KindDirect:
		if !round.ExpectedDirectSenders(s.r).Contains(msg.From) {
			break
		}
		if round.ExpectsBroadcast(s.r) && s.broadcasts[msg.From] == nil {
			s.held[msg.From] = msg
			return nil
		}
		return s.handleDirect(msg)
	case KindEcho:
		if !round.RequiresConsensus(s.r) || !s.r.OtherPartyIDs().Contains(msg.From) {
			break
		}
		return s.handleEcho(msg)
	}
	return s.reject(msg, &LocalError{Round: s.r.Number(), Err: fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg)})
}

func (s *Session) handleBroadcast(msg *SignedMessage) error {
	r := s.r.(round.BroadcastRound)
	content := r.BroadcastContent()
	if err := cbor.Unmarshal(msg.Payload, content); err != nil {
		return s.invalidMessage(msg, fmt.Errorf("failed to unmarshal broadcast: %w", err))
	}
	if err := r.StoreBroadcastMessage(round.Message{From: msg.From, Broadcast: true, Content: content}); err != nil {
		return s.invalidMessage(msg, err)
	}
	s.broadcasts[msg.From] = msg

	var cerr *ConsensusError
	if round.RequiresConsensus(s.r) {
		cerr = s.consensus.add(Claim{
			Reporter:    s.signer.ID(),
			Sender:      msg.From,
			PayloadHash: msg.PayloadHash(),
			Signature:   msg.Signature,
		})
	}
	// the echo goes out even on a conflict, so that the other parties can detect it too
	s.maybeEcho()
	if cerr != nil {
		return s.fail(s.consensusError(cerr))
	}

	if held := s.held[msg.From]; held != nil {
		delete(s.held, msg.From)
		if err := s.handleDirect(held); err != nil {
			return err
		}
	}

	// echoes which left out a broadcast are checked again now that it may have arrived
	pending := make([]*SignedMessage, 0, len(s.omitting))
	for _, echo := range s.omitting {
		pending = append(pending, echo)
	}
	s.omitting = map[party.ID]*SignedMessage{}
	for _, echo := range pending {
		if err := s.handleEcho(echo); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handleDirect(msg *SignedMessage) error {
	content := s.r.MessageContent()
	if err := cbor.Unmarshal(msg.Payload, content); err != nil {
		return s.invalidMessage(msg, fmt.Errorf("failed to unmarshal message: %w", err))
	}
	roundMsg := round.Message{From: msg.From, To: msg.To, Content: content}
	if err := s.r.VerifyMessage(roundMsg); err != nil {
		return s.invalidMessage(msg, err)
	}
	if err := s.r.StoreMessage(roundMsg); err != nil {
		return s.invalidMessage(msg, err)
	}
	s.directs[msg.From] = msg
	return nil
}

// handleEcho checks an echo against the broadcasters of the round, and adds its claims.
// An echo omitting a broadcast which has not arrived yet is kept until it can be proven faulty.
func (s *Session) handleEcho(msg *SignedMessage) error {
	claims, err := checkEcho(s.ssid, msg.Round, msg.From, msg.Payload, s.broadcasters())
	var omission *omissionError
	if errors.As(err, &omission) {
		for _, id := range omission.Senders {
			if omitted := s.broadcastFrom(id); omitted != nil {
				e := s.evidence(EvidenceInvalidEcho, msg.From, msg.Round, msg, omitted)
				return s.fail(&ProvableError{Party: msg.From, Round: msg.Round, Err: err, Evidence: e})
			}
		}
		s.omitting[msg.From] = msg
		return nil
	}
	if err != nil {
		e := s.evidence(EvidenceInvalidEcho, msg.From, msg.Round, msg)
		return s.fail(&ProvableError{Party: msg.From, Round: msg.Round, Err: err, Evidence: e})
	}
	for _, claim := range claims {
		if cerr := s.consensus.add(claim); cerr != nil {
			return s.fail(s.consensusError(cerr))
		}
	}
	s.echoes[msg.From] = true
	return nil
}

// maybeEcho sends the echo of the current round once every broadcast has been received.
// Every other party receives it, including those which do not broadcast in this round.
func (s *Session) maybeEcho() {
	if s.echoSent || s.err != nil || !round.RequiresConsensus(s.r) {
		return
	}
	expected := round.ExpectedSenders(s.r)
	claims := make([]echoClaim, 0, len(expected))
	for _, id := range expected {
		msg := s.broadcasts[id]
		if msg == nil {
			return
		}
		claims = append(claims, echoClaim{
			Sender:      id,
			PayloadHash: msg.PayloadHash(),
			Signature:   msg.Signature,
		})
	}
	s.echoSent = true
	others := s.r.OtherPartyIDs()
	if len(others) == 0 {
		return
	}
	payload, err := marshalEcho(claims)
	if err != nil {
		_ = s.fail(&LocalError{Round: s.r.Number(), Err: err})
		return
	}
	echo := Seal(s.signer, s.ssid, s.r.Number(), KindEcho, "", payload)
	s.outgoing = append(s.outgoing, &Outgoing{Message: echo, To: others.Copy()})
}

// send seals the messages produced by Round.Finalize.
func (s *Session) send(out <-chan *round.Message) error {
	for msg := range out {
		payload, err := cbor.Marshal(msg.Content)
		if err != nil {
			return fmt.Errorf("protocol: failed to marshal content: %w", err)
		}
		number := msg.Content.RoundNumber()
		if msg.Broadcast {
			env := Seal(s.signer, s.ssid, number, KindBroadcast, "", payload)
			s.ownBroadcast[number] = env
			s.outgoing = append(s.outgoing, &Outgoing{Message: env, To: s.r.OtherPartyIDs().Copy()})
			continue
		}
		if !s.r.PartyIDs().Contains(msg.To) || msg.To == s.signer.ID() {
			return fmt.Errorf("protocol: invalid recipient %q", msg.To)
		}
		env := Seal(s.signer, s.ssid, number, KindDirect, msg.To, payload)
		s.outgoing = append(s.outgoing, &Outgoing{Message: env, To: []party.ID{msg.To}})
	}
	return nil
}

func (s *Session) wantsBroadcast(id party.ID) bool {
	return round.ExpectsBroadcast(s.r) && round.ExpectedSenders(s.r).Contains(id)
}

// broadcastFrom returns the broadcast of id for the current round, if it was received or sent.
func (s *Session) broadcastFrom(id party.ID) *SignedMessage {
	if id == s.signer.ID() {
		return s.ownBroadcast[s.r.Number()]
	}
	return s.broadcasts[id]
}

// broadcasters returns the parties whose broadcast for the current round every echo must report.
func (s *Session) broadcasters() party.IDSlice {
	ids := round.ExpectedSenders(s.r).Copy()
	if s.ownBroadcast[s.r.Number()] != nil {
		ids = append(ids, s.signer.ID())
	}
	return party.NewIDSlice(ids)
}

func (s *Session) ready() bool {
	return len(s.missing()) == 0
}

// missing returns the parties from which a message is still expected in the current round.
func (s *Session) missing() party.IDSlice {
	var missing []party.ID
	consensus := round.RequiresConsensus(s.r)
	for _, id := range round.ExpectedSenders(s.r) {
		if s.wantsBroadcast(id) && s.broadcasts[id] == nil {
			missing = append(missing, id)
		}
	}
	if consensus {
		for _, id := range s.r.OtherPartyIDs() {
			if !s.echoes[id] {
				missing = append(missing, id)
			}
		}
	}
	for _, id := range round.ExpectedDirectSenders(s.r) {
		if s.directs[id] == nil {
			missing = append(missing, id)
		}
	}
	return party.NewIDSlice(missing)
}

// reject logs a message which is discarded without failing the session.
func (s *Session) reject(msg *SignedMessage, err error) error {
	if msg != nil {
		s.log.Warn().Err(err).Stringer("msg", msg).Msg("rejected message")
	} else {
		s.log.Warn().Err(err).Msg("rejected message")
	}
	return err
}

// fail makes err the terminal error of the session, and notifies the peers.
func (s *Session) fail(err error) error {
	if s.err != nil {
		return s.err
	}
	s.err = err
	s.log.Error().Err(err).Msg("session failed")

	notice := abortNotice{Reason: err.Error()}
	for _, provable := range ProvableErrors(err) {
		if provable.Evidence != nil {
			notice.Evidence = append(notice.Evidence, provable.Evidence)
		}
	}
	payload, mErr := cbor.Marshal(notice)
	if mErr != nil {
		return err
	}
	env := Seal(s.signer, s.ssid, s.r.Number(), KindAbort, "", payload)
	s.outgoing = append(s.outgoing, &Outgoing{Message: env, To: s.r.OtherPartyIDs().Copy()})
	return err
}

// handleAbort fails the session with the first evidence of a peer's abort notice which proves a fault.
// A notice without such evidence is recorded as an accusation, and the session keeps running.
func (s *Session) handleAbort(msg *SignedMessage) error {
	key := slot{kind: KindAbort, from: msg.From}
	if _, ok := s.seen[key]; ok {
		return nil
	}
	s.seen[key] = msg
	s.transcript = append(s.transcript, msg)

	var notice abortNotice
	if err := cbor.Unmarshal(msg.Payload, &notice); err != nil {
		notice = abortNotice{Reason: "malformed abort notice"}
	}
	for _, e := range notice.Evidence {
		if err := s.adoptable(e); err != nil {
			s.log.Warn().Err(err).Str("from", msg.From.Short()).Msg("ignored evidence of abort notice")
			continue
		}
		return s.fail(&ProvableError{Party: e.Accused, Round: e.Round, Err: e.cause(), Evidence: e})
	}

	accusation := &RemoteError{Party: msg.From, Round: msg.Round, Reason: notice.Reason}
	s.accusations = append(s.accusations, accusation)
	s.log.Warn().Err(accusation).Msg("peer aborted")
	return accusation
}

// adoptable returns nil if e, received from a peer, proves a fault in this session.
func (s *Session) adoptable(e *Evidence) error {
	switch {
	case e == nil:
		return fmt.Errorf("%w: empty bundle", ErrEvidenceDoesNotHold)
	case !e.Kind.transferable():
		return fmt.Errorf("%w: %s evidence is not conclusive for other parties", ErrEvidenceDoesNotHold, e.Kind)
	case !bytes.Equal(e.SSID, s.ssid):
		return fmt.Errorf("%w: %v", ErrEvidenceDoesNotHold, ErrWrongSession)
	case !s.partyIDs.Contains(e.Accused):
		return fmt.Errorf("%w: %v %s", ErrEvidenceDoesNotHold, ErrUnknownSender, e.Accused.Short())
	}
	return e.Verify()
}

// terminal marks the error as delivered through a FinalizeOutcome.
func (s *Session) terminal(err error) *FinalizeOutcome {
	s.reported = true
	return &FinalizeOutcome{Kind: OutcomeError, Err: err}
}

func (s *Session) invalidMessage(msg *SignedMessage, err error) error {
	e := s.evidence(EvidenceInvalidMessage, msg.From, msg.Round, s.envelopesFrom(msg.From)...)
	e.Reason = err.Error()
	return s.fail(&ProvableError{Party: msg.From, Round: msg.Round, Err: err, Evidence: e})
}

func (s *Session) consensusError(cerr *ConsensusError) error {
	e := s.evidence(EvidenceConsensus, cerr.Accused, cerr.Round)
	e.Claims = cerr.Claims
	return &ProvableError{Party: cerr.Accused, Round: cerr.Round, Err: cerr, Evidence: e}
}

// abortError converts a protocol Abort round into a typed error.
// Culprits become ProvableErrors carrying their envelopes; an abort without culprits is a LocalError.
func (s *Session) abortError(number round.Number, r *round.Abort) error {
	cause := r.Cause()
	if !r.Identified() {
		return &LocalError{Round: number, Err: cause}
	}
	var errs []error
	for _, culprit := range r.Culprits {
		e := s.evidence(EvidenceInvalidMessage, culprit, number, s.envelopesFrom(culprit)...)
		e.Reason = cause.Error()
		errs = append(errs, &ProvableError{Party: culprit, Round: number, Err: cause, Evidence: e})
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return multierror.Append(nil, errs...)
}

func (s *Session) envelopesFrom(id party.ID) []*SignedMessage {
	var out []*SignedMessage
	for _, msg := range s.transcript {
		if msg.From == id {
			out = append(out, msg)
		}
	}
	return out
}

func (s *Session) evidence(kind EvidenceKind, accused party.ID, number round.Number, envelopes ...*SignedMessage) *Evidence {
	return &Evidence{
		Kind:       kind,
		Accused:    accused,
		SSID:       s.ssid,
		SSIDBase:   s.ssidBase,
		Round:      number,
		FinalRound: s.finalRound,
		Envelopes:  envelopes,
	}
}
