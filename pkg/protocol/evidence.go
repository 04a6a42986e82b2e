package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// EvidenceKind identifies the fault an Evidence bundle demonstrates.
type EvidenceKind uint8

const (
	// EvidenceInvalidSignature holds an envelope whose signature does not verify.
	EvidenceInvalidSignature EvidenceKind = iota + 1
	// EvidenceWrongSession holds a signed envelope for another session.
	EvidenceWrongSession
	// EvidenceRoundOutOfRange holds a signed envelope for a round the protocol does not have.
	EvidenceRoundOutOfRange
	// EvidenceEquivocation holds two conflicting signed envelopes for the same slot.
	EvidenceEquivocation
	// EvidenceConsensus holds two signed claims on different broadcasts.
	EvidenceConsensus
	// EvidenceInvalidEcho holds a signed echo which is malformed on its own, or which omits
	// the signed broadcast that follows it.
	EvidenceInvalidEcho
	// EvidenceInvalidMessage holds the signed envelopes of a party whose content was rejected.
	EvidenceInvalidMessage
)

func (k EvidenceKind) String() string {
	switch k {
	case EvidenceInvalidSignature:
		return "invalid signature"
	case EvidenceWrongSession:
		return "wrong session"
	case EvidenceRoundOutOfRange:
		return "round out of range"
	case EvidenceEquivocation:
		return "equivocation"
	case EvidenceConsensus:
		return "consensus"
	case EvidenceInvalidEcho:
		return "invalid echo"
	case EvidenceInvalidMessage:
		return "invalid message"
	default:
		return fmt.Sprintf("evidence(%d)", uint8(k))
	}
}

var (
	ErrEvidenceDoesNotHold = errors.New("protocol: evidence does not hold")
	// ErrReplayRequired is returned by Verify for evidence which only establishes that the accused
	// authored the envelopes. Confirming the fault requires replaying them through the protocol.
	ErrReplayRequired = errors.New("protocol: evidence requires a protocol replay")
)

// Evidence is a self-contained bundle proving that Accused misbehaved during the session SSID.
// It can be exported with Marshal and checked by anyone with Verify.
//
// SSID is derived from SSIDBase and FinalRound, so that the range of rounds cannot be chosen by the accuser.
type Evidence struct {
	Kind       EvidenceKind
	Accused    party.ID
	SSID       []byte
	SSIDBase   []byte
	Round      round.Number
	FinalRound round.Number
	Envelopes  []*SignedMessage
	Claims     []Claim
	Reason     string
}

// Marshal encodes e with cbor.
func (e *Evidence) Marshal() ([]byte, error) {
	return cbor.Marshal(e)
}

// UnmarshalEvidence decodes a bundle produced by Marshal.
func UnmarshalEvidence(data []byte) (*Evidence, error) {
	var e Evidence
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("protocol: failed to decode evidence: %w", err)
	}
	return &e, nil
}

// Verify returns nil if the bundle demonstrates a fault by Accused.
// It uses nothing but the content of the bundle.
//
// For EvidenceInvalidMessage, Verify establishes that the envelopes were authored by Accused
// for this session and then returns ErrReplayRequired: the protocol check that failed needs
// the protocol's public data.
func (e *Evidence) Verify() error {
	if e.Accused.Validate() != nil {
		return fmt.Errorf("%w: invalid accused", ErrEvidenceDoesNotHold)
	}
	switch e.Kind {
	case EvidenceInvalidSignature:
		env, err := e.single()
		if err != nil {
			return err
		}
		if env.validate() != nil {
			return fmt.Errorf("%w: malformed envelope", ErrEvidenceDoesNotHold)
		}
		if party.Verify(env.From, env.digest(), env.Signature) {
			return fmt.Errorf("%w: signature is valid", ErrEvidenceDoesNotHold)
		}
		return nil

	case EvidenceWrongSession:
		env, err := e.single()
		if err != nil {
			return err
		}
		if _, err = env.Open(e.SSID); !errors.Is(err, ErrWrongSession) {
			return fmt.Errorf("%w: envelope belongs to the session", ErrEvidenceDoesNotHold)
		}
		return nil

	case EvidenceRoundOutOfRange:
		env, err := e.single()
		if err != nil {
			return err
		}
		if !bytes.Equal(round.DeriveSSID(e.SSIDBase, e.FinalRound), e.SSID) {
			return fmt.Errorf("%w: final round %d is not the one of the session", ErrEvidenceDoesNotHold, e.FinalRound)
		}
		if _, err = env.Open(e.SSID); err != nil {
			return fmt.Errorf("%w: %v", ErrEvidenceDoesNotHold, err)
		}
		if env.Round != 0 && env.Round <= e.FinalRound {
			return fmt.Errorf("%w: round %d is in range", ErrEvidenceDoesNotHold, env.Round)
		}
		return nil

	case EvidenceEquivocation:
		if len(e.Envelopes) != 2 {
			return fmt.Errorf("%w: expected 2 envelopes", ErrEvidenceDoesNotHold)
		}
		if err := e.authentic(); err != nil {
			return err
		}
		a, b := e.Envelopes[0], e.Envelopes[1]
		if a.Round != b.Round || a.Kind != b.Kind || a.To != b.To {
			return fmt.Errorf("%w: envelopes are for different slots", ErrEvidenceDoesNotHold)
		}
		if bytes.Equal(a.Payload, b.Payload) {
			return fmt.Errorf("%w: envelopes are identical", ErrEvidenceDoesNotHold)
		}
		return nil

	case EvidenceConsensus:
		if len(e.Claims) < 2 {
			return fmt.Errorf("%w: expected 2 claims", ErrEvidenceDoesNotHold)
		}
		for i := range e.Claims {
			if e.Claims[i].Sender != e.Accused || !e.Claims[i].verify(e.SSID, e.Round) {
				return fmt.Errorf("%w: claim %d is not signed by the accused", ErrEvidenceDoesNotHold, i)
			}
		}
		for i := 1; i < len(e.Claims); i++ {
			if !bytes.Equal(e.Claims[0].PayloadHash, e.Claims[i].PayloadHash) {
				return nil
			}
		}
		return fmt.Errorf("%w: all claims agree", ErrEvidenceDoesNotHold)

	case EvidenceInvalidEcho:
		return e.verifyEcho()

	case EvidenceInvalidMessage:
		if len(e.Envelopes) == 0 {
			return fmt.Errorf("%w: no envelopes", ErrEvidenceDoesNotHold)
		}
		if err := e.authentic(); err != nil {
			return err
		}
		return ErrReplayRequired

	default:
		return fmt.Errorf("%w: unknown kind %d", ErrEvidenceDoesNotHold, e.Kind)
	}
}

func (e *Evidence) single() (*SignedMessage, error) {
	if len(e.Envelopes) != 1 || e.Envelopes[0] == nil {
		return nil, fmt.Errorf("%w: expected a single envelope", ErrEvidenceDoesNotHold)
	}
	env := e.Envelopes[0]
	if env.From != e.Accused {
		return nil, fmt.Errorf("%w: envelope is not from the accused", ErrEvidenceDoesNotHold)
	}
	return env, nil
}

// authentic checks that every envelope was signed by the accused for this session.
func (e *Evidence) authentic() error {
	for i, env := range e.Envelopes {
		if env == nil || env.From != e.Accused {
			return fmt.Errorf("%w: envelope %d is not from the accused", ErrEvidenceDoesNotHold, i)
		}
		if _, err := env.Open(e.SSID); err != nil {
			return fmt.Errorf("%w: envelope %d: %v", ErrEvidenceDoesNotHold, i, err)
		}
	}
	return nil
}

// verifyEcho checks that the first envelope is an echo of Accused which is faulty on its own,
// or that it omits the broadcast held by the second envelope.
func (e *Evidence) verifyEcho() error {
	if len(e.Envelopes) == 0 || len(e.Envelopes) > 2 {
		return fmt.Errorf("%w: expected an echo and at most one broadcast", ErrEvidenceDoesNotHold)
	}
	echo := e.Envelopes[0]
	if echo == nil || echo.From != e.Accused {
		return fmt.Errorf("%w: echo is not from the accused", ErrEvidenceDoesNotHold)
	}
	if _, err := echo.Open(e.SSID); err != nil {
		return fmt.Errorf("%w: %v", ErrEvidenceDoesNotHold, err)
	}
	if echo.Kind != KindEcho || echo.Round != e.Round {
		return fmt.Errorf("%w: not an echo for round %d", ErrEvidenceDoesNotHold, e.Round)
	}
	claims, err := checkClaims(e.SSID, echo.Round, echo.From, echo.Payload)
	if err != nil {
		// faulty on its own
		return nil
	}
	if len(e.Envelopes) == 1 {
		return fmt.Errorf("%w: echo is well formed", ErrEvidenceDoesNotHold)
	}

	omitted := e.Envelopes[1]
	if omitted == nil || omitted.From == e.Accused {
		return fmt.Errorf("%w: no broadcast of another party", ErrEvidenceDoesNotHold)
	}
	if _, err = omitted.Open(e.SSID); err != nil {
		return fmt.Errorf("%w: %v", ErrEvidenceDoesNotHold, err)
	}
	if omitted.Kind != KindBroadcast || omitted.Round != e.Round {
		return fmt.Errorf("%w: not a broadcast for round %d", ErrEvidenceDoesNotHold, e.Round)
	}
	for _, c := range claims {
		if c.Sender == omitted.From {
			return fmt.Errorf("%w: echo reports %s", ErrEvidenceDoesNotHold, omitted.From.Short())
		}
	}
	return nil
}

// transferable reports whether a verified bundle of this kind proves a fault to a party which
// did not observe it. Signature and session failures can be produced by anyone on the network,
// and invalid messages need a replay.
func (k EvidenceKind) transferable() bool {
	switch k {
	case EvidenceRoundOutOfRange, EvidenceEquivocation, EvidenceConsensus, EvidenceInvalidEcho:
		return true
	default:
		return false
	}
}

// cause returns the error a session fails with when it adopts e from a peer.
func (e *Evidence) cause() error {
	switch e.Kind {
	case EvidenceConsensus:
		return &ConsensusError{Accused: e.Accused, Round: e.Round, Claims: e.Claims}
	case EvidenceEquivocation:
		return ErrDuplicateMessage
	case EvidenceRoundOutOfRange:
		return ErrRoundOutOfRange
	case EvidenceInvalidEcho:
		return ErrInvalidEcho
	default:
		return fmt.Errorf("protocol: %s: %s", e.Kind, e.Reason)
	}
}
