package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

var (
	ErrNotReady          = errors.New("protocol: round is not ready to be finalized")
	ErrSessionDone       = errors.New("protocol: session is finished")
	ErrUnknownSender     = errors.New("protocol: unknown sender")
	ErrUnexpectedMessage = errors.New("protocol: unexpected message")
	ErrInvalidSignature  = errors.New("protocol: invalid signature")
	ErrWrongSession      = errors.New("protocol: wrong session")
	ErrRoundOutOfRange   = errors.New("protocol: round out of range")
	ErrDuplicateMessage  = errors.New("protocol: conflicting duplicate message")
	ErrMissingMessages   = errors.New("protocol: missing messages")
	ErrMalformedEnvelope = errors.New("protocol: malformed envelope")
	ErrInvalidEcho       = errors.New("protocol: invalid echo")
)

// LocalError is a failure of this party's own inputs or environment.
type LocalError struct {
	Round round.Number
	Err   error
}

func (e *LocalError) Error() string {
	return fmt.Sprintf("local error in round %d: %v", e.Round, e.Err)
}

func (e *LocalError) Unwrap() error { return e.Err }

// RemoteError is an authenticated abort notice from a peer which carried no conclusive evidence.
// It is an accusation: the session keeps running, and lists it in Accusations.
type RemoteError struct {
	Party  party.ID
	Round  round.Number
	Reason string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("party %s aborted in round %d: %s", e.Party.Short(), e.Round, e.Reason)
}

// ProvableError attributes a fault to Party, with evidence any third party can check.
type ProvableError struct {
	Party    party.ID
	Round    round.Number
	Err      error
	Evidence *Evidence
}

func (e *ProvableError) Error() string {
	return fmt.Sprintf("party %s misbehaved in round %d: %v", e.Party.Short(), e.Round, e.Err)
}

func (e *ProvableError) Unwrap() error { return e.Err }

// MissingMessagesError lists the parties whose messages did not arrive before the driver's deadline.
type MissingMessagesError struct {
	Round   round.Number
	Missing party.IDSlice
}

func (e *MissingMessagesError) Error() string {
	short := make([]string, 0, len(e.Missing))
	for _, id := range e.Missing {
		short = append(short, id.Short())
	}
	return fmt.Sprintf("round %d: missing messages from [%s]", e.Round, strings.Join(short, ", "))
}

func (e *MissingMessagesError) Unwrap() error { return ErrMissingMessages }

// ConsensusError is raised when two validly signed claims disagree on what Accused broadcast.
type ConsensusError struct {
	Accused party.ID
	Round   round.Number
	Claims  []Claim
}

func (e *ConsensusError) Error() string {
	reporters := make([]string, 0, len(e.Claims))
	for _, c := range e.Claims {
		reporters = append(reporters, c.Reporter.Short())
	}
	return fmt.Sprintf("party %s equivocated its round %d broadcast (reported by %s)",
		e.Accused.Short(), e.Round, strings.Join(reporters, ", "))
}

// IsLocal reports whether err is, or wraps, a LocalError.
func IsLocal(err error) bool {
	var e *LocalError
	return errors.As(err, &e)
}

// IsRemote reports whether err is, or wraps, a RemoteError.
func IsRemote(err error) bool {
	var e *RemoteError
	return errors.As(err, &e)
}

// IsProvable reports whether err is, or wraps, a ProvableError.
func IsProvable(err error) bool {
	var e *ProvableError
	return errors.As(err, &e)
}

// ProvableErrors returns every ProvableError in err, including each one aggregated by a *multierror.Error.
func ProvableErrors(err error) []*ProvableError {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		var out []*ProvableError
		for _, e := range merr.Errors {
			out = append(out, ProvableErrors(e)...)
		}
		return out
	}
	var provable *ProvableError
	if errors.As(err, &provable) {
		return []*ProvableError{provable}
	}
	return nil
}
