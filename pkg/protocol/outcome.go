package protocol

import (
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
)

// OutcomeKind tags the variant of a FinalizeOutcome.
type OutcomeKind uint8

const (
	// OutcomeAnotherRound means the session moved on to round Round.
	OutcomeAnotherRound OutcomeKind = iota + 1
	// OutcomeResult means the protocol finished with Result.
	OutcomeResult
	// OutcomeError means the session failed with Err, a LocalError, RemoteError or ProvableError.
	OutcomeError
)

// FinalizeOutcome is produced by every successful call to Session.Finalize.
type FinalizeOutcome struct {
	Kind   OutcomeKind
	Round  round.Number
	Result interface{}
	Err    error
}

// Terminal returns true if no further round will be run.
func (o *FinalizeOutcome) Terminal() bool {
	return o.Kind != OutcomeAnotherRound
}

func (o *FinalizeOutcome) String() string {
	switch o.Kind {
	case OutcomeAnotherRound:
		return fmt.Sprintf("another round (%d)", o.Round)
	case OutcomeResult:
		return "result"
	case OutcomeError:
		return fmt.Sprintf("error: %v", o.Err)
	default:
		return "unknown outcome"
	}
}
