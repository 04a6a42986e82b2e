package round

import (
	"errors"

	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// ErrAborted is the cause of an Abort created without an error.
var ErrAborted = errors.New("round: protocol aborted")

// terminal rounds accept no message and finalize to themselves.
// Their Number is 0, so that the session recognizes them.
type terminal struct{}

func (terminal) VerifyMessage(Message) error { return nil }
func (terminal) StoreMessage(Message) error  { return nil }
func (terminal) MessageContent() Content     { return nil }
func (terminal) Number() Number              { return 0 }

// Output ends a successful execution with its Result, which may be nil.
type Output struct {
	*Helper
	terminal
	Result interface{}
}

func (r *Output) Finalize(chan<- *Message) (Session, error) { return r, nil }

// Abort ends a failed execution.
// Culprits lists the parties whose messages made the protocol fail, if they could be identified.
type Abort struct {
	*Helper
	terminal
	Culprits []party.ID
	Err      error
}

func (r *Abort) Finalize(chan<- *Message) (Session, error) { return r, nil }

// Identified reports whether the failure was attributed to some parties.
func (r *Abort) Identified() bool { return len(r.Culprits) > 0 }

// Cause returns the reason of the abort, never nil.
func (r *Abort) Cause() error {
	if r.Err == nil {
		return ErrAborted
	}
	return r.Err
}
