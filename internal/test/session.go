package test

import (
	"context"
	"time"

	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/pkg/runner"
)

// RunTimeout bounds the execution of RunSessions.
const RunTimeout = 10 * time.Minute

// StartFor returns the StartFunc of the party id.
type StartFor func(id party.ID) protocol.StartFunc

// NewSessions creates one Session per signer for the same execution.
func NewSessions(signers []*party.Signer, sessionID []byte, start StartFor) ([]*protocol.Session, error) {
	sessions := make([]*protocol.Session, 0, len(signers))
	for _, signer := range signers {
		s, err := protocol.NewSession(signer, sessionID, start(signer.ID()))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// RunSessions executes the protocol returned by start between signers, with a fresh session ID,
// and returns the result of each party.
func RunSessions(signers []*party.Signer, start StartFor, opts ...runner.Option) (map[party.ID]interface{}, error) {
	sessions, err := NewSessions(signers, protocol.NewSessionID(), start)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()
	return runner.New(opts...).Run(ctx, sessions...)
}
