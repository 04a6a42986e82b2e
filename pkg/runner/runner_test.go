package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/pkg/runner"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/keygen"
)

func keyInit(partyIDs party.IDSlice) test.StartFor {
	return func(id party.ID) protocol.StartFunc {
		return keygen.StartKeyInit(id, partyIDs, 1, nil)
	}
}

func TestRun(t *testing.T) {
	signers := test.Signers(3)
	sessions, err := test.NewSessions(signers, protocol.NewSessionID(), keyInit(test.PartyIDs(3)))
	require.NoError(t, err)

	results, err := runner.New(runner.WithTimeout(time.Minute)).Run(context.Background(), sessions...)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, s := range sessions {
		share, ok := results[s.SelfID()].(*config.KeyShare)
		require.True(t, ok)
		assert.Equal(t, s.SelfID(), share.ID)
	}
}

// Every envelope of the first party is dropped, so no party can leave the second round.
func TestRunTimeout(t *testing.T) {
	signers := test.Signers(3)
	silent := signers[0].ID()
	sessions, err := test.NewSessions(signers, protocol.NewSessionID(), keyInit(test.PartyIDs(3)))
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	r := runner.New(
		runner.WithClock(clock),
		runner.WithTimeout(time.Second),
		runner.WithInterceptor(func(_ party.ID, msg *protocol.SignedMessage) *protocol.SignedMessage {
			if msg.From == silent {
				return nil
			}
			return msg
		}),
	)

	var (
		results map[party.ID]interface{}
		runErr  error
		done    = make(chan struct{})
	)
	go func() {
		results, runErr = r.Run(context.Background(), sessions...)
		close(done)
	}()

	// A deadline may be armed after an advance, so keep advancing until every session gave up.
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-done:
			break wait
		case <-ticker.C:
			clock.Advance(time.Second)
		}
	}

	assert.Empty(t, results)
	errs := runner.PartyErrors(runErr)
	require.Len(t, errs, 3)
	for id, err := range errs {
		assert.True(t, errors.Is(err, protocol.ErrMissingMessages), "party %s: %v", id, err)
		assert.True(t, protocol.IsLocal(err))
	}
}

func TestRunCancelled(t *testing.T) {
	signers := test.Signers(2)
	sessions, err := test.NewSessions(signers, protocol.NewSessionID(), keyInit(test.PartyIDs(2)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := runner.New(runner.WithInterceptor(func(party.ID, *protocol.SignedMessage) *protocol.SignedMessage { return nil }))
	_, err = r.Run(ctx, sessions...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
