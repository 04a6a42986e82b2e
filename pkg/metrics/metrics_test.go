package metrics

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, OutcomeResult},
		{"local", &protocol.LocalError{Err: protocol.ErrNotReady}, OutcomeLocal},
		{"plain", errors.New("boom"), OutcomeLocal},
		{"remote", &protocol.RemoteError{Reason: "boom"}, OutcomeRemote},
		{"provable", &protocol.ProvableError{Err: protocol.ErrDuplicateMessage}, OutcomeProvable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestObserveOutcome(t *testing.T) {
	const id = "test/observe"
	ObserveOutcome(id, nil)
	ObserveOutcome(id, &protocol.ProvableError{
		Err:      protocol.ErrDuplicateMessage,
		Evidence: &protocol.Evidence{Kind: protocol.EvidenceEquivocation},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(SessionOutcomes.WithLabelValues(id, OutcomeResult)))
	assert.Equal(t, 1.0, testutil.ToFloat64(SessionOutcomes.WithLabelValues(id, OutcomeProvable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(Faults.WithLabelValues(id, protocol.EvidenceEquivocation.String())))
}

func TestObserveOutcomeCulprits(t *testing.T) {
	const id = "test/culprits"
	culprit := func() error {
		return &protocol.ProvableError{
			Err:      protocol.ErrInvalidEcho,
			Evidence: &protocol.Evidence{Kind: protocol.EvidenceInvalidEcho},
		}
	}
	ObserveOutcome(id, multierror.Append(nil, culprit(), culprit()))

	assert.Equal(t, 1.0, testutil.ToFloat64(SessionOutcomes.WithLabelValues(id, OutcomeProvable)))
	assert.Equal(t, 2.0, testutil.ToFloat64(Faults.WithLabelValues(id, protocol.EvidenceInvalidEcho.String())))
}

func TestStart(t *testing.T) {
	SessionsStarted.WithLabelValues("test/start").Inc()

	l, err := Start(zerolog.Nop(), "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	resp, err := http.Get("http://" + l.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cmp_sessions_started_total")
}
