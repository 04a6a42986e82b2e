// Package metrics exposes prometheus collectors for protocol executions.
package metrics

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
)

var (
	// Registry holds every collector of this package.
	Registry = prometheus.NewRegistry()

	// SessionsStarted counts sessions by protocol.
	SessionsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmp_sessions_started_total",
		Help: "Number of protocol sessions started",
	}, []string{"protocol"})

	// SessionOutcomes counts terminal outcomes by protocol and class (result, local, remote, provable).
	SessionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmp_session_outcomes_total",
		Help: "Number of protocol sessions by terminal outcome",
	}, []string{"protocol", "outcome"})

	// MessagesSent counts envelopes handed to the transport, by kind.
	MessagesSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmp_messages_sent_total",
		Help: "Number of envelopes sent",
	}, []string{"protocol", "kind"})

	// MessagesRejected counts envelopes refused by a session without failing it.
	MessagesRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmp_messages_rejected_total",
		Help: "Number of envelopes rejected by a session",
	}, []string{"protocol"})

	// Accusations counts abort notices of peers which carried no conclusive evidence.
	Accusations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmp_accusations_total",
		Help: "Number of abort notices received without conclusive evidence",
	}, []string{"protocol"})

	// Faults counts provable faults by evidence kind.
	Faults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cmp_provable_faults_total",
		Help: "Number of provable faults detected",
	}, []string{"protocol", "evidence"})

	// RoundDuration measures how long a party spends in each round.
	RoundDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cmp_round_duration_seconds",
		Help:    "Time spent by a party in a protocol round",
		Buckets: prometheus.DefBuckets,
	}, []string{"protocol", "round"})
)

// Outcome classes used as the outcome label.
const (
	OutcomeResult   = "result"
	OutcomeLocal    = "local"
	OutcomeRemote   = "remote"
	OutcomeProvable = "provable"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		SessionsStarted,
		SessionOutcomes,
		MessagesSent,
		MessagesRejected,
		Accusations,
		Faults,
		RoundDuration,
	)
}

// Classify returns the outcome label of a terminal session error.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeResult
	case protocol.IsProvable(err):
		return OutcomeProvable
	case protocol.IsRemote(err):
		return OutcomeRemote
	default:
		return OutcomeLocal
	}
}

// ObserveOutcome records the terminal outcome of a session.
func ObserveOutcome(protocolID string, err error) {
	SessionOutcomes.WithLabelValues(protocolID, Classify(err)).Inc()
	for _, provable := range protocol.ProvableErrors(err) {
		if provable.Evidence != nil {
			Faults.WithLabelValues(protocolID, provable.Evidence.Kind.String()).Inc()
		}
	}
}

// Start serves the registry on /metrics at addr, which may be a bare port.
// The returned listener is closed to stop the server.
func Start(logger zerolog.Logger, addr string) (net.Listener, error) {
	if !strings.Contains(addr, ":") {
		addr = "127.0.0.1:" + addr
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry}))

	s := http.Server{Addr: l.Addr().String(), ReadHeaderTimeout: 3 * time.Second, Handler: mux}
	go func() {
		logger.Debug().Err(s.Serve(l)).Msg("metrics server finished")
	}()
	logger.Info().Str("addr", l.Addr().String()).Msg("metrics listening")
	return l, nil
}
