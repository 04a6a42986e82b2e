package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// Kind tags the payload category of a SignedMessage.
type Kind uint8

const (
	// KindBroadcast is sent to every peer, and must be identical for all of them.
	KindBroadcast Kind = iota + 1
	// KindDirect is addressed to a single peer.
	KindDirect
	// KindEcho lists the broadcasts a party received in a round that requires consensus.
	KindEcho
	// KindAbort notifies peers that the sender's session has failed.
	KindAbort
)

func (k Kind) String() string {
	switch k {
	case KindBroadcast:
		return "broadcast"
	case KindDirect:
		return "direct"
	case KindEcho:
		return "echo"
	case KindAbort:
		return "abort"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) valid() bool {
	return k >= KindBroadcast && k <= KindAbort
}

// WriteTo implements io.WriterTo.
func (k Kind) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write([]byte{byte(k)})
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Kind) Domain() string { return "Message Kind" }

const digestLength = 32

// SignedMessage is the envelope exchanged between sessions.
//
// The signature covers H(SSID, Round, From, To, Kind, H(Payload)), so that a
// (payload hash, signature) pair can be checked without the payload itself.
type SignedMessage struct {
	SSID      []byte
	Round     round.Number
	From      party.ID
	To        party.ID
	Kind      Kind
	Payload   []byte
	Signature []byte
}

// Seal creates an envelope for payload, authenticated by signer.
// to must be empty for every kind except KindDirect.
func Seal(signer *party.Signer, ssid []byte, r round.Number, kind Kind, to party.ID, payload []byte) *SignedMessage {
	msg := &SignedMessage{
		SSID:    append([]byte(nil), ssid...),
		Round:   r,
		From:    signer.ID(),
		To:      to,
		Kind:    kind,
		Payload: payload,
	}
	msg.Signature = signer.Sign(msg.digest())
	return msg
}

// Open authenticates m and returns its payload.
//
// The signature is checked before the session identifier, so that an ErrWrongSession
// is always attributable to the sender.
func (m *SignedMessage) Open(expectedSSID []byte) ([]byte, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if !party.Verify(m.From, m.digest(), m.Signature) {
		return nil, ErrInvalidSignature
	}
	if !bytes.Equal(m.SSID, expectedSSID) {
		return nil, ErrWrongSession
	}
	return m.Payload, nil
}

// PayloadHash returns H(Payload).
func (m *SignedMessage) PayloadHash() []byte {
	return payloadHash(m.Payload)
}

// Equal returns true if both envelopes carry the same signed content.
func (m *SignedMessage) Equal(other *SignedMessage) bool {
	return bytes.Equal(m.SSID, other.SSID) &&
		m.Round == other.Round &&
		m.From == other.From &&
		m.To == other.To &&
		m.Kind == other.Kind &&
		bytes.Equal(m.Payload, other.Payload)
}

func (m *SignedMessage) String() string {
	to := "all"
	if m.To != "" {
		to = m.To.Short()
	}
	return fmt.Sprintf("round %d %s from %s to %s", m.Round, m.Kind, m.From.Short(), to)
}

func (m *SignedMessage) validate() error {
	if m == nil || len(m.SSID) == 0 || m.From == "" || len(m.Signature) == 0 || !m.Kind.valid() {
		return ErrMalformedEnvelope
	}
	if (m.Kind == KindDirect) != (m.To != "") {
		return fmt.Errorf("%w: recipient does not match %s", ErrMalformedEnvelope, m.Kind)
	}
	return nil
}

func (m *SignedMessage) digest() []byte {
	return envelopeDigest(m.SSID, m.Round, m.From, m.To, m.Kind, m.PayloadHash())
}

func envelopeDigest(ssid []byte, r round.Number, from, to party.ID, kind Kind, payloadHash []byte) []byte {
	h := hash.New()
	_ = h.WriteAny(
		&hash.Tagged{Tag: "SSID", Data: ssid},
		r,
		&hash.Tagged{Tag: "From", Data: []byte(from)},
		&hash.Tagged{Tag: "To", Data: []byte(to)},
		kind,
		&hash.Tagged{Tag: "Payload Hash", Data: payloadHash},
	)
	return sum(h)
}

func payloadHash(payload []byte) []byte {
	return sum(hash.New(&hash.Tagged{Tag: "Payload", Data: payload}))
}

func sum(h *hash.Hash) []byte {
	out := make([]byte, digestLength)
	_, _ = io.ReadFull(h.Digest(), out)
	return out
}

// Outgoing is an envelope together with the parties it must be delivered to.
type Outgoing struct {
	Message *SignedMessage
	To      []party.ID
}
