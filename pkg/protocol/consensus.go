package protocol

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// Claim is a statement by Reporter that Sender broadcast a payload with hash PayloadHash.
// Signature is Sender's signature on the broadcast envelope, so the claim can be checked
// without the payload.
type Claim struct {
	Reporter    party.ID
	Sender      party.ID
	PayloadHash []byte
	Signature   []byte
}

// verify checks that Sender really signed a broadcast with this payload hash.
func (c *Claim) verify(ssid []byte, r round.Number) bool {
	digest := envelopeDigest(ssid, r, c.Sender, "", KindBroadcast, c.PayloadHash)
	return party.Verify(c.Sender, digest, c.Signature)
}

// echoClaim is the wire form of a Claim, the reporter being the sender of the echo.
type echoClaim struct {
	Sender      party.ID
	PayloadHash []byte
	Signature   []byte
}

func marshalEcho(claims []echoClaim) ([]byte, error) {
	sort.Slice(claims, func(i, j int) bool { return claims[i].Sender < claims[j].Sender })
	return cbor.Marshal(claims)
}

// checkClaims decodes the echo payload sent by reporter, and checks each claim on its own:
// it must be validly signed by its sender, who is not the reporter and is claimed only once.
// A failure here is a fault of the reporter alone.
func checkClaims(ssid []byte, r round.Number, reporter party.ID, payload []byte) ([]Claim, error) {
	var wire []echoClaim
	if err := cbor.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEcho, err)
	}
	claims := make([]Claim, 0, len(wire))
	seen := make(map[party.ID]bool, len(wire))
	for _, w := range wire {
		if w.Sender == reporter {
			return nil, fmt.Errorf("%w: claim on its own broadcast", ErrInvalidEcho)
		}
		if seen[w.Sender] {
			return nil, fmt.Errorf("%w: two claims for sender %s", ErrInvalidEcho, w.Sender.Short())
		}
		seen[w.Sender] = true
		c := Claim{
			Reporter:    reporter,
			Sender:      w.Sender,
			PayloadHash: w.PayloadHash,
			Signature:   w.Signature,
		}
		if !c.verify(ssid, r) {
			return nil, fmt.Errorf("%w: claim for sender %s is not signed by it", ErrInvalidEcho, w.Sender.Short())
		}
		claims = append(claims, c)
	}
	return claims, nil
}

// omissionError reports a well-formed echo which leaves out the broadcasts of Senders.
type omissionError struct {
	Senders party.IDSlice
}

func (e *omissionError) Error() string {
	short := make([]string, 0, len(e.Senders))
	for _, id := range e.Senders {
		short = append(short, id.Short())
	}
	return fmt.Sprintf("%v: omits senders [%s]", ErrInvalidEcho, strings.Join(short, ", "))
}

func (e *omissionError) Unwrap() error { return ErrInvalidEcho }

// checkEcho returns the claims of an echo which reports every broadcaster other than the reporter.
// Claims on parties outside broadcasters are signed by their sender, and are dropped.
// An echo missing a broadcaster yields an *omissionError.
func checkEcho(ssid []byte, r round.Number, reporter party.ID, payload []byte, broadcasters party.IDSlice) ([]Claim, error) {
	all, err := checkClaims(ssid, r, reporter, payload)
	if err != nil {
		return nil, err
	}
	expected := broadcasters.Remove(reporter)
	claims := make([]Claim, 0, len(all))
	for _, c := range all {
		if expected.Contains(c.Sender) {
			claims = append(claims, c)
		}
	}
	if len(claims) == len(expected) {
		return claims, nil
	}
	reported := make(map[party.ID]bool, len(claims))
	for _, c := range claims {
		reported[c.Sender] = true
	}
	var omitted []party.ID
	for _, id := range expected {
		if !reported[id] {
			omitted = append(omitted, id)
		}
	}
	return nil, &omissionError{Senders: party.NewIDSlice(omitted)}
}

// consensus keeps, for one round, every claimed payload hash per sender.
type consensus struct {
	round  round.Number
	claims map[party.ID][]Claim
}

func newConsensus(r round.Number) *consensus {
	return &consensus{
		round:  r,
		claims: map[party.ID][]Claim{},
	}
}

// add records c, and returns a ConsensusError if it contradicts an earlier claim on the same sender.
// Only claims that verified are added, so any disagreement proves that the sender signed two payloads.
func (c *consensus) add(claim Claim) *ConsensusError {
	for _, other := range c.claims[claim.Sender] {
		if !bytes.Equal(other.PayloadHash, claim.PayloadHash) {
			return &ConsensusError{
				Accused: claim.Sender,
				Round:   c.round,
				Claims:  []Claim{other, claim},
			}
		}
	}
	c.claims[claim.Sender] = append(c.claims[claim.Sender], claim)
	return nil
}
