package keygen

import (
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	zksch "github.com/taurusgroup/cmp-ia/pkg/zk/sch"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

var _ round.Round = (*round4)(nil)

type round4 struct {
	*round3
	UpdatedConfig *config.KeyShare
}

type broadcast4 struct {
	round.NormalBroadcastContent
	// SchnorrResponse is the Schnorr proof of knowledge of the new secret share
	SchnorrResponse *zksch.Response
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify all Schnorr proof for the new ecdsa share.
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}

	if !body.SchnorrResponse.IsValid() {
		return round.ErrNilFields
	}

	if !body.SchnorrResponse.Verify(r.HashForID(from),
		r.UpdatedConfig.Public[from],
		r.SchnorrCommitments[from]) {
		return fmt.Errorf("keygen: %w: schnorr", round.ErrInvalidProof)
	}
	return nil
}

// VerifyMessage implements round.Round.
func (round4) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round4) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	return r.ResultRound(r.UpdatedConfig), nil
}

// MessageContent implements round.Round.
func (round4) MessageContent() round.Content { return nil }

// RoundNumber implements round.Content.
func (broadcast4) RoundNumber() round.Number { return 4 }

// BroadcastContent implements round.BroadcastRound.
func (round4) BroadcastContent() round.BroadcastContent { return &broadcast4{} }

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }
