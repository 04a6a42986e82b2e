package auxgen

import (
	"crypto/rand"
	"errors"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round.Helper
	generate KeyGenerator
}

// VerifyMessage implements round.Round.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - sample Paillier (pᵢ, qᵢ)
// - sample Pedersen Nᵢ, sᵢ, tᵢ
// - sample ridᵢ
// - commit to Nᵢ, sᵢ, tᵢ, ridᵢ and broadcast the commitment.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	// generate Paillier and Pedersen
	PaillierSecret := r.generate(r.Pool())
	SelfPaillierPublic := PaillierSecret.PublicKey
	SelfPedersenPublic, PedersenSecret := PaillierSecret.GeneratePedersen()

	// Sample RIDᵢ
	SelfRID, err := types.NewRID(rand.Reader)
	if err != nil {
		return r, errors.New("failed to sample Rho")
	}

	SelfCommitment, Decommitment, err := r.HashForID(r.SelfID()).Commit(
		SelfPaillierPublic, SelfPedersenPublic, SelfRID)
	if err != nil {
		return r, errors.New("failed to commit")
	}

	if err = r.BroadcastMessage(out, &broadcast2{Commitment: SelfCommitment}); err != nil {
		return r, err
	}

	return &round2{
		round1:         r,
		Commitments:    map[party.ID]hash.Commitment{r.SelfID(): SelfCommitment},
		RIDs:           map[party.ID]types.RID{r.SelfID(): SelfRID},
		PaillierPublic: map[party.ID]*paillier.PublicKey{r.SelfID(): SelfPaillierPublic},
		Pedersen:       map[party.ID]*pedersen.Parameters{r.SelfID(): SelfPedersenPublic},
		PaillierSecret: PaillierSecret,
		PedersenSecret: PedersenSecret,
		Decommitment:   Decommitment,
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
