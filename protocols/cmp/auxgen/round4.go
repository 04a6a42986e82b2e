package auxgen

import (
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	zkfac "github.com/taurusgroup/cmp-ia/pkg/zk/fac"
	zkmod "github.com/taurusgroup/cmp-ia/pkg/zk/mod"
	zkprm "github.com/taurusgroup/cmp-ia/pkg/zk/prm"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

var _ round.Round = (*round4)(nil)

type round4 struct {
	*round3
}

type broadcast4 struct {
	round.NormalBroadcastContent
	Mod *zkmod.Proof
	Prm *zkprm.Proof
}

type message4 struct {
	Fac *zkfac.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify Mod, Prm proof for Nⱼ.
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Mod == nil || body.Prm == nil {
		return round.ErrNilFields
	}

	if !body.Mod.Verify(r.HashForID(from), zkmod.Public{N: r.PaillierPublic[from].N()}, r.Pool()) {
		return fmt.Errorf("auxgen: %w: mod", round.ErrInvalidProof)
	}
	if !body.Prm.Verify(r.HashForID(from), zkprm.Public{Aux: r.Pedersen[from]}, r.Pool()) {
		return fmt.Errorf("auxgen: %w: prm", round.ErrInvalidProof)
	}
	return nil
}

// VerifyMessage implements round.Round.
//
// - verify that Nⱼ has no small factors, under our own Pedersen parameters.
func (r *round4) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*message4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Fac == nil {
		return round.ErrNilFields
	}
	if !body.Fac.Verify(r.HashForID(msg.From), zkfac.Public{
		N0:  r.PaillierPublic[msg.From].N(),
		Aux: r.Pedersen[r.SelfID()],
	}) {
		return fmt.Errorf("auxgen: %w: fac", round.ErrInvalidProof)
	}
	return nil
}

// StoreMessage implements round.Round.
func (round4) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - output the auxiliary information of every party.
func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	public := make(map[party.ID]*config.AuxPublic, r.N())
	for _, j := range r.PartyIDs() {
		public[j] = &config.AuxPublic{
			Paillier: r.PaillierPublic[j],
			Pedersen: r.Pedersen[j],
		}
	}
	aux := &config.AuxInfo{
		ID:       r.SelfID(),
		Paillier: r.PaillierSecret,
		Public:   public,
	}
	if err := aux.Validate(); err != nil {
		return r, err
	}
	return r.ResultRound(aux), nil
}

// MessageContent implements round.Round.
func (round4) MessageContent() round.Content { return &message4{} }

// RoundNumber implements round.Content.
func (message4) RoundNumber() round.Number { return 4 }

// RoundNumber implements round.Content.
func (broadcast4) RoundNumber() round.Number { return 4 }

// BroadcastContent implements round.BroadcastRound.
func (round4) BroadcastContent() round.BroadcastContent { return &broadcast4{} }

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }
