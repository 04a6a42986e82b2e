package auxgen

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
	zkfac "github.com/taurusgroup/cmp-ia/pkg/zk/fac"
	zkmod "github.com/taurusgroup/cmp-ia/pkg/zk/mod"
	zkprm "github.com/taurusgroup/cmp-ia/pkg/zk/prm"
)

var _ round.Round = (*round3)(nil)

type round3 struct {
	*round2
}

type broadcast3 struct {
	round.NormalBroadcastContent
	Paillier     *paillier.PublicKey
	Pedersen     *pedersen.Parameters
	RID          types.RID
	Decommitment hash.Decommitment
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - check that Nⱼ is the modulus of the Pedersen parameters
// - verify the decommitment of (Nⱼ, sⱼ, tⱼ, ridⱼ).
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Paillier == nil || body.Pedersen == nil {
		return round.ErrNilFields
	}
	if err := body.RID.Validate(); err != nil {
		return fmt.Errorf("auxgen: %w", err)
	}
	if err := body.Decommitment.Validate(); err != nil {
		return fmt.Errorf("auxgen: %w", err)
	}
	if err := paillier.ValidateN(body.Paillier.N()); err != nil {
		return fmt.Errorf("auxgen: %w", err)
	}
	if err := pedersen.ValidateParameters(body.Pedersen.N(), body.Pedersen.S(), body.Pedersen.T()); err != nil {
		return fmt.Errorf("auxgen: %w", err)
	}
	if body.Paillier.NNat().Eq(body.Pedersen.N().Nat()) != 1 {
		return errors.New("auxgen: Pedersen and Paillier moduli differ")
	}

	if !r.HashForID(from).Decommit(r.Commitments[from], body.Decommitment,
		body.Paillier, body.Pedersen, body.RID) {
		return errors.New("auxgen: failed to decommit")
	}

	r.PaillierPublic[from] = body.Paillier
	r.Pedersen[from] = body.Pedersen
	r.RIDs[from] = body.RID
	return nil
}

// VerifyMessage implements round.Round.
func (round3) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round3) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - set rid = ⊕ⱼ ridⱼ and update the hash state
// - prove Nᵢ is Blum
// - prove Pedersen parameters
// - prove to each party j that Nᵢ has no small factors, under the parameters of j.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	rid := types.CombineRIDs(r.RIDs, r.PartyIDs())
	r.UpdateHashState(rid)

	sk := r.PaillierSecret
	h := r.HashForID(r.SelfID())
	mod := zkmod.NewProof(h.Clone(), zkmod.Private{
		P:   sk.P(),
		Q:   sk.Q(),
		Phi: sk.Phi(),
	}, zkmod.Public{N: sk.PublicKey.N()}, r.Pool())
	prm := zkprm.NewProof(h.Clone(), zkprm.Private{
		Lambda: r.PedersenSecret,
		Phi:    sk.Phi(),
		P:      sk.P(),
		Q:      sk.Q(),
	}, zkprm.Public{Aux: r.Pedersen[r.SelfID()]}, r.Pool())

	if err := r.BroadcastMessage(out, &broadcast4{Mod: mod, Prm: prm}); err != nil {
		return r, err
	}

	for _, j := range r.OtherPartyIDs() {
		fac := zkfac.NewProof(r.HashForID(r.SelfID()), zkfac.Public{
			N0:  sk.PublicKey.N(),
			Aux: r.Pedersen[j],
		}, zkfac.Private{P: sk.P(), Q: sk.Q()})
		if err := r.SendMessage(out, &message4{Fac: fac}, j); err != nil {
			return r, err
		}
	}

	return &round4{round3: r}, nil
}

// MessageContent implements round.Round.
func (round3) MessageContent() round.Content { return nil }

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 3 }

// BroadcastContent implements round.BroadcastRound.
func (round3) BroadcastContent() round.BroadcastContent { return &broadcast3{} }

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }
