package sign

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/mta"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	zklogstar "github.com/taurusgroup/cmp-ia/pkg/zk/logstar"
)

var _ round.Round = (*round3)(nil)

type round3 struct {
	*round2

	// DeltaShareAlpha[j] = αᵢⱼ
	DeltaShareAlpha map[party.ID]*saferith.Int
	// DeltaShareBeta[j] = βᵢⱼ
	DeltaShareBeta map[party.ID]*saferith.Int
	// ChiShareAlpha[j] = α̂ᵢⱼ
	ChiShareAlpha map[party.ID]*saferith.Int
	// ChiShareBeta[j] = β̂ᵢⱼ
	ChiShareBeta map[party.ID]*saferith.Int
}

type broadcast3 struct {
	round.NormalBroadcastContent
	// BigGammaShare = Γⱼ
	BigGammaShare *curve.Point
}

type message3 struct {
	// Delta and Chi carry the MtA for γᵢ⋅kⱼ and xᵢ⋅kⱼ
	Delta, Chi *mta.Message
	ProofLog   *zklogstar.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - store Γⱼ.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.BigGammaShare == nil || body.BigGammaShare.IsIdentity() {
		return round.ErrNilFields
	}
	r.BigGammaShare[msg.From] = body.BigGammaShare
	return nil
}

// VerifyMessage implements round.Round.
//
// - verify zkproofs affg (2x) zklog*.
func (r *round3) VerifyMessage(msg round.Message) error {
	from, to := msg.From, r.SelfID()
	body, ok := msg.Content.(*message3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Delta == nil || body.Chi == nil || body.ProofLog == nil {
		return round.ErrNilFields
	}

	keys := mta.Keys{Sender: r.Paillier[from], Receiver: r.Paillier[to], Aux: r.Pedersen[to]}
	if !body.Delta.Verify(r.HashForID(from), keys, r.BigGammaShare[from], r.K[to]) {
		return fmt.Errorf("%w: affg for δ", round.ErrInvalidProof)
	}
	if !body.Chi.Verify(r.HashForID(from), keys, r.ECDSA[from], r.K[to]) {
		return fmt.Errorf("%w: affg for χ", round.ErrInvalidProof)
	}

	if !body.ProofLog.Verify(r.HashForID(from), zklogstar.Public{
		C:      r.G[from],
		X:      r.BigGammaShare[from],
		Prover: r.Paillier[from],
		Aux:    r.Pedersen[to],
	}) {
		return fmt.Errorf("%w: log* for Γ", round.ErrInvalidProof)
	}
	return nil
}

// StoreMessage implements round.Round
//
// - Decrypt MtA shares,
// - save αᵢⱼ, α̂ᵢⱼ.
func (r *round3) StoreMessage(msg round.Message) error {
	from, body := msg.From, msg.Content.(*message3)

	// αᵢⱼ
	DeltaShareAlpha, err := r.SecretPaillier.Dec(body.Delta.D)
	if err != nil {
		return errors.New("failed to decrypt alpha share for delta")
	}
	// α̂ᵢⱼ
	ChiShareAlpha, err := r.SecretPaillier.Dec(body.Chi.D)
	if err != nil {
		return errors.New("failed to decrypt alpha share for chi")
	}

	r.DeltaShareAlpha[from] = DeltaShareAlpha
	r.ChiShareAlpha[from] = ChiShareAlpha
	return nil
}

// Finalize implements round.Round
//
// - Γ = ∑ⱼ Γⱼ
// - Δᵢ = [kᵢ]Γ
// - δᵢ = γᵢ kᵢ + ∑ⱼ δᵢⱼ
// - χᵢ = xᵢ kᵢ + ∑ⱼ χᵢⱼ.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	// Γ = ∑ⱼ Γⱼ
	Gamma := curve.NewIdentityPoint()
	for _, j := range r.PartyIDs() {
		Gamma = Gamma.Add(r.BigGammaShare[j])
	}

	// Δᵢ = [kᵢ]Γ
	BigDeltaShare := r.KShare.Act(Gamma)

	// δᵢ = γᵢ kᵢ
	DeltaShare := r.GammaShare.Clone().Mul(r.KShare)

	// χᵢ = xᵢ kᵢ
	ChiShare := r.SecretECDSA.Clone().Mul(r.KShare)

	for _, j := range r.OtherPartyIDs() {
		// δᵢ += αᵢⱼ + βᵢⱼ
		DeltaShare.Add(curve.NewScalar().SetInt(r.DeltaShareAlpha[j]))
		DeltaShare.Add(curve.NewScalar().SetInt(r.DeltaShareBeta[j]))

		// χᵢ += α̂ᵢⱼ + β̂ᵢⱼ
		ChiShare.Add(curve.NewScalar().SetInt(r.ChiShareAlpha[j]))
		ChiShare.Add(curve.NewScalar().SetInt(r.ChiShareBeta[j]))
	}

	if err := r.BroadcastMessage(out, &broadcast4{
		DeltaShare:    DeltaShare,
		BigDeltaShare: BigDeltaShare,
	}); err != nil {
		return r, err
	}

	zkPrivate := zklogstar.Private{
		X:   r.KShare.Int(),
		Rho: r.KNonce,
	}
	otherIDs := r.OtherPartyIDs()
	proofs := r.Pool().Parallelize(len(otherIDs), func(i int) interface{} {
		j := otherIDs[i]
		return zklogstar.NewProof(r.HashForID(r.SelfID()), zklogstar.Public{
			C:      r.K[r.SelfID()],
			X:      BigDeltaShare,
			G:      Gamma,
			Prover: r.Paillier[r.SelfID()],
			Aux:    r.Pedersen[j],
		}, zkPrivate)
	})
	for i, j := range otherIDs {
		if err := r.SendMessage(out, &message4{ProofLog: proofs[i].(*zklogstar.Proof)}, j); err != nil {
			return r, err
		}
	}

	return &round4{
		round3:   r,
		delta:    map[party.ID]*curve.Scalar{r.SelfID(): DeltaShare},
		bigDelta: map[party.ID]*curve.Point{r.SelfID(): BigDeltaShare},
		gamma:    Gamma,
		chi:      ChiShare,
	}, nil
}

// MessageContent implements round.Round.
func (round3) MessageContent() round.Content { return &message3{} }

// RoundNumber implements round.Content.
func (message3) RoundNumber() round.Number { return 3 }

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 3 }

// BroadcastContent implements round.BroadcastRound.
func (round3) BroadcastContent() round.BroadcastContent { return &broadcast3{} }

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }
