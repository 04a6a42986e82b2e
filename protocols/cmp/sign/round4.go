package sign

import (
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	zklogstar "github.com/taurusgroup/cmp-ia/pkg/zk/logstar"
)

var _ round.Round = (*round4)(nil)

type round4 struct {
	*round3

	// delta[j] = δⱼ, bigDelta[j] = Δⱼ = [kⱼ]Γ
	delta    map[party.ID]*curve.Scalar
	bigDelta map[party.ID]*curve.Point

	// gamma is Γ = ∑ⱼ Γⱼ
	gamma *curve.Point
	chi   *curve.Scalar
}

type broadcast4 struct {
	round.NormalBroadcastContent
	DeltaShare    *curve.Scalar
	BigDeltaShare *curve.Point
}

// message4 proves that Δⱼ uses the same kⱼ as the ciphertext Kⱼ.
type message4 struct {
	ProofLog *zklogstar.Proof
}

func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast4)
	switch {
	case !ok || body == nil:
		return round.ErrInvalidContent
	case body.DeltaShare == nil, body.BigDeltaShare == nil:
		return round.ErrNilFields
	}
	r.delta[msg.From] = body.DeltaShare
	r.bigDelta[msg.From] = body.BigDeltaShare
	return nil
}

func (r *round4) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*message4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.ProofLog == nil {
		return round.ErrNilFields
	}
	public := zklogstar.Public{
		C:      r.K[msg.From],
		X:      r.bigDelta[msg.From],
		G:      r.gamma,
		Prover: r.Paillier[msg.From],
		Aux:    r.Pedersen[r.SelfID()],
	}
	if !body.ProofLog.Verify(r.HashForID(msg.From), public) {
		return fmt.Errorf("%w: log* for Δ", round.ErrInvalidProof)
	}
	return nil
}

func (round4) StoreMessage(round.Message) error { return nil }

// Finalize checks [δ]G = ∑ⱼ Δⱼ, derives R = [δ⁻¹]Γ and broadcasts σᵢ = m⋅kᵢ + r⋅χᵢ.
func (r *round4) Finalize(out chan<- *round.Message) (round.Session, error) {
	nonce, ok := r.nonce()
	if !ok {
		return r.AbortRound(ErrInconsistentDelta), nil
	}

	sigma := curve.FromHash(r.Message).Mul(r.KShare)
	sigma.Add(nonce.XScalar().Mul(r.chi))

	if err := r.BroadcastMessage(out, &broadcast5{SigmaShare: sigma}); err != nil {
		return r, err
	}
	return &round5{
		round4: r,
		sigma:  map[party.ID]*curve.Scalar{r.SelfID(): sigma},
		nonce:  nonce,
	}, nil
}

// nonce returns R = [δ⁻¹]Γ, or false if δ is zero or does not match the Δ shares.
func (r *round4) nonce() (*curve.Point, bool) {
	delta := curve.NewScalar()
	sum := curve.NewIdentityPoint()
	for _, id := range r.PartyIDs() {
		delta.Add(r.delta[id])
		sum = sum.Add(r.bigDelta[id])
	}
	if delta.IsZero() || !delta.ActOnBase().Equal(sum) {
		return nil, false
	}
	return delta.Invert().Act(r.gamma), true
}

func (round4) MessageContent() round.Content            { return &message4{} }
func (round4) BroadcastContent() round.BroadcastContent { return &broadcast4{} }
func (round4) Number() round.Number                     { return 4 }
func (message4) RoundNumber() round.Number              { return 4 }
func (broadcast4) RoundNumber() round.Number            { return 4 }
