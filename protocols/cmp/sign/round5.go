package sign

import (
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

var _ round.Round = (*round5)(nil)

// round5 collects the signature shares σⱼ = m⋅kⱼ + r⋅χⱼ.
type round5 struct {
	*round4

	sigma map[party.ID]*curve.Scalar
	// nonce is R = [δ⁻¹]Γ
	nonce *curve.Point
}

type broadcast5 struct {
	round.NormalBroadcastContent
	SigmaShare *curve.Scalar
}

func (r *round5) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast5)
	switch {
	case !ok || body == nil:
		return round.ErrInvalidContent
	case body.SigmaShare == nil, body.SigmaShare.IsZero():
		return round.ErrNilFields
	}
	r.sigma[msg.From] = body.SigmaShare
	return nil
}

func (round5) VerifyMessage(round.Message) error { return nil }
func (round5) StoreMessage(round.Message) error  { return nil }

// Finalize combines the shares into a low-S signature and checks it against the public key.
func (r *round5) Finalize(chan<- *round.Message) (round.Session, error) {
	sig := r.combine()
	if !sig.Verify(r.PublicKey, r.Message) {
		return r.AbortRound(ErrInvalidSignature), nil
	}
	return r.ResultRound(sig), nil
}

func (r *round5) combine() *ecdsa.Signature {
	s := curve.NewScalar()
	for _, id := range r.PartyIDs() {
		s.Add(r.sigma[id])
	}
	sig := &ecdsa.Signature{R: r.nonce, S: s}
	sig.Normalize()
	return sig
}

func (round5) MessageContent() round.Content            { return nil }
func (round5) BroadcastContent() round.BroadcastContent { return &broadcast5{} }
func (round5) Number() round.Number                     { return 5 }
func (broadcast5) RoundNumber() round.Number            { return 5 }
