package resharing

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

var (
	_ round.Round         = (*round2)(nil)
	_ round.Senders       = (*round2)(nil)
	_ round.DirectSenders = (*round2)(nil)
)

type round2 struct {
	*round1

	// Commitments[i] = Fᵢ(X), for every old holder i
	Commitments map[party.ID]*polynomial.Exponent
	RIDs        map[party.ID]types.RID

	// Shares[i] = fᵢ(self), if self is a new holder
	Shares map[party.ID]*curve.Scalar
}

type broadcast2 struct {
	round.ReliableBroadcastContent
	// Commitment = Fᵢ(X), with Fᵢ(0) = λᵢ⋅Xᵢ
	Commitment *polynomial.Exponent
	RID        types.RID
}

type message2 struct {
	// Share = fᵢ(j)
	Share *curve.Scalar
}

// ExpectedSenders implements round.Senders: only old holders broadcast.
func (r *round2) ExpectedSenders() party.IDSlice {
	return r.oldHolders.Remove(r.SelfID())
}

// DirectSenders implements round.DirectSenders: only new holders receive shares.
func (r *round2) DirectSenders() party.IDSlice {
	if !r.isNew(r.SelfID()) {
		return nil
	}
	return r.oldHolders.Remove(r.SelfID())
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - check deg(Fᵢ) = t'
// - if the old public shares are known, check Fᵢ(0) = λᵢ⋅Xᵢ.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Commitment == nil {
		return round.ErrNilFields
	}
	if err := body.RID.Validate(); err != nil {
		return fmt.Errorf("resharing: %w", err)
	}
	if body.Commitment.IsConstant || body.Commitment.Degree() != r.newThreshold {
		return errors.New("resharing: commitment has incorrect degree")
	}
	if err := body.Commitment.Valid(); err != nil {
		return fmt.Errorf("resharing: %w", err)
	}
	if r.oldPublic != nil {
		expected := polynomial.LagrangeSingle(r.oldHolders, from).Act(r.oldPublic[from])
		if !body.Commitment.Constant().Equal(expected) {
			return errors.New("resharing: commitment does not match the old public share")
		}
	}
	r.Commitments[from] = body.Commitment
	r.RIDs[from] = body.RID
	return nil
}

// VerifyMessage implements round.Round.
//
// - verify fᵢ(j)⋅G = Fᵢ(j).
func (r *round2) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*message2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Share == nil {
		return round.ErrNilFields
	}
	expected := r.Commitments[msg.From].Evaluate(r.SelfID().Scalar())
	if !body.Share.ActOnBase().Equal(expected) {
		return errors.New("resharing: failed to validate share")
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round2) StoreMessage(msg round.Message) error {
	r.Shares[msg.From] = msg.Content.(*message2).Share
	return nil
}

// Finalize implements round.Round
//
// - check ∑ᵢ Fᵢ(0) = X, the public key
// - a party which is only an old holder outputs nil
// - a new holder j outputs x'ⱼ = ∑ᵢ fᵢ(j), and X'ₖ = ∑ᵢ Fᵢ(k) for every new holder k.
func (r *round2) Finalize(chan<- *round.Message) (round.Session, error) {
	commitments := make([]*polynomial.Exponent, 0, len(r.oldHolders))
	for _, i := range r.oldHolders {
		commitments = append(commitments, r.Commitments[i])
	}
	F, err := polynomial.Sum(commitments)
	if err != nil {
		return r, err
	}
	if !F.Constant().Equal(r.public) {
		// without the old public shares, the faulty dealer cannot be identified
		return r.AbortRound(errors.New("resharing: dealt shares do not add up to the public key")), nil
	}

	if !r.isNew(r.SelfID()) {
		return r.ResultRound(nil), nil
	}

	secret := curve.NewScalar()
	for _, i := range r.oldHolders {
		secret.Add(r.Shares[i])
	}
	public := make(map[party.ID]*curve.Point, len(r.newHolders))
	for _, k := range r.newHolders {
		public[k] = F.Evaluate(k.Scalar())
	}
	rid := types.CombineRIDs(r.RIDs, r.oldHolders)

	share := &config.KeyShare{
		ID:        r.SelfID(),
		Threshold: r.newThreshold,
		ECDSA:     secret,
		Public:    public,
		RID:       rid,
	}
	if err = share.Validate(); err != nil {
		return r, err
	}
	return r.ResultRound(share), nil
}

// MessageContent implements round.Round.
func (round2) MessageContent() round.Content { return &message2{} }

// RoundNumber implements round.Content.
func (message2) RoundNumber() round.Number { return 2 }

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 2 }

// BroadcastContent implements round.BroadcastRound.
func (round2) BroadcastContent() round.BroadcastContent { return &broadcast2{} }

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }
