package resharing

import (
	"crypto/rand"
	"errors"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round.Helper
	*params
}

// VerifyMessage implements round.Round.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// For an old holder i:
// - compute wᵢ = λᵢ⋅xᵢ, where λᵢ is the Lagrange coefficient over the old holders
// - sample fᵢ(X) with deg(fᵢ) = t' and fᵢ(0) = wᵢ
// - broadcast Fᵢ(X) and ridᵢ, and send fᵢ(j) to every new holder j.
//
// A party which is only a new holder sends nothing.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	next := &round2{
		round1:      r,
		Commitments: map[party.ID]*polynomial.Exponent{},
		RIDs:        map[party.ID]types.RID{},
		Shares:      map[party.ID]*curve.Scalar{},
	}
	if r.share == nil {
		return next, nil
	}

	self := r.SelfID()
	lambda := polynomial.LagrangeSingle(r.oldHolders, self)
	weighted := lambda.Mul(r.share.ECDSA)
	f := polynomial.NewPolynomial(r.newThreshold, weighted)
	F := polynomial.NewPolynomialExponent(f)

	rid, err := types.NewRID(rand.Reader)
	if err != nil {
		return r, errors.New("failed to sample rid")
	}

	if err = r.BroadcastMessage(out, &broadcast2{
		Commitment: F,
		RID:        rid,
	}); err != nil {
		return r, err
	}
	for _, j := range r.newHolders {
		share := f.Evaluate(j.Scalar())
		if j == self {
			next.Shares[self] = share
			continue
		}
		if err = r.SendMessage(out, &message2{Share: share}, j); err != nil {
			return r, err
		}
	}
	next.Commitments[self] = F
	next.RIDs[self] = rid
	return next, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
