package keygen

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	zksch "github.com/taurusgroup/cmp-ia/pkg/zk/sch"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

var _ round.Round = (*round3)(nil)

type round3 struct {
	*round2
}

type broadcast3 struct {
	round.NormalBroadcastContent
	// RID = ridᵢ
	RID types.RID
	// VSSPolynomial = Fᵢ(X) VSSPolynomial
	VSSPolynomial *polynomial.Exponent
	// SchnorrCommitment = Aᵢ Schnorr commitment for the final confirmation
	SchnorrCommitment *zksch.Commitment
	Decommitment      hash.Decommitment // uᵢ
}

type message3 struct {
	// Share = xᵢⱼ = fᵢ(j)
	Share *curve.Scalar
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify length of Schnorr commitments
// - verify degree of VSS polynomial Fⱼ "in-the-exponent"
//   - if keygen, verify Fⱼ(0) != ∞
//   - if refresh, verify Fⱼ(0) == ∞
// - validate decommitment.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}

	// check nil
	if body.VSSPolynomial == nil || !body.SchnorrCommitment.IsValid() {
		return round.ErrNilFields
	}
	if err := body.RID.Validate(); err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	if err := body.Decommitment.Validate(); err != nil {
		return fmt.Errorf("keygen: %w", err)
	}

	// check that the constant coefficient is 0
	// if refresh then the polynomial is constant
	refresh := r.PreviousSecretECDSA != nil
	if refresh != body.VSSPolynomial.IsConstant {
		return errors.New("keygen: vss polynomial has incorrect constant")
	}
	// check deg(Fⱼ) = t
	if body.VSSPolynomial.Degree() != r.Threshold() {
		return errors.New("keygen: vss polynomial has incorrect degree")
	}
	if body.VSSPolynomial.Degree() > 0 || !refresh {
		if err := body.VSSPolynomial.Valid(); err != nil {
			return fmt.Errorf("keygen: %w", err)
		}
	}

	if !r.HashForID(from).Decommit(r.Commitments[from], body.Decommitment,
		body.RID, body.VSSPolynomial, body.SchnorrCommitment.C) {
		return errors.New("keygen: failed to decommit")
	}

	r.RIDs[from] = body.RID
	r.VSSPolynomials[from] = body.VSSPolynomial
	r.SchnorrCommitments[from] = body.SchnorrCommitment
	return nil
}

// VerifyMessage implements round.Round.
//
// - verify that the share is consistent with the sender's VSS polynomial Fⱼ(X).
func (r *round3) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*message3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Share == nil {
		return round.ErrNilFields
	}

	// verify share with VSS
	ExpectedPublicShare := r.VSSPolynomials[msg.From].Evaluate(r.SelfID().Scalar()) // Fⱼ(i)
	PublicShare := body.Share.ActOnBase()
	// X == Fⱼ(i)
	if !PublicShare.Equal(ExpectedPublicShare) {
		return errors.New("keygen: failed to validate VSS share")
	}
	return nil
}

// StoreMessage implements round.Round.
func (r *round3) StoreMessage(msg round.Message) error {
	r.ShareReceived[msg.From] = msg.Content.(*message3).Share
	return nil
}

// Finalize implements round.Round
//
// - set rid = ⊕ⱼ ridⱼ and update hash state
// - compute the new secret share xᵢ = ∑ⱼ fⱼ(i) (+ x'ᵢ when refreshing)
// - compute the public shares Xⱼ = ∑ₗ Fₗ(j) (+ X'ⱼ when refreshing)
// - prove knowledge of xᵢ with the Schnorr commitment Aᵢ.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	// RID = ⊕ⱼ RIDⱼ
	rid := types.CombineRIDs(r.RIDs, r.PartyIDs())

	// add all shares to our secret
	UpdatedSecretECDSA := curve.NewScalar()
	if r.PreviousSecretECDSA != nil {
		UpdatedSecretECDSA.Set(r.PreviousSecretECDSA)
	}
	for _, j := range r.PartyIDs() {
		UpdatedSecretECDSA.Add(r.ShareReceived[j])
	}

	// [F₁(X), …, Fₙ(X)]
	ShamirPublicPolynomials := make([]*polynomial.Exponent, 0, len(r.VSSPolynomials))
	for _, j := range r.PartyIDs() {
		ShamirPublicPolynomials = append(ShamirPublicPolynomials, r.VSSPolynomials[j])
	}

	// ShamirPublicPolynomial = F(X) = ∑Fⱼ(X)
	ShamirPublicPolynomial, err := polynomial.Sum(ShamirPublicPolynomials)
	if err != nil {
		return r, err
	}

	// compute the new public key share Xⱼ = F(j) (+X'ⱼ if doing a refresh)
	PublicData := make(map[party.ID]*curve.Point, len(r.PartyIDs()))
	for _, j := range r.PartyIDs() {
		PublicECDSAShare := ShamirPublicPolynomial.Evaluate(j.Scalar())
		if r.PreviousPublicSharesECDSA != nil {
			PublicECDSAShare = PublicECDSAShare.Add(r.PreviousPublicSharesECDSA[j])
		}
		PublicData[j] = PublicECDSAShare
	}

	UpdatedConfig := &config.KeyShare{
		ID:        r.SelfID(),
		Threshold: r.Threshold(),
		ECDSA:     UpdatedSecretECDSA,
		Public:    PublicData,
		RID:       rid.Copy(),
	}

	// write new ssid to hash, to bind the Schnorr proof to this new config
	r.UpdateHashState(UpdatedConfig)

	proof := r.SchnorrRand.Prove(r.HashForID(r.SelfID()), PublicData[r.SelfID()], UpdatedSecretECDSA)
	if proof == nil {
		return r, errors.New("failed to generate Schnorr proof")
	}

	if err = r.BroadcastMessage(out, &broadcast4{SchnorrResponse: proof}); err != nil {
		return r, err
	}

	return &round4{
		round3:        r,
		UpdatedConfig: UpdatedConfig,
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
