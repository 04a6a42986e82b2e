package keygen

import (
	"crypto/rand"
	"errors"

	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	zksch "github.com/taurusgroup/cmp-ia/pkg/zk/sch"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round.Helper

	// PreviousSecretECDSA = sk'ᵢ
	// Contains the previous secret ECDSA key share which is being refreshed
	// KeyInit:    sk'ᵢ = nil
	// KeyRefresh: sk'ᵢ = sk'ᵢ
	PreviousSecretECDSA *curve.Scalar

	// PreviousPublicSharesECDSA[j] = pk'ⱼ
	// KeyInit:    nil
	// KeyRefresh: pk'ⱼ
	PreviousPublicSharesECDSA map[party.ID]*curve.Point

	// VSSSecret = fᵢ(X)
	// Polynomial from which the new secret shares are computed.
	// KeyInit:    fᵢ(0) = xⁱ
	// KeyRefresh: fᵢ(0) = 0
	VSSSecret *polynomial.Polynomial
}

// VerifyMessage implements round.Round.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - sample ridᵢ and Schnorr randomness aᵢ
// - compute Fᵢ(X) = fᵢ(X)⋅G and Aᵢ = aᵢ⋅G
// - commit to ridᵢ, Fᵢ(X), Aᵢ and broadcast the commitment.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	// save our own share already so we are consistent with what we receive from others
	SelfShare := r.VSSSecret.Evaluate(r.SelfID().Scalar())

	// set Fᵢ(X) = fᵢ(X)•G
	SelfVSSPolynomial := polynomial.NewPolynomialExponent(r.VSSSecret)

	// generate Schnorr randomness
	SchnorrRand := zksch.NewRandomness(rand.Reader)

	// Sample RIDᵢ
	SelfRID, err := types.NewRID(rand.Reader)
	if err != nil {
		return r, errors.New("failed to sample Rho")
	}

	// commit to data in message 3
	SelfCommitment, Decommitment, err := r.HashForID(r.SelfID()).Commit(
		SelfRID, SelfVSSPolynomial, SchnorrRand.Commitment().C)
	if err != nil {
		return r, errors.New("failed to commit")
	}

	if err = r.BroadcastMessage(out, &broadcast2{Commitment: SelfCommitment}); err != nil {
		return r, err
	}

	return &round2{
		round1:             r,
		VSSPolynomials:     map[party.ID]*polynomial.Exponent{r.SelfID(): SelfVSSPolynomial},
		Commitments:        map[party.ID]hash.Commitment{r.SelfID(): SelfCommitment},
		RIDs:               map[party.ID]types.RID{r.SelfID(): SelfRID},
		ShareReceived:      map[party.ID]*curve.Scalar{r.SelfID(): SelfShare},
		SchnorrCommitments: map[party.ID]*zksch.Commitment{r.SelfID(): SchnorrRand.Commitment()},
		SchnorrRand:        SchnorrRand,
		Decommitment:       Decommitment,
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
