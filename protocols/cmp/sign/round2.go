package sign

import (
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/mta"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	zkenc "github.com/taurusgroup/cmp-ia/pkg/zk/enc"
	zklogstar "github.com/taurusgroup/cmp-ia/pkg/zk/logstar"
)

var _ round.Round = (*round2)(nil)

type round2 struct {
	*round1

	// K[j] = Kⱼ = encⱼ(kⱼ)
	K map[party.ID]*paillier.Ciphertext
	// G[j] = Gⱼ = encⱼ(γⱼ)
	G map[party.ID]*paillier.Ciphertext

	// BigGammaShare[j] = Γⱼ = [γⱼ]•G
	BigGammaShare map[party.ID]*curve.Point

	// GammaShare = γᵢ <- 𝔽
	GammaShare *curve.Scalar
	// KShare = kᵢ  <- 𝔽
	KShare *curve.Scalar

	// KNonce = ρᵢ <- ℤₙ
	// used to encrypt Kᵢ = Encᵢ(kᵢ)
	KNonce *saferith.Nat
	// GNonce = νᵢ <- ℤₙ
	// used to encrypt Gᵢ = Encᵢ(γᵢ)
	GNonce *saferith.Nat
}

type broadcast2 struct {
	round.ReliableBroadcastContent
	// K = Kᵢ
	K *paillier.Ciphertext
	// G = Gᵢ
	G *paillier.Ciphertext
}

type message2 struct {
	ProofEnc *zkenc.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - store Kⱼ, Gⱼ.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.K == nil || body.G == nil {
		return round.ErrNilFields
	}
	if !r.Paillier[from].ValidateCiphertexts(body.K, body.G) {
		return errors.New("invalid K, G")
	}

	r.K[from] = body.K
	r.G[from] = body.G
	return nil
}

// VerifyMessage implements round.Round.
//
// - verify zkenc(Kⱼ).
func (r *round2) VerifyMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*message2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.ProofEnc == nil {
		return round.ErrNilFields
	}

	if !body.ProofEnc.Verify(r.HashForID(from), zkenc.Public{
		K:      r.K[from],
		Prover: r.Paillier[from],
		Aux:    r.Pedersen[r.SelfID()],
	}) {
		return fmt.Errorf("%w: enc for K", round.ErrInvalidProof)
	}
	return nil
}

// StoreMessage implements round.Round.
func (round2) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - broadcast Γᵢ
// - for each j, run the MtA for δᵢⱼ = γᵢ⋅kⱼ and χᵢⱼ = xᵢ⋅kⱼ
// - prove that Gᵢ encrypts the discrete log of Γᵢ.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	if err := r.BroadcastMessage(out, &broadcast3{BigGammaShare: r.BigGammaShare[r.SelfID()]}); err != nil {
		return r, err
	}

	zkPrivate := zklogstar.Private{
		X:   r.GammaShare.Int(),
		Rho: r.GNonce,
	}

	otherIDs := r.OtherPartyIDs()
	type mtaOut struct {
		message   *message3
		DeltaBeta *saferith.Int
		ChiBeta   *saferith.Int
	}
	mtaOuts := r.Pool().Parallelize(len(otherIDs), func(i int) interface{} {
		j := otherIDs[i]

		keys := mta.Keys{Sender: r.Paillier[r.SelfID()], Receiver: r.Paillier[j], Aux: r.Pedersen[j]}
		delta, DeltaBeta := mta.Send(r.HashForID(r.SelfID()), r.SecretPaillier, keys,
			r.GammaShare.Int(), r.BigGammaShare[r.SelfID()], r.K[j])
		chi, ChiBeta := mta.Send(r.HashForID(r.SelfID()), r.SecretPaillier, keys,
			r.SecretECDSA.Int(), r.ECDSA[r.SelfID()], r.K[j])

		proof := zklogstar.NewProof(r.HashForID(r.SelfID()), zklogstar.Public{
			C:      r.G[r.SelfID()],
			X:      r.BigGammaShare[r.SelfID()],
			Prover: r.Paillier[r.SelfID()],
			Aux:    r.Pedersen[j],
		}, zkPrivate)

		return mtaOut{
			message:   &message3{Delta: delta, Chi: chi, ProofLog: proof},
			DeltaBeta: DeltaBeta,
			ChiBeta:   ChiBeta,
		}
	})

	ChiShareBeta := make(map[party.ID]*saferith.Int, len(otherIDs))
	DeltaShareBeta := make(map[party.ID]*saferith.Int, len(otherIDs))
	for idx, j := range otherIDs {
		m := mtaOuts[idx].(mtaOut)
		DeltaShareBeta[j] = m.DeltaBeta
		ChiShareBeta[j] = m.ChiBeta
		if err := r.SendMessage(out, m.message, j); err != nil {
			return r, err
		}
	}

	return &round3{
		round2:          r,
		DeltaShareBeta:  DeltaShareBeta,
		ChiShareBeta:    ChiShareBeta,
		DeltaShareAlpha: map[party.ID]*saferith.Int{},
		ChiShareAlpha:   map[party.ID]*saferith.Int{},
	}, nil
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
