package sign

import (
	"crypto/rand"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
	zkenc "github.com/taurusgroup/cmp-ia/pkg/zk/enc"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round.Helper

	PublicKey *curve.Point

	// SecretECDSA = λᵢ⋅xᵢ
	SecretECDSA    *curve.Scalar
	SecretPaillier *paillier.SecretKey
	Paillier       map[party.ID]*paillier.PublicKey
	Pedersen       map[party.ID]*pedersen.Parameters
	// ECDSA[j] = λⱼ⋅Xⱼ
	ECDSA map[party.ID]*curve.Point

	Message []byte
}

// VerifyMessage implements round.Round.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - sample kᵢ, γᵢ <- 𝔽,
// - Γᵢ = [γᵢ]⋅G
// - Gᵢ = Encᵢ(γᵢ;νᵢ)
// - Kᵢ = Encᵢ(kᵢ;ρᵢ)
// - broadcast (Kᵢ, Gᵢ) reliably, and send a proof that Kᵢ is in range to each party under its own parameters.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	// γᵢ <- 𝔽,
	// Γᵢ = [γᵢ]⋅G
	GammaShare, BigGammaShare := sample.ScalarPointPair(rand.Reader)
	// Gᵢ = Encᵢ(γᵢ;νᵢ)
	G, GNonce := r.Paillier[r.SelfID()].Enc(GammaShare.Int())

	// kᵢ <- 𝔽,
	KShare := sample.Scalar(rand.Reader)
	// Kᵢ = Encᵢ(kᵢ;ρᵢ)
	K, KNonce := r.Paillier[r.SelfID()].Enc(KShare.Int())

	if err := r.BroadcastMessage(out, &broadcast2{K: K, G: G}); err != nil {
		return r, err
	}

	otherIDs := r.OtherPartyIDs()
	proofs := r.Pool().Parallelize(len(otherIDs), func(i int) interface{} {
		j := otherIDs[i]
		return zkenc.NewProof(r.HashForID(r.SelfID()), zkenc.Public{
			K:      K,
			Prover: r.Paillier[r.SelfID()],
			Aux:    r.Pedersen[j],
		}, zkenc.Private{
			K:   KShare.Int(),
			Rho: KNonce,
		})
	})
	for i, j := range otherIDs {
		if err := r.SendMessage(out, &message2{ProofEnc: proofs[i].(*zkenc.Proof)}, j); err != nil {
			return r, err
		}
	}

	return &round2{
		round1:        r,
		K:             map[party.ID]*paillier.Ciphertext{r.SelfID(): K},
		G:             map[party.ID]*paillier.Ciphertext{r.SelfID(): G},
		BigGammaShare: map[party.ID]*curve.Point{r.SelfID(): BigGammaShare},
		GammaShare:    GammaShare,
		KShare:        KShare,
		KNonce:        KNonce,
		GNonce:        GNonce,
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
