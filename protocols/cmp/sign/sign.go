// Package sign implements the interactive signing protocol of CMP.
//
// Every signer holds a KeyShare and the AuxInfo of all signers. The signature is
// computed in five rounds, and each round's messages carry the zero-knowledge proofs
// which let an honest party identify a misbehaving signer.
package sign

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

// Rounds is the number of rounds of InteractiveSigning.
const Rounds round.Number = 5

const protocolID = "cmp/sign"

var (
	ErrCannotSign    = errors.New("sign: signers is not a valid signing subset")
	ErrAuxNotCovered = errors.New("sign: aux info does not cover the signers")

	ErrInconsistentDelta = errors.New("sign: δ⋅G differs from the sum of the Δ shares")
	ErrInvalidSignature  = errors.New("sign: combined signature does not verify")
)

// StartSign returns the StartFunc signing the prehashed message with signers,
// which must include share.ID.
func StartSign(share *config.KeyShare, aux *config.AuxInfo, signers []party.ID, message []byte, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if share == nil || aux == nil {
			return nil, errors.New("sign: missing key share or aux info")
		}
		if err := types.SigningMessage(message).Validate(); err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		if err := share.Validate(); err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		if err := aux.Validate(); err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		if aux.ID != share.ID {
			return nil, errors.New("sign: key share and aux info belong to different parties")
		}

		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: Rounds,
			SelfID:           share.ID,
			PartyIDs:         signers,
			Threshold:        share.Threshold,
		}
		helper, err := round.NewSession(info, sessionID, pl, share, types.SigningMessage(message))
		if err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		if !share.CanSign(helper.PartyIDs()) {
			return nil, ErrCannotSign
		}
		if !aux.Covers(helper.PartyIDs()) {
			return nil, ErrAuxNotCovered
		}

		// scale public data
		T := helper.N()
		ECDSA := make(map[party.ID]*curve.Point, T)
		Paillier := make(map[party.ID]*paillier.PublicKey, T)
		Pedersen := make(map[party.ID]*pedersen.Parameters, T)
		PublicKey := curve.NewIdentityPoint()
		lagrange := polynomial.Lagrange(helper.PartyIDs())
		// scale own secret
		SecretECDSA := lagrange[share.ID].Clone().Mul(share.ECDSA)
		for _, j := range helper.PartyIDs() {
			ECDSA[j] = lagrange[j].Act(share.Public[j])
			Paillier[j] = aux.Public[j].Paillier
			Pedersen[j] = aux.Public[j].Pedersen
			PublicKey = PublicKey.Add(ECDSA[j])
		}

		return &round1{
			Helper:         helper,
			PublicKey:      PublicKey,
			SecretECDSA:    SecretECDSA,
			SecretPaillier: aux.Paillier,
			Paillier:       Paillier,
			Pedersen:       Pedersen,
			ECDSA:          ECDSA,
			Message:        message,
		}, nil
	}
}
