// Package keygen implements the KeyInit and KeyRefresh protocols of CMP.
//
// Both run in four rounds. KeyInit produces a fresh (t+1)-out-of-n sharing of a new key,
// KeyRefresh re-randomizes an existing sharing without changing the public key.
package keygen

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

// Rounds is the number of rounds of KeyInit and KeyRefresh.
const Rounds round.Number = 4

const (
	protocolKeyInit    = "cmp/keyinit"
	protocolKeyRefresh = "cmp/keyrefresh"
)

// StartKeyInit returns the StartFunc generating a new key shared among participants.
// Any threshold+1 of them will be able to sign.
func StartKeyInit(selfID party.ID, participants []party.ID, threshold int, pl *pool.Pool) protocol.StartFunc {
	info := round.Info{
		ProtocolID:       protocolKeyInit,
		FinalRoundNumber: Rounds,
		SelfID:           selfID,
		PartyIDs:         participants,
		Threshold:        threshold,
	}
	return Start(info, pl, nil)
}

// StartKeyRefresh returns the StartFunc refreshing share with the other holders of the same key.
func StartKeyRefresh(share *config.KeyShare, pl *pool.Pool) protocol.StartFunc {
	if share == nil {
		return func([]byte) (round.Session, error) {
			return nil, errors.New("keygen: nil key share")
		}
	}
	info := round.Info{
		ProtocolID:       protocolKeyRefresh,
		FinalRoundNumber: Rounds,
		SelfID:           share.ID,
		PartyIDs:         share.PartyIDs(),
		Threshold:        share.Threshold,
	}
	return Start(info, pl, share)
}

// Start creates the first round of the protocol.
// A nil share starts KeyInit, otherwise share is refreshed.
func Start(info round.Info, pl *pool.Pool, share *config.KeyShare) protocol.StartFunc {
	return func(sessionID []byte) (_ round.Session, err error) {
		var helper *round.Helper
		if share == nil {
			helper, err = round.NewSession(info, sessionID, pl)
		} else {
			if err = share.Validate(); err != nil {
				return nil, fmt.Errorf("keygen: %w", err)
			}
			helper, err = round.NewSession(info, sessionID, pl, share)
		}
		if err != nil {
			return nil, fmt.Errorf("keygen: %w", err)
		}

		if share != nil {
			previousPublic := make(map[party.ID]*curve.Point, len(share.Public))
			for j, X := range share.Public {
				previousPublic[j] = X.Clone()
			}
			return &round1{
				Helper:                    helper,
				PreviousSecretECDSA:       share.ECDSA.Clone(),
				PreviousPublicSharesECDSA: previousPublic,
				// fᵢ(X) deg(fᵢ) = t, fᵢ(0) = 0
				VSSSecret: polynomial.NewPolynomial(helper.Threshold(), curve.NewScalar()),
			}, nil
		}

		// sample fᵢ(X) deg(fᵢ) = t, fᵢ(0) = secretᵢ
		VSSConstant := sample.ScalarUnit(rand.Reader)
		return &round1{
			Helper:    helper,
			VSSSecret: polynomial.NewPolynomial(helper.Threshold(), VSSConstant),
		}, nil
	}
}
