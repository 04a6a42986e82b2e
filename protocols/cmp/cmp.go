// Package cmp exposes the entry points of the CMP threshold ECDSA protocols.
//
// Each function returns a protocol.StartFunc, to be given to protocol.NewSession.
// Inconsistent inputs are reported when the session is created, as a protocol.LocalError.
package cmp

import (
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/auxgen"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/keygen"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/resharing"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/sign"
)

type (
	// KeyShare is the output of KeyInit, KeyRefresh and KeyResharing.
	KeyShare = config.KeyShare
	// AuxInfo is the output of AuxGen.
	AuxInfo = config.AuxInfo

	// Role is either an OldHolder or a NewHolder.
	Role      = resharing.Role
	OldHolder = resharing.OldHolder
	NewHolder = resharing.NewHolder
)

// KeyInit generates a new key shared among participants, such that any threshold+1 of them can sign.
// The result is a *KeyShare.
func KeyInit(selfID party.ID, participants []party.ID, threshold int, pl *pool.Pool) protocol.StartFunc {
	return keygen.StartKeyInit(selfID, participants, threshold, pl)
}

// KeyAux is the output of KeyInitAndAux.
type KeyAux struct {
	Share *KeyShare
	Aux   *AuxInfo
}

const protocolKeyInitAndAux = "cmp/keyinit+auxgen"

// KeyInitAndAux runs KeyInit and then AuxGen among participants, in a single session.
// The result is a *KeyAux, ready for InteractiveSigning.
func KeyInitAndAux(selfID party.ID, participants []party.ID, threshold int, pl *pool.Pool) protocol.StartFunc {
	return keyInitAndAux(selfID, participants, threshold, pl, paillier.NewSecretKey)
}

func keyInitAndAux(selfID party.ID, participants []party.ID, threshold int, pl *pool.Pool, generate auxgen.KeyGenerator) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		info := round.Info{
			ProtocolID:       protocolKeyInitAndAux,
			FinalRoundNumber: keygen.Rounds + auxgen.Rounds - 1,
			SelfID:           selfID,
			PartyIDs:         participants,
			Threshold:        threshold,
		}
		outer, err := round.NewSession(info, sessionID, pl)
		if err != nil {
			return nil, fmt.Errorf("cmp: %w", err)
		}
		first, err := keygen.StartKeyInit(selfID, participants, threshold, pl)(outer.SSID())
		if err != nil {
			return nil, err
		}
		aux := func(sessionID []byte, _ interface{}) (round.Session, error) {
			return auxgen.StartAuxGenWith(selfID, participants, pl, generate)(sessionID)
		}
		combine := func(results []interface{}) interface{} {
			share, _ := results[0].(*KeyShare)
			info, _ := results[1].(*AuxInfo)
			return &KeyAux{Share: share, Aux: info}
		}
		return round.Chain(outer, first, combine, aux), nil
	}
}

// KeyRefresh re-randomizes the shares of all holders of share's key. The public key is unchanged.
// The result is a *KeyShare.
func KeyRefresh(share *KeyShare, pl *pool.Pool) protocol.StartFunc {
	return keygen.StartKeyRefresh(share, pl)
}

// KeyResharing moves a key from the old holders named in role to newHolders, with a new threshold.
// The result is a *KeyShare for new holders, and nil for a party which is only an old holder.
func KeyResharing(role Role, newHolders []party.ID, newThreshold int, pl *pool.Pool) protocol.StartFunc {
	return resharing.StartResharing(role, newHolders, newThreshold, pl)
}

// AuxGen generates the Paillier and Pedersen material of participants.
// The result is an *AuxInfo.
func AuxGen(selfID party.ID, participants []party.ID, pl *pool.Pool) protocol.StartFunc {
	return auxgen.StartAuxGen(selfID, participants, pl)
}

// InteractiveSigning signs the 32 byte prehashed message with signers.
// The result is an *ecdsa.Signature, normalized to a low S value.
func InteractiveSigning(prehashed []byte, share *KeyShare, aux *AuxInfo, signers []party.ID, pl *pool.Pool) protocol.StartFunc {
	return sign.StartSign(share, aux, signers, prehashed, pl)
}
