// Package auxgen implements the CMP auxiliary information protocol.
//
// Every party generates a Paillier key and ring-Pedersen parameters, and proves to the others
// that they are well formed. The result is a config.AuxInfo, required for signing.
package auxgen

import (
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
)

// Rounds is the number of rounds of AuxGen.
const Rounds round.Number = 4

const protocolID = "cmp/auxgen"

// KeyGenerator returns a fresh Paillier secret key.
type KeyGenerator func(pl *pool.Pool) *paillier.SecretKey

// StartAuxGen returns the StartFunc generating auxiliary information for participants.
func StartAuxGen(selfID party.ID, participants []party.ID, pl *pool.Pool) protocol.StartFunc {
	return StartAuxGenWith(selfID, participants, pl, paillier.NewSecretKey)
}

// StartAuxGenWith is StartAuxGen with this party's Paillier key returned by generate.
func StartAuxGenWith(selfID party.ID, participants []party.ID, pl *pool.Pool, generate KeyGenerator) protocol.StartFunc {
	info := round.Info{
		ProtocolID:       protocolID,
		FinalRoundNumber: Rounds,
		SelfID:           selfID,
		PartyIDs:         participants,
	}
	return Start(info, pl, generate)
}

// Start creates the first round of the protocol, using generate for this party's Paillier key.
func Start(info round.Info, pl *pool.Pool, generate KeyGenerator) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		helper, err := round.NewSession(info, sessionID, pl)
		if err != nil {
			return nil, fmt.Errorf("auxgen: %w", err)
		}
		if generate == nil {
			generate = paillier.NewSecretKey
		}
		return &round1{
			Helper:   helper,
			generate: generate,
		}, nil
	}
}
