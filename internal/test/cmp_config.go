package test

import (
	"crypto/rand"

	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

// KeyShares deals a random key to partyIDs with the given threshold, as a trusted dealer would.
// It returns the shares and the dealt secret key.
func KeyShares(partyIDs party.IDSlice, threshold int) (map[party.ID]*config.KeyShare, *curve.Scalar) {
	secret := sample.ScalarUnit(rand.Reader)
	f := polynomial.NewPolynomial(threshold, secret)

	rid, err := types.NewRID(rand.Reader)
	if err != nil {
		panic(err)
	}

	secrets := make(map[party.ID]*curve.Scalar, len(partyIDs))
	public := make(map[party.ID]*curve.Point, len(partyIDs))
	for _, id := range partyIDs {
		secrets[id] = f.Evaluate(id.Scalar())
		public[id] = secrets[id].ActOnBase()
	}

	shares := make(map[party.ID]*config.KeyShare, len(partyIDs))
	for _, id := range partyIDs {
		publicCopy := make(map[party.ID]*curve.Point, len(public))
		for j, X := range public {
			publicCopy[j] = X.Clone()
		}
		shares[id] = &config.KeyShare{
			ID:        id,
			Threshold: threshold,
			ECDSA:     secrets[id],
			Public:    publicCopy,
			RID:       rid.Copy(),
		}
	}
	return shares, secret
}

// AuxInfos returns auxiliary data for partyIDs, built from the fixture Paillier keys.
// At most PaillierKeyCount parties get distinct keys.
func AuxInfos(partyIDs party.IDSlice) map[party.ID]*config.AuxInfo {
	public := make(map[party.ID]*config.AuxPublic, len(partyIDs))
	for i, id := range partyIDs {
		sk := PaillierSecretKey(i)
		ped, _ := sk.GeneratePedersen()
		public[id] = &config.AuxPublic{
			Paillier: sk.PublicKey,
			Pedersen: ped,
		}
	}

	infos := make(map[party.ID]*config.AuxInfo, len(partyIDs))
	for i, id := range partyIDs {
		publicCopy := make(map[party.ID]*config.AuxPublic, len(public))
		for j, p := range public {
			publicCopy[j] = p
		}
		infos[id] = &config.AuxInfo{
			ID:       id,
			Paillier: PaillierSecretKey(i),
			Public:   publicCopy,
		}
	}
	return infos
}
