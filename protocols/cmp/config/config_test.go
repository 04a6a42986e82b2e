package config_test

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

func TestKeyShare(t *testing.T) {
	partyIDs := test.PartyIDs(4)
	shares, secret := test.KeyShares(partyIDs, 2)
	share := shares[partyIDs[0]]
	outsider, err := party.GenerateSigner(rand.Reader)
	require.NoError(t, err)

	require.NoError(t, share.Validate())
	assert.True(t, secret.ActOnBase().Equal(share.PublicPoint()))
	assert.True(t, partyIDs.Equal(share.PartyIDs()))

	tests := []struct {
		name    string
		signers party.IDSlice
		want    bool
	}{
		{"all", partyIDs, true},
		{"threshold+1", partyIDs[:3], true},
		{"too few", partyIDs[:2], false},
		{"without self", partyIDs[1:], false},
		{"outsider", append(partyIDs[:2].Copy(), outsider.ID()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, share.CanSign(party.NewIDSlice(tt.signers)))
		})
	}

	other := shares[partyIDs[1]]
	wrong := *share
	wrong.ECDSA = other.ECDSA
	assert.Error(t, wrong.Validate())

	wrong = *share
	wrong.Threshold = 4
	assert.Error(t, wrong.Validate())

	var nilShare *config.KeyShare
	assert.Error(t, nilShare.Validate())
}

// Stored outputs are cbor encoded.
func TestEncoding(t *testing.T) {
	partyIDs := test.PartyIDs(2)
	shares, _ := test.KeyShares(partyIDs, 1)
	share := shares[partyIDs[0]]

	data, err := cbor.Marshal(share)
	require.NoError(t, err)
	var decodedShare config.KeyShare
	require.NoError(t, cbor.Unmarshal(data, &decodedShare))
	require.NoError(t, decodedShare.Validate())
	assert.True(t, share.PublicPoint().Equal(decodedShare.PublicPoint()))
	assert.True(t, share.ECDSA.Equal(decodedShare.ECDSA))

	aux := test.AuxInfos(partyIDs)[partyIDs[0]]
	require.NoError(t, aux.Validate())
	data, err = cbor.Marshal(aux)
	require.NoError(t, err)
	var decodedAux config.AuxInfo
	require.NoError(t, cbor.Unmarshal(data, &decodedAux))
	require.NoError(t, decodedAux.Validate())
	assert.True(t, decodedAux.Covers(partyIDs))
	assert.False(t, decodedAux.Covers(test.PartyIDs(3)))
}

func TestValidThreshold(t *testing.T) {
	assert.True(t, config.ValidThreshold(0, 1))
	assert.True(t, config.ValidThreshold(2, 3))
	assert.False(t, config.ValidThreshold(3, 3))
	assert.False(t, config.ValidThreshold(-1, 3))
	assert.False(t, config.ValidThreshold(0, 0))
}
