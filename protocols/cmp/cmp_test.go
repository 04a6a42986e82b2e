package cmp

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
)

// A 3 party key is generated, refreshed, and used to sign with two parties.
// The aux info comes from the fixtures, since generating Paillier keys is slow.
func TestLifecycle(t *testing.T) {
	pl := pool.NewPool(0)
	signers := test.Signers(3)
	partyIDs := test.PartyIDs(3)

	results, err := test.RunSessions(signers, func(id party.ID) protocol.StartFunc {
		return KeyInit(id, partyIDs, 1, pl)
	})
	require.NoError(t, err)
	shares := make(map[party.ID]*KeyShare, len(partyIDs))
	for id, r := range results {
		shares[id] = r.(*KeyShare)
	}
	public := shares[partyIDs[0]].PublicPoint()

	results, err = test.RunSessions(signers, func(id party.ID) protocol.StartFunc {
		return KeyRefresh(shares[id], pl)
	})
	require.NoError(t, err)
	for id, r := range results {
		refreshed := r.(*KeyShare)
		assert.True(t, public.Equal(refreshed.PublicPoint()))
		shares[id] = refreshed
	}

	hash := sha256.Sum256([]byte("lifecycle"))
	aux := test.AuxInfos(partyIDs)
	signerIDs := partyIDs[1:]
	results, err = test.RunSessions(signers[1:], func(id party.ID) protocol.StartFunc {
		return InteractiveSigning(hash[:], shares[id], aux[id], signerIDs, pl)
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		sig := r.(*ecdsa.Signature)
		assert.True(t, sig.Verify(public, hash[:]))
	}
}

// The key and the aux info come out of one session, and are enough to sign.
func TestKeyInitAndAux(t *testing.T) {
	pl := pool.NewPool(0)
	signers := test.Signers(3)
	partyIDs := test.PartyIDs(3)

	start := func(id party.ID) protocol.StartFunc {
		i := 0
		for i < len(partyIDs) && partyIDs[i] != id {
			i++
		}
		return keyInitAndAux(id, partyIDs, 1, pl, func(*pool.Pool) *paillier.SecretKey {
			return test.PaillierSecretKey(i)
		})
	}

	s, err := protocol.NewSession(signers[0], protocol.NewSessionID(), start(signers[0].ID()))
	require.NoError(t, err)
	assert.Equal(t, protocolKeyInitAndAux, s.ProtocolID())

	results, err := test.RunSessions(signers, start)
	require.NoError(t, err)
	require.Len(t, results, 3)

	outputs := make(map[party.ID]*KeyAux, len(partyIDs))
	for _, id := range partyIDs {
		out, ok := results[id].(*KeyAux)
		require.True(t, ok, "unexpected result %T", results[id])
		require.NotNil(t, out.Share)
		require.NotNil(t, out.Aux)
		assert.Equal(t, id, out.Share.ID)
		assert.NoError(t, out.Share.Validate())
		assert.NoError(t, out.Aux.Validate())
		assert.True(t, out.Aux.Covers(partyIDs))
		outputs[id] = out
	}
	public := outputs[partyIDs[0]].Share.PublicPoint()
	for _, out := range outputs {
		assert.True(t, public.Equal(out.Share.PublicPoint()))
	}

	hash := sha256.Sum256([]byte("key and aux"))
	signerIDs := partyIDs[:2]
	results, err = test.RunSessions(signers[:2], func(id party.ID) protocol.StartFunc {
		return InteractiveSigning(hash[:], outputs[id].Share, outputs[id].Aux, signerIDs, pl)
	})
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.(*ecdsa.Signature).Verify(public, hash[:]))
	}
}

func TestEntryPointErrors(t *testing.T) {
	signers := test.Signers(3)
	partyIDs := test.PartyIDs(3)
	shares, _ := test.KeyShares(partyIDs, 1)
	aux := test.AuxInfos(partyIDs[:2])
	hash := sha256.Sum256([]byte("errors"))
	self := signers[0]

	tests := []struct {
		name  string
		start protocol.StartFunc
	}{
		{"self not included", KeyInit(self.ID(), partyIDs[1:], 1, nil)},
		{"duplicate identities", KeyInit(self.ID(), []party.ID{partyIDs[0], partyIDs[0], partyIDs[1]}, 1, nil)},
		{"threshold out of range", KeyInit(self.ID(), partyIDs, 3, nil)},
		{"nil share", KeyRefresh(nil, nil)},
		{"share of another party", KeyRefresh(shares[partyIDs[1]], nil)},
		{"signers cannot sign", InteractiveSigning(hash[:], shares[partyIDs[0]], aux[partyIDs[0]], partyIDs[:1], nil)},
		{"aux does not cover signers", InteractiveSigning(hash[:], shares[partyIDs[0]], aux[partyIDs[0]], partyIDs, nil)},
		{"new threshold out of range", KeyResharing(OldHolder{Share: shares[partyIDs[0]], OldHolders: partyIDs[:2]}, partyIDs, 3, nil)},
		{"auxgen outsider", AuxGen(self.ID(), partyIDs[1:], nil)},
		{"key and aux threshold out of range", KeyInitAndAux(self.ID(), partyIDs, 3, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.NewSession(self, protocol.NewSessionID(), tt.start)
			require.Error(t, err)
			var local *protocol.LocalError
			assert.True(t, errors.As(err, &local), "expected a local error, got %v", err)
		})
	}
}
