package resharing

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/pkg/runner"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

const (
	oldThreshold = 1
	newThreshold = 2
)

// setup deals a key to the first three of five parties.
// The first two reshare it to the last four:
// - parties[0] is only an old holder
// - parties[1] is an old and a new holder
// - parties[2] holds a share it does not deal, and knows the old public shares
// - parties[3] and parties[4] only know the public key.
func setup() (all, oldHolders, newHolders party.IDSlice, roles map[party.ID]Role, secret *curve.Scalar) {
	all = test.PartyIDs(5)
	shares, secret := test.KeyShares(all[:3], oldThreshold)
	oldHolders = party.NewIDSlice(all[:2])
	newHolders = party.NewIDSlice(all[1:])
	public := secret.ActOnBase()

	roles = map[party.ID]Role{
		all[0]: OldHolder{Share: shares[all[0]], OldHolders: oldHolders},
		all[1]: OldHolder{Share: shares[all[1]], OldHolders: oldHolders},
		all[2]: NewHolder{ID: all[2], PublicKey: public, OldPublic: shares[all[2]].Public, OldHolders: oldHolders},
		all[3]: NewHolder{ID: all[3], PublicKey: public, OldHolders: oldHolders},
		all[4]: NewHolder{ID: all[4], PublicKey: public, OldHolders: oldHolders},
	}
	return all, oldHolders, newHolders, roles, secret
}

func checkShares(t *testing.T, shares []*config.KeyShare, secret *curve.Scalar) {
	public := secret.ActOnBase()
	for _, s := range shares {
		require.NoError(t, s.Validate())
		assert.Equal(t, newThreshold, s.Threshold)
		assert.True(t, public.Equal(s.PublicPoint()), "public key changed")
		assert.Equal(t, shares[0].RID, s.RID)
	}

	// any newThreshold+1 new holders recover the secret
	ids := make([]party.ID, 0, newThreshold+1)
	values := map[party.ID]*curve.Scalar{}
	for _, s := range shares[len(shares)-newThreshold-1:] {
		ids = append(ids, s.ID)
		values[s.ID] = s.ECDSA
	}
	recovered := curve.NewScalar()
	for id, lambda := range polynomial.Lagrange(ids) {
		recovered.Add(lambda.Mul(values[id]))
	}
	assert.True(t, recovered.Equal(secret))
}

func TestResharing(t *testing.T) {
	pl := pool.NewPool(0)
	all, _, newHolders, roles, secret := setup()

	rounds := make([]round.Session, 0, len(all))
	for _, id := range all {
		r, err := StartResharing(roles[id], newHolders, newThreshold, pl)(nil)
		require.NoError(t, err)
		rounds = append(rounds, r)
	}
	for {
		err, done := test.Rounds(rounds, nil)
		require.NoError(t, err, "failed to process round")
		if done {
			break
		}
	}

	shares := make([]*config.KeyShare, 0, len(newHolders))
	for i, r := range rounds {
		require.IsType(t, &round.Output{}, r)
		result := r.(*round.Output).Result
		if i == 0 {
			assert.Nil(t, result, "an old holder which is not a new holder has no share")
			continue
		}
		share, ok := result.(*config.KeyShare)
		require.True(t, ok)
		assert.Equal(t, all[i], share.ID)
		shares = append(shares, share)
	}
	require.Len(t, shares, len(newHolders))
	checkShares(t, shares, secret)
}

func TestResharingSessions(t *testing.T) {
	pl := pool.NewPool(0)
	all, _, newHolders, roles, secret := setup()

	results, err := test.RunSessions(test.Signers(5), func(id party.ID) protocol.StartFunc {
		return StartResharing(roles[id], newHolders, newThreshold, pl)
	})
	require.NoError(t, err)
	require.Len(t, results, len(all))
	assert.Nil(t, results[all[0]])

	shares := make([]*config.KeyShare, 0, len(newHolders))
	for _, id := range newHolders {
		share, ok := results[id].(*config.KeyShare)
		require.True(t, ok)
		shares = append(shares, share)
	}
	checkShares(t, shares, secret)
}

// parties[0] deals a polynomial unrelated to its share, the same to everyone.
func TestResharingBadDealer(t *testing.T) {
	pl := pool.NewPool(0)
	all, _, newHolders, roles, _ := setup()
	signers := test.Signers(5)
	require.Equal(t, all[0], signers[0].ID())

	bogus := polynomial.NewPolynomialExponent(polynomial.NewPolynomial(newThreshold, sample.ScalarUnit(rand.Reader)))
	rid, err := types.NewRID(rand.Reader)
	require.NoError(t, err)
	payload, err := cbor.Marshal(&broadcast2{Commitment: bogus, RID: rid})
	require.NoError(t, err)

	intercept := func(to party.ID, msg *protocol.SignedMessage) *protocol.SignedMessage {
		if msg.From == all[0] && msg.Round == 2 && msg.Kind == protocol.KindBroadcast {
			return protocol.Seal(signers[0], msg.SSID, msg.Round, msg.Kind, "", payload)
		}
		return msg
	}

	results, err := test.RunSessions(signers, func(id party.ID) protocol.StartFunc {
		return StartResharing(roles[id], newHolders, newThreshold, pl)
	}, runner.WithInterceptor(intercept))
	require.Error(t, err)
	assert.Empty(t, results)

	blamed := 0
	for id, partyErr := range runner.PartyErrors(err) {
		var provable *protocol.ProvableError
		if !errors.As(partyErr, &provable) {
			continue
		}
		assert.Equal(t, all[0], provable.Party, "%s blamed the wrong party", id)
		blamed++
	}
	assert.Positive(t, blamed, "nobody identified the faulty dealer")
}

func TestStartErrors(t *testing.T) {
	all, oldHolders, newHolders, roles, secret := setup()
	start := func(role Role, newHolders []party.ID, threshold int) error {
		_, err := StartResharing(role, newHolders, threshold, nil)(nil)
		return err
	}

	assert.ErrorIs(t, start(roles[all[3]], newHolders, len(newHolders)), round.ErrInvalidThreshold)
	assert.ErrorIs(t, start(roles[all[3]], []party.ID{all[3], all[3]}, 0), round.ErrInvalidPartyIDs)
	old := roles[all[0]].(OldHolder)
	assert.ErrorIs(t, start(OldHolder{Share: old.Share, OldHolders: all[1:3]}, newHolders, 1), round.ErrSelfNotIncluded)
	assert.ErrorIs(t, start(OldHolder{Share: old.Share, OldHolders: all[:1]}, newHolders, 1), ErrNotEnoughHolders)
	assert.ErrorIs(t, start(OldHolder{Share: old.Share, OldHolders: all[:4]}, newHolders, 1), ErrUnknownHolder)
	assert.Error(t, start(OldHolder{OldHolders: oldHolders}, newHolders, 1))
	assert.Error(t, start(NewHolder{ID: all[3], OldHolders: oldHolders}, newHolders, 1))
	assert.ErrorIs(t, start(NewHolder{ID: all[0], PublicKey: secret.ActOnBase(), OldHolders: oldHolders}, newHolders, 1),
		round.ErrSelfNotIncluded)
}
