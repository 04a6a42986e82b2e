package sign

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/pkg/runner"
)

var messageHash = func() []byte {
	h := sha256.Sum256([]byte("hello"))
	return h[:]
}()

// checkSignatures verifies that all signatures are valid for public, and byte identical.
func checkSignatures(t *testing.T, public *curve.Point, signatures []*ecdsa.Signature) {
	require.NotEmpty(t, signatures)
	first, err := signatures[0].MarshalBinary()
	require.NoError(t, err)

	for _, sig := range signatures {
		assert.True(t, sig.Verify(public, messageHash), "failed to verify signature")
		assert.False(t, sig.S.IsOverHalfOrder(), "signature is not normalized")

		data, err := sig.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, first, data, "signers obtained different signatures")

		btcSig, err := sig.ToBtcec()
		require.NoError(t, err)
		assert.True(t, btcSig.Verify(messageHash, public.ToPublicKey()), "btcec rejected the signature")
	}
}

func TestSign(t *testing.T) {
	pl := pool.NewPool(0)

	partyIDs := test.PartyIDs(3)
	shares, secret := test.KeyShares(partyIDs, 1)
	auxInfos := test.AuxInfos(partyIDs)

	for _, signers := range []party.IDSlice{partyIDs[:2], partyIDs} {
		rounds := make([]round.Session, 0, len(signers))
		for _, id := range signers {
			r, err := StartSign(shares[id], auxInfos[id], signers, messageHash, pl)(nil)
			require.NoError(t, err, "round creation should not result in an error")
			rounds = append(rounds, r)
		}

		for {
			err, done := test.Rounds(rounds, nil)
			require.NoError(t, err, "failed to process round")
			if done {
				break
			}
		}

		signatures := make([]*ecdsa.Signature, 0, len(rounds))
		for _, r := range rounds {
			require.IsType(t, &round.Output{}, r)
			sig, ok := r.(*round.Output).Result.(*ecdsa.Signature)
			require.True(t, ok)
			signatures = append(signatures, sig)
		}
		checkSignatures(t, secret.ActOnBase(), signatures)
	}
}

func TestSignSessions(t *testing.T) {
	pl := pool.NewPool(0)

	signers := test.Signers(2)
	partyIDs := test.PartyIDs(2)
	shares, secret := test.KeyShares(partyIDs, 1)
	auxInfos := test.AuxInfos(partyIDs)

	results, err := test.RunSessions(signers, func(id party.ID) protocol.StartFunc {
		return StartSign(shares[id], auxInfos[id], partyIDs, messageHash, pl)
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	signatures := make([]*ecdsa.Signature, 0, 2)
	for _, id := range partyIDs {
		sig, ok := results[id].(*ecdsa.Signature)
		require.True(t, ok)
		signatures = append(signatures, sig)
	}
	checkSignatures(t, secret.ActOnBase(), signatures)
}

// wrongGamma replaces Γ in the round 3 broadcast of culprit, so that its MtA proofs fail.
type wrongGamma struct {
	culprit party.ID
}

func (wrongGamma) ModifyBefore(round.Session) {}
func (wrongGamma) ModifyAfter(round.Session)  {}
func (w wrongGamma) ModifyContent(rNext round.Session, _ party.ID, content round.Content) {
	body, ok := content.(*broadcast3)
	if !ok || rNext.SelfID() != w.culprit {
		return
	}
	_, body.BigGammaShare = sample.ScalarPointPair(rand.Reader)
}

func TestSignWrongGamma(t *testing.T) {
	pl := pool.NewPool(0)

	partyIDs := test.PartyIDs(2)
	shares, _ := test.KeyShares(partyIDs, 1)
	auxInfos := test.AuxInfos(partyIDs)

	rounds := make([]round.Session, 0, 2)
	for _, id := range partyIDs {
		r, err := StartSign(shares[id], auxInfos[id], partyIDs, messageHash, pl)(nil)
		require.NoError(t, err)
		rounds = append(rounds, r)
	}

	var err error
	for {
		var done bool
		err, done = test.Rounds(rounds, wrongGamma{culprit: partyIDs[0]})
		if err != nil || done {
			break
		}
	}
	assert.ErrorIs(t, err, round.ErrInvalidProof, "the affg proofs should not verify")
}

// The first signer broadcasts a wrong Γ to everyone, and is identified by the other signers.
func TestSignIdentifiableAbort(t *testing.T) {
	pl := pool.NewPool(0)

	signers := test.Signers(3)
	partyIDs := test.PartyIDs(3)
	shares, _ := test.KeyShares(partyIDs, 2)
	auxInfos := test.AuxInfos(partyIDs)
	culprit := partyIDs[0]

	_, Gamma := sample.ScalarPointPair(rand.Reader)
	payload, err := cbor.Marshal(&broadcast3{BigGammaShare: Gamma})
	require.NoError(t, err)
	intercept := func(_ party.ID, msg *protocol.SignedMessage) *protocol.SignedMessage {
		if msg.From == culprit && msg.Round == 3 && msg.Kind == protocol.KindBroadcast {
			return protocol.Seal(signers[0], msg.SSID, msg.Round, msg.Kind, "", payload)
		}
		return msg
	}

	results, err := test.RunSessions(signers, func(id party.ID) protocol.StartFunc {
		return StartSign(shares[id], auxInfos[id], partyIDs, messageHash, pl)
	}, runner.WithInterceptor(intercept))
	require.Error(t, err)
	assert.Empty(t, results)

	blamed := 0
	for id, partyErr := range runner.PartyErrors(err) {
		var provable *protocol.ProvableError
		if !errors.As(partyErr, &provable) {
			continue
		}
		assert.Equal(t, culprit, provable.Party, "%s blamed the wrong party", id)
		require.NotNil(t, provable.Evidence)
		assert.Equal(t, protocol.EvidenceInvalidMessage, provable.Evidence.Kind)
		// the rejected proofs are authored by the culprit, and need the public data to be replayed
		assert.ErrorIs(t, provable.Evidence.Verify(), protocol.ErrReplayRequired)
		blamed++
	}
	assert.Positive(t, blamed, "nobody identified the culprit")

	// the culprit only received accusations, and stopped once the others had
	culpritErr := runner.PartyErrors(err)[culprit]
	require.Error(t, culpritErr)
	assert.False(t, protocol.IsProvable(culpritErr), culpritErr.Error())
}

func TestStartErrors(t *testing.T) {
	partyIDs := test.PartyIDs(3)
	shares, _ := test.KeyShares(partyIDs, 1)
	auxInfos := test.AuxInfos(partyIDs[:2])
	self := partyIDs[0]

	start := func(signers []party.ID, message []byte) error {
		_, err := StartSign(shares[self], auxInfos[self], signers, message, nil)(nil)
		return err
	}

	assert.NoError(t, start(partyIDs[:2], messageHash))
	assert.Error(t, start(partyIDs[:2], []byte("not a hash")))
	assert.ErrorIs(t, start(partyIDs[:1], messageHash), round.ErrInvalidThreshold)
	assert.ErrorIs(t, start(partyIDs[1:], messageHash), round.ErrSelfNotIncluded)
	assert.ErrorIs(t, start(partyIDs, messageHash), ErrAuxNotCovered)

	_, err := StartSign(shares[self], auxInfos[partyIDs[1]], partyIDs[:2], messageHash, nil)(nil)
	assert.Error(t, err)

	_, err = StartSign(nil, auxInfos[self], partyIDs[:2], messageHash, nil)(nil)
	assert.Error(t, err)
}
