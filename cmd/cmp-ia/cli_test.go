package main

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/pkg/runner"
	"github.com/taurusgroup/cmp-ia/pkg/store"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	output = &buf
	defer func() { output = os.Stdout }()
	err := CLI().Run(append([]string{"cmp-ia", "--config", configPath}, args...))
	return buf.String(), err
}

func setup(t *testing.T, names ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmp-ia.toml")
	_, err := runCLI(t, path, "config", "init")
	require.NoError(t, err)
	for _, n := range names {
		out, err := runCLI(t, path, "identity", "new", "--seed", "000102030405060708090a0b0c0d0e0f", n)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, n+" "))
	}
	return path
}

// publicKey extracts the key printed by keyinit, refresh and reshare.
func publicKey(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "key ") {
			fields := strings.Fields(line)
			return fields[len(fields)-1]
		}
	}
	t.Fatalf("no key in output %q", out)
	return ""
}

func TestConfig(t *testing.T) {
	path := setup(t)
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(filepath.Dir(path)), conf)

	d, err := conf.Timeout()
	require.NoError(t, err)
	assert.Equal(t, "2m0s", d.String())

	// a second init does not overwrite the file
	_, err = runCLI(t, path, "config", "init")
	assert.Error(t, err)

	conf.LogFormat = "xml"
	_, err = conf.Logger(os.Stderr, false)
	assert.Error(t, err)
}

func TestIdentity(t *testing.T) {
	path := setup(t, "alice", "bob")

	out, err := runCLI(t, path, "identity", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "alice "))

	// the same seed gives a different key for another name
	assert.NotEqual(t, strings.Fields(lines[0])[1], strings.Fields(lines[1])[1])

	_, err = runCLI(t, path, "identity", "new", "alice")
	assert.Error(t, err)
	_, err = runCLI(t, path, "keyinit", "--name", "w", "--parties", "alice,carol", "--threshold", "1")
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestKeyLifecycle(t *testing.T) {
	path := setup(t, "alice", "bob", "carol", "dave")

	out, err := runCLI(t, path, "keyinit", "--name", "wallet", "--parties", "alice,bob,carol", "--threshold", "1")
	require.NoError(t, err)
	key := publicKey(t, out)

	out, err = runCLI(t, path, "refresh", "--name", "wallet")
	require.NoError(t, err)
	assert.Equal(t, key, publicKey(t, out))

	out, err = runCLI(t, path, "reshare", "--name", "wallet", "--old", "alice,bob",
		"--new", "bob,carol,dave", "--threshold", "2", "--to", "wallet2")
	require.NoError(t, err)
	assert.Equal(t, key, publicKey(t, out))

	// four identities exist, but only the three new holders have a share of wallet2
	e, err := newEnv(path, io.Discard, false)
	require.NoError(t, err)
	shares, signers, err := e.loadShares("wallet2")
	require.NoError(t, err)
	require.NoError(t, e.Close())
	assert.Len(t, signers, 3)
	for _, share := range shares {
		assert.Equal(t, 2, share.Threshold)
	}

	// an invalid threshold is rejected before anything runs
	_, err = runCLI(t, path, "keyinit", "--name", "bad", "--parties", "alice,bob", "--threshold", "2")
	require.Error(t, err)
	assert.True(t, protocol.IsLocal(err))
}

func TestSign(t *testing.T) {
	if testing.Short() {
		t.Skip("generating Paillier keys is slow")
	}
	path := setup(t, "alice", "bob")

	_, err := runCLI(t, path, "keyinit", "--name", "wallet", "--parties", "alice,bob", "--threshold", "1")
	require.NoError(t, err)
	_, err = runCLI(t, path, "auxgen", "--name", "wallet", "--parties", "alice,bob")
	require.NoError(t, err)

	out, err := runCLI(t, path, "sign", "--name", "wallet", "--signers", "alice,bob", "--message", "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	_, err = runCLI(t, path, "sign", "--name", "wallet", "--signers", "alice", "--message", "hello")
	assert.Error(t, err)
}

func TestEvidence(t *testing.T) {
	path := setup(t)

	out, err := runCLI(t, path, "evidence", "list")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = runCLI(t, path, "evidence", "verify", "missing")
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.cbor")
	data, err := (&protocol.Evidence{Kind: protocol.EvidenceEquivocation, Accused: "00"}).Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(bogus, data, 0600))
	_, err = runCLI(t, path, "evidence", "verify", "--file", bogus)
	assert.ErrorIs(t, err, protocol.ErrEvidenceDoesNotHold)
}

// bob sends a different round 2 commitment to carol during keyinit.
// The bundles saved by the failed run are listed and verified by the evidence commands.
func TestEvidenceFromFailedRun(t *testing.T) {
	path := setup(t, "alice", "bob", "carol")
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	bob, err := loadIdentity(conf.IdentityDir, "bob")
	require.NoError(t, err)
	carol, err := loadIdentity(conf.IdentityDir, "carol")
	require.NoError(t, err)

	other := make([]byte, hash.DigestLengthBytes)
	_, _ = rand.Read(other)
	payload, err := cbor.Marshal(struct{ Commitment []byte }{Commitment: other})
	require.NoError(t, err)

	runnerOptions = []runner.Option{runner.WithInterceptor(func(to party.ID, msg *protocol.SignedMessage) *protocol.SignedMessage {
		if msg.From == bob.ID() && to == carol.ID() && msg.Round == 2 && msg.Kind == protocol.KindBroadcast {
			return protocol.Seal(bob, msg.SSID, msg.Round, msg.Kind, "", payload)
		}
		return msg
	})}
	defer func() { runnerOptions = nil }()

	out, err := runCLI(t, path, "keyinit", "--name", "wallet", "--parties", "alice,bob,carol", "--threshold", "1")
	require.Error(t, err)
	assert.True(t, protocol.IsProvable(err))

	listed, err := runCLI(t, path, "evidence", "list")
	require.NoError(t, err)
	keys := strings.Fields(listed)
	require.NotEmpty(t, keys)

	reporters := map[string]bool{}
	for _, key := range keys {
		assert.Contains(t, out, "evidence "+key)
		parts := strings.Split(key, "/")
		require.Len(t, parts, 3)
		assert.Equal(t, bob.ID().Short(), parts[1])
		reporters[parts[2]] = true

		verified, err := runCLI(t, path, "evidence", "verify", key)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(verified, "valid consensus evidence against "+string(bob.ID())), verified)
	}
	assert.True(t, reporters[carol.ID().Short()])

	// the share was never written
	_, err = runCLI(t, path, "refresh", "--name", "wallet")
	assert.Error(t, err)
}

// A reporter holding faults of two parties, and two of the same party, stores one bundle for each.
func TestSaveEvidenceCulprits(t *testing.T) {
	path := setup(t, "alice", "bob", "carol")
	e, err := newEnv(path, io.Discard, false)
	require.NoError(t, err)
	defer e.Close()

	var signers []*party.Signer
	for _, name := range []string{"alice", "bob", "carol"} {
		s, err := loadIdentity(e.conf.IdentityDir, name)
		require.NoError(t, err)
		signers = append(signers, s)
	}
	alice, bob, carol := signers[0], signers[1], signers[2]

	sessionID := protocol.NewSessionID()
	culprit := func(s *party.Signer) *protocol.ProvableError {
		return &protocol.ProvableError{
			Party: s.ID(),
			Round: 2,
			Err:   protocol.ErrInvalidEcho,
			Evidence: &protocol.Evidence{
				Kind:    protocol.EvidenceInvalidEcho,
				Accused: s.ID(),
				SSID:    sessionID,
				Round:   2,
			},
		}
	}
	runErr := multierror.Append(nil, &runner.PartyError{
		Party: alice.ID(),
		Err:   multierror.Append(nil, culprit(bob), culprit(carol), culprit(bob)),
	})

	var buf bytes.Buffer
	output = &buf
	defer func() { output = os.Stdout }()
	require.NoError(t, e.saveEvidence(sessionID, runErr))

	keys, err := e.store.Keys(store.EvidenceBucket)
	require.NoError(t, err)
	assert.Len(t, keys, 3)
	assert.Equal(t, 3, strings.Count(buf.String(), "evidence "))

	accused := map[string]int{}
	for _, key := range keys {
		var evidence protocol.Evidence
		require.NoError(t, e.store.Get(store.EvidenceBucket, key, &evidence))
		accused[evidence.Accused.Short()]++
	}
	assert.Equal(t, 2, accused[bob.ID().Short()])
	assert.Equal(t, 1, accused[carol.ID().Short()])
}

// An authentic envelope accused of an invalid protocol message is not reported as a proven fault.
func TestEvidenceVerifyReplay(t *testing.T) {
	path := setup(t, "alice", "bob")
	conf, err := LoadConfig(path)
	require.NoError(t, err)
	alice, err := loadIdentity(conf.IdentityDir, "alice")
	require.NoError(t, err)
	bob, err := loadIdentity(conf.IdentityDir, "bob")
	require.NoError(t, err)

	ssid := protocol.NewSessionID()
	evidence := &protocol.Evidence{
		Kind:      protocol.EvidenceInvalidMessage,
		Accused:   bob.ID(),
		SSID:      ssid,
		Round:     3,
		Envelopes: []*protocol.SignedMessage{protocol.Seal(bob, ssid, 3, protocol.KindDirect, alice.ID(), []byte{0xa0})},
	}
	data, err := evidence.Marshal()
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "replay.cbor")
	require.NoError(t, os.WriteFile(file, data, 0600))

	out, err := runCLI(t, path, "evidence", "verify", "--file", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "authentic invalid message evidence"), out)
	assert.NotContains(t, out, "valid invalid message")

	// the same envelope does not incriminate alice
	evidence.Accused = alice.ID()
	data, err = evidence.Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0600))
	_, err = runCLI(t, path, "evidence", "verify", "--file", file)
	assert.ErrorIs(t, err, protocol.ErrEvidenceDoesNotHold)
}
