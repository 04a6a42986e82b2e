package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taurusgroup/cmp-ia/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/metrics"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/pkg/runner"
	"github.com/taurusgroup/cmp-ia/pkg/store"
	"github.com/taurusgroup/cmp-ia/protocols/cmp"
	"github.com/urfave/cli/v2"
)

// runnerOptions are appended to the options of every run, set in tests.
var runnerOptions []runner.Option

// startFor returns the StartFunc of the party id.
type startFor func(id party.ID) protocol.StartFunc

// storeKey is the key of the output of id for the key name.
func storeKey(name string, id party.ID) string {
	return name + "/" + string(id)
}

// run executes one protocol between signers in-process.
// Evidence produced by failing parties is saved before the error is returned.
func (e *env) run(c *cli.Context, signers []*party.Signer, start startFor) (map[party.ID]interface{}, error) {
	if e.conf.MetricsAddr != "" {
		l, err := metrics.Start(e.log, e.conf.MetricsAddr)
		if err != nil {
			return nil, err
		}
		defer l.Close()
	}
	timeout, err := e.conf.Timeout()
	if err != nil {
		return nil, err
	}

	sessionID := protocol.NewSessionID()
	sessions := make([]*protocol.Session, 0, len(signers))
	for _, signer := range signers {
		s, err := protocol.NewSession(signer, sessionID, start(signer.ID()), protocol.WithLogger(e.log))
		if err != nil {
			return nil, fmt.Errorf("party %s: %w", signer.ID().Short(), err)
		}
		sessions = append(sessions, s)
	}
	e.log.Info().Str("protocol", sessions[0].ProtocolID()).Int("parties", len(sessions)).Msg("starting")

	opts := append([]runner.Option{runner.WithTimeout(timeout), runner.WithLogger(e.log)}, runnerOptions...)
	r := runner.New(opts...)
	results, runErr := r.Run(c.Context, sessions...)
	if runErr != nil {
		if err := e.saveEvidence(sessionID, runErr); err != nil {
			e.log.Error().Err(err).Msg("failed to save evidence")
		}
		return nil, runErr
	}
	return results, nil
}

// saveEvidence stores the evidence of every provable error in err, one bundle per culprit and reporter.
func (e *env) saveEvidence(sessionID []byte, err error) error {
	prefix := hex.EncodeToString(sessionID)
	for reporter, perr := range runner.PartyErrors(err) {
		seen := map[string]int{}
		for _, provable := range protocol.ProvableErrors(perr) {
			if provable.Evidence == nil {
				continue
			}
			key := fmt.Sprintf("%s/%s/%s", prefix, provable.Party.Short(), reporter.Short())
			n := seen[key]
			seen[key]++
			if n > 0 {
				key = fmt.Sprintf("%s/%d", key, n)
			}
			if err := e.store.Put(store.EvidenceBucket, key, provable.Evidence); err != nil {
				return err
			}
			e.log.Warn().Str("accused", provable.Party.Short()).Str("evidence", key).Msg("provable fault")
			fmt.Fprintf(output, "evidence %s\n", key)
		}
	}
	return nil
}

func keyInitCmd(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()
	signers, err := loadIdentities(e.conf.IdentityDir, names(c, "parties"))
	if err != nil {
		return err
	}
	name, threshold, partyIDs := c.String("name"), c.Int("threshold"), ids(signers)

	pl := pool.NewPool(0)
	results, err := e.run(c, signers, func(id party.ID) protocol.StartFunc {
		return cmp.KeyInit(id, partyIDs, threshold, pl)
	})
	if err != nil {
		return err
	}
	return e.saveShares(name, results)
}

func refreshCmd(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()
	name := c.String("name")
	shares, signers, err := e.loadShares(name)
	if err != nil {
		return err
	}

	pl := pool.NewPool(0)
	results, err := e.run(c, signers, func(id party.ID) protocol.StartFunc {
		return cmp.KeyRefresh(shares[id], pl)
	})
	if err != nil {
		return err
	}
	return e.saveShares(name, results)
}

func auxGenCmd(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()
	signers, err := loadIdentities(e.conf.IdentityDir, names(c, "parties"))
	if err != nil {
		return err
	}
	name, partyIDs := c.String("name"), ids(signers)

	pl := pool.NewPool(0)
	results, err := e.run(c, signers, func(id party.ID) protocol.StartFunc {
		return cmp.AuxGen(id, partyIDs, pl)
	})
	if err != nil {
		return err
	}
	for id, r := range results {
		if err := e.store.Put(store.AuxInfoBucket, storeKey(name, id), r); err != nil {
			return err
		}
	}
	fmt.Fprintf(output, "aux info %s generated for %d parties\n", name, len(results))
	return nil
}

func signCmd(c *cli.Context) error {
	hash, err := messageHash(c)
	if err != nil {
		return err
	}
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()
	signers, err := loadIdentities(e.conf.IdentityDir, names(c, "signers"))
	if err != nil {
		return err
	}
	name, signerIDs := c.String("name"), ids(signers)

	shares := make(map[party.ID]*cmp.KeyShare, len(signers))
	auxInfos := make(map[party.ID]*cmp.AuxInfo, len(signers))
	for _, id := range signerIDs {
		var (
			share cmp.KeyShare
			aux   cmp.AuxInfo
		)
		if err := e.store.Get(store.KeySharesBucket, storeKey(name, id), &share); err != nil {
			return err
		}
		if err := e.store.Get(store.AuxInfoBucket, storeKey(name, id), &aux); err != nil {
			return err
		}
		shares[id], auxInfos[id] = &share, &aux
	}

	pl := pool.NewPool(0)
	results, err := e.run(c, signers, func(id party.ID) protocol.StartFunc {
		return cmp.InteractiveSigning(hash, shares[id], auxInfos[id], signerIDs, pl)
	})
	if err != nil {
		return err
	}
	sig := results[signerIDs[0]].(*ecdsa.Signature)
	encoded, err := sig.Serialize()
	if err != nil {
		return err
	}
	if err = e.store.Put(store.SignatureBucket, name+"/"+hex.EncodeToString(hash), sig); err != nil {
		return err
	}
	fmt.Fprintf(output, "%s\n", hex.EncodeToString(encoded))
	return nil
}

func reshareCmd(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()
	name, threshold := c.String("name"), c.Int("threshold")
	to := c.String("to")
	if to == "" {
		to = name
	}

	oldSigners, err := loadIdentities(e.conf.IdentityDir, names(c, "old"))
	if err != nil {
		return err
	}
	newSigners, err := loadIdentities(e.conf.IdentityDir, names(c, "new"))
	if err != nil {
		return err
	}
	oldHolders, newHolders := ids(oldSigners), ids(newSigners)

	shares := make(map[party.ID]*cmp.KeyShare, len(oldHolders))
	for _, id := range oldHolders {
		var share cmp.KeyShare
		if err := e.store.Get(store.KeySharesBucket, storeKey(name, id), &share); err != nil {
			return err
		}
		shares[id] = &share
	}
	reference := shares[oldHolders[0]]

	signers := oldSigners
	for _, s := range newSigners {
		if !oldHolders.Contains(s.ID()) {
			signers = append(signers, s)
		}
	}

	pl := pool.NewPool(0)
	results, err := e.run(c, signers, func(id party.ID) protocol.StartFunc {
		var role cmp.Role
		if share, ok := shares[id]; ok {
			role = cmp.OldHolder{Share: share, OldHolders: oldHolders}
		} else {
			role = cmp.NewHolder{
				ID:         id,
				PublicKey:  reference.PublicPoint(),
				OldPublic:  reference.Public,
				OldHolders: oldHolders,
			}
		}
		return cmp.KeyResharing(role, newHolders, threshold, pl)
	})
	if err != nil {
		return err
	}

	if to == name {
		for _, id := range oldHolders {
			if !newHolders.Contains(id) {
				if err := e.store.Delete(store.KeySharesBucket, storeKey(name, id)); err != nil {
					return err
				}
			}
		}
	}
	return e.saveShares(to, results)
}

func evidenceListCmd(c *cli.Context) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.Close()
	keys, err := e.store.Keys(store.EvidenceBucket)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(output, k)
	}
	return nil
}

func evidenceVerifyCmd(c *cli.Context) error {
	var (
		evidence *protocol.Evidence
		err      error
	)
	if file := c.String("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if evidence, err = protocol.UnmarshalEvidence(data); err != nil {
			return err
		}
	} else {
		if c.NArg() != 1 {
			return errors.New("evidence verify takes a key or --file")
		}
		e, err := openEnv(c)
		if err != nil {
			return err
		}
		defer e.Close()
		evidence = new(protocol.Evidence)
		if err = e.store.Get(store.EvidenceBucket, c.Args().First(), evidence); err != nil {
			return err
		}
	}

	err = evidence.Verify()
	if errors.Is(err, protocol.ErrReplayRequired) {
		fmt.Fprintf(output, "authentic %s evidence against %s (round %d): confirming the fault requires a protocol replay\n",
			evidence.Kind, evidence.Accused, evidence.Round)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "valid %s evidence against %s (round %d)\n", evidence.Kind, evidence.Accused, evidence.Round)
	return nil
}

// loadShares returns the shares stored under name with the identities of their holders.
func (e *env) loadShares(name string) (map[party.ID]*cmp.KeyShare, []*party.Signer, error) {
	identities, err := listIdentities(e.conf.IdentityDir)
	if err != nil {
		return nil, nil, err
	}
	shares := map[party.ID]*cmp.KeyShare{}
	var signers []*party.Signer
	for _, n := range identities {
		s, err := loadIdentity(e.conf.IdentityDir, n)
		if err != nil {
			return nil, nil, err
		}
		var share cmp.KeyShare
		err = e.store.Get(store.KeySharesBucket, storeKey(name, s.ID()), &share)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		shares[s.ID()] = &share
		signers = append(signers, s)
	}
	if len(signers) == 0 {
		return nil, nil, fmt.Errorf("no local share of key %s", name)
	}
	return shares, signers, nil
}

func (e *env) saveShares(name string, results map[party.ID]interface{}) error {
	var public *curve.Point
	for id, r := range results {
		share, ok := r.(*cmp.KeyShare)
		if !ok || share == nil {
			continue
		}
		if err := e.store.Put(store.KeySharesBucket, storeKey(name, id), share); err != nil {
			return err
		}
		public = share.PublicPoint()
	}
	if public == nil {
		return errors.New("no share was produced")
	}
	data, err := public.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "key %s: %s\n", name, hex.EncodeToString(data))
	return nil
}

// messageHash returns the 32 byte digest given by --hash, or the SHA-256 of --message.
func messageHash(c *cli.Context) ([]byte, error) {
	switch {
	case c.IsSet("hash") && c.IsSet("message"):
		return nil, errors.New("--hash and --message are exclusive")
	case c.IsSet("hash"):
		h, err := decodeHex(c.String("hash"))
		if err != nil {
			return nil, fmt.Errorf("invalid hash: %w", err)
		}
		if len(h) != 32 {
			return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(h))
		}
		return h, nil
	case c.IsSet("message"):
		h := sha256.Sum256([]byte(c.String("message")))
		return h[:], nil
	default:
		return nil, errors.New("one of --hash or --message is required")
	}
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func dirOf(path string) string {
	return filepath.Dir(path)
}
