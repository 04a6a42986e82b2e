package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taurusgroup/cmp-ia/pkg/party"
)

const identityExt = ".key"

var ErrUnknownIdentity = errors.New("unknown identity")

// newIdentity creates the identity name in dir. A non empty seed makes it deterministic.
func newIdentity(dir, name string, seed []byte) (*party.Signer, error) {
	if name == "" || strings.ContainsAny(name, `/\,`) {
		return nil, fmt.Errorf("invalid identity name %q", name)
	}
	var (
		signer *party.Signer
		err    error
	)
	if len(seed) > 0 {
		signer, err = party.SignerFromSeed(seed, name)
	} else {
		signer, err = party.GenerateSigner(rand.Reader)
	}
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, name+identityExt), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", name, err)
	}
	defer f.Close()
	if _, err = fmt.Fprintln(f, hex.EncodeToString(signer.Bytes())); err != nil {
		return nil, err
	}
	return signer, nil
}

// loadIdentity reads the identity name from dir.
func loadIdentity(dir, name string) (*party.Signer, error) {
	data, err := os.ReadFile(filepath.Join(dir, name+identityExt))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, name)
	}
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("identity %s: %w", name, err)
	}
	return party.SignerFromBytes(key)
}

// loadIdentities reads every name, rejecting duplicates.
func loadIdentities(dir string, names []string) ([]*party.Signer, error) {
	seen := make(map[string]bool, len(names))
	signers := make([]*party.Signer, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("identity %s given twice", name)
		}
		seen[name] = true
		s, err := loadIdentity(dir, name)
		if err != nil {
			return nil, err
		}
		signers = append(signers, s)
	}
	return signers, nil
}

// listIdentities returns the names of the identities in dir.
func listIdentities(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), identityExt) {
			names = append(names, strings.TrimSuffix(e.Name(), identityExt))
		}
	}
	return names, nil
}

func ids(signers []*party.Signer) party.IDSlice {
	out := make([]party.ID, 0, len(signers))
	for _, s := range signers {
		out = append(out, s.ID())
	}
	return party.NewIDSlice(out)
}
