package test

import (
	"fmt"
	"sort"

	"github.com/taurusgroup/cmp-ia/pkg/party"
)

var signerSeed = []byte("cmp-ia deterministic test identities")

// Signers returns n deterministic identities, sorted by ID.
// The same n always yields the same signers, which keeps test failures reproducible.
func Signers(n int) []*party.Signer {
	signers := make([]*party.Signer, n)
	for i := range signers {
		s, err := party.SignerFromSeed(signerSeed, fmt.Sprintf("party-%d", i))
		if err != nil {
			panic(err)
		}
		signers[i] = s
	}
	sort.Slice(signers, func(i, j int) bool { return signers[i].ID() < signers[j].ID() })
	return signers
}

// PartyIDs returns the sorted IDs of Signers(n).
func PartyIDs(n int) party.IDSlice {
	signers := Signers(n)
	ids := make([]party.ID, n)
	for i, s := range signers {
		ids[i] = s.ID()
	}
	return party.NewIDSlice(ids)
}
