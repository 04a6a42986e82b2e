package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
)

// AuxInfo is the auxiliary key material of one party, used by the signing protocol's zero-knowledge proofs.
type AuxInfo struct {
	ID party.ID

	// Paillier is this party's Paillier secret key, which contains its factorization.
	Paillier *paillier.SecretKey

	// Public maps every party j to its Paillier public key Nⱼ and ring-Pedersen parameters (Nⱼ, sⱼ, tⱼ).
	Public map[party.ID]*AuxPublic
}

// AuxPublic is the public auxiliary data of a party.
type AuxPublic struct {
	Paillier *paillier.PublicKey
	Pedersen *pedersen.Parameters
}

// PartyIDs returns a sorted slice of the parties covered by this AuxInfo.
func (a *AuxInfo) PartyIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(a.Public))
	for j := range a.Public {
		ids = append(ids, j)
	}
	return party.NewIDSlice(ids)
}

// Covers returns true if a contains public data for all parties in ids.
func (a *AuxInfo) Covers(ids party.IDSlice) bool {
	for _, j := range ids {
		if _, ok := a.Public[j]; !ok {
			return false
		}
	}
	return true
}

// Validate checks the public data of every party, and that this party's secret key matches its public key.
func (a *AuxInfo) Validate() error {
	if a == nil || a.Paillier == nil {
		return errors.New("config: nil aux info")
	}
	for j, public := range a.Public {
		if public == nil || public.Paillier == nil || public.Pedersen == nil {
			return fmt.Errorf("config: party %s: missing aux data", j)
		}
		if err := paillier.ValidateN(public.Paillier.N()); err != nil {
			return fmt.Errorf("config: party %s: %w", j, err)
		}
		if err := pedersen.ValidateParameters(public.Pedersen.N(), public.Pedersen.S(), public.Pedersen.T()); err != nil {
			return fmt.Errorf("config: party %s: %w", j, err)
		}
		if public.Paillier.NNat().Eq(public.Pedersen.N().Nat()) != 1 {
			return fmt.Errorf("config: party %s: Paillier and Pedersen moduli differ", j)
		}
	}
	public, ok := a.Public[a.ID]
	if !ok {
		return errors.New("config: no aux data for this party")
	}
	if !public.Paillier.Equal(a.Paillier.PublicKey) {
		return errors.New("config: Paillier secret key does not match public key")
	}
	return nil
}

// WriteTo implements io.WriterTo interface.
// The Paillier secret key is never written.
func (a *AuxInfo) WriteTo(w io.Writer) (total int64, err error) {
	var n int64
	for _, j := range a.PartyIDs() {
		public := a.Public[j]
		n, err = j.WriteTo(w)
		total += n
		if err != nil {
			return
		}
		n, err = public.Paillier.WriteTo(w)
		total += n
		if err != nil {
			return
		}
		n, err = public.Pedersen.WriteTo(w)
		total += n
		if err != nil {
			return
		}
	}
	return
}

// Domain implements hash.WriterToWithDomain.
func (a *AuxInfo) Domain() string {
	return "CMP Aux Info"
}
