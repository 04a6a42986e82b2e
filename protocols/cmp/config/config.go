// Package config holds the outputs of the CMP key generation protocols.
//
// A KeyShare is produced by KeyInit, KeyRefresh and KeyResharing; an AuxInfo by AuxGen.
// Signing requires both, for the same set of parties.
package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/cmp-ia/internal/types"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/polynomial"
	"github.com/taurusgroup/cmp-ia/pkg/party"
)

// KeyShare represents the ECDSA key material of one party in a (t+1)-out-of-n threshold scheme.
type KeyShare struct {
	// ID is the identity of the party holding this share.
	ID party.ID

	// Threshold is the maximum number of corrupted parties tolerated.
	// Any Threshold+1 parties holding a share can sign.
	Threshold int

	// ECDSA is this party's secret share xᵢ of the key.
	ECDSA *curve.Scalar

	// Public maps every party j to its public share Xⱼ = xⱼ⋅G.
	Public map[party.ID]*curve.Point

	// RID is the random identifier jointly chosen during key generation.
	RID types.RID
}

// PublicPoint returns the group's public ECC point, interpolated from the public shares.
func (c *KeyShare) PublicPoint() *curve.Point {
	sum := curve.NewIdentityPoint()
	partyIDs := c.PartyIDs()
	lagrange := polynomial.Lagrange(partyIDs)
	for _, j := range partyIDs {
		sum = sum.Add(lagrange[j].Act(c.Public[j]))
	}
	return sum
}

// PartyIDs returns a sorted slice of the parties holding a share of the key.
func (c *KeyShare) PartyIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(c.Public))
	for j := range c.Public {
		ids = append(ids, j)
	}
	return party.NewIDSlice(ids)
}

// Validate checks that the share is consistent.
// In particular, the public share of this party must correspond to its secret share,
// and the threshold must allow some subset of parties to sign.
func (c *KeyShare) Validate() error {
	if c == nil {
		return errors.New("config: nil key share")
	}
	if !ValidThreshold(c.Threshold, len(c.Public)) {
		return fmt.Errorf("config: threshold %d is invalid for %d parties", c.Threshold, len(c.Public))
	}
	if err := c.RID.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for j, public := range c.Public {
		if err := j.Validate(); err != nil {
			return fmt.Errorf("config: party %s: %w", j, err)
		}
		if public == nil || public.IsIdentity() {
			return fmt.Errorf("config: party %s: public share is the identity", j)
		}
	}

	public, ok := c.Public[c.ID]
	if !ok {
		return errors.New("config: no public data for this party")
	}
	if c.ECDSA == nil || c.ECDSA.IsZero() {
		return errors.New("config: secret share is zero")
	}
	if !c.ECDSA.ActOnBase().Equal(public) {
		return errors.New("config: secret share does not match public share")
	}
	return nil
}

// CanSign returns true if the given signers form a valid subset of the parties holding the key.
// It must contain this party.
func (c *KeyShare) CanSign(signers party.IDSlice) bool {
	if !ValidThreshold(c.Threshold, len(signers)) {
		return false
	}
	if !signers.Valid() || !signers.Contains(c.ID) {
		return false
	}
	for _, j := range signers {
		if _, ok := c.Public[j]; !ok {
			return false
		}
	}
	return true
}

// ValidThreshold returns true if at least threshold+1 of n parties are available to sign.
func ValidThreshold(threshold, n int) bool {
	if threshold < 0 || n <= 0 {
		return false
	}
	return threshold <= n-1
}

// WriteTo implements io.WriterTo interface.
// The secret share is never written.
func (c *KeyShare) WriteTo(w io.Writer) (total int64, err error) {
	var n int64

	n, err = types.ThresholdWrapper(c.Threshold).WriteTo(w)
	total += n
	if err != nil {
		return
	}

	for _, j := range c.PartyIDs() {
		n, err = j.WriteTo(w)
		total += n
		if err != nil {
			return
		}
		n, err = c.Public[j].WriteTo(w)
		total += n
		if err != nil {
			return
		}
	}

	n, err = c.RID.WriteTo(w)
	total += n
	return
}

// Domain implements hash.WriterToWithDomain.
func (c *KeyShare) Domain() string {
	return "CMP Key Share"
}
