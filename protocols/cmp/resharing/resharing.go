// Package resharing moves a key to a new set of holders, possibly with a new threshold,
// without changing the public key.
//
// Enough old holders each deal a sharing of their Lagrange weighted share to the new holders.
// A party may be an old holder, a new holder, or both.
package resharing

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/cmp-ia/internal/round"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/party"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
	"github.com/taurusgroup/cmp-ia/pkg/protocol"
	"github.com/taurusgroup/cmp-ia/protocols/cmp/config"
)

// Rounds is the number of rounds of KeyResharing.
const Rounds round.Number = 2

const protocolID = "cmp/resharing"

var (
	ErrNotEnoughHolders = errors.New("resharing: not enough old holders to reconstruct the key")
	ErrUnknownHolder    = errors.New("resharing: old holder has no public share")
)

// Role is the position of a party in a resharing, either OldHolder or NewHolder.
type Role interface {
	selfID() party.ID
}

// OldHolder is a party holding a share of the key. It may also be one of the new holders.
type OldHolder struct {
	Share *config.KeyShare
	// OldHolders are the parties dealing their share, at least Share.Threshold+1 of Share.PartyIDs().
	OldHolders []party.ID
}

// NewHolder is a party receiving a share of a key it did not hold before.
type NewHolder struct {
	ID        party.ID
	PublicKey *curve.Point
	// OldPublic are the public shares of the old key, if known.
	// They let the new holder blame an old holder dealing the wrong share.
	OldPublic  map[party.ID]*curve.Point
	OldHolders []party.ID
}

func (o OldHolder) selfID() party.ID { return o.Share.ID }
func (n NewHolder) selfID() party.ID { return n.ID }

// StartResharing returns the StartFunc of role, sharing the key among newHolders
// so that any newThreshold+1 of them can sign.
func StartResharing(role Role, newHolders []party.ID, newThreshold int, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		p, err := newParams(role, newHolders, newThreshold)
		if err != nil {
			return nil, err
		}
		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: Rounds,
			SelfID:           role.selfID(),
			PartyIDs:         p.all,
			Threshold:        newThreshold,
		}
		helper, err := round.NewSession(info, sessionID, pl, p.public, p.oldHolders, p.newHolders)
		if err != nil {
			return nil, fmt.Errorf("resharing: %w", err)
		}
		return &round1{
			Helper: helper,
			params: p,
		}, nil
	}
}

// params is the data of a resharing common to all rounds.
type params struct {
	oldHolders, newHolders, all party.IDSlice
	newThreshold                int
	public                      *curve.Point
	// oldPublic may be nil for a new holder.
	oldPublic map[party.ID]*curve.Point
	// share is nil for a party which is only a new holder.
	share *config.KeyShare
}

func newParams(role Role, newHolders []party.ID, newThreshold int) (*params, error) {
	p := &params{
		newHolders:   party.NewIDSlice(newHolders),
		newThreshold: newThreshold,
	}
	if len(p.newHolders) != len(newHolders) || !p.newHolders.Valid() {
		return nil, fmt.Errorf("resharing: new holders: %w", round.ErrInvalidPartyIDs)
	}
	if !config.ValidThreshold(newThreshold, len(p.newHolders)) {
		return nil, fmt.Errorf("resharing: %w: %d for %d new holders", round.ErrInvalidThreshold, newThreshold, len(p.newHolders))
	}

	var oldHolders []party.ID
	switch r := role.(type) {
	case OldHolder:
		if r.Share == nil {
			return nil, errors.New("resharing: nil key share")
		}
		if err := r.Share.Validate(); err != nil {
			return nil, fmt.Errorf("resharing: %w", err)
		}
		p.share = r.Share
		p.public = r.Share.PublicPoint()
		p.oldPublic = r.Share.Public
		oldHolders = r.OldHolders
	case NewHolder:
		if r.PublicKey == nil || r.PublicKey.IsIdentity() {
			return nil, errors.New("resharing: missing public key")
		}
		if !p.newHolders.Contains(r.ID) {
			return nil, fmt.Errorf("resharing: new holder: %w", round.ErrSelfNotIncluded)
		}
		p.public = r.PublicKey
		p.oldPublic = r.OldPublic
		oldHolders = r.OldHolders
	default:
		return nil, fmt.Errorf("resharing: unknown role %T", role)
	}

	p.oldHolders = party.NewIDSlice(oldHolders)
	if len(p.oldHolders) != len(oldHolders) || !p.oldHolders.Valid() {
		return nil, fmt.Errorf("resharing: old holders: %w", round.ErrInvalidPartyIDs)
	}
	if p.share != nil {
		if !p.oldHolders.Contains(p.share.ID) {
			return nil, fmt.Errorf("resharing: old holder: %w", round.ErrSelfNotIncluded)
		}
		if len(p.oldHolders) < p.share.Threshold+1 {
			return nil, ErrNotEnoughHolders
		}
	}
	if p.oldPublic != nil {
		for _, j := range p.oldHolders {
			if p.oldPublic[j] == nil {
				return nil, fmt.Errorf("%w: %s", ErrUnknownHolder, j)
			}
		}
	}

	all := append(p.oldHolders.Copy(), p.newHolders...)
	p.all = party.NewIDSlice(all)
	return p, nil
}

// isOld and isNew report the roles of id.
func (p *params) isOld(id party.ID) bool { return p.oldHolders.Contains(id) }
func (p *params) isNew(id party.ID) bool { return p.newHolders.Contains(id) }
