package ecdsa

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
)

var ErrInvalidSignature = errors.New("ecdsa: invalid signature")

// Signature is an ECDSA signature where the nonce point R is kept in full,
// so that the recovery bit can be derived from it.
type Signature struct {
	R *curve.Point
	S *curve.Scalar
}

// EmptySignature returns a new signature ready for unmarshalling.
func EmptySignature() Signature {
	return Signature{
		R: curve.NewIdentityPoint(),
		S: curve.NewScalar(),
	}
}

// Verify is a custom signature format using curve data.
func (sig Signature) Verify(X *curve.Point, hash []byte) bool {
	if sig.R == nil || sig.S == nil || X == nil || sig.S.IsZero() || sig.R.IsIdentity() {
		return false
	}
	r := sig.R.XScalar()
	if r == nil || r.IsZero() {
		return false
	}

	m := curve.FromHash(hash)
	sInv := sig.S.Clone().Invert()
	mG := m.ActOnBase()
	rX := r.Act(X)
	R2 := sInv.Act(mG.Add(rX))
	return R2.Equal(sig.R)
}

// Normalize ensures S ≤ n/2, negating both S and R otherwise.
// The signature stays valid, and every party holding the same signature ends up with the same bytes.
func (sig *Signature) Normalize() {
	if sig.S.IsOverHalfOrder() {
		sig.S.Negate()
		sig.R = sig.R.Negate()
	}
}

// Serialize returns the 64 byte encoding r || s.
func (sig Signature) Serialize() ([]byte, error) {
	r := sig.R.XScalar()
	if r == nil {
		return nil, ErrInvalidSignature
	}
	out := make([]byte, 0, 2*params.BytesScalar)
	out = append(out, r.Bytes()...)
	out = append(out, sig.S.Bytes()...)
	return out, nil
}

// SigEthereum returns the signature in the 65 byte r || s || v format used by Ethereum,
// where v ∈ {0, 1} is the parity of R's y coordinate.
//
// The signature must be normalized.
func (sig Signature) SigEthereum() ([]byte, error) {
	if sig.S.IsOverHalfOrder() {
		return nil, ErrInvalidSignature
	}
	out, err := sig.Serialize()
	if err != nil {
		return nil, err
	}
	var v byte
	if !sig.R.HasEvenY() {
		v = 1
	}
	return append(out, v), nil
}

// ToBtcec converts the signature to the btcec representation, which can be verified
// by any code using btcec, or DER encoded with Serialize.
func (sig Signature) ToBtcec() (*btcecdsa.Signature, error) {
	r := sig.R.XScalar()
	if r == nil {
		return nil, ErrInvalidSignature
	}
	var rBtc, sBtc btcec.ModNScalar
	rBtc.SetByteSlice(r.Bytes())
	sBtc.SetByteSlice(sig.S.Bytes())
	return btcecdsa.NewSignature(&rBtc, &sBtc), nil
}

// MarshalBinary implements encoding.BinaryMarshaler as R || S, 65 bytes.
func (sig Signature) MarshalBinary() ([]byte, error) {
	if sig.R == nil || sig.S == nil {
		return nil, ErrInvalidSignature
	}
	r, err := sig.R.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(r, sig.S.Bytes()...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (sig *Signature) UnmarshalBinary(data []byte) error {
	if len(data) != params.BytesPoint+params.BytesScalar {
		return ErrInvalidSignature
	}
	R, S := curve.NewIdentityPoint(), curve.NewScalar()
	if err := R.UnmarshalBinary(data[:params.BytesPoint]); err != nil {
		return err
	}
	if err := S.UnmarshalBinary(data[params.BytesPoint:]); err != nil {
		return err
	}
	sig.R, sig.S = R, S
	return nil
}
