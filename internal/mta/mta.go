// Package mta converts the product of two secrets into additive shares, using the
// receiver's Paillier key. The sender proves its affine operation with zkaffg.
package mta

import (
	"crypto/rand"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/pkg/math/curve"
	"github.com/taurusgroup/cmp-ia/pkg/math/sample"
	"github.com/taurusgroup/cmp-ia/pkg/paillier"
	"github.com/taurusgroup/cmp-ia/pkg/pedersen"
	zkaffg "github.com/taurusgroup/cmp-ia/pkg/zk/affg"
)

// Message is sent by i to j, who holds Bⱼ = encⱼ(bⱼ):
//
//	D = (aᵢ ⊙ Bⱼ) ⊕ encⱼ(-β)
//	F = encᵢ(-β)
//
// j decrypts α = aᵢ⋅bⱼ - β from D.
type Message struct {
	D, F  *paillier.Ciphertext
	Proof *zkaffg.Proof
}

// Keys are the Paillier keys of both ends, and the ring-Pedersen parameters of the receiver.
type Keys struct {
	Sender, Receiver *paillier.PublicKey
	Aux              *pedersen.Parameters
}

func (k Keys) public(m *Message, A *curve.Point, B *paillier.Ciphertext) zkaffg.Public {
	return zkaffg.Public{
		Kv:       B,
		Dv:       m.D,
		Fp:       m.F,
		Xp:       A,
		Prover:   k.Sender,
		Verifier: k.Receiver,
		Aux:      k.Aux,
	}
}

// Send returns the message for the receiver of B, and the sender's additive share β.
// A = [a]G must be public, and h must be bound to the sender.
func Send(h *hash.Hash, sk *paillier.SecretKey, k Keys, a *saferith.Int, A *curve.Point, B *paillier.Ciphertext) (*Message, *saferith.Int) {
	betaNeg := sample.IntervalLPrime(rand.Reader)

	m := &Message{}
	var s, r *saferith.Nat
	m.F, r = sk.Enc(betaNeg)
	m.D, s = k.Receiver.Enc(betaNeg)
	m.D.Add(k.Receiver, B.Clone().Mul(k.Receiver, a))

	m.Proof = zkaffg.NewProof(h, k.public(m, A, B), zkaffg.Private{X: a, Y: betaNeg, S: s, R: r})
	return m, new(saferith.Int).SetInt(betaNeg).Neg(1)
}

// Verify checks m from the receiver's side. h must be bound to the sender.
func (m *Message) Verify(h *hash.Hash, k Keys, A *curve.Point, B *paillier.Ciphertext) bool {
	if m == nil || m.D == nil || m.F == nil || m.Proof == nil {
		return false
	}
	return m.Proof.Verify(h, k.public(m, A, B))
}
