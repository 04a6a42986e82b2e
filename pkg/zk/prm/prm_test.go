package zkprm

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/cmp-ia/internal/hash"
	"github.com/taurusgroup/cmp-ia/internal/test"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

func TestPrm(t *testing.T) {
	pl := pool.NewPool(0)

	sk := test.PaillierSecretKey(0)
	ped, lambda := sk.GeneratePedersen()

	public := Public{Aux: ped}
	proof := NewProof(hash.New(), Private{
		Lambda: lambda,
		Phi:    sk.Phi(),
		P:      sk.P(),
		Q:      sk.Q(),
	}, public, pl)
	assert.True(t, proof.Verify(hash.New(), public, pl))

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(hash.New(), public, pl))

	other, _ := test.PaillierSecretKey(1).GeneratePedersen()
	assert.False(t, proof.Verify(hash.New(), Public{Aux: other}, pl), "proof verified for other parameters")
}

func TestPrmWrongLambda(t *testing.T) {
	sk := test.PaillierSecretKey(2)
	ped, lambda := sk.GeneratePedersen()
	wrong := new(saferith.Nat).Add(lambda, new(saferith.Nat).SetUint64(1), -1)

	public := Public{Aux: ped}
	proof := NewProof(hash.New(), Private{
		Lambda: wrong,
		Phi:    sk.Phi(),
		P:      sk.P(),
		Q:      sk.Q(),
	}, public, nil)
	assert.False(t, proof.Verify(hash.New(), public, nil))
}

var benchProof *Proof

func BenchmarkPrm(b *testing.B) {
	b.StopTimer()
	sk := test.PaillierSecretKey(0)
	ped, lambda := sk.GeneratePedersen()
	public := Public{Aux: ped}
	private := Private{
		Lambda: lambda,
		Phi:    sk.Phi(),
		P:      sk.P(),
		Q:      sk.Q(),
	}
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		benchProof = NewProof(hash.New(), private, public, nil)
	}
}
