package sample

import (
	"io"
	"math/big"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/cmp-ia/internal/params"
	"github.com/taurusgroup/cmp-ia/pkg/pool"
)

const (
	// windowSize is the number of offsets tested after a random starting point.
	windowSize = 1 << 18
	// smallPrimeBound bounds the primes used to strike offsets from a window.
	smallPrimeBound = 1 << 20
	// halfRounds of Miller-Rabin are run on (p-1)/2; p itself then needs a single one.
	halfRounds = 20
)

var (
	smallPrimesOnce sync.Once
	smallPrimes     []uint32

	windows = sync.Pool{New: func() interface{} {
		w := make([]bool, windowSize)
		return &w
	}}
)

// oddPrimesBelow runs the sieve of Eratosthenes up to bound, omitting 2.
func oddPrimesBelow(bound uint32) []uint32 {
	composite := make([]bool, bound)
	var out []uint32
	for p := uint32(3); p < bound; p += 2 {
		if composite[p] {
			continue
		}
		out = append(out, p)
		for m := uint64(p) * uint64(p); m < uint64(bound); m += 2 * uint64(p) {
			composite[m] = true
		}
	}
	return out
}

// window marks in w the offsets i for which base+i may be a safe prime p ≡ 3 mod 4.
// base must be ≡ 3 mod 4, so only offsets divisible by 4 remain.
func window(base *big.Int, w []bool) {
	for i := range w {
		w[i] = i%4 == 0
	}
	mod := new(big.Int)
	for _, prime := range smallPrimes {
		step := int(prime)
		r := int(mod.Mod(base, mod.SetUint64(uint64(prime))).Uint64())
		// base+i ≡ 0 makes p composite, base+i ≡ 1 makes (p-1)/2 composite.
		start := 0
		if r != 0 {
			start = step - r
		}
		for i := start; i < len(w); i += step {
			w[i] = false
			if i+1 < len(w) {
				w[i+1] = false
			}
		}
	}
}

// tryBlumPrime looks for a safe prime p ≡ 3 mod 4 of params.BitsBlumPrime bits in a random window.
// It returns nil when the window contains none.
func tryBlumPrime(rand io.Reader) *saferith.Nat {
	smallPrimesOnce.Do(func() { smallPrimes = oddPrimesBelow(smallPrimeBound) })

	buf := make([]byte, (params.BitsBlumPrime+7)/8)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil
	}
	// the two top bits make the product of two candidates exactly twice as long
	buf[0] |= 0xC0
	buf[len(buf)-1] |= 3
	base := new(big.Int).SetBytes(buf)

	wp := windows.Get().(*[]bool)
	defer windows.Put(wp)
	w := *wp
	window(base, w)

	p, half := new(big.Int), new(big.Int)
	for i, ok := range w {
		if !ok {
			continue
		}
		p.Add(base, big.NewInt(int64(i)))
		if p.BitLen() > params.BitsBlumPrime {
			return nil
		}
		if half.Rsh(p, 1); !half.ProbablyPrime(halfRounds) || !p.ProbablyPrime(0) {
			continue
		}
		return new(saferith.Nat).SetBig(p, params.BitsBlumPrime)
	}
	return nil
}

// BlumPrime returns a safe prime p of params.BitsBlumPrime bits, with p ≡ 3 mod 4.
func BlumPrime(rand io.Reader) *saferith.Nat {
	p := tryBlumPrime(rand)
	for p == nil {
		p = tryBlumPrime(rand)
	}
	return p
}

// Paillier returns two distinct safe Blum primes, searched for in parallel on pl.
func Paillier(rand io.Reader, pl *pool.Pool) (p, q *saferith.Nat) {
	shared := &lockedReader{r: rand}
	search := func() interface{} {
		if candidate := tryBlumPrime(shared); candidate != nil {
			return candidate
		}
		return nil
	}
	for {
		found := pl.Search(2, search)
		p, q = found[0].(*saferith.Nat), found[1].(*saferith.Nat)
		if p.Eq(q) != 1 {
			return p, q
		}
	}
}

// lockedReader lets several workers share one randomness source.
type lockedReader struct {
	mtx sync.Mutex
	r   io.Reader
}

func (l *lockedReader) Read(b []byte) (int, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.r.Read(b)
}
