package pool

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of goroutines used to parallelize expensive operations,
// such as prime sampling or the repetitions of a zero-knowledge proof.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current goroutine instead.
type Pool struct {
	workers int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	if count <= 0 {
		count = runtime.NumCPU()
	}
	return &Pool{workers: count}
}

// Workers returns the maximum number of goroutines used by the pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Search queries the function f, until count successes are found.
//
// f is supposed to try a single candidate, returning nil if that candidate isn't
// successful.
//
// The result will be a slice containing the first count successes.
func (p *Pool) Search(count int, f func() interface{}) []interface{} {
	if p == nil {
		results := make([]interface{}, 0, count)
		for len(results) < count {
			if res := f(); res != nil {
				results = append(results, res)
			}
		}
		return results
	}

	var (
		mtx     sync.Mutex
		done    int32
		results = make([]interface{}, 0, count)
		g       errgroup.Group
	)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for atomic.LoadInt32(&done) == 0 {
				res := f()
				if res == nil {
					continue
				}
				mtx.Lock()
				if len(results) < count {
					results = append(results, res)
				}
				if len(results) == count {
					atomic.StoreInt32(&done, 1)
				}
				mtx.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	results := make([]interface{}, count)
	if p == nil {
		for i := range results {
			results[i] = f(i)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			results[i] = f(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
