package cipher

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPanic wraps a panic raised while transforming columns on a worker.
var ErrPanic = errors.New("transform panicked")

// ProgressFunc observes a transform. done counts finished columns out of total.
type ProgressFunc func(done, total int)

type options struct {
	workers  int
	progress ProgressFunc
}

type Option func(*options)

// WithWorkers splits the columns into n disjoint ranges transformed
// concurrently. n <= 0 uses GOMAXPROCS. The result does not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// WithProgress installs an observer called once per finished column.
// Calls never overlap, even with several workers.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// Apply transforms every pixel of g in place. The key may be any integer; it
// is reduced modulo 256 first. XOR ignores dir since it is its own inverse.
func Apply(g *Grid, key int, alg Algorithm, dir Direction, opts ...Option) error {
	t, err := Table(NormalizeKey(key), alg, dir)
	if err != nil {
		return err
	}
	if g == nil {
		return nil
	}

	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}

	report := func() {}
	if o.progress != nil {
		var mu sync.Mutex
		done := 0
		report = func() {
			mu.Lock()
			defer mu.Unlock()
			done++
			o.progress(done, g.Width)
		}
	}

	workers := min(o.workers, g.Width)
	if workers <= 1 {
		transformColumns(g, &t, 0, g.Width, report)
		return nil
	}

	// Same chunking as a ParallelFor over [0, Width): contiguous, disjoint.
	chunk := (g.Width + workers - 1) / workers
	var eg errgroup.Group
	eg.SetLimit(workers)
	for start := 0; start < g.Width; start += chunk {
		start := start
		end := min(start+chunk, g.Width)
		eg.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrPanic, r)
				}
			}()
			transformColumns(g, &t, start, end, report)
			return nil
		})
	}
	return eg.Wait()
}

// transformColumns walks columns [start, end) top to bottom.
func transformColumns(g *Grid, t *[256]uint8, start, end int, report func()) {
	for x := start; x < end; x++ {
		for i := x; i < len(g.Pix); i += g.Width {
			p := &g.Pix[i]
			p.R = t[p.R]
			p.G = t[p.G]
			p.B = t[p.B]
		}
		report()
	}
}

// Encrypt applies the forward transform.
func Encrypt(g *Grid, key int, alg Algorithm, opts ...Option) error {
	return Apply(g, key, alg, Forward, opts...)
}

// Decrypt undoes Encrypt given the same key and algorithm.
func Decrypt(g *Grid, key int, alg Algorithm, opts ...Option) error {
	return Apply(g, key, alg, Inverse, opts...)
}
