package sweep

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// memoAck is the three-argument, mod-32768 Ackermann-like recurrence the
// guest program's verification routine implements in hardware. Each
// top-level search candidate gets a fresh, per-call memo table rather than
// one shared across candidates.
func memoAck(memo map[[3]uint16]uint16, a, b, c uint16) uint16 {
	if a == 0 {
		return (b + 1) % 32768
	}
	if b == 0 {
		return memoAck(memo, a-1, c, c)
	}

	key := [3]uint16{a, b, c}
	if v, ok := memo[key]; ok {
		return v
	}
	inner := memoAck(memo, a, b-1, c)
	result := memoAck(memo, a-1, inner, c)
	memo[key] = result
	return result
}

// AckermannSearch is a diagnostic entry point separate from the teleporter
// sweep: it fans a worker pool out over the same 32767 candidates against
// the pure function memoAck(4, 1, c), reporting every c for which the
// result equals 6. The real puzzle has exactly one solution; this returns
// all matches so the caller can verify uniqueness.
func AckermannSearch(ctx context.Context) ([]uint16, error) {
	const limit = 32767
	var mu sync.Mutex
	var found []uint16

	g, ctx := errgroup.WithContext(ctx)
	for c := uint16(1); c <= limit; c++ {
		candidate := c
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			memo := make(map[[3]uint16]uint16)
			if memoAck(memo, 4, 1, candidate) == 6 {
				mu.Lock()
				found = append(found, candidate)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(found, func(i, j int) bool { return found[i] < found[j] })
	return found, nil
}
