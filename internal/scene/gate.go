package scene

import (
	"context"
	"sync/atomic"
)

// gate is the per-unit completion signal between the frame server and the
// driver. A release leaves the token set until the driver consumes it, and
// each unit index can be released at most once.
type gate struct {
	token    chan struct{}
	released atomic.Int64
}

func newGate() *gate {
	g := &gate{token: make(chan struct{}, 1)}
	g.released.Store(-1)
	return g
}

// release signals completion of unit index. It reports false when index (or
// a later unit) was already released.
func (g *gate) release(index int) bool {
	for {
		cur := g.released.Load()
		if cur >= int64(index) {
			return false
		}
		if g.released.CompareAndSwap(cur, int64(index)) {
			select {
			case g.token <- struct{}{}:
			default:
			}
			return true
		}
	}
}

// await blocks until the current unit is released or ctx is done.
func (g *gate) await(ctx context.Context) error {
	select {
	case <-g.token:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// skip marks index released without leaving a token for the driver.
func (g *gate) skip(index int) {
	for {
		cur := g.released.Load()
		if cur >= int64(index) || g.released.CompareAndSwap(cur, int64(index)) {
			return
		}
	}
}

func (g *gate) lastReleased() int {
	return int(g.released.Load())
}
