// Package barrier implements a reusable rendezvous point for a fixed set of workers.
package barrier

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBroken is wrapped by every error returned from a broken barrier.
var ErrBroken = errors.New("barrier broken")

// Barrier blocks each caller of Await until all parties have arrived, then releases
// them together and resets for the next round.
type Barrier struct {
	parties int

	mu      sync.Mutex
	waiting int
	release chan struct{}
	err     error
	broken  chan struct{}
}

// New builds a barrier for the given number of parties.
func New(parties int) *Barrier {
	if parties < 1 {
		parties = 1
	}
	return &Barrier{
		parties: parties,
		release: make(chan struct{}),
		broken:  make(chan struct{}),
	}
}

// Parties returns the number of workers the barrier waits for.
func (b *Barrier) Parties() int {
	return b.parties
}

// Await blocks until every party has called Await for the current round, the barrier
// is broken, or ctx is done. Cancelling ctx breaks the barrier for all parties.
func (b *Barrier) Await(ctx context.Context) error {
	b.mu.Lock()
	if b.err != nil {
		err := b.err
		b.mu.Unlock()
		return err
	}

	b.waiting++
	if b.waiting == b.parties {
		close(b.release)
		b.release = make(chan struct{})
		b.waiting = 0
		b.mu.Unlock()
		return nil
	}
	release := b.release
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-b.broken:
		return b.Err()
	case <-ctx.Done():
		b.Break(ctx.Err())
		return b.Err()
	}
}

// Break marks the barrier broken with cause. Only the first cause is kept.
func (b *Barrier) Break(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return
	}
	if cause == nil {
		cause = errors.New("no cause")
	}
	b.err = fmt.Errorf("%w: %w", ErrBroken, cause)
	close(b.broken)
}

// Err returns the break cause, or nil while the barrier is intact.
func (b *Barrier) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}
