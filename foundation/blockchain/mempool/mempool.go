// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Mempool represents a first in, first out queue of transactions waiting to
// be included in a block.
type Mempool struct {
	mu     sync.Mutex
	pool   []database.Tx
	signal chan struct{}
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		signal: make(chan struct{}, 1),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool)
}

// Submit adds a transaction to the back of the pool and returns the new
// size of the pool.
func (mp *Mempool) Submit(tx database.Tx) int {
	mp.mu.Lock()
	mp.pool = append(mp.pool, tx)
	n := len(mp.pool)
	mp.mu.Unlock()

	mp.notify()

	return n
}

// DrainAll removes and returns every transaction in the pool. A transaction
// submitted concurrently is either part of the returned batch or stays in
// the pool for the next one.
func (mp *Mempool) DrainAll() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	trans := mp.pool
	mp.pool = nil

	return trans
}

// PeekAll returns a copy of the transactions in the pool in the order they
// will be drained.
func (mp *Mempool) PeekAll() []database.Tx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return append([]database.Tx{}, mp.pool...)
}

// Requeue places a batch of drained transactions back at the front of the
// pool, ahead of anything submitted since the drain, keeping their order.
func (mp *Mempool) Requeue(trans []database.Tx) {
	if len(trans) == 0 {
		return
	}

	mp.mu.Lock()
	pool := make([]database.Tx, 0, len(trans)+len(mp.pool))
	pool = append(pool, trans...)
	mp.pool = append(pool, mp.pool...)
	mp.mu.Unlock()

	mp.notify()
}

// Wait blocks until there is at least one transaction in the pool, the
// duration passes, or the context is cancelled. It reports whether the pool
// has transactions. Wait is meant to be used by a single goroutine.
func (mp *Mempool) Wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		if mp.Count() > 0 {
			return true
		}

		select {
		case <-mp.signal:
		case <-timer.C:
			return mp.Count() > 0
		case <-ctx.Done():
			return mp.Count() > 0
		}
	}
}

// =============================================================================

// notify wakes up a goroutine blocked in Wait. Notifications are never
// queued beyond one since Wait rechecks the pool.
func (mp *Mempool) notify() {
	select {
	case mp.signal <- struct{}{}:
	default:
	}
}
