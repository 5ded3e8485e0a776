package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// miningOperations runs mining cycles back to back until shutdown or until
// the chain reaches its block limit.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		if w.isShutdown() {
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}

		// Once the chain is full the miner stays idle. Reads continue to
		// be served by the state.
		if w.state.IsChainFull() {
			w.evHandler("worker: miningOperations: MINING: IDLE: block limit reached: blocks[%d]", w.state.QueryChainLength())
			<-w.shut
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}

		w.runMiningOperation()
	}
}

// runMiningOperation takes all the transactions from the mempool and writes a
// new block to the database.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Drain the cancel mining channel before starting. The next cycle is
	// going to read the latest block anyway.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-w.shut:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: shutdown")
		case <-ctx.Done():
		}
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		w.mine(ctx)
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}

// mine performs a single mining cycle: collecting, searching, and handing
// the sealed block over to be committed.
func (w *Worker) mine(ctx context.Context) {

	// COLLECTING: if there is nothing to mine, wait for transactions for a
	// limited time and then mine whatever is there, even an empty block.
	trans := w.state.DrainMempool()
	if len(trans) == 0 {
		w.evHandler("worker: runMiningOperation: MINING: COLLECTING: waiting for transactions")

		w.state.WaitForTransactions(ctx)
		if ctx.Err() != nil {
			return
		}

		trans = w.state.DrainMempool()
	}

	// SEARCHING: this can take a while and is cancelled through the context.
	t := time.Now()
	block, err := w.state.MineNewBlock(ctx, trans)
	duration := time.Since(t)

	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, database.ErrMiningExhausted):
			w.evHandler("worker: runMiningOperation: MINING: EXHAUSTED: txs requeued[%d]", len(trans))
		case ctx.Err() != nil:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
		default:
			w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
		}
		return
	}

	// SUCCESS: WOW, we mined a block. Hand it over to be added to the chain.
	if err := w.commit(block); err != nil {
		switch {
		case errors.Is(err, errShutdown):
			w.state.RequeueTransactions(block.Trans)
			w.evHandler("worker: runMiningOperation: MINING: block dropped on shutdown: blk[%d]", block.Header.Index)
		case errors.Is(err, database.ErrChainLimitReached):
			w.evHandler("worker: runMiningOperation: MINING: block limit reached: blk[%d]", block.Header.Index)
		default:
			w.evHandler("worker: runMiningOperation: MINING: REJECTED: blk[%d]: %s", block.Header.Index, err)
		}
		return
	}

	w.evHandler("worker: runMiningOperation: MINING: SUCCESS: blk[%d]: hash[%s]", block.Header.Index, block.Hash)
}
