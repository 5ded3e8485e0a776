// Package worker implements the mining workflow for the blockchain.
package worker

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// errShutdown is returned when a mined block can't be handed over because
// the worker is shutting down.
var errShutdown = errors.New("worker is shutting down")

// proposal carries a block from the mining G to the commit G along with the
// channel used to return the verdict.
type proposal struct {
	block  database.Block
	result chan error
}

// =============================================================================

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	shut         chan struct{}
	cancelMining chan bool
	proposals    chan proposal
	evHandler    state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:        st,
		shut:         make(chan struct{}),
		cancelMining: make(chan bool, 1),
		proposals:    make(chan proposal),
		evHandler:    ev,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
		w.commitOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. Transactions that are
// in flight are returned to the mempool before Shutdown returns.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately. The mining loop starts a new cycle on top of the
// latest block afterwards.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// commitOperations is the single G that hands mined blocks to the state
// to be appended to the chain.
func (w *Worker) commitOperations() {
	w.evHandler("worker: commitOperations: G started")
	defer w.evHandler("worker: commitOperations: G completed")

	for {
		select {
		case p := <-w.proposals:
			p.result <- w.state.AppendMinedBlock(p.block)
		case <-w.shut:
			w.evHandler("worker: commitOperations: received shut signal")
			return
		}
	}
}

// commit hands the block over to the commit G and waits for the verdict.
// Once the commit G has taken the block the verdict always comes back, so
// the caller knows for sure whether the block is in the chain.
func (w *Worker) commit(block database.Block) error {
	p := proposal{
		block:  block,
		result: make(chan error, 1),
	}

	select {
	case w.proposals <- p:
	case <-w.shut:
		return errShutdown
	}

	return <-p.result
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
