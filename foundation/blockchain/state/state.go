// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis    genesis.Genesis
	Difficulty uint
	MaxBlocks  uint64
	MaxNonce   uint64
	TxWaiting  time.Duration
	Storage    database.Serializer
	EvHandler  EventHandler
}

// State manages the blockchain database and the mempool.
type State struct {
	maxNonce  uint64
	txWaiting time.Duration
	evHandler EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database
	stats   stats

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.MaxNonce == 0 {
		return nil, errors.New("max nonce must be greater than zero")
	}

	// Access the storage for the blockchain and write the genesis block.
	db, err := database.New(database.Config{
		Genesis:    cfg.Genesis,
		Difficulty: cfg.Difficulty,
		MaxBlocks:  cfg.MaxBlocks,
		Serializer: cfg.Storage,
		EvHandler:  ev,
	})
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		maxNonce:  cfg.MaxNonce,
		txWaiting: cfg.TxWaiting,
		evHandler: ev,

		genesis: cfg.Genesis,
		mempool: mempool.New(),
		db:      db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
