// Package database handles all the lower level support for maintaining the
// blockchain: blocks, transactions, hashing, proof of work, and the
// append-only chain of validated blocks.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(block Block) error
	GetBlock(index uint64) (Block, error)
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// =============================================================================

// Config represents the chain parameters the database is constructed with.
type Config struct {
	Genesis    genesis.Genesis
	Difficulty uint
	MaxBlocks  uint64 // Zero means the chain can grow without limit.
	Serializer Serializer
	EvHandler  func(v string, args ...any)
}

// Database is the authoritative, append-only sequence of blocks. It is the
// only value allowed to add blocks to the chain and it validates every block
// before it is accepted.
type Database struct {
	mu sync.RWMutex

	target      Target
	maxBlocks   uint64
	latestBlock Block
	length      uint64

	serializer Serializer
	evHandler  func(v string, args ...any)
}

// New constructs a new database. If the serializer is empty the genesis block
// is written, otherwise the existing blocks are validated and loaded.
func New(cfg Config) (*Database, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Serializer == nil {
		return nil, errors.New("serializer is required")
	}

	target, err := NewTarget(cfg.Difficulty)
	if err != nil {
		return nil, err
	}

	db := Database{
		target:     target,
		maxBlocks:  cfg.MaxBlocks,
		serializer: cfg.Serializer,
		evHandler:  ev,
	}

	// Read all the blocks from the serializer and validate the chain.
	iter := db.serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		switch db.length {
		case 0:
			hash, err := block.CalculateHash()
			if err != nil {
				return nil, fmt.Errorf("stored genesis block: %w", err)
			}

			if block.Header.Index != 0 || block.Header.PrevHash != ZeroHash || block.Hash != hash {
				return nil, errors.New("stored genesis block is not valid")
			}

		default:
			if err := block.ValidateBlock(db.latestBlock, db.target, ev); err != nil {
				return nil, fmt.Errorf("stored block %d: %w", block.Header.Index, err)
			}
		}

		db.latestBlock = block
		db.length++
	}

	if db.length > 0 {
		return &db, nil
	}

	// The chain is empty, so the genesis block needs to be written.
	gb, err := GenesisBlock(cfg.Genesis)
	if err != nil {
		return nil, err
	}

	if err := db.serializer.Write(gb); err != nil {
		return nil, fmt.Errorf("writing genesis block: %w", err)
	}
	db.latestBlock = gb
	db.length = 1

	ev("database: New: genesis: blk[%s]", gb.Hash)

	return &db, nil
}

// GenesisBlock constructs the first block of the chain. The genesis block is
// not mined; its hash is computed from its fields and it is exempt from the
// target check.
func GenesisBlock(gen genesis.Genesis) (Block, error) {
	trans := make([]Tx, len(gen.Transfers))
	for i, tr := range gen.Transfers {
		trans[i] = Tx{From: tr.From, To: tr.To, Amount: tr.Amount}
	}

	block := Block{
		Header: BlockHeader{
			Index:     0,
			TimeStamp: gen.TimeStamp(),
			Nonce:     0,
			PrevHash:  ZeroHash,
		},
		Trans: trans,
	}
	hash, err := block.CalculateHash()
	if err != nil {
		return Block{}, fmt.Errorf("genesis block: %w", err)
	}
	block.Hash = hash

	return block, nil
}

// Close closes the blocks database.
func (db *Database) Close() {
	db.serializer.Close()
}

// Append validates the block against the latest block and, if every check
// passes, adds it to the end of the chain. Nothing is changed if a check fails.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.maxBlocks > 0 && db.length >= db.maxBlocks {
		return ErrChainLimitReached
	}

	if err := block.ValidateBlock(db.latestBlock, db.target, db.evHandler); err != nil {
		return err
	}

	// The chain owns its own copy of the transactions.
	block.Trans = append([]Tx{}, block.Trans...)

	if err := db.serializer.Write(block); err != nil {
		return err
	}

	db.latestBlock = block
	db.length++

	return nil
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Length returns the number of blocks in the chain, including genesis.
func (db *Database) Length() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.length
}

// Target returns the threshold new blocks must satisfy.
func (db *Database) Target() Target {
	return db.target
}

// MaxBlocks returns the configured block limit, zero if unlimited.
func (db *Database) MaxBlocks() uint64 {
	return db.maxBlocks
}

// IsFull reports whether the chain has reached its block limit.
func (db *Database) IsFull() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.maxBlocks > 0 && db.length >= db.maxBlocks
}

// GetBlock locates and returns the specified block by index.
func (db *Database) GetBlock(index uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if index >= db.length {
		return Block{}, fmt.Errorf("block %d of %d: %w", index, db.length, ErrInvalidIndex)
	}

	return db.serializer.GetBlock(index)
}

// Copy returns a snapshot of the full chain starting with the genesis block.
func (db *Database) Copy() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, 0, db.length)

	iter := db.serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			break
		}
		blocks = append(blocks, block)
	}

	return blocks
}
