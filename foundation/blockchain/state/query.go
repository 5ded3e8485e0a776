package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// QueryBlock returns the block at the specified index. The error wraps
// database.ErrInvalidIndex when the index is outside of the chain.
func (s *State) QueryBlock(index uint64) (database.Block, error) {
	return s.db.GetBlock(index)
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() uint64 {
	return s.db.Length()
}

// IsChainFull reports whether the chain has reached its block limit and
// no more blocks can be mined.
func (s *State) IsChainFull() bool {
	return s.db.IsFull()
}
