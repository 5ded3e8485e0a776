package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Status represents a summary of the node's chain, mempool, and miner.
type Status struct {
	LatestBlockHash  string          `json:"latest_block_hash"`
	LatestBlockIndex uint64          `json:"latest_block_index"`
	Length           uint64          `json:"length"`
	MaxBlocks        uint64          `json:"max_blocks"`
	Difficulty       uint            `json:"difficulty"`
	Target           database.Target `json:"target"`
	Uncommitted      int             `json:"uncommitted"`
	Mining           MiningStats     `json:"mining"`
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the mempool in the order the
// transactions will be mined.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.PeekAll()
}

// RetrieveBlocks returns a copy of the full chain.
func (s *State) RetrieveBlocks() []database.Block {
	return s.db.Copy()
}

// RetrieveMiningStats returns the outcome counters of the miner.
func (s *State) RetrieveMiningStats() MiningStats {
	return s.stats.snapshot()
}

// RetrieveStatus returns the current status of the node.
func (s *State) RetrieveStatus() Status {
	latest := s.db.LatestBlock()
	target := s.db.Target()

	return Status{
		LatestBlockHash:  latest.Hash,
		LatestBlockIndex: latest.Header.Index,
		Length:           s.db.Length(),
		MaxBlocks:        s.db.MaxBlocks(),
		Difficulty:       target.Difficulty(),
		Target:           target,
		Uncommitted:      s.mempool.Count(),
		Mining:           s.stats.snapshot(),
	}
}
