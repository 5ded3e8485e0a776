package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// DrainMempool removes every transaction from the mempool so they can be
// mined into the next block. The caller owns the transactions until they are
// part of an accepted block or given back with RequeueTransactions.
func (s *State) DrainMempool() []database.Tx {
	return s.mempool.DrainAll()
}

// RequeueTransactions places transactions that failed to be mined back at the
// front of the mempool.
func (s *State) RequeueTransactions(trans []database.Tx) {
	if len(trans) == 0 {
		return
	}

	s.evHandler("state: RequeueTransactions: txs[%d]", len(trans))
	s.mempool.Requeue(trans)
}

// WaitForTransactions blocks up to the configured waiting time for
// transactions to show up in the mempool.
func (s *State) WaitForTransactions(ctx context.Context) bool {
	return s.mempool.Wait(ctx, s.txWaiting)
}

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain. If mining fails the transactions are requeued.
func (s *State) MineNewBlock(ctx context.Context, trans []database.Tx) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be
	// cancelled. No locks are held while the search runs.
	block, err := database.POW(ctx, s.db.Target(), s.maxNonce, s.db.LatestBlock(), trans, s.evHandler)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrMiningExhausted):
			s.stats.exhausted.Add(1)
		case ctx.Err() != nil:
			s.stats.cancelled.Add(1)
		}

		s.RequeueTransactions(trans)
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		s.stats.cancelled.Add(1)
		s.RequeueTransactions(trans)
		return database.Block{}, ctx.Err()
	}

	return block, nil
}

// AppendMinedBlock takes a block mined by this node and adds it to the chain.
// If the chain refuses the block, its transactions go back to the mempool.
func (s *State) AppendMinedBlock(block database.Block) error {
	s.evHandler("state: AppendMinedBlock: started: blk[%d]: hash[%s]", block.Header.Index, block.Hash)
	defer s.evHandler("state: AppendMinedBlock: completed: blk[%d]", block.Header.Index)

	if err := s.db.Append(block); err != nil {
		switch {
		case errors.Is(err, database.ErrChainLimitReached):
			s.evHandler("state: AppendMinedBlock: FULL: blk[%d]: %s", block.Header.Index, err)
		default:
			s.stats.rejected.Add(1)
			s.evHandler("state: AppendMinedBlock: REJECTED: blk[%d]: %s", block.Header.Index, err)
		}

		s.RequeueTransactions(block.Trans)
		return err
	}

	s.stats.mined.Add(1)
	s.evHandler("viewer: block: blk[%d]: hash[%s]: txs[%d]", block.Header.Index, block.Hash, len(block.Trans))

	return nil
}

// ProposeBlock takes a block produced outside of this node's miner, validates
// it and if that passes, adds the block to the chain. The hash is recomputed
// from the fields of the block, so only the linkage and the target decide
// if the block is accepted.
func (s *State) ProposeBlock(block database.Block) error {
	s.evHandler("state: ProposeBlock: started: blk[%d]", block.Header.Index)
	defer s.evHandler("state: ProposeBlock: completed")

	hash, err := block.CalculateHash()
	if err != nil {
		return err
	}
	block.Hash = hash

	if err := s.db.Append(block); err != nil {
		s.evHandler("state: ProposeBlock: REJECTED: blk[%d]: %s", block.Header.Index, err)
		return err
	}

	s.stats.proposed.Add(1)
	s.evHandler("viewer: block: blk[%d]: hash[%s]: txs[%d]: proposed", block.Header.Index, block.Hash, len(block.Trans))

	// The block being mined right now is stale, so the search needs to
	// start over on top of the new block.
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}

	return nil
}
