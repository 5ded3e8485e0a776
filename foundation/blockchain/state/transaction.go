package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction into the mempool and returns the
// number of transactions waiting to be mined.
func (s *State) SubmitTransaction(tx database.Tx) (int, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	n := s.mempool.Submit(tx)
	s.evHandler("viewer: tx: submitted: tx[%s]: pool[%d]", tx, n)

	return n, nil
}
