package database

import (
	"errors"
	"fmt"
)

// ErrInvalidTx is returned when a transaction is missing one of the parties.
var ErrInvalidTx = errors.New("transaction invalid")

// =============================================================================

// Tx is the transactional information between two parties. Once constructed
// a transaction is never modified; it lives in the mempool until it is drained
// into a block.
type Tx struct {
	From   string `json:"from" validate:"required"` // Identifier of the account sending the amount.
	To     string `json:"to" validate:"required"`   // Identifier of the account receiving the amount.
	Amount uint64 `json:"amount"`                   // Value moved from one party to the other.
}

// NewTx constructs a new transaction.
func NewTx(from string, to string, amount uint64) (Tx, error) {
	tx := Tx{
		From:   from,
		To:     to,
		Amount: amount,
	}

	if err := tx.Validate(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// Validate performs the basic checks a transaction needs to pass before it can
// be placed in the mempool. Balances are not tracked by this ledger.
func (tx Tx) Validate() error {
	if tx.From == "" {
		return fmt.Errorf("%w: from account is missing", ErrInvalidTx)
	}

	if tx.To == "" {
		return fmt.Errorf("%w: to account is missing", ErrInvalidTx)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%d", tx.From, tx.To, tx.Amount)
}
