package database

import (
	"errors"
	"fmt"
)

// Set of errors returned by the database and mining operations.
var (
	ErrInvalidIndex      = errors.New("block index is out of range")
	ErrMiningExhausted   = errors.New("nonce ceiling reached without solving the block")
	ErrAppendRejected    = errors.New("block rejected")
	ErrChainLimitReached = errors.New("chain has reached its block limit")
)

// Set of validation checks a block can fail when being appended.
const (
	CheckIndex    = "index"
	CheckPrevHash = "prev_hash"
	CheckHash     = "hash"
	CheckTarget   = "target"
)

// AppendError identifies which validation check a block failed when an
// append to the chain was attempted.
type AppendError struct {
	Check string
	Err   error
}

// Error implements the error interface.
func (ae *AppendError) Error() string {
	return fmt.Sprintf("%s: check %s: %s", ErrAppendRejected, ae.Check, ae.Err)
}

// Unwrap provides access to the underlying error.
func (ae *AppendError) Unwrap() error {
	return ae.Err
}

// Is allows errors.Is to match any append error against ErrAppendRejected.
func (ae *AppendError) Is(target error) bool {
	return target == ErrAppendRejected
}

// FailedCheck returns the name of the check that rejected the block or an
// empty string if the error did not come from block validation.
func FailedCheck(err error) string {
	var ae *AppendError
	if !errors.As(err, &ae) {
		return ""
	}
	return ae.Check
}
