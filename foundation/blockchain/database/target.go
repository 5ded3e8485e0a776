package database

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

// MaxDifficulty is the number of hex digits in a SHA-256 hash. A difficulty
// this high can only be solved by a hash of all zeros.
const MaxDifficulty = 64

// Target represents the threshold a block hash must be under to be considered
// solved. Each unit of difficulty requires one more leading zero hex digit,
// which is a factor of 16 on the threshold.
type Target struct {
	difficulty uint
	value      *uint256.Int // Nil when every hash is accepted.
}

// NewTarget constructs the target for the specified difficulty.
func NewTarget(difficulty uint) (Target, error) {
	if difficulty > MaxDifficulty {
		return Target{}, fmt.Errorf("difficulty %d is out of range, max %d", difficulty, MaxDifficulty)
	}

	// 2^256 does not fit, so difficulty 0 is kept as a target without a
	// threshold value.
	if difficulty == 0 {
		return Target{}, nil
	}

	value := new(uint256.Int).Lsh(uint256.NewInt(1), 256-4*difficulty)

	return Target{difficulty: difficulty, value: value}, nil
}

// Difficulty returns the number of leading zero hex digits required.
func (t Target) Difficulty() uint {
	return t.difficulty
}

// IsSolved checks the hex encoded hash is strictly less than the target when
// treated as a 256 bit number.
func (t Target) IsSolved(hash string) bool {
	if len(hash) != 2*HashLength {
		return false
	}

	data, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}

	if t.value == nil {
		return true
	}

	return new(uint256.Int).SetBytes(data).Lt(t.value)
}

// String returns the target as a hex value.
func (t Target) String() string {
	if t.value == nil {
		return "unbounded"
	}

	return t.value.Hex()
}

// MarshalText implements the encoding.TextMarshaler interface so the target
// can be displayed by the API.
func (t Target) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
