// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Transfer represents a transaction recorded in the genesis block.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// Genesis represents the genesis file.
type Genesis struct {
	Date      time.Time  `json:"date"`      // Timestamp recorded in the genesis block.
	Transfers []Transfer `json:"transfers"` // Transactions recorded in the genesis block.
}

// Default returns the genesis used when no genesis file exists. It has a zero
// timestamp and no transactions so every node starts with the same chain.
func Default() Genesis {
	return Genesis{}
}

// TimeStamp returns the genesis date in unix milliseconds, zero if the date
// is not set.
func (g Genesis) TimeStamp() uint64 {
	if g.Date.IsZero() {
		return 0
	}
	return uint64(g.Date.UTC().UnixMilli())
}

// =============================================================================

// Load opens and consumes the genesis file. If the file doesn't exist the
// default genesis is returned.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis file %q: %w", path, err)
	}

	return genesis, nil
}
