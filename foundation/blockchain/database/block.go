package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// HashLength is the number of bytes produced by the block hash function.
const HashLength = sha256.Size

// ZeroHash is the previous hash sentinel carried by the genesis block.
var ZeroHash = strings.Repeat("0", 2*HashLength)

// checkInterval is how many nonce attempts are made between checks
// for a cancelled mining operation.
const checkInterval = 1024

// =============================================================================

// BlockHeader represents the fields of a block that are covered by the hash
// along with the transactions.
type BlockHeader struct {
	Index     uint64 `json:"index"`     // Position of the block in the chain, genesis is 0.
	TimeStamp uint64 `json:"timestamp"` // Time the block was assembled in unix milliseconds.
	Nonce     uint64 `json:"nonce"`     // Value identified to solve the hash solution.
	PrevHash  string `json:"prev_hash"` // Hash of the previous block in the chain.
}

// Block represents a group of transactions batched together. Once a block is
// sealed it is treated as immutable.
type Block struct {
	Header BlockHeader `json:"header"`
	Hash   string      `json:"hash"`
	Trans  []Tx        `json:"transactions"`
}

// NewBlock constructs the skeleton of the block that follows the specified
// block. The nonce and hash are filled in by mining.
func NewBlock(prevBlock Block, trans []Tx, timeStamp uint64) Block {
	return Block{
		Header: BlockHeader{
			Index:     prevBlock.Header.Index + 1,
			TimeStamp: timeStamp,
			PrevHash:  prevBlock.Hash,
		},
		Trans: append([]Tx{}, trans...),
	}
}

// Seal stamps the block with the specified nonce and the hash it produces.
func (b *Block) Seal(nonce uint64) error {
	b.Header.Nonce = nonce

	hash, err := b.CalculateHash()
	if err != nil {
		return err
	}
	b.Hash = hash

	return nil
}

// CalculateHash recomputes the hash from the fields of the block, ignoring
// the stored hash value.
func (b Block) CalculateHash() (string, error) {
	return ComputeHash(b.Header, b.Trans)
}

// ValidateBlock takes a block and validates it can follow the previous
// block in the chain under the specified target.
func (b Block) ValidateBlock(previousBlock Block, target Target, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Header.Index)

	nextIndex := previousBlock.Header.Index + 1
	if b.Header.Index != nextIndex {
		return &AppendError{Check: CheckIndex, Err: fmt.Errorf("this block is not the next index, got %d, exp %d", b.Header.Index, nextIndex)}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: prev hash does match previous block", b.Header.Index)

	if b.Header.PrevHash != previousBlock.Hash {
		return &AppendError{Check: CheckPrevHash, Err: fmt.Errorf("prev block hash doesn't match our known block, got %s, exp %s", b.Header.PrevHash, previousBlock.Hash)}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches its fields", b.Header.Index)

	hash, err := b.CalculateHash()
	if err != nil {
		return fmt.Errorf("hashing block: %w", err)
	}

	if b.Hash != hash {
		return &AppendError{Check: CheckHash, Err: fmt.Errorf("stored hash doesn't match the block, got %s, exp %s", b.Hash, hash)}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Header.Index)

	if !target.IsSolved(hash) {
		return &AppendError{Check: CheckTarget, Err: fmt.Errorf("%s invalid block hash for difficulty %d", hash, target.Difficulty())}
	}

	return nil
}

// =============================================================================

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle within the nonce ceiling.
func POW(ctx context.Context, target Target, maxNonce uint64, prevBlock Block, trans []Tx, evHandler func(v string, args ...any)) (Block, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	nb := NewBlock(prevBlock, trans, uint64(time.Now().UTC().UnixMilli()))

	if err := nb.performPOW(ctx, target, maxNonce, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, target Target, maxNonce uint64, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]: txs[%d]", b.Header.Index, len(b.Trans))
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Header.Index)

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Trans {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	// The transactions don't change between attempts.
	trans, err := encodeTrans(b.Trans)
	if err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}

	return b.searchNonce(ctx, target, maxNonce, trans, ev)
}

// searchNonce walks the nonce space with the transactions already encoded
// and seals the block with the first hash that solves the target.
func (b *Block) searchNonce(ctx context.Context, target Target, maxNonce uint64, trans json.RawMessage, ev func(v string, args ...any)) error {
	header := b.Header
	for nonce := uint64(0); nonce < maxNonce; nonce++ {
		if nonce%checkInterval == 0 && ctx.Err() != nil {
			ev("database: PerformPOW: MINING: CANCELLED: attempts[%d]", nonce)
			return ctx.Err()
		}

		header.Nonce = nonce
		hash, err := hashBlock(header, trans)
		if err != nil {
			return err
		}

		if !target.IsSolved(hash) {
			continue
		}

		b.Header = header
		b.Hash = hash

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.Header.PrevHash, hash, nonce+1)
		return nil
	}

	ev("database: PerformPOW: MINING: EXHAUSTED: attempts[%d]", maxNonce)
	return ErrMiningExhausted
}

// =============================================================================

// ComputeHash returns the unique hash for the specified header and ordered
// list of transactions. The canonical encoding is the JSON form of the header
// followed by the transactions; a nil transaction list hashes the same as an
// empty one.
func ComputeHash(header BlockHeader, trans []Tx) (string, error) {
	data, err := encodeTrans(trans)
	if err != nil {
		return "", fmt.Errorf("encoding transactions: %w", err)
	}

	return hashBlock(header, data)
}

// encodeTrans produces the canonical encoding of the transaction list.
func encodeTrans(trans []Tx) (json.RawMessage, error) {
	if trans == nil {
		trans = []Tx{}
	}

	return json.Marshal(trans)
}

// hashBlock hashes a header with already encoded transactions.
func hashBlock(header BlockHeader, trans json.RawMessage) (string, error) {
	value := struct {
		Header BlockHeader     `json:"header"`
		Trans  json.RawMessage `json:"transactions"`
	}{
		Header: header,
		Trans:  trans,
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encoding block: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
