package public

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/nameservice"
)

type tx struct {
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	Amount   uint64 `json:"amount"`
}

// block is the shape blocks are returned in and proposed with. The name
// fields are filled in on the way out and ignored on the way in.
type block struct {
	Index        uint64 `json:"index"`
	TimeStamp    uint64 `json:"timestamp"`
	Nonce        uint64 `json:"nonce"`
	PrevHash     string `json:"prev_hash"`
	Hash         string `json:"hash"`
	Transactions []tx   `json:"transactions"`
}

type submitted struct {
	Status  string `json:"status"`
	Pending int    `json:"pending"`
}

// newTx is the payload used to submit a transaction.
type newTx struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount uint64 `json:"amount"`
}

func (ntx newTx) toDBTx() database.Tx {
	return database.Tx{
		From:   ntx.From,
		To:     ntx.To,
		Amount: ntx.Amount,
	}
}

// =============================================================================

func toTx(ns *nameservice.NameService, dbTx database.Tx) tx {
	return tx{
		From:     dbTx.From,
		FromName: ns.Lookup(dbTx.From),
		To:       dbTx.To,
		ToName:   ns.Lookup(dbTx.To),
		Amount:   dbTx.Amount,
	}
}

func toTxs(ns *nameservice.NameService, dbTxs []database.Tx) []tx {
	trans := make([]tx, len(dbTxs))
	for i, dbTx := range dbTxs {
		trans[i] = toTx(ns, dbTx)
	}
	return trans
}

func (b block) toDBBlock() database.Block {
	trans := make([]database.Tx, len(b.Transactions))
	for i, tx := range b.Transactions {
		trans[i] = database.Tx{
			From:   tx.From,
			To:     tx.To,
			Amount: tx.Amount,
		}
	}

	return database.Block{
		Header: database.BlockHeader{
			Index:     b.Index,
			TimeStamp: b.TimeStamp,
			Nonce:     b.Nonce,
			PrevHash:  b.PrevHash,
		},
		Hash:  b.Hash,
		Trans: trans,
	}
}

func toBlock(ns *nameservice.NameService, dbBlock database.Block) block {
	return block{
		Index:        dbBlock.Header.Index,
		TimeStamp:    dbBlock.Header.TimeStamp,
		Nonce:        dbBlock.Header.Nonce,
		PrevHash:     dbBlock.Header.PrevHash,
		Hash:         dbBlock.Hash,
		Transactions: toTxs(ns, dbBlock.Trans),
	}
}
