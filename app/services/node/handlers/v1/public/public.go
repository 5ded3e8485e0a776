// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The upgrade has written the response.
	v.StatusCode = http.StatusSwitchingProtocols

	id, ch := h.Evts.Subscribe()
	defer h.Evts.Unsubscribe(id)

	h.Log.Infow("events", "traceid", v.TraceID, "status", "subscribed", "subscriber", id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns the status of the chain, the mempool and the miner.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Blocks returns every block in the chain, genesis first.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbBlocks := h.State.RetrieveBlocks()

	blocks := make([]block, len(dbBlocks))
	for i, dbBlock := range dbBlocks {
		blocks[i] = toBlock(h.NS, dbBlock)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := web.ParamUint64(r, "index")
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	dbBlock, err := h.State.QueryBlock(index)
	if err != nil {
		if errors.Is(err, database.ErrInvalidIndex) {
			return v1.NewRequestError(err, http.StatusNotFound)
		}
		return fmt.Errorf("query block[%d]: %w", index, err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, dbBlock), http.StatusOK)
}

// ProposeBlock accepts a block built outside of the node's miner, in the same
// shape the block routes return. The hash is computed again from the fields of
// the block before it is validated.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nb block
	if err := web.Decode(r, &nb); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}
	dbBlock := nb.toDBBlock()

	for _, tx := range dbBlock.Trans {
		if err := tx.Validate(); err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
	}

	if err := h.State.ProposeBlock(dbBlock); err != nil {
		if errors.Is(err, database.ErrAppendRejected) || errors.Is(err, database.ErrChainLimitReached) {
			return v1.NewRequestError(err, http.StatusNotAcceptable)
		}
		return fmt.Errorf("propose block[%d]: %w", dbBlock.Header.Index, err)
	}

	return web.Respond(ctx, w, toBlock(h.NS, h.State.RetrieveLatestBlock()), http.StatusOK)
}

// Mempool returns the set of uncommitted transactions in the order they
// will be mined.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toTxs(h.NS, h.State.RetrieveMempool()), http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	return h.submit(ctx, w, ntx.toDBTx())
}

// NewTransaction adds a new transaction to the mempool using the values
// provided in the path.
func (h Handlers) NewTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	amount, err := strconv.ParseUint(web.Param(r, "amount"), 10, 64)
	if err != nil {
		return v1.NewRequestError(fmt.Errorf("amount[%s] is not a number", web.Param(r, "amount")), http.StatusBadRequest)
	}

	dbTx, err := database.NewTx(web.Param(r, "from"), web.Param(r, "to"), amount)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	return h.submit(ctx, w, dbTx)
}

func (h Handlers) submit(ctx context.Context, w http.ResponseWriter, dbTx database.Tx) error {
	h.Log.Infow("add tran", "traceid", web.GetTraceID(ctx), "from", dbTx.From, "to", dbTx.To, "amount", dbTx.Amount)

	n, err := h.State.SubmitTransaction(dbTx)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := submitted{
		Status:  fmt.Sprintf("new transaction %s", dbTx),
		Pending: n,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
