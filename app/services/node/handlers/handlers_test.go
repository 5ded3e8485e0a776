package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/business/sys/metrics"
	v1 "github.com/ardanlabs/ledger/business/web/v1"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/nameservice"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// nodeTests holds methods for each node subtest. This type allows passing
// dependencies for tests while still providing a convenient syntax when
// subtests are registered.
type nodeTests struct {
	app   http.Handler
	debug http.Handler
	state *state.State
}

// TestNode is the entry point for testing the node's public api.
func TestNode(t *testing.T) {
	storage, err := memory.New()
	if err != nil {
		t.Fatalf("unable to construct storage: %v", err)
	}

	st, err := state.New(state.Config{
		Genesis:    genesis.Genesis{Date: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		Difficulty: 1,
		MaxBlocks:  10,
		MaxNonce:   1_000_000,
		TxWaiting:  time.Second,
		Storage:    storage,
	})
	if err != nil {
		t.Fatalf("unable to construct state: %v", err)
	}
	defer st.Shutdown()

	ns, err := nameservice.New("")
	if err != nil {
		t.Fatalf("unable to construct name service: %v", err)
	}

	reg := prometheus.NewRegistry()
	mtr, err := metrics.New(reg)
	if err != nil {
		t.Fatalf("unable to construct metrics: %v", err)
	}
	reg.MustRegister(metrics.NewChainCollector(st))

	log := zap.NewNop().Sugar()

	tests := nodeTests{
		app: handlers.PublicMux(handlers.MuxConfig{
			Shutdown: make(chan os.Signal, 1),
			Log:      log,
			Metrics:  mtr,
			State:    st,
			NS:       ns,
			Evts:     events.New(),
		}),
		debug: handlers.DebugMux("test", log, st, reg),
		state: st,
	}

	t.Run("blocks", tests.blocks)
	t.Run("blockByIndex", tests.blockByIndex)
	t.Run("submitTransaction", tests.submitTransaction)
	t.Run("proposeBlock", tests.proposeBlock)
	t.Run("debug", tests.debug200)
}

func (nt *nodeTests) blocks(t *testing.T) {
	t.Log("Given the need to list the blocks of the chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen only the genesis block exists.", testID)
		{
			w := nt.do(http.MethodGet, "/v1/blocks", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200 for the response.", success, testID)

			var blocks []struct {
				Index    uint64 `json:"index"`
				PrevHash string `json:"prev_hash"`
			}
			if err := json.NewDecoder(w.Body).Decode(&blocks); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if len(blocks) != 1 || blocks[0].Index != 0 || blocks[0].PrevHash != database.ZeroHash {
				t.Fatalf("\t%s\tTest %d:\tShould get the genesis block : %+v", failed, testID, blocks)
			}
			t.Logf("\t%s\tTest %d:\tShould get the genesis block.", success, testID)
		}
	}
}

func (nt *nodeTests) blockByIndex(t *testing.T) {
	tt := []struct {
		name   string
		url    string
		status int
	}{
		{"genesis", "/v1/blocks/get/0", http.StatusOK},
		{"missing", "/v1/blocks/get/5", http.StatusNotFound},
		{"not-a-number", "/v1/blocks/get/abc", http.StatusBadRequest},
	}

	t.Log("Given the need to read a single block.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen asking for %s.", testID, tst.url)
				{
					w := nt.do(http.MethodGet, tst.url, nil)
					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive a status code of %d for the response : %v", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould receive a status code of %d for the response.", success, testID, tst.status)

					if tst.status == http.StatusOK {
						return
					}

					var er v1.ErrorResponse
					if err := json.NewDecoder(w.Body).Decode(&er); err != nil || er.Error == "" {
						t.Fatalf("\t%s\tTest %d:\tShould get an error message : %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get an error message.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func (nt *nodeTests) submitTransaction(t *testing.T) {
	t.Log("Given the need to submit transactions.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen submitting a JSON transaction.", testID)
		{
			body := `{"from":"A","to":"B","amount":10}`
			w := nt.do(http.MethodPost, "/v1/tx/submit", strings.NewReader(body))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200 for the response.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting a transaction through the path.", testID)
		{
			w := nt.do(http.MethodGet, "/v1/tx/new/B/C/5", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200 for the response.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting a transaction without a recipient.", testID)
		{
			w := nt.do(http.MethodPost, "/v1/tx/submit", strings.NewReader(`{"from":"A","amount":1}`))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 400 for the response.", success, testID)

			var er v1.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&er); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}
			if _, exists := er.Fields["to"]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould name the missing field : %+v", failed, testID, er)
			}
			t.Logf("\t%s\tTest %d:\tShould name the missing field.", success, testID)
		}

		bad := []struct {
			name string
			body string
		}{
			{"a negative amount", `{"from":"A","to":"B","amount":-5}`},
			{"a body that is not JSON", `{not json`},
		}
		for _, tst := range bad {
			testID++
			t.Logf("\tTest %d:\tWhen submitting %s.", testID, tst.name)
			{
				w := nt.do(http.MethodPost, "/v1/tx/submit", strings.NewReader(tst.body))
				if w.Code != http.StatusBadRequest {
					t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 400 for the response : %v", failed, testID, w.Code)
				}
				t.Logf("\t%s\tTest %d:\tShould receive a status code of 400 for the response.", success, testID)

				var er v1.ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&er); err != nil || !strings.Contains(er.Error, "unable to decode payload") {
					t.Fatalf("\t%s\tTest %d:\tShould explain the payload is bad : %+v : %v", failed, testID, er, err)
				}
				t.Logf("\t%s\tTest %d:\tShould explain the payload is bad.", success, testID)
			}
		}

		testID++
		t.Logf("\tTest %d:\tWhen listing the mempool.", testID)
		{
			w := nt.do(http.MethodGet, "/v1/tx/pool", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}

			var pool []struct {
				From   string `json:"from"`
				To     string `json:"to"`
				Amount uint64 `json:"amount"`
			}
			if err := json.NewDecoder(w.Body).Decode(&pool); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if len(pool) != 2 || pool[0].From != "A" || pool[1].From != "B" || pool[1].Amount != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould list the transactions in submission order : %+v", failed, testID, pool)
			}
			t.Logf("\t%s\tTest %d:\tShould list the transactions in submission order.", success, testID)
		}
	}
}

func (nt *nodeTests) proposeBlock(t *testing.T) {
	t.Log("Given the need to accept blocks built outside of the node.")
	{
		latest := nt.state.RetrieveLatestBlock()
		block, err := database.POW(context.Background(), nt.state.RetrieveStatus().Target, 1_000_000, latest, []database.Tx{{From: "X", To: "Y", Amount: 1}}, nil)
		if err != nil {
			t.Fatalf("unable to mine block: %v", err)
		}

		data := flatBlock(t, block)

		testID := 0
		t.Logf("\tTest %d:\tWhen proposing a valid block.", testID)
		{
			w := nt.do(http.MethodPost, "/v1/blocks", bytes.NewReader(data))
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 200 for the response.", success, testID)

			if n := nt.state.QueryChainLength(); n != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould add the block to the chain : got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould add the block to the chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen proposing the same block again.", testID)
		{
			w := nt.do(http.MethodPost, "/v1/blocks", bytes.NewReader(data))
			if w.Code != http.StatusNotAcceptable {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 406 for the response : %v", failed, testID, w.Code)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 406 for the response.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen proposing a block exactly as it was read back.", testID)
		{
			r := nt.do(http.MethodGet, "/v1/blocks/get/1", nil)
			if r.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould be able to read the block : %v", failed, testID, r.Code)
			}

			w := nt.do(http.MethodPost, "/v1/blocks", bytes.NewReader(r.Body.Bytes()))
			if w.Code != http.StatusNotAcceptable {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 406 for the response : %v : %s", failed, testID, w.Code, w.Body)
			}
			t.Logf("\t%s\tTest %d:\tShould receive a status code of 406 for the response.", success, testID)

			var er v1.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&er); err != nil || !strings.Contains(er.Error, "check "+database.CheckIndex) {
				t.Fatalf("\t%s\tTest %d:\tShould fail the index check, not the decode : %+v : %v", failed, testID, er, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail the index check, not the decode.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading the status.", testID)
		{
			w := nt.do(http.MethodGet, "/v1/status", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
			}

			var status struct {
				Length          uint64            `json:"length"`
				LatestBlockHash string            `json:"latest_block_hash"`
				Mining          state.MiningStats `json:"mining"`
			}
			if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to unmarshal the response : %v", failed, testID, err)
			}

			if status.Length != 2 || status.LatestBlockHash != block.Hash || status.Mining.Proposed != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould report the proposed block : %+v", failed, testID, status)
			}
			t.Logf("\t%s\tTest %d:\tShould report the proposed block.", success, testID)
		}
	}
}

func (nt *nodeTests) debug200(t *testing.T) {
	tt := []struct {
		url      string
		contains string
	}{
		{"/debug/readiness", `"status":"ok"`},
		{"/debug/liveness", `"status":"up"`},
		{"/metrics", fmt.Sprintf("ledger_chain_length %d", nt.state.QueryChainLength())},
	}

	t.Log("Given the need to check the health of the node.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen asking for %s.", testID, tst.url)
			{
				r := httptest.NewRequest(http.MethodGet, tst.url, nil)
				w := httptest.NewRecorder()
				nt.debug.ServeHTTP(w, r)

				if w.Code != http.StatusOK {
					t.Fatalf("\t%s\tTest %d:\tShould receive a status code of 200 for the response : %v", failed, testID, w.Code)
				}

				body, _ := io.ReadAll(w.Body)
				if !strings.Contains(string(body), tst.contains) {
					t.Fatalf("\t%s\tTest %d:\tShould contain %q : %s", failed, testID, tst.contains, body)
				}
				t.Logf("\t%s\tTest %d:\tShould receive a healthy response.", success, testID)
			}
		}
	}
}

// =============================================================================

// flatBlock encodes a block the way the block routes return it.
func flatBlock(t *testing.T, block database.Block) []byte {
	t.Helper()

	type tx struct {
		From     string `json:"from"`
		FromName string `json:"from_name"`
		To       string `json:"to"`
		ToName   string `json:"to_name"`
		Amount   uint64 `json:"amount"`
	}

	trans := make([]tx, len(block.Trans))
	for i, dbTx := range block.Trans {
		trans[i] = tx{From: dbTx.From, To: dbTx.To, Amount: dbTx.Amount}
	}

	data, err := json.Marshal(struct {
		Index        uint64 `json:"index"`
		TimeStamp    uint64 `json:"timestamp"`
		Nonce        uint64 `json:"nonce"`
		PrevHash     string `json:"prev_hash"`
		Hash         string `json:"hash"`
		Transactions []tx   `json:"transactions"`
	}{
		Index:        block.Header.Index,
		TimeStamp:    block.Header.TimeStamp,
		Nonce:        block.Header.Nonce,
		PrevHash:     block.Header.PrevHash,
		Hash:         block.Hash,
		Transactions: trans,
	})
	if err != nil {
		t.Fatalf("unable to marshal block: %v", err)
	}

	return data
}

func (nt *nodeTests) do(method string, url string, body io.Reader) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, url, body)
	w := httptest.NewRecorder()
	nt.app.ServeHTTP(w, r)
	return w
}
