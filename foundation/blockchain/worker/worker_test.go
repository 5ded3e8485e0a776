package worker_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/storage/memory"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"golang.org/x/sync/errgroup"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_MineSubmittedTransactions(t *testing.T) {
	t.Log("Given the need to mine submitted transactions into a block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two transactions are waiting at difficulty 2.", testID)
		{
			st := newState(t, 2, 1_000_000, 2, time.Minute)

			txs := []database.Tx{
				{From: "A", To: "B", Amount: 10},
				{From: "B", To: "C", Amount: 5},
			}
			for _, tx := range txs {
				if _, err := st.SubmitTransaction(tx); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to submit a transaction: %v", failed, testID, err)
				}
			}

			worker.Run(st, nil)
			defer st.Shutdown()

			if !waitFor(5*time.Second, func() bool { return st.QueryChainLength() == 2 }) {
				t.Fatalf("\t%s\tTest %d:\tShould mine a block: length[%d]", failed, testID, st.QueryChainLength())
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block.", success, testID)

			block, err := st.QueryBlock(1)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to query block 1: %v", failed, testID, err)
			}

			if !strings.HasPrefix(block.Hash, "00") {
				t.Fatalf("\t%s\tTest %d:\tShould have a hash that meets the target: %s", failed, testID, block.Hash)
			}
			t.Logf("\t%s\tTest %d:\tShould have a hash that meets the target.", success, testID)

			genesisBlock, _ := st.QueryBlock(0)
			if block.Header.PrevHash != genesisBlock.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould link to the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould link to the genesis block.", success, testID)

			if len(block.Trans) != len(txs) {
				t.Fatalf("\t%s\tTest %d:\tShould carry %d transactions: got %d", failed, testID, len(txs), len(block.Trans))
			}
			for i := range txs {
				if block.Trans[i] != txs[i] {
					t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, block.Trans[i])
					t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, txs[i])
					t.Fatalf("\t%s\tTest %d:\tShould keep the submission order.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep the submission order.", success, testID)

			if n := st.QueryMempoolLength(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have an empty mempool: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould have an empty mempool.", success, testID)
		}
	}
}

func Test_BlockLimit(t *testing.T) {
	t.Log("Given the need to stop mining once the chain is full.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the chain is limited to 3 blocks.", testID)
		{
			st := newState(t, 1, 1_000_000, 3, 5*time.Millisecond)

			worker.Run(st, nil)
			defer st.Shutdown()

			if !waitFor(5*time.Second, func() bool { return st.IsChainFull() }) {
				t.Fatalf("\t%s\tTest %d:\tShould fill the chain: length[%d]", failed, testID, st.QueryChainLength())
			}
			t.Logf("\t%s\tTest %d:\tShould fill the chain.", success, testID)

			st.SubmitTransaction(database.Tx{From: "A", To: "B", Amount: 1})
			time.Sleep(50 * time.Millisecond)

			if n := st.QueryChainLength(); n != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould never grow past the limit: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould never grow past the limit.", success, testID)

			if n := st.QueryMempoolLength(); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould keep late transactions in the mempool: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould keep late transactions in the mempool.", success, testID)
		}
	}
}

func Test_ExhaustedRequeue(t *testing.T) {
	t.Log("Given the need to keep transactions when a search is exhausted.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the nonce ceiling is too low to solve the target.", testID)
		{
			st := newState(t, database.MaxDifficulty, 10, 0, time.Minute)

			tx := database.Tx{From: "A", To: "B", Amount: 10}
			st.SubmitTransaction(tx)

			worker.Run(st, nil)

			if !waitFor(5*time.Second, func() bool { return st.RetrieveMiningStats().Exhausted > 0 }) {
				t.Fatalf("\t%s\tTest %d:\tShould exhaust the search.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould exhaust the search.", success, testID)

			st.Shutdown()

			if n := st.QueryChainLength(); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not add a block: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould not add a block.", success, testID)

			pool := st.RetrieveMempool()
			if len(pool) != 1 || pool[0] != tx {
				t.Fatalf("\t%s\tTest %d:\tShould have the transaction back in the mempool: %v", failed, testID, pool)
			}
			t.Logf("\t%s\tTest %d:\tShould have the transaction back in the mempool.", success, testID)
		}
	}
}

func Test_CancelMining(t *testing.T) {
	t.Log("Given the need to cancel a search in progress.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen cancel mining is signaled during a long search.", testID)
		{
			st := newState(t, database.MaxDifficulty, 1<<62, 0, time.Minute)

			tx := database.Tx{From: "A", To: "B", Amount: 10}
			st.SubmitTransaction(tx)

			worker.Run(st, nil)
			defer st.Shutdown()

			if !waitFor(5*time.Second, func() bool { return st.QueryMempoolLength() == 0 }) {
				t.Fatalf("\t%s\tTest %d:\tShould start mining the transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould start mining the transaction.", success, testID)

			st.Worker.SignalCancelMining()

			if !waitFor(5*time.Second, func() bool { return st.RetrieveMiningStats().Cancelled > 0 }) {
				t.Fatalf("\t%s\tTest %d:\tShould cancel the search.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould cancel the search.", success, testID)

			// The next cycle drains the requeued transaction again, so the
			// transaction is either in the mempool or in a running search.
			if n := st.QueryChainLength(); n != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould not add a block: got %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould not add a block.", success, testID)
		}
	}
}

func Test_NoTransactionLoss(t *testing.T) {
	t.Log("Given the need to never lose or duplicate a transaction.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen transactions are submitted concurrently with mining.", testID)
		{
			const submitters = 4
			const perSubmitter = 50

			st := newState(t, 1, 1_000_000, 0, 5*time.Millisecond)
			worker.Run(st, nil)

			var g errgroup.Group
			for s := 0; s < submitters; s++ {
				g.Go(func() error {
					for i := 0; i < perSubmitter; i++ {
						tx := database.Tx{
							From:   fmt.Sprintf("S%d", s),
							To:     "R",
							Amount: uint64(i),
						}
						if _, err := st.SubmitTransaction(tx); err != nil {
							return err
						}
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to submit transactions: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to submit transactions.", success, testID)

			time.Sleep(50 * time.Millisecond)
			st.Shutdown()

			seen := make(map[database.Tx]int)
			for _, block := range st.RetrieveBlocks() {
				for _, tx := range block.Trans {
					seen[tx]++
				}
			}
			for _, tx := range st.RetrieveMempool() {
				seen[tx]++
			}

			if len(seen) != submitters*perSubmitter {
				t.Fatalf("\t%s\tTest %d:\tShould account for every transaction: got %d", failed, testID, len(seen))
			}
			t.Logf("\t%s\tTest %d:\tShould account for every transaction.", success, testID)

			for tx, n := range seen {
				if n != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould see every transaction once: %s seen %d times", failed, testID, tx, n)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould see every transaction once.", success, testID)
		}
	}
}

// =============================================================================

func newState(t *testing.T, difficulty uint, maxNonce uint64, maxBlocks uint64, txWaiting time.Duration) *state.State {
	t.Helper()

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("unable to construct storage: %v", err)
	}

	st, err := state.New(state.Config{
		Genesis:    genesis.Genesis{Date: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		Difficulty: difficulty,
		MaxBlocks:  maxBlocks,
		MaxNonce:   maxNonce,
		TxWaiting:  txWaiting,
		Storage:    storage,
	})
	if err != nil {
		t.Fatalf("unable to construct state: %v", err)
	}

	return st
}

func waitFor(d time.Duration, fn func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if fn() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fn()
}
