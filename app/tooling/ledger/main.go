// This program is a client for the ledger node. It manages account keys and
// talks to the node's public API.
package main

import (
	"os"

	"github.com/ardanlabs/ledger/app/tooling/ledger/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
