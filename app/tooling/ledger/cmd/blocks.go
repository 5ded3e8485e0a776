package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type txView struct {
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
	ToName   string `json:"to_name"`
	Amount   uint64 `json:"amount"`
}

type blockView struct {
	Index        uint64   `json:"index"`
	TimeStamp    uint64   `json:"timestamp"`
	Nonce        uint64   `json:"nonce"`
	PrevHash     string   `json:"prev_hash"`
	Hash         string   `json:"hash"`
	Transactions []txView `json:"transactions"`
}

func newBlocksCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List the blocks of the chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			var blocks []blockView
			if err := newClient(v.GetString(flagURL)).get(cmd.Context(), "/v1/blocks", &blocks); err != nil {
				return err
			}

			for _, blk := range blocks {
				fmt.Fprintf(cmd.OutOrStdout(), "blk[%d]: hash[%s]: prev[%s]: nonce[%d]: txs[%d]\n",
					blk.Index, blk.Hash, blk.PrevHash, blk.Nonce, len(blk.Transactions))
			}
			return nil
		},
	}
}

func newBlockCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "block <index>",
		Short: "Show a single block of the chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var blk blockView
			if err := newClient(v.GetString(flagURL)).get(cmd.Context(), "/v1/blocks/get/"+args[0], &blk); err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), blk)
		},
	}
}

func newPoolCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "List the transactions waiting to be mined",
		RunE: func(cmd *cobra.Command, args []string) error {
			var pool []txView
			if err := newClient(v.GetString(flagURL)).get(cmd.Context(), "/v1/tx/pool", &pool); err != nil {
				return err
			}

			for _, tx := range pool {
				fmt.Fprintf(cmd.OutOrStdout(), "%s->%s:%d\n", tx.FromName, tx.ToName, tx.Amount)
			}
			return nil
		},
	}
}

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status of the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status map[string]any
			if err := newClient(v.GetString(flagURL)).get(cmd.Context(), "/v1/status", &status); err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func printJSON(w io.Writer, val any) error {
	data, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}
