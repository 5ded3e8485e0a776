package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type sendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type sendResult struct {
	Status  string `json:"status"`
	Pending int    `json:"pending"`
}

func newSendCmd(v *viper.Viper) *cobra.Command {
	var tx sendTx

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Submit a transaction to the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			var res sendResult
			if err := newClient(v.GetString(flagURL)).post(cmd.Context(), "/v1/tx/submit", tx, &res); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: pending[%d]\n", res.Status, res.Pending)
			return nil
		},
	}

	sendCmd.Flags().StringVarP(&tx.From, "from", "f", "", "Account sending the amount.")
	sendCmd.Flags().StringVarP(&tx.To, "to", "t", "", "Account receiving the amount.")
	sendCmd.Flags().Uint64VarP(&tx.Amount, "amount", "a", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")

	return sendCmd
}
