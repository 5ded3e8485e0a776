// Package cmd contains the commands of the ledger client.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Set of flag names shared by the commands. Every flag can also be set
// with a LEDGER_ prefixed environment variable.
const (
	flagURL         = "url"
	flagAccountPath = "account-path"
)

const keyExtension = ".ecdsa"

// NewRootCmd constructs the ledger command with all its sub commands.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "ledger",
		Short:         "Client for the proof of work ledger node",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringP(flagURL, "u", "http://localhost:8080", "Url of the node.")
	rootCmd.PersistentFlags().StringP(flagAccountPath, "p", "zblock/accounts/", "Path to the directory with private keys.")
	v.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newAccountCmd(v),
		newSendCmd(v),
		newBlocksCmd(v),
		newBlockCmd(v),
		newPoolCmd(v),
		newStatusCmd(v),
	)

	return rootCmd
}
