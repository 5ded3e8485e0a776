package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAccountCmd(v *viper.Viper) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the account keys known to the name service",
	}

	accountCmd.AddCommand(
		&cobra.Command{
			Use:   "generate <name>",
			Short: "Generate a new key pair for the named account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				path := keyPath(v, args[0])

				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("key %s already exists", path)
				}

				if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
					return err
				}

				privateKey, err := crypto.GenerateKey()
				if err != nil {
					return err
				}

				if err := crypto.SaveECDSA(path, privateKey); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
				return nil
			},
		},
		&cobra.Command{
			Use:   "address <name>",
			Short: "Print the address of the named account",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				privateKey, err := crypto.LoadECDSA(keyPath(v, args[0]))
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
				return nil
			},
		},
	)

	return accountCmd
}

func keyPath(v *viper.Viper, name string) string {
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(v.GetString(flagAccountPath), name)
}
