// cmd/logops/keygen_cmd.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

func init() {
	rootCmd.AddCommand(keygenCmd())
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new 32-byte encryption key (hex)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := logdecode.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Println(key.Hex())
			return nil
		},
	}
}
