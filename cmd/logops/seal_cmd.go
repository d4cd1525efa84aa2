// cmd/logops/seal_cmd.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

func init() {
	rootCmd.AddCommand(sealCmd())
}

// seal is the producer side of the envelope contract. It exists for fixture
// generation and for testing the shipping pipeline end to end.
func sealCmd() *cobra.Command {
	var inputPath, outputPath string
	var keyValue string
	var compression string

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt a plaintext log into an envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			plaintext, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			key, err := logdecode.ResolveKey(keyValue, os.Getenv)
			if err != nil {
				return err
			}

			var flag byte
			switch compression {
			case "gzip":
				flag = logdecode.FlagGzip
			case "zstd":
				flag = logdecode.FlagZstd
			case "none":
				flag = logdecode.FlagNone
			default:
				return fmt.Errorf("unknown compression %q (want gzip, zstd or none)", compression)
			}

			envelope, err := logdecode.Seal(plaintext, key, flag)
			if err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = inputPath + ".gz.enc"
			}
			if err := os.WriteFile(outputPath, envelope, 0644); err != nil {
				return fmt.Errorf("write envelope: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Sealed %s (%s) -> %s (%s)\n",
				inputPath, logdecode.FormatSize(uint64(len(plaintext))),
				outputPath, logdecode.FormatSize(uint64(len(envelope))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Plaintext log file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output envelope path (default: <input>.gz.enc)")
	cmd.Flags().StringVarP(&keyValue, "key", "k", "", "Encryption key (hex or base64; default: $"+logdecode.KeyEnvVar+")")
	cmd.Flags().StringVar(&compression, "compression", "gzip", "Payload compression: gzip, zstd or none")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}
