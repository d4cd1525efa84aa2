// cmd/logops/decode_cmd.go

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yasupon0729/log-analysis-sub002/internal/format"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

func init() {
	rootCmd.AddCommand(decodeCmd())
}

func decodeCmd() *cobra.Command {
	var inputPath string
	var fileTypeName string
	var encoding string
	var keyValue string
	var decompress bool
	var asJSON bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode one log file (encrypted, gzip, zip, xz or plain)",
		RunE: func(cmd *cobra.Command, args []string) error {
			buffer, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			fileType := format.Parse(fileTypeName)
			if fileType == format.TypeUnknown {
				fileType = format.Detect(inputPath)
			}
			if fileType == format.TypeUnknown {
				fileType = format.Sniff(buffer)
			}
			if fileType == format.TypeUnknown {
				return fmt.Errorf("%w: pass --type to declare it", logdecode.ErrUnsupportedFileType)
			}

			req := logdecode.NewRequest(buffer, fileType)
			req.Filename = filepath.Base(inputPath)
			req.Encoding = encoding
			req.Decompress = decompress

			if fileType == format.TypeEncrypted {
				key, err := logdecode.ResolveKey(keyValue, os.Getenv)
				if err != nil {
					return err
				}
				req.Key = key
			}

			result, err := logdecode.Decode(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Print(result.LogText)
			if !quiet {
				fmt.Fprintln(os.Stderr)
				fmt.Fprint(os.Stderr, logdecode.FormatSummary(result))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input log file (required)")
	cmd.Flags().StringVarP(&fileTypeName, "type", "t", "", "File type: encrypted, gzip, zip, xz, plain (default: detect)")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "utf-8", "Text encoding of the decoded log")
	cmd.Flags().StringVarP(&keyValue, "key", "k", "", "Decryption key (hex or base64; default: $"+logdecode.KeyEnvVar+")")
	cmd.Flags().BoolVar(&decompress, "decompress", true, "Decompress envelope payload after decryption")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full decode result as JSON")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress the summary on stderr")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}
