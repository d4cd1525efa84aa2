// cmd/logops/fetch_cmd.go

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"

	"github.com/yasupon0729/log-analysis-sub002/internal/progress"
	"github.com/yasupon0729/log-analysis-sub002/pkg/fetch"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

func init() {
	rootCmd.AddCommand(fetchCmd())
}

func fetchCmd() *cobra.Command {
	var bucket, region, endpoint, prefix string
	var dateStr, fromStr, toStr string
	var encoding string
	var keyValue string
	var excludes []string
	var outputPath string
	var decompress bool
	var asJSON bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch and decode date-partitioned logs from S3",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &fetch.Request{
				Prefix:     prefix,
				Encoding:   encoding,
				Decompress: decompress,
			}

			switch {
			case dateStr != "":
				day, err := time.Parse(fetch.DateLayout, dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date, want YYYY-MM-DD")
				}
				req.From, req.To = day, day
			case fromStr != "":
				from, err := time.Parse(fetch.DateLayout, fromStr)
				if err != nil {
					return fmt.Errorf("invalid --from, want YYYY-MM-DD")
				}
				to := from
				if toStr != "" {
					if to, err = time.Parse(fetch.DateLayout, toStr); err != nil {
						return fmt.Errorf("invalid --to, want YYYY-MM-DD")
					}
				}
				req.From, req.To = from, to
			default:
				return fmt.Errorf("either --date or --from/--to is required")
			}

			if bucket == "" {
				bucket = os.Getenv("LOGOPS_S3_BUCKET")
			}
			if region == "" {
				region = os.Getenv("LOGOPS_S3_REGION")
			}
			if endpoint == "" {
				endpoint = os.Getenv("LOGOPS_S3_ENDPOINT")
			}

			store, err := fetch.NewS3Store(cmd.Context(), fetch.S3Config{
				Bucket:   bucket,
				Region:   region,
				Endpoint: endpoint,
			})
			if err != nil {
				return err
			}

			fetcher := &fetch.Fetcher{Store: store}

			// The key is optional up front: plain and gzip objects decode
			// without one. Decoding an encrypted object without a key is a
			// configuration error reported by the batch.
			if key, err := logdecode.ResolveKey(keyValue, os.Getenv); err == nil {
				fetcher.Key = key
			} else if !errors.Is(err, logdecode.ErrNoKey) {
				return err
			}

			if len(excludes) > 0 {
				fetcher.Exclude = ignore.CompileIgnoreLines(excludes...)
			}

			var bars *mpb.Progress
			if !quiet && !asJSON {
				fetcher.Progress, bars = progress.BarCallback()
			}

			result, err := fetcher.Fetch(cmd.Context(), req)

			if bars != nil {
				bars.Wait()
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if outputPath != "" {
				if err := os.WriteFile(outputPath, []byte(result.LogText), 0644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			} else {
				fmt.Print(result.LogText)
			}

			if !quiet {
				fmt.Fprintln(os.Stderr)
				fmt.Fprint(os.Stderr, logdecode.FormatSummary(&result.Result))
				if len(result.MissingDates) > 0 {
					fmt.Fprintf(os.Stderr, "  Missing dates:   %v\n", result.MissingDates)
				}
				if len(result.Skipped) > 0 {
					fmt.Fprintf(os.Stderr, "  Skipped objects: %d\n", len(result.Skipped))
					for _, s := range result.Skipped {
						fmt.Fprintf(os.Stderr, "    - %s (%s)\n", s.Key, s.Reason)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (default: $LOGOPS_S3_BUCKET)")
	cmd.Flags().StringVar(&region, "region", "", "S3 region (default: $LOGOPS_S3_REGION)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Custom S3 endpoint, e.g. minio (default: $LOGOPS_S3_ENDPOINT)")
	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "Key prefix above the date partitions")
	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "Single date to fetch (YYYY-MM-DD)")
	cmd.Flags().StringVar(&fromStr, "from", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "Range end date, inclusive (default: --from)")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "utf-8", "Text encoding of the decoded logs")
	cmd.Flags().StringVarP(&keyValue, "key", "k", "", "Decryption key (hex or base64; default: $"+logdecode.KeyEnvVar+")")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Gitignore-style patterns for object keys to skip")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write merged log text to a file instead of stdout")
	cmd.Flags().BoolVar(&decompress, "decompress", true, "Decompress envelope payloads after decryption")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full batch result as JSON")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output")

	return cmd
}
