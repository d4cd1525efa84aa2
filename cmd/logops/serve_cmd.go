// cmd/logops/serve_cmd.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yasupon0729/log-analysis-sub002/internal/logging"
	"github.com/yasupon0729/log-analysis-sub002/internal/server"
	"github.com/yasupon0729/log-analysis-sub002/pkg/fetch"
	"github.com/yasupon0729/log-analysis-sub002/pkg/logdecode"
)

func init() {
	rootCmd.AddCommand(serveCmd())
}

func serveCmd() *cobra.Command {
	var addr string
	var bucket, region, endpoint string
	var keyValue string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the log-analysis HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, flush := logging.New("logops", debug)
			defer flush()

			cfg := server.Config{Logger: logger}

			if key, err := logdecode.ResolveKey(keyValue, os.Getenv); err == nil {
				cfg.Key = key
			} else if !errors.Is(err, logdecode.ErrNoKey) {
				return err
			} else {
				logger.Warn("no decryption key configured; encrypted input will be rejected")
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
			if bucket != "" {
				store, err := fetch.NewS3Store(cmd.Context(), fetch.S3Config{
					Bucket:   bucket,
					Region:   region,
					Endpoint: endpoint,
				})
				if err != nil {
					return err
				}
				cfg.Fetcher = &fetch.Fetcher{Store: store, Key: cfg.Key, Logger: logger}
			} else {
				logger.Warn("no S3 bucket configured; /api/logs endpoints disabled")
			}

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.New(cfg).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", zap.String("addr", addr))
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket (default: $LOGOPS_S3_BUCKET)")
	cmd.Flags().StringVar(&region, "region", "", "S3 region (default: $LOGOPS_S3_REGION)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Custom S3 endpoint (default: $LOGOPS_S3_ENDPOINT)")
	cmd.Flags().StringVarP(&keyValue, "key", "k", "", "Decryption key (hex or base64; default: $"+logdecode.KeyEnvVar+")")
	cmd.Flags().BoolVar(&debug, "debug", false, "Verbose console logging")

	return cmd
}
