package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GMettam/batch-affidavit-web/internal/pipeline"
	"github.com/GMettam/batch-affidavit-web/internal/server"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the affidavit HTTP endpoints",
	Long: `Serve exposes the generator over HTTP:

  POST /generate-affidavit   JSON case record -> .docx (base64 body by default)
  POST /extract-gpc-data     {"text": "..."}  -> extracted case record (needs an LLM provider)
  GET  /healthz

Example:
  affidavit serve --addr :8888
  AFFIDAVIT_SERVER_BASE64_BODY=false affidavit serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8888", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return err
	}
	srv := server.New(p, cfg.Server, logger).HTTPServer()

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		logger.Info("Listening", zap.String("addr", srv.Addr), zap.Bool("llm", p.CanExtract()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
