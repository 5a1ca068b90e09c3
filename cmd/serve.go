package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/handler"
	"github.com/Aashish23092/payslip-verifier/store"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP verification API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (default from config)")
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.ServerPort = servePort
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	svc, closeFn, err := newPayslipService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var history handler.ReportStore
	if cfg.HistoryDB != "" {
		h, err := store.Open(ctx, cfg.HistoryDB, logger)
		if err != nil {
			return err
		}
		defer h.Close()
		history = h
	}

	payslipHandler := handler.NewPayslipHandler(svc, history, cfg.Tolerance, cfg.MaxFileSize, logger)
	// two documents per request
	router := handler.NewRouter(payslipHandler, 2*cfg.MaxFileSize)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting payslip verifier", zap.String("port", cfg.ServerPort))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
