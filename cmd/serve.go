package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/parisxmas/central-admin/internal/central"
	"github.com/parisxmas/central-admin/internal/console"
	"github.com/parisxmas/central-admin/internal/gelf"
	"github.com/parisxmas/central-admin/internal/handler"
	"github.com/parisxmas/central-admin/internal/requesttrace"
	"github.com/parisxmas/central-admin/internal/router"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web console backend.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTPAddr = addr
		}
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides CENTRAL_ADDR)")
}

func serve(ctx context.Context) error {
	// GELF UDP logging
	if cfg.GELFAddr != "" {
		gelfWriter, err := gelf.New(cfg.GELFAddr, "central-admin")
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			defer gelfWriter.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GELFAddr)
		}
	}

	consoleCfg := console.Config{
		BaseURL:       cfg.CentralURL,
		Timeout:       cfg.Timeout,
		MaxUploadSize: cfg.MaxUploadSize,
		UserAgent:     "central-admin",
	}
	if cfg.TraceDB != "" {
		recorder, err := requesttrace.Open(cfg.TraceDB)
		if err != nil {
			return err
		}
		defer recorder.Close()
		consoleCfg.Tracer = recorder
		log.Printf("Request tracing: enabled (%s, run %s)", cfg.TraceDB, recorder.Run())
	}

	consoles := console.NewRegistry(consoleCfg, cfg.ConsoleTTL, time.Minute)

	// Handlers
	secure := strings.HasPrefix(cfg.CentralURL, "https://")
	sessH := handler.NewSessionHandler(consoles, cfg.CookieSecret, cfg.ConsoleTTL, secure)
	viewH := handler.NewViewHandler()
	fkH := handler.NewFieldKeyHandler()
	attH := handler.NewAttachmentHandler(cfg.MaxUploadSize)
	backupH := handler.NewBackupHandler()
	reqH := handler.NewRequestHandler()

	// Router
	r := router.New(cfg.CookieSecret, consoles, sessH, viewH, fkH, attH, backupH, reqH)

	// Report the backend version in the background so a slow or unreachable
	// backend does not delay startup.
	go checkBackend(cfg.CentralURL, cfg.Timeout)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("central-admin server starting on %s (backend %s)", cfg.HTTPAddr, cfg.CentralURL)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		consoles.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Warning: shutdown: %v", err)
	}
	consoles.Close(shutdownCtx)
	return nil
}

func checkBackend(baseURL string, timeout time.Duration) {
	client, err := central.New(baseURL, central.WithTimeout(timeout))
	if err != nil {
		log.Printf("Warning: backend URL: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	resp, err := client.Do(ctx, central.Version())
	if err != nil {
		log.Printf("Warning: backend check failed: %v", err)
		return
	}
	version := strings.TrimSpace(strings.SplitN(string(resp.Body), "\n", 2)[0])
	log.Printf("Backend version: %s", version)
}
