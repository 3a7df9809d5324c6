package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mynotes/config/database/migrations"
	"mynotes/internal/assistant/interpreter"
	"mynotes/internal/assistant/service"
	"mynotes/internal/assistant/session"
	"mynotes/internal/upload"
	"mynotes/pkg/logger"
	"mynotes/router"
	"mynotes/socket"
)

var flagMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and assistant websocket",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagMigrate, "migrate", false,
		"Apply pending schema migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db := openStore(ctx)
	if db != nil {
		defer db.Close()
		if flagMigrate || cfg.Database.Migrate {
			if err := migrations.MigrateUp(db); err != nil {
				return err
			}
			logger.Sugar.Info("Database migrations applied")
		}
	}

	completer, err := service.NewCompleter(ctx, cfg.AI)
	if err != nil {
		return err
	}
	proxy := service.NewProxy(completer, cfg.AI.Temperature, cfg.AI.MaxTokens)
	if !proxy.Available() {
		logger.Sugar.Warn("No AI API key configured, the assistant answers locally")
	}

	storage, err := upload.NewStorage(ctx, cfg.Upload)
	if err != nil {
		return err
	}

	local := interpreter.New(store)
	hub := socket.NewHub(func(sink session.Sink, in session.SpeechInput, out session.SpeechOutput) *session.Session {
		return session.New(store, proxy, local, sink, session.WithSpeech(in, out))
	})
	store.SetNotifier(hub)
	go hub.Run()

	deps := router.Deps{
		Store:          store,
		Proxy:          proxy,
		Storage:        storage,
		Hub:            hub,
		JWTSecret:      cfg.Auth.JWTSecret,
		CORSOrigin:     cfg.Server.CORSOrigin,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}
	if cfg.Upload.Backend == "disk" {
		deps.UploadDir = cfg.Upload.Dir
		deps.UploadURLPrefix = cfg.Upload.URLPrefix
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.Setup(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Sugar.Infof("mynotes listening on %s", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Sugar.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
