package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/checklist/internal/app"
	"github.com/rpggio/checklist/internal/auth"
	"github.com/rpggio/checklist/internal/config"
	"github.com/rpggio/checklist/internal/domain/todo"
	"github.com/rpggio/checklist/internal/filterstate"
	"github.com/rpggio/checklist/internal/logging"
	"github.com/rpggio/checklist/internal/mcp"
	"github.com/rpggio/checklist/internal/mutation"
	"github.com/rpggio/checklist/internal/sqlite"
	"github.com/rpggio/checklist/internal/transport"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries JSON-RPC in stdio mode.
	logger, closeLog := logging.New(logging.Options{
		Level:          cfg.Log.Level,
		Path:           cfg.Log.Path,
		StdoutReserved: cfg.Transport.Mode == config.TransportStdio,
	})
	defer closeLog()

	tokens, err := tokenStore(cfg)
	if err != nil {
		logger.Error("failed to prepare credentials store", "error", err)
		os.Exit(1)
	}

	provider, todos, cleanup, err := buildStore(cfg, tokens, logger)
	if err != nil {
		logger.Error("failed to open store", "mode", cfg.Store.Mode, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loc := filterstate.NewMemoryLocation(cfg.View.URL)
	a := app.New(provider, todos, loc, logger, mutation.WithNotifier(mutation.LogNotifier{Logger: logger}))
	a.Start(ctx)
	defer a.Close()

	server := mcp.NewServer(mcp.Config{
		App:      a,
		Location: loc,
		Version:  version,
		Logger:   logger,
	})

	if cfg.Transport.Mode == config.TransportStdio {
		runStdio(ctx, logger, server)
		return
	}
	runHTTP(ctx, logger, server, cfg.Transport.Port)
}

func tokenStore(cfg config.Config) (auth.TokenStore, error) {
	path := cfg.Auth.CredentialsPath
	if path == "" {
		p, err := auth.DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return auth.NewFileTokenStore(path)
}

// buildStore wires the auth provider and todo service to the local database
// or to a backend server.
func buildStore(cfg config.Config, tokens auth.TokenStore, logger *slog.Logger) (*auth.Provider, *todo.Service, func(), error) {
	switch cfg.Store.Mode {
	case config.StoreRemote:
		client := transport.NewClient(cfg.Store.URL, &http.Client{Timeout: 30 * time.Second})
		provider := auth.NewProvider(client, tokens, logger)
		client.SetTokenSource(provider)
		logger.Info("using remote store", "url", cfg.Store.URL)
		return provider, todo.NewService(client, logger), func() {}, nil
	default:
		if dir := filepath.Dir(cfg.DB.Path); cfg.DB.Path != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, nil, err
			}
		}
		db, err := sqlite.New(cfg.DB.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		logger.Info("using local store", "db", cfg.DB.Path)
		provider := auth.NewProvider(sqlite.NewAuthRepository(db), tokens, logger)
		todos := todo.NewService(sqlite.NewRowStore(db), logger)
		return provider, todos, func() { _ = db.Close() }, nil
	}
}

func runStdio(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) {
	logger.Info("starting stdio transport")
	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("stdio server error", "error", err)
	}
}

func runHTTP(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, port int) {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("mcp server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
