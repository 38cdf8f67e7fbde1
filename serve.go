package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/akinalp/gaduly/config"
	"github.com/akinalp/gaduly/database"
	"github.com/akinalp/gaduly/pkg/ratelimit"
	"github.com/akinalp/gaduly/ws"
)

// NewServeCommand creates the `serve` command.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the WebSocket push channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runServe(cfg)
		},
	}
}

// app is the wired server. newApp builds it and starts the hub; Close
// tears it down in reverse order.
type app struct {
	db       *database.DB
	hub      *ws.Hub
	services *Services
	limiters *Limiters
	handler  http.Handler
}

// Limiters are the rate limiters of the HTTP API.
type Limiters struct {
	Login   *ratelimit.LoginRateLimiter
	Message *ratelimit.MessageRateLimiter
}

func newApp(cfg *config.Config) (*app, error) {
	// ─── 1. Database ───
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	db, err := database.New(cfg.Database.Path, migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// ─── 2. Upload directory ───
	if err := os.MkdirAll(cfg.Upload.Dir, 0755); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	// ─── 3. Repositories ───
	repos := initRepositories(db.Conn)

	// ─── 4. WebSocket hub ───
	hub := ws.NewHub()
	go hub.Run()

	// ─── 5. Services ───
	svcs, err := initServices(db, repos, hub, cfg)
	if err != nil {
		hub.Shutdown()
		db.Close()
		return nil, err
	}

	// ─── 6. Handlers ───
	limiters := &Limiters{
		Login:   ratelimit.NewLoginRateLimiter(cfg.RateLimit.LoginMax, cfg.RateLimit.LoginWindow),
		Message: ratelimit.NewMessageRateLimiter(cfg.RateLimit.MessageMax, cfg.RateLimit.MessageWindow, cfg.RateLimit.MessageCooldown),
	}
	h := initHandlers(svcs, limiters, hub, cfg)

	// ─── 7. Routes ───
	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, repos.User)

	// ─── 8. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.WS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return &app{
		db:       db,
		hub:      hub,
		services: svcs,
		limiters: limiters,
		handler:  corsHandler.Handler(mux),
	}, nil
}

func (a *app) Close() {
	a.hub.Shutdown()
	a.limiters.Login.Stop()
	a.limiters.Message.Stop()
	a.services.Channel.Close()
	if err := a.db.Close(); err != nil {
		log.Printf("[main] failed to close database: %v", err)
	}
}

func runServe(cfg *config.Config) error {
	log.Println("[main] gaduly server starting...")

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     a.handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: it would cut long-lived WebSocket connections.
		IdleTimeout: 60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-done:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("[main] shutting down...")

	// Closing the hub first lets every WritePump send a close frame.
	a.hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Println("[main] server stopped gracefully")
	return nil
}
