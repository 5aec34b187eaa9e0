package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"campfire/internal/auth"
	"campfire/internal/config"
	"campfire/internal/storage"
)

// App coordinates the HTTP gateway, the room registry, and websocket
// session lifecycle. The registry is process-scoped state owned by the App:
// created with it, torn down with it, and passed explicitly to everything
// that accepts connections.
type App struct {
	cfg        config.Config
	store      storage.Store
	logger     *slog.Logger
	verifier   *auth.Verifier
	registry   *RoomRegistry
	dispatcher *Dispatcher
	metrics    *Metrics
	upgrader   websocket.Upgrader
}

// NewApp constructs a server instance using the provided dependencies.
func NewApp(cfg config.Config, store storage.Store, logger *slog.Logger) *App {
	metrics := NewMetrics()
	registry := NewRoomRegistry()
	return &App{
		cfg:        cfg,
		store:      store,
		logger:     logger,
		verifier:   auth.NewVerifier(cfg.JWT),
		registry:   registry,
		dispatcher: NewDispatcher(registry, logger, metrics),
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run migrates the schema and serves HTTP until the context is canceled,
// then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	server := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", a.cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Routes wires every endpoint into a ServeMux.
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.Handle("GET /metrics", a.metrics.Handler())
	mux.HandleFunc("GET /ws", a.handleWebSocket)

	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.HandleFunc("GET /api/auth/me", a.requireAuth(a.handleMe))

	mux.HandleFunc("GET /api/channels", a.requireAuth(a.handleListChannels))
	mux.HandleFunc("POST /api/channels", a.requireAuth(a.handleCreateChannel))
	mux.HandleFunc("GET /api/channels/{id}", a.requireAuth(a.handleGetChannel))
	mux.HandleFunc("GET /api/channels/{id}/messages", a.requireAuth(a.handleChannelHistory))

	mux.HandleFunc("POST /api/messages/channel/{channelID}", a.requireAuth(a.handleSendChannelMessage))
	mux.HandleFunc("GET /api/messages/dm/{userID}", a.requireAuth(a.handleDirectHistory))
	mux.HandleFunc("POST /api/messages/dm/{userID}", a.requireAuth(a.handleSendDirectMessage))

	mux.HandleFunc("GET /api/users", a.requireAuth(a.handleListUsers))
	mux.HandleFunc("GET /api/users/friends/list", a.requireAuth(a.handleListFriends))
	mux.HandleFunc("POST /api/users/friends/request/{userID}", a.requireAuth(a.handleFriendRequest))
	mux.HandleFunc("POST /api/users/friends/accept/{userID}", a.requireAuth(a.handleFriendAccept))
	mux.HandleFunc("GET /api/users/{id}", a.requireAuth(a.handleGetUser))

	return mux
}

// handleWebSocket upgrades the connection and runs the session until the
// transport terminates. Authentication happens on the first frame, not
// here; an unauthenticated upgrade holds exactly one pending handshake.
func (a *App) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	s := newSession(a, conn)
	s.run(r.Context())
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Server is running"})
}
