package server

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"campfire/internal/auth"
	"campfire/internal/config"
	"campfire/internal/protocol"
)

func testConfig() config.Config {
	return config.Config{
		JWT: config.JWT{
			Secret:     "test-secret",
			Issuer:     "campfire-test",
			Expiration: time.Hour,
		},
		WebSocket: config.WebSocket{
			MaxMessageBytes: 65536,
			SendBuffer:      8,
			WriteWait:       time.Second,
			PongWait:        5 * time.Second,
		},
	}
}

func newTestApp() *App {
	cfg := testConfig()
	metrics := NewMetrics()
	registry := NewRoomRegistry()
	logger := slog.New(slog.DiscardHandler)
	return &App{
		cfg:        cfg,
		logger:     logger,
		verifier:   auth.NewVerifier(cfg.JWT),
		registry:   registry,
		dispatcher: NewDispatcher(registry, logger, metrics),
		metrics:    metrics,
	}
}

// newActiveSession builds a session already past its handshake, subscribed
// to its own mailbox, with no transport attached.
func newActiveSession(app *App, userID uint) *Session {
	s := &Session{
		id:     uuid.NewString(),
		app:    app,
		sendCh: make(chan protocol.ServerEvent, app.cfg.WebSocket.SendBuffer),
		rooms:  make(map[RoomKey]struct{}),
		state:  stateActive,
	}
	s.identity = auth.Identity{ID: userID, Username: "user"}
	mailbox := MailboxRoom(userID)
	app.registry.Subscribe(mailbox, s)
	s.rooms[mailbox] = struct{}{}
	return s
}

// drain collects everything currently queued for the session.
func drain(s *Session) []protocol.ServerEvent {
	var events []protocol.ServerEvent
	for {
		select {
		case ev := <-s.sendCh:
			events = append(events, ev)
		default:
			return events
		}
	}
}
