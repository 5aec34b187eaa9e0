package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"campfire/internal/auth"
	"campfire/internal/protocol"
)

type sessionState int

const (
	stateHandshaking sessionState = iota
	stateActive
	stateClosed
)

// Session is one live websocket connection and its subscription state.
//
// A session starts in the handshaking state: the transport is open but the
// identity is unknown, and the first frame must carry a credential. A
// successful handshake activates the session and subscribes it to its own
// mailbox room; a failed one closes the transport without ever touching the
// room registry. Only the session itself mutates its subscription set.
type Session struct {
	id   string
	app  *App
	conn *websocket.Conn

	sendCh chan protocol.ServerEvent
	cancel context.CancelFunc

	mu        sync.Mutex
	state     sessionState
	identity  auth.Identity
	rooms     map[RoomKey]struct{}
	closeOnce sync.Once
}

func newSession(app *App, conn *websocket.Conn) *Session {
	return &Session{
		id:     uuid.NewString(),
		app:    app,
		conn:   conn,
		sendCh: make(chan protocol.ServerEvent, app.cfg.WebSocket.SendBuffer),
		rooms:  make(map[RoomKey]struct{}),
		state:  stateHandshaking,
	}
}

// run drives the session until the transport terminates. It blocks until
// the read side ends and always leaves the session closed.
func (s *Session) run(parentCtx context.Context) {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	defer s.close()

	s.readLoop(ctx)
}

func (s *Session) readLoop(ctx context.Context) {
	cfg := s.app.cfg.WebSocket
	s.conn.SetReadLimit(cfg.MaxMessageBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame protocol.ClientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.app.logger.Debug("discarding malformed frame", "session", s.id, "error", err)
			continue
		}

		if s.currentState() == stateHandshaking {
			if !s.handshake(ctx, frame) {
				return
			}
			continue
		}

		s.handleFrame(frame)
	}
}

// handshake resolves the first frame's credential. Until it succeeds the
// read goroutine is the connection's only writer, so failure replies are
// written directly; the write loop starts only on activation. It reports
// whether the session may continue.
func (s *Session) handshake(ctx context.Context, frame protocol.ClientFrame) bool {
	token := frame.Token
	if frame.Type != protocol.FrameAuth {
		token = ""
	}

	identity, err := s.app.verifier.Authenticate(token)
	if err != nil {
		s.app.logger.Info("websocket handshake rejected", "session", s.id, "error", err)
		s.writeDirect(protocol.AuthError("authentication failed"))
		return false
	}

	s.mu.Lock()
	s.identity = identity
	s.state = stateActive
	mailbox := MailboxRoom(identity.ID)
	s.app.registry.Subscribe(mailbox, s)
	s.rooms[mailbox] = struct{}{}
	s.mu.Unlock()

	s.app.metrics.ConnectedSessions.Inc()
	s.app.logger.Info("websocket session active", "session", s.id, "user_id", identity.ID, "username", identity.Username)

	go s.writeLoop(ctx)
	s.enqueue(protocol.AuthOK(identity.ID, identity.Username))
	return true
}

// handleFrame processes one control or publish frame on an active session.
// Publish frames are notifications of records already persisted through the
// HTTP API, never persistence requests.
func (s *Session) handleFrame(frame protocol.ClientFrame) {
	switch frame.Type {
	case protocol.FrameJoinChannel:
		if frame.ChannelID == 0 {
			return
		}
		s.joinRoom(ChannelRoom(frame.ChannelID))
	case protocol.FrameLeaveChannel:
		if frame.ChannelID == 0 {
			return
		}
		s.leaveRoom(ChannelRoom(frame.ChannelID))
	case protocol.FrameChannelMessage:
		if frame.ChannelID == 0 || len(frame.Message) == 0 {
			return
		}
		s.app.dispatcher.PublishChannel(frame.ChannelID, frame.Message)
	case protocol.FrameDirectMessage:
		if frame.ReceiverID == 0 || len(frame.Message) == 0 {
			return
		}
		s.app.dispatcher.PublishDirect(s, frame.ReceiverID, frame.Message)
	case protocol.FrameAuth:
		// No re-authentication mid-connection.
		s.app.logger.Debug("ignoring auth frame on active session", "session", s.id)
	default:
		s.app.logger.Debug("unhandled frame type", "session", s.id, "type", frame.Type)
	}
}

// joinRoom subscribes the session to a room. Joining an already-joined room
// is a no-op.
func (s *Session) joinRoom(key RoomKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateActive {
		return
	}
	if _, ok := s.rooms[key]; ok {
		return
	}
	s.app.registry.Subscribe(key, s)
	s.rooms[key] = struct{}{}
}

// leaveRoom unsubscribes the session from a room. Leaving a room the
// session is not in is a no-op.
func (s *Session) leaveRoom(key RoomKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[key]; !ok {
		return
	}
	s.app.registry.Unsubscribe(key, s)
	delete(s.rooms, key)
}

// enqueue offers an event to the session's outbound queue without blocking.
// A closed session or a full queue drops the event and reports false.
func (s *Session) enqueue(ev protocol.ServerEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return false
	}
	select {
	case s.sendCh <- ev:
		return true
	default:
		return false
	}
}

func (s *Session) writeLoop(ctx context.Context) {
	cfg := s.app.cfg.WebSocket
	ticker := time.NewTicker(cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case ev := <-s.sendCh:
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeDirect performs a synchronous write. Only valid before the write
// loop has started.
func (s *Session) writeDirect(ev protocol.ServerEvent) {
	cfg := s.app.cfg.WebSocket
	_ = s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
	if err := s.conn.WriteJSON(ev); err != nil {
		s.app.logger.Debug("handshake reply not delivered", "session", s.id, "error", err)
	}
}

func (s *Session) currentState() sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) currentIdentity() auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// close tears the session down: it leaves every room, marks the session
// closed so no later dispatch can reach it, and releases the transport.
// Closing an already-closed session is a no-op.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		wasActive := s.state == stateActive
		s.state = stateClosed
		for key := range s.rooms {
			s.app.registry.Unsubscribe(key, s)
			delete(s.rooms, key)
		}
		s.mu.Unlock()

		if s.cancel != nil {
			s.cancel()
		}
		if s.conn != nil {
			_ = s.conn.Close()
		}
		if wasActive {
			s.app.metrics.ConnectedSessions.Dec()
		}
		s.app.logger.Info("websocket session closed", "session", s.id)
	})
}
