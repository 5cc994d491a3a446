package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/compass/pkg/logger"
)

// Socket message types.
const (
	MessageNavigate = "navigate"
	MessageSetToken = "set_token"
)

const defaultWriteTimeout = 5 * time.Second

// Message is the JSON frame exchanged with the browser.
type Message struct {
	Type  string `json:"type"`
	Token string `json:"token"`
	Path  string `json:"path,omitempty"`
}

// Socket is a Backend driven by a browser over a WebSocket connection.
type Socket struct {
	listeners
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	conn         *websocket.Conn
	token        string
	path         string
	writeTimeout time.Duration
	mu           sync.Mutex
	writeMu      sync.Mutex
	enabled      bool
}

// SocketOption configures a Socket backend.
type SocketOption func(*Socket)

// WithSocketLogger sets the logger used for connection events.
func WithSocketLogger(l *slog.Logger) SocketOption {
	return func(s *Socket) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCheckOrigin sets the origin check applied during the upgrade.
// By default the websocket package rejects cross-origin requests.
func WithCheckOrigin(fn func(r *http.Request) bool) SocketOption {
	return func(s *Socket) {
		s.upgrader.CheckOrigin = fn
	}
}

// WithSocketToken sets the token reported before a client connects.
func WithSocketToken(token string) SocketOption {
	return func(s *Socket) {
		s.token = token
	}
}

// WithWriteTimeout bounds each write to the client.
func WithWriteTimeout(d time.Duration) SocketOption {
	return func(s *Socket) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// NewSocket creates a socket backend with no client attached.
func NewSocket(opts ...SocketOption) *Socket {
	s := &Socket{
		logger:       logger.NewNope(),
		path:         "/",
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the last known location token.
func (s *Socket) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Path returns the last pathname reported by the client.
func (s *Socket) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SetEnabled turns notifications on or off.
func (s *Socket) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Listen subscribes to navigate notifications.
func (s *Socket) Listen(l Listener) func() {
	return s.listen(l)
}

// Connected reports whether a client is attached.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// SetToken records token, pushes it to the attached client and notifies
// listeners. Without a client only the local state changes; a failed push
// is logged.
func (s *Socket) SetToken(token string) {
	s.mu.Lock()
	if s.token == token {
		s.mu.Unlock()
		return
	}
	s.token = token
	enabled := s.enabled
	s.mu.Unlock()

	if err := s.send(Message{Type: MessageSetToken, Token: token}); err != nil && !errors.Is(err, ErrNotConnected) {
		s.logger.Warn("history: push token failed", slog.String("token", token), slog.Any("error", err))
	}

	if enabled {
		s.notify(Event{Token: token})
	}
}

// ServeHTTP upgrades the request and reads client messages until the
// connection closes.
func (s *Socket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("history: upgrade failed", slog.Any("error", err))
		return
	}

	s.attach(conn)
	s.logger.Info("history: client connected", slog.String("remote", r.RemoteAddr))
	defer s.detach(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				s.logger.Error("history: read failed", slog.Any("error", err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("history: invalid message", slog.Any("error", err))
			continue
		}
		if err := s.handle(msg); err != nil {
			s.logger.Warn("history: message rejected", slog.String("type", msg.Type), slog.Any("error", err))
		}
	}
}

func (s *Socket) handle(msg Message) error {
	switch msg.Type {
	case MessageNavigate:
		s.mu.Lock()
		s.token = msg.Token
		if msg.Path != "" {
			s.path = msg.Path
		}
		enabled := s.enabled
		s.mu.Unlock()

		if enabled {
			s.notify(Event{Token: msg.Token, IsNavigation: true})
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
}

func (s *Socket) attach(conn *websocket.Conn) {
	s.mu.Lock()
	prev := s.conn
	s.conn = conn
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
}

func (s *Socket) detach(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()

	_ = conn.Close()
	s.logger.Info("history: client disconnected")
}

func (s *Socket) send(msg Message) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
