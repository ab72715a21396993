// Package webchat is a websocket channel used for local testing and the
// operator-side preview: one socket per user, JSON frames in both directions.
package webchat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clinichub/clinic-gateway/internal/channel"
)

type WebChatAdapter struct {
	port     int
	incoming chan *channel.Message
	upgrader websocket.Upgrader
	conns    map[string]*websocket.Conn
	connMux  sync.RWMutex
	stopCh   chan struct{}
	stopped  atomic.Bool
	logger   *slog.Logger
}

// WSMessage is one JSON frame on the socket.
type WSMessage struct {
	Type    string `json:"type"` // "message" | "typing"
	Content string `json:"content,omitempty"`
	Payload string `json:"payload,omitempty"`
	On      bool   `json:"on,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

func NewWebChatAdapter(port int, logger *slog.Logger) *WebChatAdapter {
	return &WebChatAdapter{
		port:     port,
		incoming: make(chan *channel.Message, 100),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:  make(map[string]*websocket.Conn),
		stopCh: make(chan struct{}),
		logger: logger,
	}
}

func (w *WebChatAdapter) Name() string { return "webchat" }

func (w *WebChatAdapter) IsEnabled() bool { return w.port > 0 }

func (w *WebChatAdapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", w.wsHandler)
	server := &http.Server{Addr: ":" + strconv.Itoa(w.port), Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			w.logger.Error("webchat server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
		close(w.stopCh)
	}()

	return nil
}

// Stop marks the adapter stopped. Sockets still being read drop their frames
// instead of sending; the incoming channel is never closed because readers
// may outlive Stop.
func (w *WebChatAdapter) Stop() error {
	w.stopped.Store(true)
	return nil
}

func (w *WebChatAdapter) SendMessage(userID string, resp *channel.Response) error {
	return w.writeFrame(userID, WSMessage{Type: "message", Content: resp.Content})
}

func (w *WebChatAdapter) SendTyping(userID string, on bool) error {
	return w.writeFrame(userID, WSMessage{Type: "typing", On: on})
}

func (w *WebChatAdapter) writeFrame(userID string, msg WSMessage) error {
	w.connMux.RLock()
	conn, exists := w.conns[userID]
	w.connMux.RUnlock()
	if !exists {
		return nil // user already disconnected; delivery is fire-and-forget
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (w *WebChatAdapter) Incoming() <-chan *channel.Message {
	return w.incoming
}

// Handler exposes the websocket endpoint for mounting on an existing mux.
func (w *WebChatAdapter) Handler() http.HandlerFunc {
	return w.wsHandler
}

func (w *WebChatAdapter) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous_" + strconv.FormatInt(time.Now().Unix(), 10)
	}

	w.connMux.Lock()
	w.conns[userID] = conn
	w.connMux.Unlock()

	defer func() {
		w.connMux.Lock()
		delete(w.conns, userID)
		w.connMux.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-w.stopCh:
			return
		default:
			var msg WSMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != "message" {
				continue
			}
			if w.stopped.Load() {
				return
			}
			w.incoming <- &channel.Message{
				ID:        strconv.FormatInt(time.Now().UnixNano(), 10),
				Channel:   "webchat",
				UserID:    userID,
				Content:   msg.Content,
				Postback:  msg.Payload,
				Metadata:  map[string]string{"connection_id": userID},
				Timestamp: time.Now().Unix(),
			}
		}
	}
}
