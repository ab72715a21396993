package webchat

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clinichub/clinic-gateway/internal/channel"
)

func dial(t *testing.T, a *WebChatAdapter, userID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user_id=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebChatRoundTrip(t *testing.T) {
	a := NewWebChatAdapter(0, slog.Default())
	conn := dial(t, a, "u1")

	if err := conn.WriteJSON(WSMessage{Type: "message", Content: "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case msg := <-a.Incoming():
		if msg.UserID != "u1" || msg.Content != "hello" || msg.Channel != "webchat" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	if err := a.SendMessage("u1", &channel.Response{Content: "hi there"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	var out WSMessage
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Type != "message" || out.Content != "hi there" {
		t.Fatalf("unexpected frame: %+v", out)
	}
}

func TestWebChatTypingFrame(t *testing.T) {
	a := NewWebChatAdapter(0, slog.Default())
	conn := dial(t, a, "u2")

	// Let the server register the connection before writing to it.
	if err := conn.WriteJSON(WSMessage{Type: "message", Content: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	<-a.Incoming()

	if err := a.SendTyping("u2", true); err != nil {
		t.Fatalf("send typing: %v", err)
	}
	var out WSMessage
	if err := conn.ReadJSON(&out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Type != "typing" || !out.On {
		t.Fatalf("unexpected frame: %+v", out)
	}
}

func TestWebChatFrameAfterStopIsDropped(t *testing.T) {
	a := NewWebChatAdapter(0, slog.Default())
	conn := dial(t, a, "u3")

	if err := conn.WriteJSON(WSMessage{Type: "message", Content: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	<-a.Incoming()

	// A socket still being read when the adapter stops drops its frames
	// instead of sending them on.
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(WSMessage{Type: "message", Content: "too late"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case msg := <-a.Incoming():
		t.Fatalf("frame delivered after stop: %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWebChatSendToUnknownUserIsNoop(t *testing.T) {
	a := NewWebChatAdapter(0, slog.Default())
	if err := a.SendMessage("ghost", &channel.Response{Content: "x"}); err != nil {
		t.Fatalf("expected nil for unknown user, got %v", err)
	}
}
