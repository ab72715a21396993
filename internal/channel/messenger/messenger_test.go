package messenger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinichub/clinic-gateway/internal/channel"
	"github.com/clinichub/clinic-gateway/internal/logging"
)

func newTestAdapter(apiBase string) *MessengerAdapter {
	return NewMessengerAdapter(Config{
		PageToken:   "page-token",
		VerifyToken: "verify-token",
		APIBase:     apiBase,
	}, logging.WithComponent("test"))
}

func TestVerifyHandshake(t *testing.T) {
	a := newTestAdapter("")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	a.VerifyHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "12345" {
		t.Errorf("challenge echo = %q", rec.Body.String())
	}
}

func TestVerifyRejectsBadToken(t *testing.T) {
	a := newTestAdapter("")

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	a.VerifyHandler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestReceiveFansOutEvents(t *testing.T) {
	a := newTestAdapter("")

	body := `{
		"object": "page",
		"entry": [{"id": "p1", "messaging": [
			{"sender": {"id": "u1"}, "timestamp": 1724990000000, "message": {"text": "hello"}},
			{"sender": {"id": "u2"}, "timestamp": 1724990001000, "postback": {"payload": "CLINIC_HOURS"}},
			{"sender": {"id": "u3"}, "timestamp": 1724990002000, "message": {"text": "tapped", "quick_reply": {"payload": "EMERGENCY"}}}
		]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.ReceiveHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "EVENT_RECEIVED" {
		t.Errorf("ack = %q", rec.Body.String())
	}

	first := <-a.Incoming()
	if first.UserID != "u1" || first.Content != "hello" || first.Postback != "" {
		t.Errorf("text event mangled: %+v", first)
	}
	second := <-a.Incoming()
	if second.UserID != "u2" || second.Postback != "CLINIC_HOURS" {
		t.Errorf("postback event mangled: %+v", second)
	}
	third := <-a.Incoming()
	if third.Postback != "EMERGENCY" {
		t.Errorf("quick reply tap must arrive as a postback: %+v", third)
	}
}

func TestReceiveAfterStopDropsEvent(t *testing.T) {
	a := newTestAdapter("")
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}

	// A webhook delivery can land while the HTTP server is still draining
	// after the adapter stopped. It must be acked and dropped, never sent.
	body := `{
		"object": "page",
		"entry": [{"id": "p1", "messaging": [
			{"sender": {"id": "u1"}, "timestamp": 1724990000000, "message": {"text": "hello"}}
		]}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.ReceiveHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	select {
	case msg := <-a.Incoming():
		t.Errorf("event delivered after stop: %+v", msg)
	default:
	}
}

func TestReceiveRejectsNonPageObjects(t *testing.T) {
	a := newTestAdapter("")
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"object":"user"}`))
	rec := httptest.NewRecorder()
	a.ReceiveHandler(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSendMessage(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "page-token" {
			t.Errorf("missing access token")
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"message_id":"mid.1"}`))
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)
	err := a.SendMessage("u1", &channel.Response{
		Content:      "How can I help you today?",
		QuickReplies: []channel.QuickReply{{Title: "Clinic Hours", Payload: "CLINIC_HOURS"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	recipient := got["recipient"].(map[string]interface{})
	if recipient["id"] != "u1" {
		t.Errorf("recipient = %v", recipient)
	}
	message := got["message"].(map[string]interface{})
	if message["text"] != "How can I help you today?" {
		t.Errorf("text = %v", message["text"])
	}
	if _, ok := message["quick_replies"]; !ok {
		t.Error("quick replies missing")
	}
}

func TestSendTypingAndDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["sender_action"] == "typing_on" {
			w.Write([]byte(`{}`))
			return
		}
		// Simulate an unreachable recipient for everything else.
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"user unavailable"}}`))
	}))
	defer srv.Close()

	a := newTestAdapter(srv.URL)
	if err := a.SendTyping("u1", true); err != nil {
		t.Fatal(err)
	}
	// A delivery failure is returned for logging but carries no retry.
	if err := a.SendMessage("gone-user", &channel.Response{Content: "hi"}); err == nil {
		t.Error("expected delivery error")
	}
}
