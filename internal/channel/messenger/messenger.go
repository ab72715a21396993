// Package messenger adapts the Facebook Messenger platform: webhook intake
// (verification handshake + page events) and Graph API sends.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/clinichub/clinic-gateway/internal/channel"
)

const defaultAPIBase = "https://graph.facebook.com/v18.0"

// Config holds the Messenger adapter settings.
type Config struct {
	PageToken   string
	VerifyToken string
	APIBase     string
}

// MessengerAdapter is webhook-driven: Start has nothing to poll, inbound
// traffic arrives through the webhook handlers the HTTP server mounts.
type MessengerAdapter struct {
	pageToken   string
	verifyToken string
	apiBase     string
	httpClient  *http.Client
	incoming    chan *channel.Message
	stopped     atomic.Bool
	logger      *slog.Logger
}

// NewMessengerAdapter creates a Messenger adapter.
func NewMessengerAdapter(cfg Config, logger *slog.Logger) *MessengerAdapter {
	base := cfg.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return &MessengerAdapter{
		pageToken:   cfg.PageToken,
		verifyToken: cfg.VerifyToken,
		apiBase:     base,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		incoming:    make(chan *channel.Message, 100),
		logger:      logger,
	}
}

func (m *MessengerAdapter) Name() string { return "messenger" }

func (m *MessengerAdapter) IsEnabled() bool { return m.pageToken != "" }

func (m *MessengerAdapter) Start(ctx context.Context) error { return nil }

// Stop marks the adapter stopped. The incoming channel is never closed: the
// HTTP server may still be draining webhook deliveries, and the handlers
// drop events instead of sending after this point.
func (m *MessengerAdapter) Stop() error {
	m.stopped.Store(true)
	return nil
}

func (m *MessengerAdapter) Incoming() <-chan *channel.Message {
	return m.incoming
}

// VerifyHandler answers the platform's webhook verification handshake: the
// challenge is echoed only when the pre-shared token matches.
func (m *MessengerAdapter) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == m.verifyToken {
		m.logger.Info("webhook verified")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	w.WriteHeader(http.StatusForbidden)
}

// ReceiveHandler accepts page webhook deliveries, fans every messaging event
// into the incoming channel and acks immediately.
func (m *MessengerAdapter) ReceiveHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if payload.Object != "page" {
		http.Error(w, "not a page event", http.StatusNotFound)
		return
	}

	for _, entry := range payload.Entry {
		for _, ev := range entry.Messaging {
			msg := m.toMessage(entry.ID, ev)
			if msg == nil {
				continue
			}
			if m.stopped.Load() {
				m.logger.Warn("adapter stopped, dropping event", "user", msg.UserID)
				continue
			}
			select {
			case m.incoming <- msg:
			default:
				m.logger.Warn("inbound buffer full, dropping event", "user", msg.UserID)
			}
		}
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "EVENT_RECEIVED")
}

func (m *MessengerAdapter) toMessage(pageID string, ev messagingEvent) *channel.Message {
	msg := &channel.Message{
		ID:        uuid.NewString(),
		Channel:   "messenger",
		UserID:    ev.Sender.ID,
		Metadata:  map[string]string{"page_id": pageID},
		Timestamp: ev.Timestamp / 1000,
	}
	switch {
	case ev.Postback != nil:
		msg.Postback = ev.Postback.Payload
	case ev.Message != nil && ev.Message.QuickReply != nil:
		msg.Postback = ev.Message.QuickReply.Payload
	case ev.Message != nil:
		msg.Content = ev.Message.Text
	default:
		return nil
	}
	return msg
}

// SendMessage posts a reply via the Graph API. Failures are logged and
// returned, but delivery is fire-and-forget: the caller does not retry.
func (m *MessengerAdapter) SendMessage(userID string, resp *channel.Response) error {
	message := map[string]interface{}{"text": resp.Content}
	if len(resp.QuickReplies) > 0 {
		quick := make([]map[string]string, 0, len(resp.QuickReplies))
		for _, qr := range resp.QuickReplies {
			quick = append(quick, map[string]string{
				"content_type": "text",
				"title":        qr.Title,
				"payload":      qr.Payload,
			})
		}
		message["quick_replies"] = quick
	}

	return m.post(map[string]interface{}{
		"recipient":      map[string]string{"id": userID},
		"message":        message,
		"messaging_type": "RESPONSE",
	})
}

// SendTyping toggles the typing indicator.
func (m *MessengerAdapter) SendTyping(userID string, on bool) error {
	action := "typing_on"
	if !on {
		action = "typing_off"
	}
	return m.post(map[string]interface{}{
		"recipient":     map[string]string{"id": userID},
		"sender_action": action,
	})
}

func (m *MessengerAdapter) post(body map[string]interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/me/messages?access_token=%s", m.apiBase, m.pageToken)
	resp, err := m.httpClient.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		m.logger.Error("messenger send failed", "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("graph API returned status %d: %s", resp.StatusCode, string(raw))
		m.logger.Error("messenger send rejected", "error", err)
		return err
	}
	return nil
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID        string           `json:"id"`
		Messaging []messagingEvent `json:"messaging"`
	} `json:"entry"`
}

type messagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Timestamp int64 `json:"timestamp"`
	Message   *struct {
		Text       string `json:"text"`
		QuickReply *struct {
			Payload string `json:"payload"`
		} `json:"quick_reply"`
	} `json:"message"`
	Postback *struct {
		Payload string `json:"payload"`
	} `json:"postback"`
}
