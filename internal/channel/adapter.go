package channel

import "context"

// Message represents an inbound message from a channel. Exactly one of
// Content or Postback carries the payload: Postback is set for structured
// button/quick-reply taps, Content for free text.
type Message struct {
	ID        string
	Channel   string
	UserID    string
	Content   string
	Postback  string
	Metadata  map[string]string
	Timestamp int64
}

// QuickReply is one tappable suggestion attached to a response.
type QuickReply struct {
	Title   string
	Payload string
}

// Response represents a reply to send back to a channel.
type Response struct {
	Content      string
	QuickReplies []QuickReply
	Metadata     map[string]string
}

// ChannelAdapter is the interface for channel adapters. Sends are
// fire-and-forget from the core's perspective: delivery failures are logged
// by the adapter and never retried or surfaced to the user.
type ChannelAdapter interface {
	// Start starts the channel adapter.
	Start(ctx context.Context) error

	// Stop stops the channel adapter.
	Stop() error

	// SendMessage sends a message to the channel.
	SendMessage(userID string, resp *Response) error

	// SendTyping toggles the typing indicator where the channel supports it.
	SendTyping(userID string, on bool) error

	// Incoming returns a channel of incoming messages.
	Incoming() <-chan *Message

	// Name returns the name of the channel adapter.
	Name() string

	// IsEnabled returns whether the channel is enabled.
	IsEnabled() bool
}
