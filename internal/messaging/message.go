package messaging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Operator event types carried on the operator stream
const (
	EventOperatorReplied  = "replied"
	EventOperatorTakeover = "takeover"
	EventOperatorRelease  = "release"
)

// Consumer group names
const (
	ConsumerGroupGateway   = "gateway"
	ConsumerGroupOperators = "operators"
)

// Stream names
const (
	StreamOperatorEvents       = "clinic:operator:events"
	StreamHandoffNotifications = "clinic:handoff:notifications"
	StreamHeartbeats           = "clinic:heartbeat"
)

// OperatorEvent is an action taken by a human operator in the admin
// console, consumed by the gateway to keep handoff state in sync.
type OperatorEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	Operator string `json:"operator"`
	Channel  string `json:"channel,omitempty"`
	Created  int64  `json:"created"`
}

// NewOperatorEvent creates an event with a generated ID and timestamp
func NewOperatorEvent(eventType, userID, operator string) OperatorEvent {
	return OperatorEvent{
		ID:       uuid.NewString(),
		Type:     eventType,
		UserID:   userID,
		Operator: operator,
		Created:  time.Now().Unix(),
	}
}

// ToRedisValues converts OperatorEvent to Redis stream values
func (e OperatorEvent) ToRedisValues() map[string]interface{} {
	return map[string]interface{}{
		"id":       e.ID,
		"type":     e.Type,
		"user_id":  e.UserID,
		"operator": e.Operator,
		"channel":  e.Channel,
		"created":  strconv.FormatInt(e.Created, 10),
	}
}

// OperatorEventFromRedisValues creates OperatorEvent from Redis stream values
func OperatorEventFromRedisValues(values map[string]interface{}) (*OperatorEvent, error) {
	ev := &OperatorEvent{}

	if v, ok := values["id"].(string); ok {
		ev.ID = v
	}
	if v, ok := values["type"].(string); ok {
		ev.Type = v
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("operator event missing type")
	}
	if v, ok := values["user_id"].(string); ok {
		ev.UserID = v
	}
	if ev.UserID == "" {
		return nil, fmt.Errorf("operator event missing user_id")
	}
	if v, ok := values["operator"].(string); ok {
		ev.Operator = v
	}
	if v, ok := values["channel"].(string); ok {
		ev.Channel = v
	}
	if v, ok := values["created"].(string); ok {
		created, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created: %w", err)
		}
		ev.Created = created
	}

	return ev, nil
}

// HandoffNotice announces to operators that a conversation needs a human.
type HandoffNotice struct {
	UserID  string `json:"user_id"`
	Channel string `json:"channel"`
	Created int64  `json:"created"`
}

// ToRedisValues converts HandoffNotice to Redis stream values
func (n HandoffNotice) ToRedisValues() map[string]interface{} {
	return map[string]interface{}{
		"user_id": n.UserID,
		"channel": n.Channel,
		"created": strconv.FormatInt(n.Created, 10),
	}
}

// HandoffNoticeFromRedisValues creates HandoffNotice from Redis values
func HandoffNoticeFromRedisValues(values map[string]interface{}) (*HandoffNotice, error) {
	n := &HandoffNotice{}

	if v, ok := values["user_id"].(string); ok {
		n.UserID = v
	}
	if n.UserID == "" {
		return nil, fmt.Errorf("handoff notice missing user_id")
	}
	if v, ok := values["channel"].(string); ok {
		n.Channel = v
	}
	if v, ok := values["created"].(string); ok {
		created, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created: %w", err)
		}
		n.Created = created
	}

	return n, nil
}

// HeartbeatMessage is a liveness beacon published by the gateway
type HeartbeatMessage struct {
	Service   string                 `json:"service"`
	Status    string                 `json:"status"`
	Timestamp int64                  `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ToRedisValues converts HeartbeatMessage to Redis stream values
func (h HeartbeatMessage) ToRedisValues() map[string]interface{} {
	metadataJSON, _ := json.Marshal(h.Metadata)
	return map[string]interface{}{
		"service":   h.Service,
		"status":    h.Status,
		"timestamp": strconv.FormatInt(h.Timestamp, 10),
		"metadata":  string(metadataJSON),
	}
}

// HeartbeatFromRedisValues creates HeartbeatMessage from Redis values
func HeartbeatFromRedisValues(values map[string]interface{}) (*HeartbeatMessage, error) {
	hb := &HeartbeatMessage{}

	if v, ok := values["service"].(string); ok {
		hb.Service = v
	}
	if v, ok := values["status"].(string); ok {
		hb.Status = v
	}
	if v, ok := values["timestamp"].(string); ok {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		hb.Timestamp = ts
	}
	if v, ok := values["metadata"].(string); ok && v != "" {
		json.Unmarshal([]byte(v), &hb.Metadata)
	}

	return hb, nil
}
