// Package bridge connects the gateway to the operator console over Redis
// Streams: handoff notices go out, operator actions come back in.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinichub/clinic-gateway/internal/messaging"
)

// HandoffControl is the slice of the handoff manager the bridge drives.
type HandoffControl interface {
	OperatorReplied(userID string) error
	Enable(userID string) error
	Disable(userID string) error
}

// RedisBridgeConfig configures the Redis bridge
type RedisBridgeConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ServiceName   string
}

// RedisBridge consumes operator events and publishes handoff notices
// and heartbeats.
type RedisBridge struct {
	client       *messaging.RedisClient
	heartbeatMgr *messaging.HeartbeatManager
	serviceName  string
	handoff      HandoffControl
	logger       *slog.Logger
	stopCh       chan struct{}
}

func NewRedisBridge(cfg RedisBridgeConfig, handoff HandoffControl, logger *slog.Logger) (*RedisBridge, error) {
	redisClient, err := messaging.NewRedisClient(messaging.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	heartbeatMgr := messaging.NewHeartbeatManager(redisClient, cfg.ServiceName, logger)

	return &RedisBridge{
		client:       redisClient,
		heartbeatMgr: heartbeatMgr,
		serviceName:  cfg.ServiceName,
		handoff:      handoff,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}, nil
}

// Start begins consuming operator events and publishing heartbeats.
func (b *RedisBridge) Start(ctx context.Context) error {
	events, err := b.client.Subscribe(ctx, messaging.StreamOperatorEvents,
		messaging.ConsumerGroupGateway, b.serviceName)
	if err != nil {
		return fmt.Errorf("failed to subscribe to operator events: %w", err)
	}

	go b.consumeEvents(ctx, events)
	go b.heartbeatMgr.StartHeartbeatLoop(ctx, 30*time.Second, map[string]interface{}{
		"type": "gateway",
	})

	b.logger.Info("redis bridge started", "service", b.serviceName)
	return nil
}

func (b *RedisBridge) consumeEvents(ctx context.Context, events <-chan messaging.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			ev, err := messaging.OperatorEventFromRedisValues(msg.Values)
			if err != nil {
				b.logger.Warn("malformed operator event", "stream_id", msg.ID, "error", err)
				continue
			}
			b.Dispatch(ev)
		}
	}
}

// Dispatch applies one operator event to handoff state. Unknown users
// and unknown event types are logged and dropped.
func (b *RedisBridge) Dispatch(ev *messaging.OperatorEvent) {
	var err error
	switch ev.Type {
	case messaging.EventOperatorReplied:
		err = b.handoff.OperatorReplied(ev.UserID)
	case messaging.EventOperatorTakeover:
		err = b.handoff.Enable(ev.UserID)
	case messaging.EventOperatorRelease:
		err = b.handoff.Disable(ev.UserID)
	default:
		b.logger.Warn("unknown operator event type", "type", ev.Type, "user_id", ev.UserID)
		return
	}
	if err != nil {
		b.logger.Warn("operator event dropped", "type", ev.Type, "user_id", ev.UserID, "error", err)
		return
	}
	b.logger.Info("operator event applied", "type", ev.Type, "user_id", ev.UserID, "operator", ev.Operator)
}

// PublishHandoff announces a conversation waiting for a human. Satisfies
// the handoff manager's publisher interface.
func (b *RedisBridge) PublishHandoff(ctx context.Context, userID, channel string) error {
	notice := messaging.HandoffNotice{
		UserID:  userID,
		Channel: channel,
		Created: time.Now().Unix(),
	}
	_, err := b.client.Publish(ctx, messaging.StreamHandoffNotifications, notice.ToRedisValues())
	if err != nil {
		return fmt.Errorf("failed to publish handoff notice: %w", err)
	}
	return nil
}

// Stop stops the bridge integration
func (b *RedisBridge) Stop() error {
	close(b.stopCh)
	b.heartbeatMgr.Stop()
	return b.client.Close()
}

// IsConnected checks if the Redis connection is active
func (b *RedisBridge) IsConnected(ctx context.Context) bool {
	return b.client.IsConnected(ctx)
}
