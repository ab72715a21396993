package messaging

import (
	"context"
	"log/slog"
	"time"
)

// HeartbeatManager publishes periodic liveness beacons so the operator
// console can tell whether the gateway is up.
type HeartbeatManager struct {
	client  *RedisClient
	service string
	logger  *slog.Logger
	stopCh  chan struct{}
}

func NewHeartbeatManager(client *RedisClient, service string, logger *slog.Logger) *HeartbeatManager {
	return &HeartbeatManager{
		client:  client,
		service: service,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// StartHeartbeatLoop sends a heartbeat immediately and then every interval
// until the context is cancelled or Stop is called.
func (h *HeartbeatManager) StartHeartbeatLoop(ctx context.Context, interval time.Duration, metadata map[string]interface{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.SendHeartbeat(ctx, metadata)

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case <-ticker.C:
			if err := h.SendHeartbeat(ctx, metadata); err != nil {
				h.logger.Warn("heartbeat publish failed", "error", err)
			}
		}
	}
}

func (h *HeartbeatManager) Stop() {
	close(h.stopCh)
}

func (h *HeartbeatManager) SendHeartbeat(ctx context.Context, metadata map[string]interface{}) error {
	hb := HeartbeatMessage{
		Service:   h.service,
		Status:    "alive",
		Timestamp: time.Now().Unix(),
		Metadata:  metadata,
	}

	_, err := h.client.Publish(ctx, StreamHeartbeats, hb.ToRedisValues())
	return err
}
