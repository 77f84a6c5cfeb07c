package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fixloop/fixloop-backend/internal/pkg/logger"
)

// Run lifecycle event names published to the notification channel.
const (
	EventRunStarted         = "score_run.started"
	EventRunCompleted       = "score_run.completed"
	EventRunFailed          = "score_run.failed"
	EventFixScoreRecomputed = "fix_score.recomputed"
)

const runEventChannel = "fixloop:run-events"

// RunEvent is the JSON payload published for each lifecycle transition.
type RunEvent struct {
	Event    string    `json:"event"`
	TenantID uuid.UUID `json:"tenant_id,omitempty"`
	RunID    uuid.UUID `json:"run_id,omitempty"`
	TaskID   uuid.UUID `json:"task_id,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// RunNotifier publishes run lifecycle events for dashboards that poll or
// subscribe. Publishing is best-effort; a failed publish never fails the
// operation that triggered it.
type RunNotifier interface {
	Publish(ctx context.Context, event RunEvent)
}

type redisNotifier struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRunNotifier returns a Redis-backed notifier, or a no-op one when addr
// is empty.
func NewRunNotifier(addr string, baseLog *logger.Logger) RunNotifier {
	log := baseLog.With("service", "RunNotifier")
	if addr == "" {
		log.Info("REDIS_ADDR not set, run events disabled")
		return &noopNotifier{}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &redisNotifier{client: client, log: log}
}

func (n *redisNotifier) Publish(ctx context.Context, event RunEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	raw, err := json.Marshal(event)
	if err != nil {
		n.log.Warn("Encode run event failed", "event", event.Event, "error", err)
		return
	}
	if err := n.client.Publish(ctx, runEventChannel, raw).Err(); err != nil {
		n.log.Warn("Publish run event failed", "event", event.Event, "error", err)
	}
}

type noopNotifier struct{}

func (noopNotifier) Publish(context.Context, RunEvent) {}
