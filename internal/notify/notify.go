// Package notify emits side-effect-free events for the notification
// collaborator. Emission is fire-and-forget: the engine never blocks on or
// retries delivery; River owns the retry policy once the job row exists.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Event types the engine emits.
const (
	EventUnlockSucceeded = "unlock_succeeded"
	EventQuotaExhausted  = "quota_exhausted"
)

type EventArgs struct {
	Type      string          `json:"type"`
	AccountID uuid.UUID       `json:"account_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (EventArgs) Kind() string { return "notify_event" }

// InsertFunc enqueues an event job. Provided by main using river.Client.Insert.
type InsertFunc func(ctx context.Context, args EventArgs) error

// Notifier hands events to the background queue without surfacing failures to
// the request path.
type Notifier struct {
	insert InsertFunc
	log    *slog.Logger
}

func NewNotifier(insert InsertFunc, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{insert: insert, log: log}
}

// Emit enqueues the event. Errors are logged, never returned: a lost
// notification must not fail the action that produced it.
func (n *Notifier) Emit(ctx context.Context, eventType string, accountID uuid.UUID, payload any) {
	if n == nil || n.insert == nil {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			n.log.Error("marshal notify payload", "type", eventType, "error", err)
			return
		}
		raw = b
	}
	if err := n.insert(ctx, EventArgs{Type: eventType, AccountID: accountID, Payload: raw}); err != nil {
		n.log.Error("enqueue notify event", "type", eventType, "error", err)
	}
}

// WebhookPoster delivers an event to the notification collaborator.
type WebhookPoster interface {
	Post(ctx context.Context, args EventArgs) error
}

// EventWorker delivers enqueued events.
type EventWorker struct {
	river.WorkerDefaults[EventArgs]
	poster WebhookPoster
	log    *slog.Logger
}

func NewEventWorker(poster WebhookPoster, log *slog.Logger) *EventWorker {
	if log == nil {
		log = slog.Default()
	}
	return &EventWorker{poster: poster, log: log}
}

func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventArgs]) error {
	if w.poster == nil {
		// No collaborator configured; events are observable in the log only.
		w.log.Info("notify event", "type", job.Args.Type, "account_id", job.Args.AccountID)
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return w.poster.Post(ctx, job.Args)
}
