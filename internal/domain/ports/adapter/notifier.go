package adapter

import "context"

// NotificationIntent is the outbound confirmation signal handed to the
// messaging collaborator after a reconcile commits. It carries identifiers
// only; composing user-facing copy is the collaborator's job.
type NotificationIntent struct {
	Kind      string // "payment_applied" | "payment_refunded" | "subscription_expired"
	UserID    string
	ServiceID string
	ChargeRef string
}

// Notifier accepts intents after commit. Dispatch is best-effort: a full
// queue or a failed send must never unwind committed financial state.
type Notifier interface {
	Enqueue(intent NotificationIntent) bool
}

// MessageSender is the transport the dispatch worker drains into
// (Telegram in production, a noop in tests).
type MessageSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}
