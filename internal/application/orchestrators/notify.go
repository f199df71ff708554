package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"ecocrew/internal/adapters/markdown"
	"ecocrew/internal/adapters/sns"
	domainOutbox "ecocrew/internal/domain/outbox"
)

// OutboxEnqueuer persists outbox entries for the background worker.
type OutboxEnqueuer interface {
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// EmailPayload is the JSON stored on an email outbox entry.
type EmailPayload struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// Notification is one message to fan out through the outbox. Email is skipped
// when To is empty; SNS is skipped when Event is empty.
type Notification struct {
	To       []string
	Subject  string
	Markdown string
	Event    string            // SNS "event" attribute
	Attrs    map[string]string // extra SNS attributes
}

// enqueueNotification writes an email entry and an SNS entry for n.
// Failures are logged; the state change that triggered n has already committed.
// POST: returns the number of entries enqueued
func enqueueNotification(ctx context.Context, store OutboxEnqueuer, generateID func() string, now time.Time, n Notification) int {
	if store == nil {
		return 0
	}
	enqueued := 0

	if len(n.To) > 0 {
		payload := EmailPayload{
			To:      n.To,
			Subject: n.Subject,
			HTML:    markdown.ToHTML(n.Markdown),
			Text:    n.Markdown,
		}
		if err := enqueue(ctx, store, generateID(), domainOutbox.ActionTypeEmail, payload, now); err != nil {
			slog.Error("outbox_enqueue_failed", "action_type", domainOutbox.ActionTypeEmail, "subject", n.Subject, "error", err)
		} else {
			enqueued++
		}
	}

	if n.Event != "" {
		attrs := map[string]string{"event": n.Event}
		for k, v := range n.Attrs {
			attrs[k] = v
		}
		msg := sns.Message{Subject: n.Subject, Body: n.Markdown, Attributes: attrs}
		if err := enqueue(ctx, store, generateID(), domainOutbox.ActionTypeSNS, msg, now); err != nil {
			slog.Error("outbox_enqueue_failed", "action_type", domainOutbox.ActionTypeSNS, "event", n.Event, "error", err)
		} else {
			enqueued++
		}
	}
	return enqueued
}

func enqueue(ctx context.Context, store OutboxEnqueuer, id, actionType string, payload any, now time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", actionType, err)
	}
	entry := domainOutbox.New(id, actionType, string(body), now)
	if err := entry.Validate(); err != nil {
		return err
	}
	return store.Save(ctx, entry)
}
