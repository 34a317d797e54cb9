// Package events carries audit events about the diary to RabbitMQ. Events
// hold identifiers and timestamps only, never entry content.
package events

import (
	"context"
	"fmt"
	"time"
)

// Event types.
const (
	TypeInitialized  = "system.initialized"
	TypeEntrySaved   = "entry.saved"
	TypeEntryDeleted = "entry.deleted"
)

// Event is a single audit record.
type Event struct {
	Type       string    `json:"type"`
	EntryID    string    `json:"entryId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// FormatLine renders ev as one line of the audit log.
func FormatLine(ev Event) string {
	line := fmt.Sprintf("[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type)
	if ev.EntryID != "" {
		line += fmt.Sprintf(" | entry_id=%s", ev.EntryID)
	}
	return line + "\n"
}
