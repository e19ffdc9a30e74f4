// Package queue defines message payloads exchanged over the message broker.
package queue

// Actions carried by NoteActivityEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// NoteActivityEvent is published after a note mutation commits. It carries
// enough for downstream consumers to build an audit trail without querying
// the primary database. EventID is a fresh UUID so consumers can
// de-duplicate redeliveries.
type NoteActivityEvent struct {
	EventID    string `json:"event_id"`
	Action     string `json:"action"`
	NoteID     uint64 `json:"note_id"`
	OwnerID    uint64 `json:"owner_id"`
	Title      string `json:"title"`
	OccurredAt string `json:"occurred_at"`
}
