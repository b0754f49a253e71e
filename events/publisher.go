// Package events publishes session audit events for downstream consumers
// (research logging, analytics). Publishing is fire-and-forget; the engine
// never blocks on it.
package events

import "time"

// Subjects for the events the engine emits.
const (
	SubjectReset     = "rehearse.session.reset"
	SubjectCompleted = "rehearse.session.completed"
)

// ResetEvent is emitted after a reset-to-point succeeds.
type ResetEvent struct {
	SessionID  string    `json:"session_id"`
	ResetIndex int       `json:"reset_index"`
	Reason     string    `json:"reason"`
	ResetCount int       `json:"reset_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// CompletedEvent is emitted when a conversation is finished.
type CompletedEvent struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	ResetCount   int       `json:"reset_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher is the outbound event contract.
type Publisher interface {
	Publish(subject string, data any) error
	Close()
}

// Nop discards all events. Used when no bus is configured.
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }
func (Nop) Close()                    {}
