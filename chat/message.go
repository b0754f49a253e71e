package chat

import (
	"strings"
	"time"
)

// SelfName is the reserved display name for the session owner. It is the only
// sender name with special meaning; everything else is a partner name.
const SelfName = "Me"

// Message is one chat message. Messages are immutable once created and
// append-only within a conversation. Order is only set on imported messages
// (1-based); live messages rely on slice position.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Order     int       `json:"order,omitempty"`
}

// New builds a live message stamped with the current time.
func New(sender, text string) Message {
	return Message{Sender: sender, Text: text, Timestamp: time.Now().UTC()}
}

// Participant distinguishes the session owner from a named partner without
// leaking the reserved "Me" string through the codebase.
type Participant struct {
	self bool
	name string
}

func Self() Participant               { return Participant{self: true} }
func Partner(name string) Participant { return Participant{name: name} }

func (p Participant) IsSelf() bool { return p.self }

// String returns the display/persisted sender name for the participant.
func (p Participant) String() string {
	if p.self {
		return SelfName
	}
	return p.name
}

// ParseSender maps a persisted sender name back to a Participant. This is the
// single place the reserved name is interpreted.
func ParseSender(name string) Participant {
	if name == SelfName {
		return Self()
	}
	return Partner(name)
}

// RenderHistory renders messages as "sender: text" lines, the form every
// conversation prompt uses.
func RenderHistory(msgs []Message) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Sender)
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}
