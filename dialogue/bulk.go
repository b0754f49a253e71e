package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/events"
	"github.com/mirrorlab/rehearse/oracle"
	"github.com/mirrorlab/rehearse/profile"
)

// GenerateFull produces a complete practice conversation in one oracle call
// instead of turn by turn, then completes the session. Senders must alternate
// strictly starting from the oracle-chosen first speaker; malformed or
// out-of-turn lines are dropped. Valid only from the empty state. n <= 0 uses
// the configured bulk length.
func (e *Engine) GenerateFull(ctx context.Context, scenario string, self, partner profile.Profile, n int) ([]chat.Message, error) {
	e.mu.Lock()
	if e.state != StateEmpty {
		e.mu.Unlock()
		return nil, chat.Validationf("conversation already started")
	}
	if scenario == "" {
		e.mu.Unlock()
		return nil, chat.Validationf("scenario text is required")
	}
	if e.inFlight {
		e.mu.Unlock()
		return nil, chat.Validationf("a generation is already in progress")
	}
	if n <= 0 {
		n = e.bulkLen
	}
	e.scenario = scenario
	e.self = self
	e.partner = partner
	e.state = StateGeneratingOpening
	e.inFlight = true
	gen := e.generation
	e.mu.Unlock()

	e.persistSetField(ctx, fieldScenario, scenario)
	e.persistSetField(ctx, fieldProfiles, map[string]profile.Profile{
		chat.SelfName:   self,
		partner.Speaker: partner,
	})

	// A failed bulk generation returns the session to empty rather than
	// leaving a half-configured conversation behind.
	ok := false
	defer func() {
		if ok {
			e.clearInFlight(gen, StateCompleted)
		} else {
			e.clearInFlight(gen, StateEmpty)
		}
	}()

	first := e.decideFirstSpeaker(ctx)
	raw, err := e.llm.Complete(ctx, oracle.Request{
		System:      e.bulkSystemPrompt(n, first),
		Messages:    []oracle.Message{{Role: "user", Content: fmt.Sprintf("Generate the full %d-message conversation now.", n)}},
		Temperature: 0.8,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, fmt.Errorf("generate conversation: %w", err)
	}

	msgs := parseBulkConversation(raw, first, partner.Speaker, n)
	if len(msgs) == 0 {
		return nil, fmt.Errorf("generate conversation: no usable messages in response")
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return nil, chat.Validationf("conversation was reset during generation")
	}
	e.messages = append(e.messages, msgs...)
	out := make([]chat.Message, len(e.messages))
	copy(out, e.messages)
	e.mu.Unlock()
	ok = true

	for _, m := range msgs {
		e.persistAppend(ctx, m)
	}
	e.persistSetFieldWithTimestamp(ctx, fieldCompleted, true)
	if err := e.events.Publish(events.SubjectCompleted, events.CompletedEvent{
		SessionID:    e.sessionID,
		MessageCount: len(out),
		Timestamp:    time.Now().UTC(),
	}); err != nil {
		e.logger.Warn("completed event publish failed", "error", err)
	}
	return out, nil
}

func (e *Engine) bulkSystemPrompt(n int, first chat.Participant) string {
	return fmt.Sprintf(`You are writing a realistic text-message conversation between two partners about a conflict.

Scenario: %s

%s's conflict style: %s — %s
Me's conflict style: %s — %s

Rules:
- Produce EXACTLY %d messages.
- %s sends the first message, then the senders alternate strictly.
- Each message is one line in the form "Sender: text", where Sender is "Me" or %q.
- Keep each message short and natural, like a real text message.
- Output only the conversation lines, nothing else.`,
		e.scenario,
		e.partner.Speaker, e.partner.PrimaryType, e.partner.Pattern,
		e.self.PrimaryType, e.self.Pattern,
		n, first, e.partner.Speaker)
}

// parseBulkConversation parses "Sender: text" lines and enforces strict
// alternation from the expected first speaker. Lines that do not start with a
// known sender, or that arrive out of turn, are dropped.
func parseBulkConversation(raw string, first chat.Participant, partnerName string, n int) []chat.Message {
	expected := first
	out := make([]chat.Message, 0, n)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sender, text, ok := splitSenderLine(line, partnerName)
		if !ok || sender.String() != expected.String() {
			continue
		}
		out = append(out, chat.New(sender.String(), text))
		if len(out) == n {
			break
		}
		if expected.IsSelf() {
			expected = chat.Partner(partnerName)
		} else {
			expected = chat.Self()
		}
	}
	return out
}

func splitSenderLine(line, partnerName string) (chat.Participant, string, bool) {
	for _, name := range []string{chat.SelfName, partnerName} {
		prefix := name + ":"
		if strings.HasPrefix(line, prefix) {
			text := strings.TrimSpace(line[len(prefix):])
			if text == "" {
				return chat.Participant{}, "", false
			}
			return chat.ParseSender(name), text, true
		}
	}
	return chat.Participant{}, "", false
}
