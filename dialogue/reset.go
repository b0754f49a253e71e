package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/events"
	"github.com/mirrorlab/rehearse/oracle"
)

// ResetAudit is one entry in the session's resetActions history.
type ResetAudit struct {
	ID                 string    `json:"id"`
	ResetIndex         int       `json:"resetIndex"`
	ResetReason        string    `json:"resetReason"`
	ConversationLength int       `json:"conversationLength"`
	Timestamp          time.Time `json:"timestamp"`
}

// ResetPoint is a suggested rewind target: a message the user sent that the
// oracle judged a turning point worth retrying.
type ResetPoint struct {
	Index       int    `json:"index"`
	MessageText string `json:"messageText"`
	Reason      string `json:"reason"`
}

const defaultResetReason = "user initiated reset"

// ResetTo rewinds the conversation to the first i messages. Annotations on
// removed messages are dropped, an audit record is appended, and any
// generation in flight is invalidated so its late results are discarded.
// Resetting to the current length is a no-op truncation but still audited;
// repeating a reset to the same index is therefore always allowed, including
// ResetTo(0) on an empty conversation.
func (e *Engine) ResetTo(ctx context.Context, i int) error {
	e.mu.Lock()
	if e.state == StateCompleted {
		e.mu.Unlock()
		return chat.Validationf("conversation already completed")
	}
	if i < 0 || i > len(e.messages) {
		e.mu.Unlock()
		return chat.Validationf(fmt.Sprintf("reset index %d out of range [0,%d]", i, len(e.messages)))
	}

	audit := ResetAudit{
		ID:                 uuid.NewString(),
		ResetIndex:         i,
		ResetReason:        e.reasonFor(i),
		ConversationLength: len(e.messages),
		Timestamp:          time.Now().UTC(),
	}
	e.messages = e.messages[:i]
	for idx := range e.annotations {
		if idx >= i {
			delete(e.annotations, idx)
		}
	}
	e.resetCount++
	e.generation++
	e.suggestions = nil
	if i == 0 {
		e.state = StateEmpty
	} else {
		e.state = StateAwaitingUser
	}
	history := make([]chat.Message, len(e.messages))
	copy(history, e.messages)
	resetCount := e.resetCount
	e.mu.Unlock()

	e.persistSetField(ctx, fieldHistory, history)
	e.persistSetField(ctx, fieldAnnotations, e.annotationList())
	if err := e.store.AppendToArrayField(ctx, e.sessionID, fieldResets, audit); err != nil {
		e.logger.Error("persist reset audit failed", "session", e.sessionID, "error", err)
	}
	e.persistSetFieldWithTimestamp(ctx, fieldResetCount, resetCount)

	if err := e.events.Publish(events.SubjectReset, events.ResetEvent{
		SessionID:  e.sessionID,
		ResetIndex: i,
		Reason:     audit.ResetReason,
		ResetCount: resetCount,
		Timestamp:  audit.Timestamp,
	}); err != nil {
		e.logger.Warn("reset event publish failed", "error", err)
	}
	return nil
}

// reasonFor looks the index up in the last suggestion batch; a reset the
// oracle never suggested is recorded as user initiated. Caller holds e.mu.
func (e *Engine) reasonFor(i int) string {
	for _, s := range e.suggestions {
		if s.Index == i {
			return s.Reason
		}
	}
	return defaultResetReason
}

// SuggestResetPoints asks the oracle which of the user's own messages were
// turning points worth rewinding to. Conversations shorter than three
// messages have nothing worth suggesting. Failures degrade to no suggestions.
func (e *Engine) SuggestResetPoints(ctx context.Context) ([]ResetPoint, error) {
	e.mu.Lock()
	if e.state == StateEmpty {
		e.mu.Unlock()
		return nil, chat.Validationf("conversation not started")
	}
	msgs := make([]chat.Message, len(e.messages))
	copy(msgs, e.messages)
	e.mu.Unlock()

	if len(msgs) < 3 {
		return nil, nil
	}

	raw, err := e.llm.Complete(ctx, oracle.Request{
		System: "You analyze practice conversations and identify moments where the user's message made the conflict worse. Follow the output format exactly.",
		Messages: []oracle.Message{{Role: "user", Content: fmt.Sprintf(
			`Here is a conversation between "Me" (the user) and %s:

%s

Identify up to 3 messages SENT BY "Me" that escalated the conflict and would be worth retrying. For each one, output exactly:

RESET_POINT_1: <the full text of the message>
REASON_1: <one sentence explaining why retrying here would help>

(continue with RESET_POINT_2 / REASON_2 etc. as needed). Only quote messages sent by "Me".`,
			e.partnerName(), chat.RenderHistory(msgs))}},
		Temperature: 0.3,
	})
	if err != nil {
		e.logger.Warn("reset point suggestion failed", "session", e.sessionID, "error", err)
		return nil, nil
	}

	points := matchResetPoints(parseResetPoints(raw), msgs, e.logger)
	e.mu.Lock()
	e.suggestions = points
	e.mu.Unlock()
	return points, nil
}

// parseResetPoints extracts RESET_POINT_n / REASON_n pairs from the oracle's
// reply, tolerating missing reasons and out-of-order lines.
func parseResetPoints(raw string) []ResetPoint {
	texts := map[int]string{}
	reasons := map[int]string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if n, rest, ok := cutNumberedPrefix(line, "RESET_POINT_"); ok {
			texts[n] = rest
		} else if n, rest, ok := cutNumberedPrefix(line, "REASON_"); ok {
			reasons[n] = rest
		}
	}
	nums := make([]int, 0, len(texts))
	for n := range texts {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	out := make([]ResetPoint, 0, len(nums))
	for _, n := range nums {
		out = append(out, ResetPoint{MessageText: texts[n], Reason: reasons[n]})
	}
	return out
}

// cutNumberedPrefix parses lines like "RESET_POINT_2: text".
func cutNumberedPrefix(line, prefix string) (int, string, bool) {
	if !strings.HasPrefix(line, prefix) {
		return 0, "", false
	}
	rest := line[len(prefix):]
	colon := strings.Index(rest, ":")
	if colon < 1 {
		return 0, "", false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[:colon]))
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSpace(rest[colon+1:]), true
}

// matchResetPoints resolves quoted message text back to conversation indices.
// Matching is fuzzy: exact text, then a shared 15-character prefix, then two
// consecutive shared words. Only messages the user sent are eligible.
func matchResetPoints(points []ResetPoint, msgs []chat.Message, logger *slog.Logger) []ResetPoint {
	out := make([]ResetPoint, 0, len(points))
	for _, p := range points {
		idx := -1
		for i, m := range msgs {
			if m.Sender != chat.SelfName {
				continue
			}
			if textMatches(m.Text, p.MessageText) {
				idx = i
				break
			}
		}
		if idx < 0 {
			logger.Debug("suggested reset point did not match any user message", "text", p.MessageText)
			continue
		}
		p.Index = idx
		p.MessageText = msgs[idx].Text
		out = append(out, p)
	}
	return out
}

func textMatches(actual, quoted string) bool {
	a := strings.ToLower(strings.TrimSpace(actual))
	q := strings.ToLower(strings.TrimSpace(quoted))
	if a == "" || q == "" {
		return false
	}
	if a == q {
		return true
	}
	if len(q) >= 15 && strings.Contains(a, q[:15]) {
		return true
	}
	if len(a) >= 15 && strings.Contains(q, a[:15]) {
		return true
	}
	words := strings.Fields(q)
	for i := 0; i+1 < len(words); i++ {
		if strings.Contains(a, words[i]+" "+words[i+1]) {
			return true
		}
	}
	return false
}

func (e *Engine) partnerName() string {
	if e.partner.Speaker == "" {
		return "Partner"
	}
	return e.partner.Speaker
}
