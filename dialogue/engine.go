// Package dialogue drives a persisted, resettable simulated conversation
// between the session owner and an oracle-role-played partner.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mirrorlab/rehearse/annotate"
	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/events"
	"github.com/mirrorlab/rehearse/oracle"
	"github.com/mirrorlab/rehearse/profile"
	"github.com/mirrorlab/rehearse/store"
)

// State is the engine's lifecycle position.
type State int

const (
	StateEmpty State = iota
	StateGeneratingOpening
	StateAwaitingUser
	StateGeneratingReply
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateGeneratingOpening:
		return "generating_opening"
	case StateAwaitingUser:
		return "awaiting_user"
	case StateGeneratingReply:
		return "generating_reply"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Persisted field names, kept compatible with the original session document.
const (
	fieldScenario    = "conflictScenario"
	fieldProfiles    = "gottmanAnalysis"
	fieldHistory     = "chatHistory"
	fieldResets      = "resetActions"
	fieldResetCount  = "resetCount"
	fieldAnnotations = "annotations"
	fieldCompleted   = "conversationCompleted"
	fieldFeedback    = "conversationFeedback"
)

const fallbackFeedback = "Thank you for completing the conversation. Practicing difficult talks like this one takes real effort, and every attempt makes the next one easier."

// Engine is the per-session conversation state machine. All mutation goes
// through its methods; there is exactly one active writer per session. The
// mutex is released around oracle calls, and a generation counter discards
// results that complete after a reset.
type Engine struct {
	llm    oracle.Completer
	store  store.Store
	events events.Publisher
	logger *slog.Logger

	sessionID string
	delay     time.Duration
	bulkLen   int

	mu          sync.Mutex
	state       State
	scenario    string
	self        profile.Profile
	partner     profile.Profile
	messages    []chat.Message
	annotations map[int]*annotate.Annotation
	checker     *annotate.Checker
	suggestions []ResetPoint
	resetCount  int
	generation  int
	inFlight    bool
}

// New builds an engine for one session. pub may be nil (no event bus).
func New(sessionID string, llm oracle.Completer, st store.Store, pub events.Publisher, logger *slog.Logger) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		llm:         llm,
		store:       st,
		events:      pub,
		logger:      logger,
		sessionID:   sessionID,
		delay:       500 * time.Millisecond,
		bulkLen:     15,
		annotations: make(map[int]*annotate.Annotation),
		checker:     annotate.NewChecker(llm, logger),
	}
}

// SetTypingDelay overrides the pause between generated fragments. Zero
// disables pacing (tests).
func (e *Engine) SetTypingDelay(d time.Duration) { e.delay = d }

// SetBulkLength overrides the bulk-generation conversation length.
func (e *Engine) SetBulkLength(n int) {
	if n > 0 {
		e.bulkLen = n
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Messages returns a copy of the conversation so far.
func (e *Engine) Messages() []chat.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]chat.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// ResetCount returns how many resets this session has performed.
func (e *Engine) ResetCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetCount
}

// Start begins the conversation: it records the scenario and profiles, asks
// the oracle who should speak first, and, when the partner starts, generates
// and appends the opening messages one at a time. Valid only from the empty
// state.
func (e *Engine) Start(ctx context.Context, scenario string, self, partner profile.Profile) error {
	e.mu.Lock()
	if e.state != StateEmpty {
		e.mu.Unlock()
		return chat.Validationf("conversation already started")
	}
	if scenario == "" {
		e.mu.Unlock()
		return chat.Validationf("scenario text is required")
	}
	if e.inFlight {
		e.mu.Unlock()
		return chat.Validationf("a generation is already in progress")
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

	defer e.clearInFlight(gen, StateAwaitingUser)

	if e.decideFirstSpeaker(ctx).IsSelf() {
		// The user opens; nothing to generate.
		return nil
	}

	raw, err := e.llm.Complete(ctx, oracle.Request{
		System:      e.openingSystemPrompt(),
		Messages:    []oracle.Message{{Role: "user", Content: e.openingUserPrompt()}},
		Temperature: 0.8,
	})
	if err != nil {
		e.logger.Error("opening generation failed", "session", e.sessionID, "error", err)
		return nil
	}
	e.appendFragments(ctx, gen, e.partner.Speaker, oracle.SplitFragments(raw))
	return nil
}

// Submit accepts one non-empty user message, persists it, and generates the
// partner's reply batch. An oracle failure during reply generation leaves the
// conversation awaiting input with nothing appended.
func (e *Engine) Submit(ctx context.Context, text string) error {
	e.mu.Lock()
	if e.state == StateCompleted {
		e.mu.Unlock()
		return chat.Validationf("conversation already completed")
	}
	if e.state != StateAwaitingUser {
		e.mu.Unlock()
		return chat.Validationf(fmt.Sprintf("cannot submit while %s", e.state))
	}
	if e.inFlight {
		e.mu.Unlock()
		return chat.Validationf("a generation is already in progress")
	}
	msg, ok := newUserMessage(text)
	if !ok {
		e.mu.Unlock()
		return chat.Validationf("message text is empty")
	}
	e.messages = append(e.messages, msg)
	e.state = StateGeneratingReply
	e.inFlight = true
	gen := e.generation
	history := chat.RenderHistory(e.messages)
	e.mu.Unlock()

	e.persistAppend(ctx, msg)
	defer e.clearInFlight(gen, StateAwaitingUser)

	raw, err := e.llm.Complete(ctx, oracle.Request{
		System:      e.replySystemPrompt(),
		Messages:    []oracle.Message{{Role: "user", Content: e.replyUserPrompt(history)}},
		Temperature: 0.8,
	})
	if err != nil {
		e.logger.Error("reply generation failed", "session", e.sessionID, "error", err)
		return nil
	}
	e.appendFragments(ctx, gen, e.partner.Speaker, oracle.SplitFragments(raw))
	return nil
}

// Finish ends the conversation and returns best-effort closing feedback.
// Completion never depends on the oracle: a failed summary call substitutes a
// static encouragement.
func (e *Engine) Finish(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.state == StateCompleted {
		e.mu.Unlock()
		return "", chat.Validationf("conversation already completed")
	}
	if e.state != StateAwaitingUser {
		e.mu.Unlock()
		return "", chat.Validationf(fmt.Sprintf("cannot finish while %s", e.state))
	}
	e.state = StateCompleted
	history := chat.RenderHistory(e.messages)
	msgCount := len(e.messages)
	resets := e.resetCount
	e.mu.Unlock()

	feedback := fallbackFeedback
	raw, err := e.llm.Complete(ctx, oracle.Request{
		System:      "You are a supportive relationship coach. Reply with 2-3 sentences of encouraging, specific feedback on how the user communicated. Plain text only.",
		Messages:    []oracle.Message{{Role: "user", Content: fmt.Sprintf("The practice conversation about %q has ended:\n%s\n\nGive the user (\"Me\") brief closing feedback.", e.scenario, history)}},
		Temperature: 0.7,
	})
	if err != nil {
		e.logger.Warn("closing feedback generation failed, using fallback", "session", e.sessionID, "error", err)
	} else if f := raw; f != "" {
		feedback = f
	}

	e.persistSetFieldWithTimestamp(ctx, fieldCompleted, true)
	e.persistSetField(ctx, fieldFeedback, feedback)
	if err := e.events.Publish(events.SubjectCompleted, events.CompletedEvent{
		SessionID:    e.sessionID,
		MessageCount: msgCount,
		ResetCount:   resets,
		Timestamp:    time.Now().UTC(),
	}); err != nil {
		e.logger.Warn("completed event publish failed", "error", err)
	}
	return feedback, nil
}

// decideFirstSpeaker delegates the who-starts decision to the oracle and
// defaults to the user when the answer cannot be parsed.
func (e *Engine) decideFirstSpeaker(ctx context.Context) chat.Participant {
	raw, err := e.llm.Complete(ctx, oracle.Request{
		System: "You decide which participant would realistically bring up a conflict first. Respond ONLY with a JSON object.",
		Messages: []oracle.Message{{Role: "user", Content: fmt.Sprintf(
			`Scenario: %s

%s's conflict style: %s — %s
My ("Me") conflict style: %s — %s

Who would realistically start this conversation? Respond ONLY with {"firstSpeaker":"Me"} or {"firstSpeaker":%q}.`,
			e.scenario,
			e.partner.Speaker, e.partner.PrimaryType, e.partner.Pattern,
			e.self.PrimaryType, e.self.Pattern,
			e.partner.Speaker)}},
		Temperature: 0.3,
	})
	if err != nil {
		e.logger.Warn("first-speaker decision failed, defaulting to user", "error", err)
		return chat.Self()
	}
	var resp struct {
		FirstSpeaker string `json:"firstSpeaker"`
	}
	if err := oracle.ExtractJSON(raw, &resp); err != nil || resp.FirstSpeaker == "" {
		e.logger.Warn("unparseable first-speaker response, defaulting to user", "raw", raw)
		return chat.Self()
	}
	p := chat.ParseSender(resp.FirstSpeaker)
	if !p.IsSelf() && resp.FirstSpeaker != e.partner.Speaker {
		return chat.Self()
	}
	return p
}

// appendFragments appends generated partner fragments one at a time, each
// persisted before the next is appended, with the configured pacing delay
// between them. Fragments arriving after a reset (generation bump) are
// discarded.
func (e *Engine) appendFragments(ctx context.Context, gen int, sender string, fragments []string) {
	for i, text := range fragments {
		if i > 0 && e.delay > 0 {
			time.Sleep(e.delay)
		}
		e.mu.Lock()
		if e.generation != gen {
			e.mu.Unlock()
			e.logger.Info("discarding late fragments after reset", "session", e.sessionID, "dropped", len(fragments)-i)
			return
		}
		msg := chat.New(sender, text)
		e.messages = append(e.messages, msg)
		e.mu.Unlock()
		e.persistAppend(ctx, msg)
	}
}

// clearInFlight restores the resting state unless a reset superseded this
// generation run.
func (e *Engine) clearInFlight(gen int, next State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inFlight = false
	if e.generation == gen && e.state != StateCompleted {
		e.state = next
	}
}

func newUserMessage(text string) (chat.Message, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return chat.Message{}, false
	}
	return chat.New(chat.SelfName, trimmed), true
}

func (e *Engine) openingSystemPrompt() string {
	return fmt.Sprintf(`You are %s, in a romantic relationship. This is a conversation about the following scenario: %s

%s's conflict style: %s — %s

You need to start the conversation naturally, as if this is the first time you're bringing up this topic.
Keep your opening message(s) short, natural and conversational - like text messages.
You can separate multiple thoughts with %s.`,
		e.partner.Speaker, e.scenario,
		e.partner.Speaker, e.partner.PrimaryType, e.partner.Pattern,
		oracle.Delimiter)
}

func (e *Engine) openingUserPrompt() string {
	return fmt.Sprintf(`Please start a conversation about this scenario: %q.
Remember to keep it natural, as if you're the partner in this relationship bringing up the topic for the first time.`, e.scenario)
}

func (e *Engine) replySystemPrompt() string {
	return fmt.Sprintf(`You are %s, in a romantic relationship. This is a conversation about the following scenario: %s

%s's conflict style: %s — %s
The other participant ("Me") has conflict style: %s — %s

Respond as a human would, keeping messages short and conversational. If the user sends short or negative responses, acknowledge them appropriately.

IMPORTANT: Keep your responses realistic. Do not suggest meeting outside of this chat.`,
		e.partner.Speaker, e.scenario,
		e.partner.Speaker, e.partner.PrimaryType, e.partner.Pattern,
		e.self.PrimaryType, e.self.Pattern)
}

func (e *Engine) replyUserPrompt(history string) string {
	return fmt.Sprintf(`Here's our conversation so far:
%s

Please provide your next message as %s. Keep it short and natural - like a text message. You can separate multiple thoughts with %s.`,
		history, e.partner.Speaker, oracle.Delimiter)
}

// Persistence helpers: single attempt, log and continue on failure. The
// in-memory conversation stays authoritative.

func (e *Engine) persistAppend(ctx context.Context, msg chat.Message) {
	if err := e.store.AppendToArrayField(ctx, e.sessionID, fieldHistory, msg); err != nil {
		e.logger.Error("persist message failed", "session", e.sessionID, "error", err)
	}
}

func (e *Engine) persistSetField(ctx context.Context, field string, value any) {
	if err := e.store.SetField(ctx, e.sessionID, field, value); err != nil {
		e.logger.Error("persist field failed", "session", e.sessionID, "field", field, "error", err)
	}
}

func (e *Engine) persistSetFieldWithTimestamp(ctx context.Context, field string, value any) {
	if err := e.store.SetFieldWithTimestamp(ctx, e.sessionID, field, value); err != nil {
		e.logger.Error("persist field failed", "session", e.sessionID, "field", field, "error", err)
	}
}
