package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/oracle"
)

const checkerSystemPrompt = "You are a communication pattern analyst. Answer with a verdict line and one sentence of explanation, nothing else."

// Verdict is the oracle's judgement of one labelling attempt.
type Verdict struct {
	Correct     bool
	Explanation string
}

// Checker asks the oracle whether a user-chosen label fits a message.
type Checker struct {
	llm    oracle.Completer
	logger *slog.Logger
}

func NewChecker(llm oracle.Completer, logger *slog.Logger) *Checker {
	return &Checker{llm: llm, logger: logger}
}

// Check returns the oracle's verdict for labelling msg with label. The label
// must be part of the taxonomy (ValidationError otherwise). Oracle failures
// degrade to an incorrect, "unverified" verdict rather than an error.
func (c *Checker) Check(ctx context.Context, msg chat.Message, label Label) (Verdict, error) {
	if !Known(label) {
		return Verdict{}, chat.Validationf(fmt.Sprintf("unknown pattern label %q", label))
	}

	raw, err := c.llm.Complete(ctx, oracle.Request{
		System:      checkerSystemPrompt,
		Messages:    []oracle.Message{{Role: "user", Content: c.prompt(msg, label)}},
		Temperature: 0.3,
	})
	if err != nil {
		c.logger.Error("verdict oracle call failed", "label", label, "error", err)
		return Verdict{Correct: false, Explanation: "The label could not be verified this time."}, nil
	}
	return parseVerdict(raw), nil
}

func (c *Checker) prompt(msg chat.Message, label Label) string {
	var defs strings.Builder
	for _, l := range Labels {
		fmt.Fprintf(&defs, "- %s: %s\n", l, Definitions[l])
	}
	return fmt.Sprintf(`These are the unhealthy communication patterns we track:
%s
A user claims the following chat message shows the pattern %q:

%s: %s

Is the user's label correct for this message? Respond in exactly this format:
VERDICT: CORRECT or INCORRECT
EXPLANATION: one sentence explaining why.`, defs.String(), label, msg.Sender, msg.Text)
}

func parseVerdict(raw string) Verdict {
	v := Verdict{Explanation: "The label could not be verified this time."}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "VERDICT:"):
			rest := strings.ToUpper(strings.TrimSpace(line[len("VERDICT:"):]))
			// "INCORRECT" contains "CORRECT", so check it first.
			v.Correct = !strings.Contains(rest, "INCORRECT") && strings.Contains(rest, "CORRECT")
		case strings.HasPrefix(upper, "EXPLANATION:"):
			if e := strings.TrimSpace(line[len("EXPLANATION:"):]); e != "" {
				v.Explanation = e
			}
		}
	}
	return v
}
