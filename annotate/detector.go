package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mirrorlab/rehearse/oracle"
)

// Detector describes one live-input pattern check as data: the prompt
// fragment defining the pattern, the tag the oracle wraps offending spans in,
// and the key its suggestion line starts with. One generic routine runs every
// detector, instead of one near-duplicate code path per pattern.
type Detector struct {
	ID             string
	PromptFragment string
	MarkerTag      string
	SuggestionKey  string
}

// Detectors is the built-in table. Add a row to add a pattern.
var Detectors = []Detector{
	{
		ID: "you-language",
		PromptFragment: `"You-language" involves statements that blame or criticize the other person directly using "you" statements, like "You never listen to me" or "You always make me wait." ` +
			`"I-language" focuses on expressing feelings using "I" statements, like "I feel unheard when my concerns aren't addressed."`,
		MarkerTag:     "mark",
		SuggestionKey: "I-language alternative",
	},
	{
		ID: "strong-tone",
		PromptFragment: `"Strong tone" means wording that is harsher than the situation calls for: shouting-style emphasis, insults, commands, or exaggerated accusations. ` +
			`A softer phrasing states the same need calmly.`,
		MarkerTag:     "mark",
		SuggestionKey: "Softer alternative",
	},
	{
		ID: "blaming",
		PromptFragment: `"Blaming" assigns fault for the problem or for one's own feelings to the other person instead of describing the situation. ` +
			`A neutral phrasing describes the behavior and its effect without assigning fault.`,
		MarkerTag:     "mark",
		SuggestionKey: "Neutral alternative",
	},
}

// Finding is one detector's result for a piece of draft input.
type Finding struct {
	DetectorID string
	Spans      []string
	Suggestion string
}

// Highlighter runs the detector table over draft input so the UI can mark
// problem spans before the user sends.
type Highlighter struct {
	llm       oracle.Completer
	logger    *slog.Logger
	detectors []Detector
}

func NewHighlighter(llm oracle.Completer, logger *slog.Logger) *Highlighter {
	return &Highlighter{llm: llm, logger: logger, detectors: Detectors}
}

// Detect runs every detector against text and returns one finding per
// detector that matched. Short input is skipped. Detector failures are
// logged and skipped; a draft-input helper must never block the send path.
func (h *Highlighter) Detect(ctx context.Context, text string) []Finding {
	if len(strings.TrimSpace(text)) < 5 {
		return nil
	}

	var findings []Finding
	for _, d := range h.detectors {
		f, ok, err := h.runDetector(ctx, d, text)
		if err != nil {
			h.logger.Warn("detector failed", "detector", d.ID, "error", err)
			continue
		}
		if ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func (h *Highlighter) runDetector(ctx context.Context, d Detector, text string) (Finding, bool, error) {
	raw, err := h.llm.Complete(ctx, oracle.Request{
		System: fmt.Sprintf(`You identify a specific communication pattern in draft chat messages.

%s

If the message contains the pattern, respond with:
1. The original text with <%s></%s> tags around the offending parts.
2. A line starting with "%s:" suggesting a rewording.
If it does not, respond with exactly: NONE`, d.PromptFragment, d.MarkerTag, d.MarkerTag, d.SuggestionKey),
		Messages:    []oracle.Message{{Role: "user", Content: fmt.Sprintf("Analyze this message: %q", text)}},
		Temperature: 0.3,
	})
	if err != nil {
		return Finding{}, false, err
	}

	if strings.Contains(strings.ToUpper(raw), "NONE") && !strings.Contains(raw, "<"+d.MarkerTag+">") {
		return Finding{}, false, nil
	}

	f := Finding{DetectorID: d.ID}
	spanRe := regexp.MustCompile(`<` + d.MarkerTag + `>(.*?)</` + d.MarkerTag + `>`)
	for _, m := range spanRe.FindAllStringSubmatch(raw, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			f.Spans = append(f.Spans, s)
		}
	}
	if i := strings.Index(raw, d.SuggestionKey+":"); i >= 0 {
		line := raw[i+len(d.SuggestionKey)+1:]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		f.Suggestion = strings.Trim(strings.TrimSpace(line), `"`)
	}
	if len(f.Spans) == 0 && f.Suggestion == "" {
		return Finding{}, false, nil
	}
	return f, true, nil
}
