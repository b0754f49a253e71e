// Package advice generates communication recommendations for a pair of
// classified conflict profiles.
package advice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/oracle"
	"github.com/mirrorlab/rehearse/profile"
)

const systemPrompt = "You are a relationship communication coach. Respond ONLY with a JSON object containing the three requested arrays. No other text."

// Set is a recommendation set for one profile pair. Every bucket is always
// populated with at least one entry.
type Set struct {
	DuringConflict []string `json:"duringConflict"`
	AfterConflict  []string `json:"afterConflict"`
	LongTerm       []string `json:"longTerm"`
}

// Fallback tips used when nothing usable comes back from the oracle. Generic
// on purpose: the product must never show an empty bucket.
var fallbackTips = Set{
	DuringConflict: []string{"Pause before responding and name what you are feeling instead of assigning blame."},
	AfterConflict:  []string{"Revisit the disagreement once both of you are calm and acknowledge your part in it."},
	LongTerm:       []string{"Set aside regular time to talk about small frustrations before they grow into conflicts."},
}

// Generator builds recommendation sets from two profiles and an optional
// recent-conversation excerpt.
type Generator struct {
	llm    oracle.Completer
	logger *slog.Logger
}

func New(llm oracle.Completer, logger *slog.Logger) *Generator {
	return &Generator{llm: llm, logger: logger}
}

// Generate asks the oracle for advice in three fixed buckets. The excerpt may
// be nil. The returned set always has every bucket non-empty; parsing
// degrades from JSON to paragraph-splitting to static tips, never to an
// error.
func (g *Generator) Generate(ctx context.Context, self, partner profile.Profile, excerpt []chat.Message) (Set, error) {
	raw, err := g.llm.Complete(ctx, oracle.Request{
		System:      systemPrompt,
		Messages:    []oracle.Message{{Role: "user", Content: g.prompt(self, partner, excerpt)}},
		Temperature: 0.7,
	})
	if err != nil {
		g.logger.Error("recommendation oracle call failed, using fallback tips", "error", err)
		return fallbackTips, nil
	}

	var set Set
	if err := oracle.ExtractJSON(raw, &set); err != nil {
		g.logger.Warn("unparseable recommendation response, splitting paragraphs", "error", err)
		set = splitParagraphs(raw)
	}
	return fillEmpty(set), nil
}

func (g *Generator) prompt(self, partner profile.Profile, excerpt []chat.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "My conflict style is %s: %s\n\n", self.PrimaryType, self.Pattern)
	fmt.Fprintf(&b, "My partner %s's conflict style is %s: %s\n\n", partner.Speaker, partner.PrimaryType, partner.Pattern)
	if len(excerpt) > 0 {
		fmt.Fprintf(&b, "Recent conversation between us:\n%s\n\n", chat.RenderHistory(excerpt))
	}
	b.WriteString(`Based only on the information above, give concrete communication advice for me in three categories.

Respond ONLY with a JSON object in this exact format:
{"duringConflict":["..."],"afterConflict":["..."],"longTerm":["..."]}

Each array should contain 1-3 short, actionable tips. Do not invent details about either of us that were not provided.`)
	return b.String()
}

// splitParagraphs distributes a free-text response into the three buckets in
// order. Crude, but better than discarding advice the oracle did produce.
func splitParagraphs(raw string) Set {
	var paras []string
	for _, p := range strings.Split(raw, "\n\n") {
		if t := strings.TrimSpace(p); t != "" {
			paras = append(paras, t)
		}
	}
	var set Set
	for i, p := range paras {
		switch i % 3 {
		case 0:
			set.DuringConflict = append(set.DuringConflict, p)
		case 1:
			set.AfterConflict = append(set.AfterConflict, p)
		case 2:
			set.LongTerm = append(set.LongTerm, p)
		}
	}
	return set
}

func fillEmpty(set Set) Set {
	if len(set.DuringConflict) == 0 {
		set.DuringConflict = fallbackTips.DuringConflict
	}
	if len(set.AfterConflict) == 0 {
		set.AfterConflict = fallbackTips.AfterConflict
	}
	if len(set.LongTerm) == 0 {
		set.LongTerm = fallbackTips.LongTerm
	}
	return set
}
