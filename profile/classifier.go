package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mirrorlab/rehearse/oracle"
)

const classifierSystemPrompt = "You are a research assistant specializing in Gottman conflict theory. Return ONLY a JSON object with the primary conflict type."

// localGroups are the question-index groups behind the deterministic
// strategy. Disjoint, covering all 13 questions. The exact grouping is a
// placeholder, not a published instrument; revisit before treating the local
// scores as meaningful on their own.
var localGroups = map[Type][]int{
	Validating: {0, 1, 2, 4, 10},
	Avoidant:   {3, 5, 12},
	Volatile:   {6, 7, 11},
	Hostile:    {8, 9},
}

// Classifier maps a score vector to one of the four conflict styles. The
// oracle decides by default (higher fidelity); on any oracle or parse failure
// it falls back to the local deterministic strategy. Results are cached per
// score vector since classification is deterministic given fixed oracle
// behavior.
type Classifier struct {
	llm    oracle.Completer
	logger *slog.Logger
	cache  *lru.Cache[ScoreVector, Type]
}

func NewClassifier(llm oracle.Completer, logger *slog.Logger) *Classifier {
	cache, _ := lru.New[ScoreVector, Type](256)
	return &Classifier{llm: llm, logger: logger, cache: cache}
}

type typeResponse struct {
	PrimaryType Type `json:"primaryType"`
}

// Classify returns the speaker's profile for the given scores. It always
// returns exactly one of the four fixed styles and never fails on oracle
// trouble.
func (c *Classifier) Classify(ctx context.Context, speaker string, scores ScoreVector) (Profile, error) {
	scores = scores.Clamp()

	if t, ok := c.cache.Get(scores); ok {
		return c.profileFor(speaker, t), nil
	}

	t := c.classifyOracle(ctx, scores)
	c.cache.Add(scores, t)
	return c.profileFor(speaker, t), nil
}

func (c *Classifier) classifyOracle(ctx context.Context, scores ScoreVector) Type {
	raw, err := c.llm.Complete(ctx, oracle.Request{
		System:      classifierSystemPrompt,
		Messages:    []oracle.Message{{Role: "user", Content: c.prompt(scores)}},
		Temperature: 0.3,
	})
	if err != nil {
		c.logger.Warn("classify oracle call failed, using local strategy", "error", err)
		return ClassifyLocal(scores)
	}

	var resp typeResponse
	if err := oracle.ExtractJSON(raw, &resp); err != nil || !Known(resp.PrimaryType) {
		c.logger.Warn("unusable classify response, using local strategy", "raw", raw)
		return ClassifyLocal(scores)
	}
	return resp.PrimaryType
}

func (c *Classifier) profileFor(speaker string, t Type) Profile {
	return Profile{Speaker: speaker, PrimaryType: t, Pattern: Descriptions[t]}
}

// ClassifyLocal is the deterministic strategy: mean score per question group,
// argmax, ties preferring Validating. Usable offline and as the oracle
// fallback.
func ClassifyLocal(scores ScoreVector) Type {
	scores = scores.Clamp()
	best := Types[0]
	bestMean := -1.0
	for _, t := range Types {
		sum := 0
		for _, idx := range localGroups[t] {
			sum += scores[idx]
		}
		mean := float64(sum) / float64(len(localGroups[t]))
		// Strict greater-than keeps the earlier (preferred) type on ties.
		if mean > bestMean {
			best, bestMean = t, mean
		}
	}
	return best
}

func (c *Classifier) prompt(scores ScoreVector) string {
	var qs strings.Builder
	for i, q := range Questions {
		fmt.Fprintf(&qs, "%d. %s - Score: %d\n", i+1, q, scores[i])
	}
	var ts strings.Builder
	for _, t := range [4]Type{Avoidant, Validating, Volatile, Hostile} {
		fmt.Fprintf(&ts, "- %s: %s\n", t, summaries[t])
	}
	return fmt.Sprintf(`You are an expert in John Gottman's conflict resolution theory. Analyze the following conflict resolution scores to determine the person's primary conflict type.

The scores (1-5 scale) are responses to these questions:
%s
Gottman conflict types:
%s
Based only on these scores, determine the primary conflict type of this person. Return ONLY the exact name of the primary type.

Your response should be a JSON object with the following format:
{"primaryType": "Avoidant"}

Choose exactly one of these types: Avoidant, Validating, Volatile, Hostile.
DO NOT include any explanation, only the JSON object.`, qs.String(), ts.String())
}
