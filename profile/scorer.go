package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/oracle"
)

const scorerSystemPrompt = "You are a JSON-only response system. Only output valid JSON objects containing a scores array. No other text."

// Scorer rates a speaker's messages against the rubric via the oracle.
type Scorer struct {
	llm    oracle.Completer
	logger *slog.Logger
}

func NewScorer(llm oracle.Completer, logger *slog.Logger) *Scorer {
	return &Scorer{llm: llm, logger: logger}
}

type scoresResponse struct {
	Scores []int `json:"scores"`
}

// ScoreSpeaker rates one speaker on the 13 rubric questions. The message list
// must be non-empty (ValidationError otherwise); beyond that it never fails:
// an unavailable oracle or an unusable response degrades to the neutral
// vector.
func (s *Scorer) ScoreSpeaker(ctx context.Context, speaker string, messages []string) (ScoreVector, error) {
	if len(messages) == 0 {
		return ScoreVector{}, chat.Validationf("score speaker: empty message list")
	}

	raw, err := s.llm.Complete(ctx, oracle.Request{
		System:      scorerSystemPrompt,
		Messages:    []oracle.Message{{Role: "user", Content: s.prompt(speaker, messages)}},
		Temperature: 0.3,
	})
	if err != nil {
		s.logger.Error("score oracle call failed, using neutral vector", "speaker", speaker, "error", err)
		return Neutral(), nil
	}

	var resp scoresResponse
	if err := oracle.ExtractJSON(raw, &resp); err != nil {
		s.logger.Warn("unparseable score response, using neutral vector", "speaker", speaker, "error", err)
		return Neutral(), nil
	}
	if len(resp.Scores) != NumQuestions {
		s.logger.Warn("score response has wrong length, using neutral vector",
			"speaker", speaker, "len", len(resp.Scores))
		return Neutral(), nil
	}

	var v ScoreVector
	copy(v[:], resp.Scores)
	if !v.Valid() {
		// An out-of-range response is as untrustworthy as a malformed one.
		s.logger.Warn("score response out of range, using neutral vector", "speaker", speaker, "scores", resp.Scores)
		return Neutral(), nil
	}
	return v, nil
}

func (s *Scorer) prompt(speaker string, messages []string) string {
	var qs strings.Builder
	for i, q := range Questions {
		fmt.Fprintf(&qs, "%d. %s\n", i+1, q)
	}
	return fmt.Sprintf(`You are a conflict resolution analysis system. Analyze the following chat messages and rate the participant's conflict resolution style.

Your task is to rate %q on %d conflict resolution questions, based on their chat messages.
Assign a score from 1 (Strongly disagree) to 5 (Strongly agree) for each question.

IMPORTANT: You must respond ONLY with a JSON object containing a scores array. No other text, no explanations.
Example response format:
{"scores":[3,4,4,2,5,3,1,2,2,1,4,2,5]}

Questions to rate:
%s
Chat messages to analyze:
%s

Remember: Respond ONLY with the JSON object containing the scores array. No other text.`,
		speaker, NumQuestions, qs.String(), strings.Join(messages, "\n"))
}
