package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/oracle"
)

// stubCompleter returns canned responses in order, or a fixed error.
type stubCompleter struct {
	responses []string
	err       error
	calls     int
}

func (s *stubCompleter) Complete(_ context.Context, _ oracle.Request) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("stub exhausted")
	}
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScoreSpeakerEmptyMessages(t *testing.T) {
	s := NewScorer(&stubCompleter{}, discard())
	_, err := s.ScoreSpeaker(context.Background(), "Alex", nil)
	if !chat.IsValidation(err) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestScoreSpeakerParsesScores(t *testing.T) {
	llm := &stubCompleter{responses: []string{`{"scores":[5,5,5,1,5,1,1,1,1,1,5,1,5]}`}}
	s := NewScorer(llm, discard())
	v, err := s.ScoreSpeaker(context.Background(), "Alex", []string{"hi"})
	if err != nil {
		t.Fatalf("ScoreSpeaker: %v", err)
	}
	want := ScoreVector{5, 5, 5, 1, 5, 1, 1, 1, 1, 1, 5, 1, 5}
	if v != want {
		t.Errorf("scores = %v, want %v", v, want)
	}
}

func TestScoreSpeakerExtractsEmbeddedJSON(t *testing.T) {
	llm := &stubCompleter{responses: []string{
		"Here are my ratings:\n```json\n{\"scores\":[3,3,3,3,3,3,3,3,3,3,3,3,4]}\n```",
	}}
	s := NewScorer(llm, discard())
	v, err := s.ScoreSpeaker(context.Background(), "Alex", []string{"hi"})
	if err != nil {
		t.Fatalf("ScoreSpeaker: %v", err)
	}
	if v[12] != 4 {
		t.Errorf("scores = %v, want last element 4", v)
	}
}

func TestScoreSpeakerOracleFailureIsNeutral(t *testing.T) {
	llm := &stubCompleter{err: errors.New("boom")}
	s := NewScorer(llm, discard())
	v, err := s.ScoreSpeaker(context.Background(), "Alex", []string{"hi"})
	if err != nil {
		t.Fatalf("ScoreSpeaker: %v", err)
	}
	if v != Neutral() {
		t.Errorf("scores = %v, want neutral vector", v)
	}
}

func TestScoreSpeakerGarbageIsNeutral(t *testing.T) {
	for _, raw := range []string{
		"I cannot rate this.",
		`{"scores":[1,2,3]}`,
		`{"notScores":true}`,
	} {
		llm := &stubCompleter{responses: []string{raw}}
		s := NewScorer(llm, discard())
		v, err := s.ScoreSpeaker(context.Background(), "Alex", []string{"hi"})
		if err != nil {
			t.Fatalf("ScoreSpeaker(%q): %v", raw, err)
		}
		if v != Neutral() {
			t.Errorf("ScoreSpeaker(%q) = %v, want neutral", raw, v)
		}
	}
}

func TestScoreSpeakerOutOfRangeIsNeutral(t *testing.T) {
	// An out-of-range vector must not be repaired into an extreme profile;
	// it degrades to neutral like every other unusable response.
	for _, raw := range []string{
		`{"scores":[9,9,9,9,9,9,9,9,9,9,9,9,9]}`,
		`{"scores":[0,9,-2,3,3,3,3,3,3,3,3,3,3]}`,
	} {
		llm := &stubCompleter{responses: []string{raw}}
		s := NewScorer(llm, discard())
		v, err := s.ScoreSpeaker(context.Background(), "Alex", []string{"hi"})
		if err != nil {
			t.Fatalf("ScoreSpeaker(%q): %v", raw, err)
		}
		if v != Neutral() {
			t.Errorf("ScoreSpeaker(%q) = %v, want neutral vector", raw, v)
		}
	}
}
