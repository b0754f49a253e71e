package annotate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mirrorlab/rehearse/oracle"
)

// routedCompleter answers per-detector based on the system prompt.
type routedCompleter struct {
	byKey map[string]string
	err   error
}

func (r *routedCompleter) Complete(_ context.Context, req oracle.Request) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	for key, resp := range r.byKey {
		if strings.Contains(req.System, key) {
			return resp, nil
		}
	}
	return "NONE", nil
}

func TestDetectSkipsShortInput(t *testing.T) {
	h := NewHighlighter(&routedCompleter{}, discard())
	if f := h.Detect(context.Background(), "ok"); f != nil {
		t.Errorf("short input should yield no findings, got %+v", f)
	}
}

func TestDetectFindsSpansAndSuggestion(t *testing.T) {
	llm := &routedCompleter{byKey: map[string]string{
		"I-language alternative": "<mark>You never listen</mark> to me.\nI-language alternative: \"I feel unheard when I'm interrupted.\"",
	}}
	h := NewHighlighter(llm, discard())
	findings := h.Detect(context.Background(), "You never listen to me.")
	if len(findings) != 1 {
		t.Fatalf("findings = %+v, want exactly one", findings)
	}
	f := findings[0]
	if f.DetectorID != "you-language" {
		t.Errorf("detector = %q", f.DetectorID)
	}
	if len(f.Spans) != 1 || f.Spans[0] != "You never listen" {
		t.Errorf("spans = %v", f.Spans)
	}
	if f.Suggestion != "I feel unheard when I'm interrupted." {
		t.Errorf("suggestion = %q", f.Suggestion)
	}
}

func TestDetectAllClean(t *testing.T) {
	h := NewHighlighter(&routedCompleter{}, discard())
	if f := h.Detect(context.Background(), "Thanks for making dinner tonight."); f != nil {
		t.Errorf("clean input should yield no findings, got %+v", f)
	}
}

func TestDetectOracleFailureYieldsNothing(t *testing.T) {
	h := NewHighlighter(&routedCompleter{err: errors.New("down")}, discard())
	if f := h.Detect(context.Background(), "You always make me wait."); f != nil {
		t.Errorf("failures must degrade to no findings, got %+v", f)
	}
}
