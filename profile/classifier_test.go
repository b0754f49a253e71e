package profile

import (
	"context"
	"errors"
	"testing"
)

func TestClassifyLocalExampleVector(t *testing.T) {
	v := ScoreVector{5, 5, 5, 1, 5, 1, 1, 1, 1, 1, 5, 1, 5}
	if got := ClassifyLocal(v); got != Validating {
		t.Errorf("ClassifyLocal = %v, want Validating", got)
	}
}

func TestClassifyLocalTiePrefersValidating(t *testing.T) {
	// All-equal scores tie every group mean.
	if got := ClassifyLocal(Neutral()); got != Validating {
		t.Errorf("ClassifyLocal(neutral) = %v, want Validating on tie", got)
	}
}

func TestClassifyLocalAlwaysKnown(t *testing.T) {
	vectors := []ScoreVector{
		{},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5},
		{1, 2, 3, 4, 5, 1, 2, 3, 4, 5, 1, 2, 3},
	}
	for _, v := range vectors {
		if got := ClassifyLocal(v); !Known(got) {
			t.Errorf("ClassifyLocal(%v) = %q, not a known type", v, got)
		}
	}
}

func TestClassifyLocalHostile(t *testing.T) {
	var v ScoreVector
	for i := range v {
		v[i] = 1
	}
	// Questions 9 and 10 probe hostile behavior.
	v[8], v[9] = 5, 5
	if got := ClassifyLocal(v); got != Hostile {
		t.Errorf("ClassifyLocal = %v, want Hostile", got)
	}
}

func TestClassifyUsesOracle(t *testing.T) {
	llm := &stubCompleter{responses: []string{`{"primaryType":"Volatile"}`}}
	c := NewClassifier(llm, discard())
	p, err := c.Classify(context.Background(), "Alex", Neutral())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p.PrimaryType != Volatile {
		t.Errorf("type = %v, want Volatile", p.PrimaryType)
	}
	if p.Speaker != "Alex" || p.Pattern != Descriptions[Volatile] {
		t.Errorf("profile = %+v", p)
	}
}

func TestClassifyOracleFailureFallsBackLocal(t *testing.T) {
	llm := &stubCompleter{err: errors.New("down")}
	c := NewClassifier(llm, discard())
	p, err := c.Classify(context.Background(), "Alex", ScoreVector{5, 5, 5, 1, 5, 1, 1, 1, 1, 1, 5, 1, 5})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if p.PrimaryType != Validating {
		t.Errorf("type = %v, want local fallback Validating", p.PrimaryType)
	}
}

func TestClassifyUnknownTypeFallsBackLocal(t *testing.T) {
	llm := &stubCompleter{responses: []string{`{"primaryType":"Chaotic"}`}}
	c := NewClassifier(llm, discard())
	p, err := c.Classify(context.Background(), "Alex", Neutral())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !Known(p.PrimaryType) {
		t.Errorf("type = %q, not a known type", p.PrimaryType)
	}
}

func TestClassifyCachesByVector(t *testing.T) {
	llm := &stubCompleter{responses: []string{`{"primaryType":"Avoidant"}`}}
	c := NewClassifier(llm, discard())
	v := ScoreVector{2, 2, 2, 4, 2, 4, 2, 2, 2, 2, 2, 2, 4}
	if _, err := c.Classify(context.Background(), "Alex", v); err != nil {
		t.Fatal(err)
	}
	p, err := c.Classify(context.Background(), "Jordan", v)
	if err != nil {
		t.Fatal(err)
	}
	if llm.calls != 1 {
		t.Errorf("oracle calls = %d, want 1 (second hit cached)", llm.calls)
	}
	if p.PrimaryType != Avoidant || p.Speaker != "Jordan" {
		t.Errorf("cached profile = %+v", p)
	}
}
