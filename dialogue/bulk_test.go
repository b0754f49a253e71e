package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/mirrorlab/rehearse/chat"
	"github.com/mirrorlab/rehearse/events"
)

func TestGenerateFullAlternates(t *testing.T) {
	raw := `Alex: we need to talk about the dishes
Me: I know, I keep forgetting
Alex: it's been three weeks
Me: you're right, I'll set a reminder`
	e, mem, rec := newTestEngine(
		step{response: `{"firstSpeaker":"Alex"}`},
		step{response: raw},
	)
	ctx := context.Background()
	msgs, err := e.GenerateFull(ctx, "chores", testSelf, testPartner, 4)
	if err != nil {
		t.Fatalf("GenerateFull: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("messages = %d, want 4", len(msgs))
	}
	wantSenders := []string{"Alex", "Me", "Alex", "Me"}
	for i, m := range msgs {
		if m.Sender != wantSenders[i] {
			t.Errorf("message %d sender = %q, want %q", i, m.Sender, wantSenders[i])
		}
	}
	if e.State() != StateCompleted {
		t.Errorf("state = %v, want completed", e.State())
	}
	if got := persistedHistory(t, mem); len(got) != 4 {
		t.Errorf("persisted history = %d, want 4", len(got))
	}
	if len(rec.subjects) != 1 || rec.subjects[0] != events.SubjectCompleted {
		t.Errorf("events = %v", rec.subjects)
	}
}

func TestGenerateFullDropsMalformedAndOutOfTurn(t *testing.T) {
	raw := `Here is the conversation:
Alex: opener
Alex: double turn gets dropped
Me: reply
Narrator: not a participant
Alex: closer`
	e, _, _ := newTestEngine(
		step{response: `{"firstSpeaker":"Alex"}`},
		step{response: raw},
	)
	msgs, err := e.GenerateFull(context.Background(), "chores", testSelf, testPartner, 6)
	if err != nil {
		t.Fatalf("GenerateFull: %v", err)
	}
	wantTexts := []string{"opener", "reply", "closer"}
	if len(msgs) != len(wantTexts) {
		t.Fatalf("messages = %+v, want %v", msgs, wantTexts)
	}
	for i, m := range msgs {
		if m.Text != wantTexts[i] {
			t.Errorf("message %d = %q, want %q", i, m.Text, wantTexts[i])
		}
	}
}

func TestGenerateFullNoUsableMessages(t *testing.T) {
	e, _, _ := newTestEngine(
		step{response: `{"firstSpeaker":"Me"}`},
		step{response: "I'd rather not write that conversation."},
	)
	if _, err := e.GenerateFull(context.Background(), "chores", testSelf, testPartner, 4); err == nil {
		t.Fatal("expected error when no lines parse")
	}
	if e.State() != StateEmpty {
		t.Errorf("state = %v, failed bulk generation should return to empty", e.State())
	}
}

func TestGenerateFullOracleFailure(t *testing.T) {
	e, _, _ := newTestEngine(
		step{response: `{"firstSpeaker":"Me"}`},
		step{err: errors.New("down")},
	)
	if _, err := e.GenerateFull(context.Background(), "chores", testSelf, testPartner, 4); err == nil {
		t.Fatal("expected error from failed bulk generation")
	}
	if e.State() != StateEmpty {
		t.Errorf("state = %v, want empty", e.State())
	}
}

func TestGenerateFullRejectedAfterStart(t *testing.T) {
	e, _, _ := newTestEngine(step{response: `{"firstSpeaker":"Me"}`})
	ctx := context.Background()
	if err := e.Start(ctx, "scenario", testSelf, testPartner); err != nil {
		t.Fatal(err)
	}
	if _, err := e.GenerateFull(ctx, "scenario", testSelf, testPartner, 4); !chat.IsValidation(err) {
		t.Errorf("err = %v, want ValidationError", err)
	}
}

func TestParseBulkConversationCapsAtN(t *testing.T) {
	raw := "Me: a\nAlex: b\nMe: c\nAlex: d"
	msgs := parseBulkConversation(raw, chat.Self(), "Alex", 2)
	if len(msgs) != 2 || msgs[1].Text != "b" {
		t.Errorf("messages = %+v, want first 2", msgs)
	}
}
