package chat

import (
	"errors"
	"testing"
)

func TestParseSender(t *testing.T) {
	if p := ParseSender("Me"); !p.IsSelf() {
		t.Error("ParseSender(Me) should be self")
	}
	if p := ParseSender("Alex"); p.IsSelf() || p.String() != "Alex" {
		t.Errorf("ParseSender(Alex) = %v", p)
	}
	if s := Self().String(); s != SelfName {
		t.Errorf("Self().String() = %q, want %q", s, SelfName)
	}
}

func TestRenderHistory(t *testing.T) {
	msgs := []Message{
		New("Alex", "can we talk?"),
		New(SelfName, "sure"),
	}
	want := "Alex: can we talk?\nMe: sure"
	if got := RenderHistory(msgs); got != want {
		t.Errorf("RenderHistory = %q, want %q", got, want)
	}
	if got := RenderHistory(nil); got != "" {
		t.Errorf("RenderHistory(nil) = %q, want empty", got)
	}
}

func TestValidationError(t *testing.T) {
	err := Validationf("bad input")
	if !IsValidation(err) {
		t.Error("IsValidation should report true for Validationf error")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Msg != "bad input" {
		t.Errorf("errors.As failed or wrong message: %v", err)
	}
	if IsValidation(errors.New("plain")) {
		t.Error("IsValidation should report false for plain errors")
	}
}
