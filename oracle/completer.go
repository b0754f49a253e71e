package oracle

import "context"

// Message is one turn of a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries everything a completion call needs. Temperature matters
// here: scoring and classification run cool (0.3), conversation runs warm
// (0.8), so it is part of the request rather than the client.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer is the text-completion oracle. It may return malformed or
// unparseable text; callers must parse defensively and never let a parse
// failure escape as a fatal error.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
