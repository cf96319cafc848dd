package services

import "context"

// Role tags a message turn.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message is one turn of a completion request. Images are URLs or data
// URIs sent alongside the text for vision requests.
type Message struct {
	Role   Role
	Text   string
	Images []string
}

// CompletionRequest is an ordered conversation plus sampling options.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Completer is the text-completion service. The reply is free-form text
// expected to contain one JSON object; callers parse it defensively.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req CompletionRequest) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return f(ctx, req)
}
