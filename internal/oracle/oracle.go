// Package oracle is the language-model side of the assistant. It exposes
// a small Completer interface so the pipeline can run against a stub in
// tests, with a production client backed by any OpenAI-compatible API.
package oracle

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces one completion for a conversation. maxTokens bounds
// the response length.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int) (string, error)
}
