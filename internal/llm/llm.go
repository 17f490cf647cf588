// Package llm abstracts the chat-completion client used by the stage agents
// so the pipeline stays deterministic and unit-testable with a mock.
package llm

import "context"

// Prompt is one completion request.
type Prompt struct {
	System string
	User   string
}

// Client is the minimal completion interface the agents depend on.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Settings configures a concrete client implementation.
type Settings struct {
	Model   string
	APIKey  string
	BaseURL string
}
