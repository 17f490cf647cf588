package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Compile-time interface check.
var _ Client = (*Mock)(nil)

// Mock is a deterministic Client for tests. Responses are matched by a
// substring of the user prompt; unmatched prompts fall through to Default.
type Mock struct {
	mu sync.Mutex

	// Responses maps a user-prompt substring to the canned reply.
	Responses map[string]string

	// Default is returned when no substring matches. Empty Default with no
	// match is an error, so tests fail loudly on unexpected prompts.
	Default string

	// Calls records every prompt received, in order.
	Calls []Prompt
}

// Complete returns the canned response whose key is a substring of the user
// prompt.
func (m *Mock) Complete(_ context.Context, prompt Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, prompt)

	for key, resp := range m.Responses {
		if key != "" && strings.Contains(prompt.User, key) {
			return resp, nil
		}
	}
	if m.Default != "" {
		return m.Default, nil
	}
	return "", fmt.Errorf("llm mock: no canned response for prompt %.80q", prompt.User)
}
