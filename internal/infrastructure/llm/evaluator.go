package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"NewsCurator/internal/ports"
)

const evaluatorSystemPrompt = "You are an editorial scoring assistant for a local-news digest. " +
	"Score the story against the given criterion. " +
	`Answer with strict JSON: {"score": <number>, "reason": "<short explanation>"}.`

// Evaluator implements CriteriaEvaluator on top of the chat client.
type Evaluator struct {
	client *ChatClient
}

var _ ports.CriteriaEvaluator = (*Evaluator)(nil)

// NewEvaluator wraps the shared chat client.
func NewEvaluator(client *ChatClient) *Evaluator {
	return &Evaluator{client: client}
}

// Evaluate scores one post against one criterion. A response missing the
// score field is reported as malformed, never retried by callers.
func (e *Evaluator) Evaluate(ctx context.Context, criterion, title, body string) (float64, string, error) {
	prompt := fmt.Sprintf("Criterion: %s\n\nTitle: %s\n\nStory: %s", criterion, title, body)

	content, err := e.client.Complete(ctx, evaluatorSystemPrompt, prompt)
	if err != nil {
		return 0, "", fmt.Errorf("evaluate criterion %q: %w", criterion, err)
	}

	var parsed struct {
		Score  *float64 `json:"score"`
		Reason string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return 0, "", &ports.MalformedResponseError{Raw: content}
	}
	if parsed.Score == nil {
		return 0, "", &ports.MalformedResponseError{Raw: content}
	}

	return *parsed.Score, parsed.Reason, nil
}
