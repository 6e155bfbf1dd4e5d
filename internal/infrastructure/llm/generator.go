package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"NewsCurator/internal/ports"
)

const generatorSystemPrompt = "You write concise digest copy for a local-news email. " +
	"Rewrite the story into a punchy headline and a short body paragraph. " +
	`Answer with strict JSON: {"headline": "<headline>", "body": "<body>"}.`

// Generator implements ContentGenerator on top of the chat client.
type Generator struct {
	client *ChatClient
}

var _ ports.ContentGenerator = (*Generator)(nil)

// NewGenerator wraps the shared chat client.
func NewGenerator(client *ChatClient) *Generator {
	return &Generator{client: client}
}

// Generate produces headline and body copy for one selected post. Empty or
// unparsable responses are malformed; the selection stage falls back to
// the post's own text instead of dropping the slot.
func (g *Generator) Generate(ctx context.Context, title, body string) (string, string, error) {
	prompt := fmt.Sprintf("Title: %s\n\nStory: %s", title, body)

	content, err := g.client.Complete(ctx, generatorSystemPrompt, prompt)
	if err != nil {
		return "", "", fmt.Errorf("generate content: %w", err)
	}

	var parsed struct {
		Headline string `json:"headline"`
		Body     string `json:"body"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return "", "", &ports.MalformedResponseError{Raw: content}
	}
	if parsed.Headline == "" || parsed.Body == "" {
		return "", "", &ports.MalformedResponseError{Raw: content}
	}

	return parsed.Headline, parsed.Body, nil
}
