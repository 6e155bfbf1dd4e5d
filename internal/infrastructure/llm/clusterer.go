package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"NewsCurator/internal/ports"
)

const clustererSystemPrompt = "You group news stories that cover the same underlying topic. " +
	"Given an indexed list of stories, return the index groups that share a topic. " +
	`Answer with strict JSON: {"groups": [[<index>, ...], ...], "topics": ["<label>", ...]}. ` +
	"Omit stories that are the only one on their topic."

// Clusterer implements TopicClusterer on top of the chat client. One call
// covers the whole batch; there is no per-item fan-out.
type Clusterer struct {
	client *ChatClient
}

var _ ports.TopicClusterer = (*Clusterer)(nil)

// NewClusterer wraps the shared chat client.
func NewClusterer(client *ChatClient) *Clusterer {
	return &Clusterer{client: client}
}

// Cluster submits all candidates in one request and parses the returned
// index groups. Any parse failure surfaces as malformed so the dedup pass
// can fail open.
func (c *Clusterer) Cluster(ctx context.Context, items []ports.ClusterItem) ([][]int, []string, error) {
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "[%d] %s — %s\n", item.Index, item.Title, item.Description)
	}

	content, err := c.client.Complete(ctx, clustererSystemPrompt, sb.String())
	if err != nil {
		return nil, nil, fmt.Errorf("cluster %d items: %w", len(items), err)
	}

	var parsed struct {
		Groups [][]int  `json:"groups"`
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, nil, &ports.MalformedResponseError{Raw: content}
	}

	for _, group := range parsed.Groups {
		for _, idx := range group {
			if idx < 0 || idx >= len(items) {
				return nil, nil, &ports.MalformedResponseError{Raw: content}
			}
		}
	}

	topics := parsed.Topics
	for len(topics) < len(parsed.Groups) {
		topics = append(topics, "")
	}

	return parsed.Groups, topics, nil
}
