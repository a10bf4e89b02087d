// Package openai adapts any OpenAI-compatible chat completion API as a
// content classifier, selected with CLASSIFIER_PROVIDER=openai.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
)

type Classifier struct {
	api        *openai.Client
	model      string
	candidates func() []string
}

// NewClassifier builds a classifier against an OpenAI-compatible endpoint.
// A custom baseURL supports self-hosted or third-party gateways.
func NewClassifier(baseURL, apiKey, model string, candidates func() []string) *Classifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Classifier{
		api:        openai.NewClientWithConfig(cfg),
		model:      model,
		candidates: candidates,
	}
}

const systemPrompt = `You are a document classifier.
Reply with a strict JSON object: {"category": string, "confidence": number, "reason": string}.
The category must be one of the candidates given by the user. No markdown.`

func (c *Classifier) Classify(ctx context.Context, filename, content string) (domain.Suggestion, error) {
	const maxSnippet = 4000
	if len(content) > maxSnippet {
		content = content[:maxSnippet]
	}

	userPrompt := fmt.Sprintf("Candidates: %s\n\nFilename: %s\n\nDocument:\n%s",
		strings.Join(c.candidates(), ", "), filename, content)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return domain.Suggestion{}, domain.WrapError(domain.ErrTemporary, "classify file", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Suggestion{}, fmt.Errorf("classify file: empty completion")
	}

	var result domain.Suggestion
	raw := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.Suggestion{}, fmt.Errorf("parse classification json: %w", err)
	}
	result.Category = strings.TrimSpace(result.Category)
	if result.Category == "" {
		return domain.Suggestion{}, fmt.Errorf("classifier returned empty category")
	}
	return result, nil
}
