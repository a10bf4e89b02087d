package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MeiZhiYying/classifyDoc/internal/core/domain"
	"github.com/MeiZhiYying/classifyDoc/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Classifier asks the local model which catalog category a file belongs
// to. Candidates supplies the current registry names per call, so newly
// created categories are immediately offered to the model.
type Classifier struct {
	client     *Client
	candidates func() []string
	executor   *resilience.Executor
}

func NewClassifier(client *Client, candidates func() []string, executor *resilience.Executor) *Classifier {
	return &Classifier{client: client, candidates: candidates, executor: executor}
}

func (c *Classifier) Classify(ctx context.Context, filename, content string) (domain.Suggestion, error) {
	prompt := buildClassificationPrompt(filename, content, c.candidates())

	var respText string
	call := func(callCtx context.Context) error {
		var err error
		respText, err = c.client.generateJSON(callCtx, prompt)
		return err
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.classify", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.Suggestion{}, wrapTemporaryIfNeeded("classify file", err)
	}

	var result domain.Suggestion
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		// Model ignored the JSON instruction; salvage a bare category name.
		salvaged := salvageCategory(respText, c.candidates())
		if salvaged == "" {
			return domain.Suggestion{}, fmt.Errorf("parse classification json: %w", err)
		}
		return domain.Suggestion{Category: salvaged}, nil
	}
	result.Category = strings.TrimSpace(result.Category)
	if result.Category == "" {
		return domain.Suggestion{}, fmt.Errorf("classifier returned empty category")
	}
	return result, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func salvageCategory(raw string, candidates []string) string {
	lower := strings.ToLower(raw)
	for _, candidate := range candidates {
		if strings.Contains(lower, strings.ToLower(candidate)) {
			return candidate
		}
	}
	return ""
}
