// Package llm generates post summaries with the OpenAI chat API.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"stormplot/internal/logger"
)

// maxPromptRunes bounds the post text sent with a request.
const maxPromptRunes = 6000

const systemPrompt = "You write one-sentence teasers for a tropical weather blog. " +
	"Summarize the update in at most 160 characters, plain text, no hashtags, no quotes."

// OpenAIClient handles OpenAI API interactions
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return newClient(openai.DefaultConfig(apiKey), model)
}

// NewOpenAIClientWithBaseURL creates a client for an OpenAI compatible
// endpoint.
func NewOpenAIClientWithBaseURL(apiKey, model, baseURL string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newClient(cfg, model)
}

func newClient(cfg openai.ClientConfig, model string) *OpenAIClient {
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: 60 * time.Second,
		log:     logger.WithComponent("llm"),
	}
}

// Summarize asks the model for a short teaser of a post.
func (c *OpenAIClient) Summarize(ctx context.Context, title, text string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: BuildPrompt(title, text),
				},
			},
			MaxTokens:   200,
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	summary := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`)
	c.log.Debug("summary generated", map[string]interface{}{
		"title":  title,
		"length": len(summary),
		"tokens": resp.Usage.TotalTokens,
	})
	return summary, nil
}

// BuildPrompt constructs the user message for a post.
func BuildPrompt(title, text string) string {
	runes := []rune(text)
	if len(runes) > maxPromptRunes {
		text = string(runes[:maxPromptRunes])
	}
	return fmt.Sprintf("Title: %s\n\nPost:\n%s", title, text)
}
