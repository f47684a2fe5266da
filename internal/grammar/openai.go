package grammar

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIChecker is the cloud-hosted backend, usable against the OpenAI API
// or any OpenAI-compatible endpoint via a custom base URL.
type OpenAIChecker struct {
	client *openai.Client
	model  string
}

// NewOpenAIChecker builds the OpenAI-backed checker.
func NewOpenAIChecker(apiKey, baseURL, model string) *OpenAIChecker {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIChecker{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAIChecker) Name() string { return "openai" }

// Available probes the models endpoint with a short deadline.
func (o *OpenAIChecker) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := o.client.ListModels(ctx)
	return err == nil
}

func (o *OpenAIChecker) Check(ctx context.Context, source, translation, word string) (*Result, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(source, translation, word)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	return parseResult(resp.Choices[0].Message.Content)
}
