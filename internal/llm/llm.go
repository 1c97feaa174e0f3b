// Package llm generates question documents from source text via an
// OpenAI-compatible chat completion API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ardikafs/kartusoal/internal/llm/prompts"
	"github.com/ardikafs/kartusoal/internal/model"
)

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// GenerateDocument asks the model to turn source text into a question
// document. The result is renumbered to a contiguous 1-based sequence
// and validated before it is returned.
func (c *Client) GenerateDocument(ctx context.Context, title, source string, numQuestions int, lang string) (model.QuestionDocument, error) {
	if numQuestions < 1 {
		return model.QuestionDocument{}, fmt.Errorf("numQuestions must be positive, got %d", numQuestions)
	}

	systemPrompt, err := prompts.Generate(prompts.GenerateData{
		Title:        title,
		SourceText:   source,
		NumQuestions: numQuestions,
		Language:     languageName(lang),
	})
	if err != nil {
		return model.QuestionDocument{}, err
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return model.QuestionDocument{}, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.QuestionDocument{}, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var doc model.QuestionDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return model.QuestionDocument{}, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	if doc.Title == "" {
		doc.Title = title
	}
	// Models drift on numbering more than on content: fix it up rather
	// than reject.
	doc.Renumber()
	if err := doc.Validate(); err != nil {
		return model.QuestionDocument{}, fmt.Errorf("generated document: %w", err)
	}
	return doc, nil
}

func languageName(code string) string {
	switch code {
	case "id":
		return "Indonesian"
	case "en":
		return "English"
	default:
		return code
	}
}
