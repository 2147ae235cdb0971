package completion

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// ErrNoChoices is returned when the API answers without any completion.
var ErrNoChoices = errors.New("completion returned no choices")

const defaultAPIMessage = "Error calling Groq API"

// Request is one chat completion: a fixed system instruction plus one user prompt.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// APIError carries the message the completion API reported for a non-success response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client calls the chat completion API.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a client authenticated with apiKey against baseURL.
func New(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = baseURL
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends req and returns the first choice's text.
// Errors reported by the API come back as *APIError.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = defaultAPIMessage
			}
			return "", &APIError{Status: apiErr.HTTPStatusCode, Message: msg}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &APIError{Status: reqErr.HTTPStatusCode, Message: defaultAPIMessage}
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
