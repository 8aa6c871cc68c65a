// Package translate suggests translations for newly added words.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/pkg/models"
)

const (
	DefaultURL   = "https://api.openai.com/v1/chat/completions"
	DefaultModel = "gpt-4o-mini"
)

// Translator translates a short text between two languages.
type Translator interface {
	Translate(ctx context.Context, text string, src, dest models.Language) (string, error)
}

// Noop never translates; used when no API key is configured.
type Noop struct{}

func (Noop) Translate(context.Context, string, models.Language, models.Language) (string, error) {
	return "", nil
}

// German is the source language of every headword.
const German models.Language = "de"

var languageNames = map[models.Language]string{
	German:           "German",
	models.English:   "English",
	models.Ukrainian: "Ukrainian",
	models.Russian:   "Russian",
	models.Turkish:   "Turkish",
	models.Arabic:    "Arabic",
}

// Config configures the ChatGPT client.
type Config struct {
	APIKey  string
	Model   string
	URL     string
	Timeout time.Duration
}

// ChatGPT translates through the OpenAI chat completions API
type ChatGPT struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	client      *http.Client
}

// New creates a new ChatGPT client
func New(cfg Config) (*ChatGPT, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not set")
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &ChatGPT{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.URL,
		model:       cfg.Model,
		maxTokens:   60,
		temperature: 0.2,
		client:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Translate returns the translation of text from src into dest. Provider
// failures are External errors.
func (c *ChatGPT) Translate(ctx context.Context, text string, src, dest models.Language) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: "You translate single words and short phrases for a vocabulary trainer. Reply with the translation only, without articles, quotes or explanations."},
			{Role: "user", Content: fmt.Sprintf("Translate from %s to %s: %s", languageNames[src], languageNames[dest], text)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", apperr.New(apperr.External, err, "failed to send request")
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", apperr.New(apperr.External, err, "failed to decode response (status %d)", resp.StatusCode)
	}
	if response.Error != nil {
		return "", apperr.New(apperr.External, nil, "API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", apperr.New(apperr.External, nil, "no response choices returned")
	}

	translation := strings.TrimSpace(response.Choices[0].Message.Content)
	return strings.Trim(translation, `"'«»`), nil
}

// Suggest translates text and swallows failures, which are logged. An empty
// result means the learner has to supply the translation.
func Suggest(ctx context.Context, t Translator, logger *slog.Logger, text string, src, dest models.Language) string {
	out, err := t.Translate(ctx, text, src, dest)
	if err != nil {
		logger.WarnContext(ctx, "translation failed",
			slog.String("text", text),
			slog.String("dest", string(dest)),
			slog.Any("error", err))
		return ""
	}
	return out
}
