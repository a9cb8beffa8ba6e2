// Package langchain adapts langchaingo chat models to port.ChatModel and
// registers the openai, anthropic, mistral and ollama providers.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/mistral"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"invoiceocr/internal/config"
	"invoiceocr/internal/llm"
	"invoiceocr/internal/port"
)

const defaultOllamaHost = "http://127.0.0.1:11434"

// providerStatus finds the HTTP status langchaingo's openai and anthropic
// clients ("API returned unexpected status code: 503") and the mistral SDK
// ("(HTTP Error 503)") embed in their error text.
var providerStatus = regexp.MustCompile(`(?:unexpected status code: |HTTP Error )(\d{3})`)

func init() {
	llm.RegisterProvider("openai", NewOpenAI)
	llm.RegisterProvider("anthropic", NewAnthropic)
	llm.RegisterProvider("mistral", NewMistral)
	llm.RegisterProvider("ollama", NewOllama)
}

// Model implements port.ChatModel on top of an llms.Model.
type Model struct {
	llm       llms.Model
	name      string
	maxTokens int
}

// New wraps an existing langchaingo model.
func New(model llms.Model, name string, maxTokens int) *Model {
	return &Model{llm: model, name: name, maxTokens: maxTokens}
}

// NewOpenAI creates an OpenAI chat model. A base URL points it at any
// OpenAI-compatible server.
func NewOpenAI(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is not set")
	}
	model := orDefault(cfg.Model, "gpt-4o-mini")
	opts := []openai.Option{
		openai.WithModel(model),
		openai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return New(client, model, cfg.MaxTokens), nil
}

// NewAnthropic creates an Anthropic chat model.
func NewAnthropic(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is not set")
	}
	model := orDefault(cfg.Model, "claude-3-5-haiku-latest")
	client, err := anthropic.New(
		anthropic.WithModel(model),
		anthropic.WithToken(cfg.APIKey),
	)
	if err != nil {
		return nil, err
	}
	return New(client, model, cfg.MaxTokens), nil
}

// NewMistral creates a Mistral chat model.
func NewMistral(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("mistral API key is not set")
	}
	model := orDefault(cfg.Model, "mistral-small-latest")
	client, err := mistral.New(
		mistral.WithModel(model),
		mistral.WithAPIKey(cfg.APIKey),
	)
	if err != nil {
		return nil, err
	}
	return New(client, model, cfg.MaxTokens), nil
}

// NewOllama creates a chat model served by a local Ollama instance. The host
// comes from the provider base URL, then OLLAMA_HOST.
func NewOllama(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
	host := cfg.BaseURL
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultOllamaHost
	}
	model := orDefault(cfg.Model, "llama3.1:8b")
	client, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(host),
	)
	if err != nil {
		return nil, err
	}
	return New(client, model, cfg.MaxTokens), nil
}

func (m *Model) Chat(ctx context.Context, req port.ChatRequest) (*port.ChatResponse, error) {
	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, llms.TextParts(messageType(msg.Role), msg.Content))
	}

	callOpts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = m.maxTokens
	}
	if maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(maxTokens))
	}

	completion, err := m.llm.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, classifyError(m.name, err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from %s: no choices", m.name)
	}
	return &port.ChatResponse{Content: completion.Choices[0].Content, ModelUsed: m.name}, nil
}

// classifyError turns provider HTTP failures into llm.StatusError or
// llm.RateLimitError so RetryModel and FallbackModel treat them like the groq
// client's. Other errors are wrapped unchanged.
func classifyError(name string, err error) error {
	match := providerStatus.FindStringSubmatch(err.Error())
	if match == nil {
		return fmt.Errorf("error getting response from %s: %w", name, err)
	}
	code, _ := strconv.Atoi(match[1])
	statusErr := &llm.StatusError{Provider: name, StatusCode: code, Body: err.Error()}
	if code == http.StatusTooManyRequests {
		return llm.NewRateLimitError(name, statusErr, 0)
	}
	return statusErr
}

func messageType(r port.ChatRole) llms.ChatMessageType {
	if r == port.RoleSystem {
		return llms.ChatMessageTypeSystem
	}
	return llms.ChatMessageTypeHuman
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
