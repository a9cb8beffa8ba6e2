package langchain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"invoiceocr/internal/config"
	"invoiceocr/internal/llm"
	"invoiceocr/internal/llm/langchain"
	"invoiceocr/internal/port"
)

type fakeLLM struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
	err      error
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestModel_Chat_MapsMessagesAndOptions(t *testing.T) {
	fake := &fakeLLM{reply: `{"vendor_name": "ABC"}`}
	m := langchain.New(fake, "gpt-4o-mini", 2048)

	resp, err := m.Chat(context.Background(), port.ChatRequest{
		Messages: []port.ChatMessage{
			{Role: port.RoleSystem, Content: "system prompt"},
			{Role: port.RoleHuman, Content: "human prompt"},
		},
		Temperature: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"vendor_name": "ABC"}`, resp.Content)
	assert.Equal(t, "gpt-4o-mini", resp.ModelUsed)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, fake.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, fake.messages[1].Role)
	assert.Equal(t, llms.TextContent{Text: "human prompt"}, fake.messages[1].Parts[0])
	assert.Equal(t, 0.0, fake.opts.Temperature)
	assert.Equal(t, 2048, fake.opts.MaxTokens)
}

func TestModel_Chat_Error(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection reset")}
	m := langchain.New(fake, "claude", 0)

	_, err := m.Chat(context.Background(), port.ChatRequest{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestProvidersRegistered(t *testing.T) {
	names := llm.Providers()
	for _, p := range []string{"openai", "anthropic", "mistral", "ollama"} {
		assert.Contains(t, names, p)
	}
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := langchain.NewOpenAI(&config.LLMProviderConfig{Provider: "openai"})
	assert.Error(t, err)
}

func TestNewAnthropic_RequiresKey(t *testing.T) {
	_, err := langchain.NewAnthropic(&config.LLMProviderConfig{Provider: "anthropic"})
	assert.Error(t, err)
}

func TestNewOpenAI_WithBaseURL(t *testing.T) {
	m, err := langchain.NewOpenAI(&config.LLMProviderConfig{
		Provider: "openai",
		APIKey:   "sk-test",
		BaseURL:  "http://localhost:9999/v1",
	})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestModel_Chat_ClassifiesProviderStatus(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		rateLimit bool
		temporary bool
	}{
		{"openai 503", errors.New("API returned unexpected status code: 503: overloaded"), 503, false, true},
		{"anthropic 429", errors.New("API returned unexpected status code: 429: rate_limit_error"), 429, true, false},
		{"mistral 500", errors.New("(HTTP Error 500) internal"), 500, false, true},
		{"openai 401", errors.New("API returned unexpected status code: 401: invalid key"), 401, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := langchain.New(&fakeLLM{err: tt.err}, "gpt-4o-mini", 0)
			_, err := m.Chat(context.Background(), port.ChatRequest{})

			var statusErr *llm.StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.temporary, statusErr.Temporary())

			var rlErr *llm.RateLimitError
			assert.Equal(t, tt.rateLimit, errors.As(err, &rlErr))
		})
	}
}

func TestModel_Chat_ServerErrorIsRetried(t *testing.T) {
	fake := &flakyLLM{failures: 1, err: errors.New("API returned unexpected status code: 502")}
	m := llm.NewRetryModel(langchain.New(fake, "gpt-4o-mini", 0),
		llm.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		func(context.Context, time.Duration) error { return nil })

	resp, err := m.Chat(context.Background(), port.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Content)
	assert.Equal(t, 2, fake.calls)
}

type flakyLLM struct {
	failures int
	calls    int
	err      error
}

func (f *flakyLLM) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "{}"}}}, nil
}

func (f *flakyLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}
