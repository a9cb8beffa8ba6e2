package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoiceocr/internal/llm"
	"invoiceocr/internal/port"
	"invoiceocr/mocks"
)

func TestFallbackModel_PrimarySucceeds(t *testing.T) {
	primary := new(mocks.MockChatModel)
	secondary := new(mocks.MockChatModel)
	primary.On("Chat", mock.Anything, mock.Anything).Return(okResponse(), nil)

	f := llm.NewFallback([]port.ChatModel{primary, secondary}, []string{"groq", "openai"})
	resp, err := f.Chat(context.Background(), port.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "test-model", resp.ModelUsed)
	secondary.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestFallbackModel_FallsBackOnFailure(t *testing.T) {
	primary := new(mocks.MockChatModel)
	secondary := new(mocks.MockChatModel)
	primary.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	secondary.On("Chat", mock.Anything, mock.Anything).Return(&port.ChatResponse{Content: "{}", ModelUsed: "gpt"}, nil)

	f := llm.NewFallback([]port.ChatModel{primary, secondary}, []string{"groq", "openai"})
	resp, err := f.Chat(context.Background(), port.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "gpt", resp.ModelUsed)
}

func TestFallbackModel_RateLimitOpensCircuit(t *testing.T) {
	primary := new(mocks.MockChatModel)
	secondary := new(mocks.MockChatModel)
	primary.On("Chat", mock.Anything, mock.Anything).Return(nil, llm.NewRateLimitError("groq", errors.New("429"), 60)).Once()
	secondary.On("Chat", mock.Anything, mock.Anything).Return(okResponse(), nil)

	f := llm.NewFallback([]port.ChatModel{primary, secondary}, []string{"groq", "openai"})

	_, err := f.Chat(context.Background(), port.ChatRequest{})
	require.NoError(t, err)
	_, err = f.Chat(context.Background(), port.ChatRequest{})
	require.NoError(t, err)

	primary.AssertNumberOfCalls(t, "Chat", 1)
	secondary.AssertNumberOfCalls(t, "Chat", 2)
}

func TestFallbackModel_AllRateLimited(t *testing.T) {
	primary := new(mocks.MockChatModel)
	secondary := new(mocks.MockChatModel)
	primary.On("Chat", mock.Anything, mock.Anything).Return(nil, llm.NewRateLimitError("groq", errors.New("429"), 30))
	secondary.On("Chat", mock.Anything, mock.Anything).Return(nil, llm.NewRateLimitError("openai", errors.New("429"), 10))

	f := llm.NewFallback([]port.ChatModel{primary, secondary}, []string{"groq", "openai"})

	_, err := f.Chat(context.Background(), port.ChatRequest{})
	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)

	// Both circuits are open now: no provider is called again.
	_, err = f.Chat(context.Background(), port.ChatRequest{})
	require.True(t, errors.As(err, &rlErr))
	primary.AssertNumberOfCalls(t, "Chat", 1)
	secondary.AssertNumberOfCalls(t, "Chat", 1)
}

func TestFallbackModel_AllFailed(t *testing.T) {
	primary := new(mocks.MockChatModel)
	secondary := new(mocks.MockChatModel)
	primary.On("Chat", mock.Anything, mock.Anything).Return(nil, llm.NewRateLimitError("groq", errors.New("429"), 30))
	secondary.On("Chat", mock.Anything, mock.Anything).Return(nil, errors.New("bad gateway"))

	f := llm.NewFallback([]port.ChatModel{primary, secondary}, []string{"groq", "openai"})

	_, err := f.Chat(context.Background(), port.ChatRequest{})
	require.Error(t, err)
	var rlErr *llm.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
	assert.Contains(t, err.Error(), "all providers failed")
}

func TestFallbackModel_CancelledRequestTriesNoProvider(t *testing.T) {
	primary := new(mocks.MockChatModel)
	secondary := new(mocks.MockChatModel)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := llm.NewFallback([]port.ChatModel{primary, secondary}, []string{"groq", "openai"})
	_, err := f.Chat(ctx, port.ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	primary.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
	secondary.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}

func TestFallbackModel_CancelDuringPrimaryStopsChain(t *testing.T) {
	primary := new(mocks.MockChatModel)
	secondary := new(mocks.MockChatModel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	primary.On("Chat", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	f := llm.NewFallback([]port.ChatModel{primary, secondary}, []string{"groq", "openai"})
	_, err := f.Chat(ctx, port.ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	secondary.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
}
