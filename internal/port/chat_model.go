package port

import "context"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleSystem ChatRole = "system"
	RoleHuman  ChatRole = "human"
)

// ChatMessage is one turn of a chat exchange.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// ChatRequest carries the messages and sampling settings for one model call.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the model's single, non-streamed reply.
type ChatResponse struct {
	Content   string
	ModelUsed string
}

// ChatModel abstracts an LLM chat completion service.
type ChatModel interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
