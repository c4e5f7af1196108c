package services

import "context"

const (
	ChatRoleUser      = "user"      // transcript handed to the agent
	ChatRoleAssistant = "assistant" // the agent's own messages
	ChatRoleSystem    = "system"    // player instruction prompt
)

// ChatMessage is a single message sent to an agent backend. The structure
// follows the chat APIs of Ollama and compatible providers.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentService produces one player's turn text from the episode context.
// Implementations wrap an LLM provider; the engine never calls this
// directly — agents are driven by the self-play worker.
type AgentService interface {
	// InitModel prepares the backing model on startup
	InitModel(ctx context.Context, modelName string) error

	// NextAction generates the raw turn text for a player given their
	// instruction prompt and the transcript so far
	NextAction(ctx context.Context, messages []ChatMessage) (string, error)

	// IsModelReady checks if the specified model is ready for use
	IsModelReady(ctx context.Context, modelName string) (bool, error)
}
