package port

import "context"

// LLMGateway sends one prompt pair to a hosted chat-completion model and
// returns the raw reply text.
type LLMGateway interface {
	Send(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
