package llm

import (
	"context"

	"golang.org/x/time/rate"

	"flowforge/internal/port"
)

var _ port.LLMGateway = (*ThrottledGateway)(nil)

// ThrottledGateway paces calls through a token bucket shared by every request.
type ThrottledGateway struct {
	next    port.LLMGateway
	limiter *rate.Limiter
}

// NewThrottledGateway allows rps calls per second with the given burst.
func NewThrottledGateway(next port.LLMGateway, rps float64, burst int) *ThrottledGateway {
	if burst < 1 {
		burst = 1
	}
	return &ThrottledGateway{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *ThrottledGateway) Send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.next.Send(ctx, systemPrompt, userPrompt)
}
