package llm

import (
	"context"
	"errors"
	"time"

	"flowforge/internal/metrics"
	"flowforge/internal/port"
)

type instrumented struct {
	provider string
	next     port.LLMGateway
}

// Instrument records call counts and latency for gw under provider.
func Instrument(provider string, gw port.LLMGateway) port.LLMGateway {
	return &instrumented{provider: provider, next: gw}
}

func (i *instrumented) Send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	out, err := i.next.Send(ctx, systemPrompt, userPrompt)

	outcome := "ok"
	var rlErr *RateLimitError
	switch {
	case errors.As(err, &rlErr):
		outcome = "rate_limited"
	case err != nil:
		outcome = "error"
	}
	metrics.RecordLLMCall(i.provider, outcome, time.Since(start))
	return out, err
}
