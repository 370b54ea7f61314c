package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"flowforge/internal/port"
)

var _ port.LLMGateway = (*FallbackGateway)(nil)

// backoff records until when a rate-limited provider must not be called.
type backoff struct {
	mu    sync.RWMutex
	until time.Time
}

func (b *backoff) blockedUntil(now time.Time) (time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.until, now.Before(b.until)
}

func (b *backoff) block(until time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.until = until
}

type provider struct {
	name    string
	gateway port.LLMGateway
	backoff *backoff
}

// FallbackGateway sends to its providers in priority order. A provider that
// answered 429 sits out until its Retry-After has passed.
type FallbackGateway struct {
	providers []provider
}

// NewFallbackGateway pairs gateways[i] with names[i], highest priority first.
func NewFallbackGateway(gateways []port.LLMGateway, names []string) *FallbackGateway {
	providers := make([]provider, len(gateways))
	for i, gw := range gateways {
		providers[i] = provider{name: names[i], gateway: gw, backoff: &backoff{}}
	}
	return &FallbackGateway{providers: providers}
}

// Send returns the first provider reply. When every provider is rate limited
// the result is a RateLimitError carrying the soonest reset; otherwise the last
// failure is wrapped. Cancellation ends the chain at once.
func (f *FallbackGateway) Send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	now := time.Now()
	var (
		lastErr     error
		soonest     time.Time
		onlyLimited = true
	)
	noteReset := func(at time.Time) {
		if soonest.IsZero() || at.Before(soonest) {
			soonest = at
		}
	}

	for _, p := range f.providers {
		if until, blocked := p.backoff.blockedUntil(now); blocked {
			log.Printf("llm.FallbackGateway: %s backing off until %s", p.name, until.Format(time.RFC3339))
			noteReset(until)
			continue
		}

		out, err := p.gateway.Send(ctx, systemPrompt, userPrompt)
		if err == nil {
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		log.Printf("llm.FallbackGateway: %s failed: %v", p.name, err)
		lastErr = err

		var rl *RateLimitError
		if !errors.As(err, &rl) {
			onlyLimited = false
			continue
		}
		until := now.Add(rl.RetryAfter)
		p.backoff.block(until)
		noteReset(until)
	}

	if lastErr != nil && !onlyLimited {
		return "", fmt.Errorf("all providers failed: %w", lastErr)
	}
	wait := max(time.Until(soonest), time.Second)
	return "", NewRateLimitError("all", errors.New("all providers rate limited"), int(wait.Seconds()))
}
