package llm

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"flowforge/internal/domain"
)

// RateLimitError indicates a provider returned HTTP 429.
// It matches domain.ErrTransport under errors.Is.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrTransport
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// TransportError wraps a provider failure as domain.ErrTransport.
func TransportError(provider string, err error) error {
	if errors.Is(err, domain.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrTransport, provider, err)
}

// TruncatedError reports a reply cut off by the output token limit.
func TruncatedError(provider, reason string) error {
	return fmt.Errorf("%w: %s output truncated (%s)", domain.ErrMalformedResponse, provider, reason)
}
