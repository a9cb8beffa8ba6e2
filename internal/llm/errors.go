package llm

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// defaultCooldown is how long a provider that answered 429 without a
// Retry-After header is skipped by FallbackModel.
const defaultCooldown = 60 * time.Second

// RateLimitError is returned when a chat provider refuses an extraction
// request with HTTP 429. The HTTP layer maps it to 429 RATE_LIMITED so the
// client can resubmit the same invoice later.
type RateLimitError struct {
	Err      error
	Provider string
	// RetryAfter is the provider's hint, or defaultCooldown when Hinted is false.
	RetryAfter time.Duration
	// Hinted reports whether the provider sent a usable Retry-After.
	Hinted bool
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. retryAfterSecs <= 0 means the
// provider gave no hint.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		return &RateLimitError{Err: err, Provider: provider, RetryAfter: defaultCooldown}
	}
	return &RateLimitError{
		Err:        err,
		Provider:   provider,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Hinted:     true,
	}
}

// StatusError is a non-2xx, non-429 reply from a chat provider. Body is the
// truncated provider message.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether resending the same prompt may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusRequestTimeout
}

// ParseRetryAfterHeader returns the Retry-After value in seconds, accepting
// delay-seconds and HTTP-date. Empty, negative or unparsable values give 0.
func ParseRetryAfterHeader(val string) int {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return max(secs, 0)
	}
	if at, err := http.ParseTime(val); err == nil {
		return max(int(time.Until(at).Round(time.Second).Seconds()), 0)
	}
	return 0
}
