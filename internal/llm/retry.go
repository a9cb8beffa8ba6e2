package llm

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"invoiceocr/internal/logger"
	"invoiceocr/internal/port"
)

// RetryPolicy bounds how often and how long a transient failure is retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// RetryModel retries transient chat failures: network errors, 5xx and 408
// responses, and rate limits. A 429 without Retry-After gets the normal
// backoff; one whose Retry-After exceeds MaxDelay is returned at once.
type RetryModel struct {
	model  port.ChatModel
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps model with policy. A policy without retries returns the
// model unchanged.
func WithRetry(model port.ChatModel, policy RetryPolicy) port.ChatModel {
	if policy.MaxRetries <= 0 {
		return model
	}
	return newRetryModel(model, policy, sleepContext)
}

// NewRetryModel is WithRetry with an injectable sleep function (for testing).
func NewRetryModel(model port.ChatModel, policy RetryPolicy, sleep func(ctx context.Context, d time.Duration) error) *RetryModel {
	return newRetryModel(model, policy, sleep)
}

func newRetryModel(model port.ChatModel, policy RetryPolicy, sleep func(ctx context.Context, d time.Duration) error) *RetryModel {
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = policy.BaseDelay
	}
	return &RetryModel{model: model, policy: policy, sleep: sleep}
}

func (r *RetryModel) Chat(ctx context.Context, req port.ChatRequest) (*port.ChatResponse, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := r.model.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		delay, ok := r.retryDelay(err, attempt)
		if !ok || attempt >= r.policy.MaxRetries || ctx.Err() != nil {
			return nil, lastErr
		}
		logger.L().WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Warn("llm.RetryModel: retrying chat request")
		if err := r.sleep(ctx, delay); err != nil {
			return nil, lastErr
		}
	}
}

func (r *RetryModel) retryDelay(err error, attempt int) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	backoff := r.policy.BaseDelay << attempt
	if backoff > r.policy.MaxDelay {
		backoff = r.policy.MaxDelay
	}

	var rlErr *RateLimitError
	if errors.As(err, &rlErr) {
		if !rlErr.Hinted {
			return backoff, true
		}
		if rlErr.RetryAfter > r.policy.MaxDelay {
			return 0, false
		}
		return rlErr.RetryAfter, true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return backoff, statusErr.Temporary()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return backoff, true
	}
	return 0, false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
