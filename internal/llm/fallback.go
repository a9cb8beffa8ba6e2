package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"invoiceocr/internal/logger"
	"invoiceocr/internal/port"
)

// provider is one entry of a fallback chain. openUntil is zero while the
// provider is accepting requests.
type provider struct {
	name  string
	model port.ChatModel

	mu        sync.RWMutex
	openUntil time.Time
}

func (p *provider) cooling(now time.Time) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.openUntil, !p.openUntil.IsZero() && now.Before(p.openUntil)
}

func (p *provider) coolDown(until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openUntil = until
}

// FallbackModel sends an extraction request to the first provider that is not
// cooling down after a 429. A rate-limited provider is skipped until its
// Retry-After passes, so a burst of uploads keeps being served by the
// secondary model instead of hammering the primary.
//
// A cancelled request never moves on to the next provider: the upload is gone
// and a second chat call would only cost tokens.
type FallbackModel struct {
	providers []*provider
	now       func() time.Time
}

// NewFallback creates a FallbackModel; names[i] labels models[i] in logs and errors.
func NewFallback(models []port.ChatModel, names []string) *FallbackModel {
	providers := make([]*provider, len(models))
	for i, m := range models {
		providers[i] = &provider{name: names[i], model: m}
	}
	return &FallbackModel{providers: providers, now: time.Now}
}

func (f *FallbackModel) Chat(ctx context.Context, req port.ChatRequest) (*port.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := logger.L()
	now := f.now()
	var (
		lastErr        error
		onlyRateLimits = true
		earliest       time.Time
	)
	noteReset := func(at time.Time) {
		if earliest.IsZero() || at.Before(earliest) {
			earliest = at
		}
	}

	for _, p := range f.providers {
		if until, cooling := p.cooling(now); cooling {
			log.WithFields(logrus.Fields{
				"provider":   p.name,
				"open_until": until.Format(time.RFC3339),
			}).Info("llm.FallbackModel: provider rate limited, skipping")
			noteReset(until)
			continue
		}

		resp, err := p.model.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, err
		}
		log.WithError(err).WithField("provider", p.name).Warn("llm.FallbackModel: provider failed")

		var rlErr *RateLimitError
		if !errors.As(err, &rlErr) {
			onlyRateLimits = false
			continue
		}
		until := now.Add(rlErr.RetryAfter)
		p.coolDown(until)
		noteReset(until)
	}

	if lastErr != nil && !onlyRateLimits {
		return nil, fmt.Errorf("all providers failed: %w", lastErr)
	}
	wait := earliest.Sub(f.now())
	if wait < time.Second {
		wait = time.Second
	}
	return nil, NewRateLimitError("all", errors.New("every provider is rate limited"), int(wait.Seconds()))
}
