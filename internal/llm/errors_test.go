package llm_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"invoiceocr/internal/llm"
)

func TestNewRateLimitError_DefaultRetryAfter(t *testing.T) {
	err := llm.NewRateLimitError("groq", errors.New("429"), 0)
	assert.Equal(t, 60*time.Second, err.RetryAfter)
	assert.False(t, err.Hinted)
	assert.Equal(t, "groq", err.Provider)
	assert.Contains(t, err.Error(), "groq rate limited")
}

func TestRateLimitError_Unwrap(t *testing.T) {
	base := errors.New("too many requests")
	err := llm.NewRateLimitError("groq", base, 5)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, 5*time.Second, err.RetryAfter)
	assert.True(t, err.Hinted)
}

func TestParseRetryAfterHeader(t *testing.T) {
	assert.Equal(t, 0, llm.ParseRetryAfterHeader(""))
	assert.Equal(t, 30, llm.ParseRetryAfterHeader("30"))
	assert.Equal(t, 30, llm.ParseRetryAfterHeader(" 30 "))
	assert.Equal(t, 0, llm.ParseRetryAfterHeader("-4"))
	assert.Equal(t, 0, llm.ParseRetryAfterHeader("soon"))

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	secs := llm.ParseRetryAfterHeader(future)
	assert.InDelta(t, 90, secs, 2)

	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	assert.Equal(t, 0, llm.ParseRetryAfterHeader(past))
}

func TestStatusError_Temporary(t *testing.T) {
	assert.True(t, (&llm.StatusError{StatusCode: 500}).Temporary())
	assert.True(t, (&llm.StatusError{StatusCode: 503}).Temporary())
	assert.True(t, (&llm.StatusError{StatusCode: 408}).Temporary())
	assert.False(t, (&llm.StatusError{StatusCode: 400}).Temporary())
	assert.False(t, (&llm.StatusError{StatusCode: 401}).Temporary())
}
