// Package extractor asks a chat model to turn OCR text into invoice JSON and
// decodes the reply.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"invoiceocr/internal/domain"
	"invoiceocr/internal/logger"
	"invoiceocr/internal/port"
)

// fencedJSON matches the first ```json fenced block; the group is its interior.
var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Extractor implements port.InvoiceExtractor.
type Extractor struct {
	model       port.ChatModel
	temperature float64
	maxTokens   int
	log         *logrus.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTemperature overrides the sampling temperature. Production callers
// leave it at 0 so the same OCR text yields the same fields.
func WithTemperature(t float64) Option {
	return func(e *Extractor) { e.temperature = t }
}

// WithMaxTokens caps the reply length. Zero leaves it to the provider.
func WithMaxTokens(n int) Option {
	return func(e *Extractor) { e.maxTokens = n }
}

// WithLogger sets the logger used for extraction diagnostics.
func WithLogger(l *logrus.Logger) Option {
	return func(e *Extractor) { e.log = l }
}

// New creates an Extractor backed by model.
func New(model port.ChatModel, opts ...Option) *Extractor {
	e := &Extractor{model: model, log: logger.L()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sends one chat request for documentText. A reply that is not valid
// JSON yields an ErrorResult, not an error. Transport failures are returned
// wrapped in domain.ErrLLM.
func (e *Extractor) Extract(ctx context.Context, documentText string) (*port.ExtractOutput, error) {
	start := time.Now()
	resp, err := e.model.Chat(ctx, port.ChatRequest{
		Messages: []port.ChatMessage{
			{Role: port.RoleSystem, Content: SystemPrompt},
			{Role: port.RoleHuman, Content: BuildHumanPrompt(documentText)},
		},
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLM, err)
	}

	result := ParseReply(resp.Content)
	fields := logrus.Fields{
		"model":      resp.ModelUsed,
		"reply_len":  len(resp.Content),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if result.Failure != nil {
		e.log.WithFields(fields).Warn("extractor.Extractor.Extract: model reply is not a JSON object")
	} else {
		e.log.WithFields(fields).Debug("extractor.Extractor.Extract: reply decoded")
	}
	return &port.ExtractOutput{Result: result, ModelUsed: resp.ModelUsed}, nil
}

// ParseReply decodes a model reply. If the reply contains a ```json fenced
// block, only its interior is decoded; otherwise the whole reply is. Anything
// that is not a single JSON object becomes an ErrorResult carrying the full
// reply.
func ParseReply(reply string) *domain.ExtractionResult {
	candidate := reply
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		candidate = m[1]
	}
	fields, err := decodeObject(candidate)
	if err != nil {
		return domain.NewErrorResult(reply)
	}
	return domain.NewInvoiceResult(fields)
}

func decodeObject(s string) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("reply is a JSON %T, not an object", v)
	}
	return obj, nil
}
