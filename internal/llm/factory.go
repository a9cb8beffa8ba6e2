// Package llm builds chat models for structured extraction: a provider
// registry plus retry and fallback wrappers shared by every provider.
package llm

import (
	"fmt"
	"sort"
	"time"

	"invoiceocr/internal/config"
	"invoiceocr/internal/port"
)

// ProviderFactory is a function that creates a ChatModel from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig) (port.ChatModel, error)

// registry of chat model factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a chat model factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// Providers lists the registered provider names.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel creates a ChatModel from a provider config using the registered
// factory, wrapped with the configured retry policy.
func NewModel(cfg *config.LLMProviderConfig) (port.ChatModel, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	model, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating %s model: %w", cfg.Provider, err)
	}
	return WithRetry(model, RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  time.Second,
		MaxDelay:   20 * time.Second,
	}), nil
}

// NewFromConfig creates the primary model and, when a secondary provider is
// configured, a fallback chain of primary then secondary.
func NewFromConfig(cfg *config.LLMConfig) (port.ChatModel, error) {
	primary, err := NewModel(&cfg.Primary)
	if err != nil {
		return nil, err
	}
	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := NewModel(secondaryCfg)
	if err != nil {
		return nil, err
	}
	return NewFallback(
		[]port.ChatModel{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}
