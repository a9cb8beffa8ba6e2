package ocr

import (
	"fmt"
	"sort"
	"sync"

	"invoiceocr/internal/config"
)

// BackendFactory creates a Backend from OCR configuration.
type BackendFactory func(cfg *config.OCRConfig) (Backend, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]BackendFactory{}
)

// RegisterBackend adds a backend factory under name. Backend packages call it
// from init.
func RegisterBackend(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewBackend creates the backend named by cfg.Backend.
func NewBackend(cfg *config.OCRConfig) (Backend, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Backend]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ocr backend %q (registered: %v)", cfg.Backend, Backends())
	}
	return factory(cfg)
}

// Backends lists the registered backend names.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
