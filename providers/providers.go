// Package providers maps vendor names to stream translator factories so
// callers can open a canonical event stream without importing each vendor
// package directly.
package providers

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/deepnoodle-ai/modelstream"
	"github.com/deepnoodle-ai/modelstream/log"
	"github.com/deepnoodle-ai/modelstream/providers/anthropic"
	"github.com/deepnoodle-ai/modelstream/providers/cohere"
	"github.com/deepnoodle-ai/modelstream/providers/google"
)

// TranslatorFactory creates a fresh per-response translator.
type TranslatorFactory func(logger log.Logger) modelstream.Translator

// Registry manages vendor-name-to-translator mappings.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]TranslatorFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]TranslatorFactory{}}
}

// Register adds or replaces the factory for a vendor name.
func (r *Registry) Register(name string, factory TranslatorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// NewTranslator creates a translator for the named vendor.
func (r *Registry) NewTranslator(name string, logger log.Logger) (modelstream.Translator, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown stream provider: %q", name)
	}
	return factory(logger), nil
}

// NewStream opens a canonical event stream for the named vendor.
func (r *Registry) NewStream(name string, body io.ReadCloser, logger log.Logger) (modelstream.Stream, error) {
	translator, err := r.NewTranslator(name, logger)
	if err != nil {
		return nil, err
	}
	return modelstream.NewEventStream(body, translator), nil
}

// Names returns the registered vendor names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global default registry with the built-in vendors.
var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register("anthropic", func(logger log.Logger) modelstream.Translator {
		return anthropic.New(anthropic.WithLogger(logger))
	})
	defaultRegistry.Register("google", func(logger log.Logger) modelstream.Translator {
		return google.New(google.WithLogger(logger))
	})
	defaultRegistry.Register("cohere", func(logger log.Logger) modelstream.Translator {
		return cohere.New(cohere.WithLogger(logger))
	})
}

// Register adds a factory to the default registry.
func Register(name string, factory TranslatorFactory) {
	defaultRegistry.Register(name, factory)
}

// NewTranslator creates a translator using the default registry.
func NewTranslator(name string, logger log.Logger) (modelstream.Translator, error) {
	return defaultRegistry.NewTranslator(name, logger)
}

// NewStream opens a stream using the default registry.
func NewStream(name string, body io.ReadCloser, logger log.Logger) (modelstream.Stream, error) {
	return defaultRegistry.NewStream(name, body, logger)
}

// Names returns the vendor names in the default registry, sorted.
func Names() []string {
	return defaultRegistry.Names()
}

// DefaultRegistry returns the default global registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
