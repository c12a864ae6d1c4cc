// Package provider maps chain entries onto upstream generators.
package provider

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/horasecreta/advisor/ai/anthropic"
	"github.com/horasecreta/advisor/ai/llm"
	"github.com/horasecreta/advisor/ai/openai"
	"github.com/horasecreta/advisor/am"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/internal/httpclient"
)

// Generator produces text for a prompt. Implementations must honour the
// context deadline. The invoker stops waiting at the attempt deadline either
// way, but a Generate call that ignores ctx keeps its goroutine alive until
// it returns on its own: one leaked goroutine per timed-out attempt.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Response, error)
	IsConfigured() bool
}

// Compile-time checks
var (
	_ Generator = (*openai.Client)(nil)
	_ Generator = (*anthropic.Client)(nil)
	_ Generator = (*llm.MockGenerator)(nil)
)

// ErrUnknownProvider is returned by Lookup for a name with no generator
var ErrUnknownProvider = errors.New("unknown provider")

// Registry is a read-only name → Generator table built once at startup
type Registry struct {
	generators map[string]Generator
}

// NewRegistry creates a registry from explicit generators (mainly for tests)
func NewRegistry(generators map[string]Generator) *Registry {
	r := &Registry{generators: make(map[string]Generator, len(generators))}
	for name, g := range generators {
		r.generators[strings.ToLower(name)] = g
	}
	return r
}

// NewRegistryFromConfig wires the OpenAI and Anthropic generators from config.
// Both are registered even without credentials so a missing key fails the
// attempt (and the chain moves on) instead of failing startup.
func NewRegistryFromConfig(cfg *am.Config, logger *zap.SugaredLogger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	hc := httpclient.New(httpclient.Options{})
	for _, base := range []string{cfg.OpenAI.BaseURL, cfg.Anthropic.BaseURL} {
		if base == "" {
			continue
		}
		if _, err := hc.ValidateURL(base); err != nil {
			return nil, errors.Wrapf(err, "invalid provider base URL %q", base)
		}
	}

	return NewRegistry(map[string]Generator{
		am.ProviderOpenAI: openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Temperature: cfg.OpenAI.Temperature,
			Logger:      logger.Named("openai"),
			HTTPClient:  hc,
		}),
		am.ProviderAnthropic: anthropic.NewClient(anthropic.Config{
			APIKey:     cfg.Anthropic.APIKey,
			BaseURL:    cfg.Anthropic.BaseURL,
			Logger:     logger.Named("anthropic"),
			HTTPClient: hc,
		}),
	}), nil
}

// Lookup returns the generator registered under name
func (r *Registry) Lookup(name string) (Generator, error) {
	g, ok := r.generators[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProvider, "%q", name)
	}
	return g, nil
}

// Configured reports whether the named provider has credentials
func (r *Registry) Configured(name string) bool {
	g, err := r.Lookup(name)
	return err == nil && g.IsConfigured()
}

// Names lists registered providers in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
