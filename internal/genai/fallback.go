package genai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// FallbackGenerator wraps a primary and a fallback TextGenerator.
// It applies two layers of recovery:
//  1. Retry the primary with Full Jitter backoff on transient errors.
//  2. Switch to the fallback provider on quota exhaustion or when the
//     primary's retries are spent.
type FallbackGenerator struct {
	primary     TextGenerator
	fallback    TextGenerator
	retryConfig RetryConfig
	onFallback  func(from, to Provider)
}

// NewFallbackGenerator creates a fallback-enabled text generator.
// fallback may be nil, in which case only retry applies.
func NewFallbackGenerator(primary, fallback TextGenerator, cfg RetryConfig) *FallbackGenerator {
	return &FallbackGenerator{
		primary:     primary,
		fallback:    fallback,
		retryConfig: cfg,
	}
}

// OnFallback registers a callback invoked when the chain switches
// providers, for metrics.
func (f *FallbackGenerator) OnFallback(fn func(from, to Provider)) {
	f.onFallback = fn
}

// Generate tries the primary generator with retry, then the fallback.
func (f *FallbackGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	if f == nil || f.primary == nil {
		return "", errors.New("text generator not configured")
	}

	start := time.Now()
	provider := f.primary.Provider()

	result, err := f.generateWithRetry(ctx, f.primary, system, prompt)
	if err == nil {
		return result, nil
	}

	action := ClassifyError(err)
	slog.WarnContext(ctx, "primary text generator failed",
		"provider", provider,
		"error", err,
		"action", action.String(),
		"duration_ms", time.Since(start).Milliseconds())

	if action == ActionFail || f.fallback == nil {
		return "", err
	}

	slog.InfoContext(ctx, "falling back to secondary provider",
		"from", provider,
		"to", f.fallback.Provider())
	if f.onFallback != nil {
		f.onFallback(provider, f.fallback.Provider())
	}

	return f.generateWithRetry(ctx, f.fallback, system, prompt)
}

func (f *FallbackGenerator) generateWithRetry(ctx context.Context, g TextGenerator, system, prompt string) (string, error) {
	var result string
	err := WithRetry(ctx, f.retryConfig, func() error {
		var genErr error
		result, genErr = g.Generate(ctx, system, prompt)
		return genErr
	})
	return result, err
}

// Provider returns the primary generator's provider.
func (f *FallbackGenerator) Provider() Provider {
	if f == nil || f.primary == nil {
		return ""
	}
	return f.primary.Provider()
}

// Close releases both generators.
func (f *FallbackGenerator) Close() error {
	if f == nil {
		return nil
	}
	var firstErr error
	if f.primary != nil {
		firstErr = f.primary.Close()
	}
	if f.fallback != nil {
		if err := f.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
