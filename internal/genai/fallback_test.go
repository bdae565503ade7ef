package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator is a scripted TextGenerator for fallback tests.
type stubGenerator struct {
	provider Provider
	answers  []string
	errs     []error
	calls    int
}

func (s *stubGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.errs) {
		i = len(s.errs) - 1
	}
	return s.answers[i], s.errs[i]
}

func (s *stubGenerator) Provider() Provider { return s.provider }
func (s *stubGenerator) Close() error       { return nil }

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestFallbackGeneratorPrimarySucceeds(t *testing.T) {
	primary := &stubGenerator{provider: ProviderGemini, answers: []string{"ok"}, errs: []error{nil}}
	fallback := &stubGenerator{provider: ProviderGroq, answers: []string{"nope"}, errs: []error{nil}}

	f := NewFallbackGenerator(primary, fallback, fastRetry())
	answer, err := f.Generate(context.Background(), "sys", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestFallbackGeneratorEmptyTextIsNotAnError(t *testing.T) {
	// A model may legitimately return no text. That must pass through as
	// an empty answer, without burning retries or switching providers.
	primary := &stubGenerator{provider: ProviderGemini, answers: []string{""}, errs: []error{nil}}
	fallback := &stubGenerator{provider: ProviderGroq, answers: []string{"unused"}, errs: []error{nil}}

	f := NewFallbackGenerator(primary, fallback, fastRetry())
	answer, err := f.Generate(context.Background(), "sys", "prompt")

	require.NoError(t, err)
	assert.Empty(t, answer)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestFallbackGeneratorRetriesTransient(t *testing.T) {
	primary := &stubGenerator{
		provider: ProviderGemini,
		answers:  []string{"", "ok"},
		errs:     []error{errors.New("503 overloaded"), nil},
	}

	f := NewFallbackGenerator(primary, nil, fastRetry())
	answer, err := f.Generate(context.Background(), "sys", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, 2, primary.calls)
}

func TestFallbackGeneratorSwitchesOnQuota(t *testing.T) {
	primary := &stubGenerator{
		provider: ProviderGemini,
		answers:  []string{""},
		errs:     []error{errors.New("quota exceeded")},
	}
	fallback := &stubGenerator{provider: ProviderGroq, answers: []string{"from groq"}, errs: []error{nil}}

	f := NewFallbackGenerator(primary, fallback, fastRetry())

	var from, to Provider
	f.OnFallback(func(f, t Provider) { from, to = f, t })

	answer, err := f.Generate(context.Background(), "sys", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "from groq", answer)
	assert.Equal(t, ProviderGemini, from)
	assert.Equal(t, ProviderGroq, to)
}

func TestFallbackGeneratorPermanentErrorFailsFast(t *testing.T) {
	primary := &stubGenerator{
		provider: ProviderGemini,
		answers:  []string{""},
		errs:     []error{errors.New("401 unauthorized")},
	}
	fallback := &stubGenerator{provider: ProviderGroq, answers: []string{"unused"}, errs: []error{nil}}

	f := NewFallbackGenerator(primary, fallback, fastRetry())
	_, err := f.Generate(context.Background(), "sys", "prompt")

	assert.Error(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, fallback.calls)
}

func TestFallbackGeneratorNoPrimary(t *testing.T) {
	f := NewFallbackGenerator(nil, nil, fastRetry())
	_, err := f.Generate(context.Background(), "", "prompt")
	assert.Error(t, err)
}
