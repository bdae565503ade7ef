package genai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyErrorActions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorAction
	}{
		{"nil", nil, ActionFail},
		{"canceled", context.Canceled, ActionFail},
		{"deadline", context.DeadlineExceeded, ActionRetry},
		{"quota", errors.New("quota exceeded for this project"), ActionFallback},
		{"billing", errors.New("billing account required"), ActionFallback},
		{"rate limit", errors.New("rate limit reached, too many requests"), ActionRetry},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: slow down"), ActionRetry},
		{"server error", errors.New("503 service unavailable"), ActionRetry},
		{"timeout", errors.New("connection timeout"), ActionRetry},
		{"bad request", errors.New("400 bad request"), ActionFail},
		{"unauthorized", errors.New("invalid api key"), ActionFail},
		{"forbidden", errors.New("403 forbidden"), ActionFail},
		{"not found", errors.New("model not found"), ActionFail},
		{"unknown", errors.New("something odd happened"), ActionRetry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestClassifyErrorUsesStatusCode(t *testing.T) {
	wrapped := WrapError(errors.New("boom"), ProviderGemini, 429)
	assert.Equal(t, ActionRetry, ClassifyError(wrapped))

	wrapped = WrapError(errors.New("boom"), ProviderGroq, 401)
	assert.Equal(t, ActionFail, ClassifyError(wrapped))

	wrapped = WrapError(errors.New("boom"), ProviderGemini, 500)
	assert.Equal(t, ActionRetry, ClassifyError(wrapped))
}

func TestLLMErrorUnwrap(t *testing.T) {
	base := errors.New("base failure")
	wrapped := WrapError(fmt.Errorf("context: %w", base), ProviderGroq, 503)

	assert.ErrorIs(t, wrapped, base)
	assert.Contains(t, wrapped.Error(), "status: 503")
}

func TestErrorActionString(t *testing.T) {
	assert.Equal(t, "retry", ActionRetry.String())
	assert.Equal(t, "fallback", ActionFallback.String())
	assert.Equal(t, "fail", ActionFail.String())
}

func TestHelperPredicates(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("504 gateway timeout")))
	assert.True(t, ShouldFallback(errors.New("daily limit exceeded")))
	assert.True(t, IsPermanent(errors.New("401 unauthorized")))
}
