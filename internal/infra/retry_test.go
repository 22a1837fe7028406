package infra_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-assistant/internal/infra"
)

func fastRetry() infra.RetryConfig {
	return infra.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
}

func TestWithRetry_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("flaky")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		attempts++
		return errors.New("down")
	})

	assert.EqualError(t, err, "down")
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	cause := errors.New("bad request")
	attempts := 0
	err := infra.WithRetry(context.Background(), fastRetry(), func() error {
		attempts++
		return infra.Permanent(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	assert.True(t, infra.IsRetryableHTTPStatus(http.StatusTooManyRequests))
	assert.True(t, infra.IsRetryableHTTPStatus(http.StatusBadGateway))
	assert.False(t, infra.IsRetryableHTTPStatus(http.StatusBadRequest))
	assert.False(t, infra.IsRetryableHTTPStatus(http.StatusNotFound))
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := infra.WithRetry(ctx, infra.RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}, func() error {
		attempts++
		cancel()
		return errors.New("flaky")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestCheckStatus(t *testing.T) {
	respond := func(code int, body string) *http.Response {
		return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body))}
	}

	assert.NoError(t, infra.CheckStatus("svc", respond(http.StatusNoContent, "")))

	var statusErr *infra.StatusError

	err := infra.CheckStatus("svc", respond(http.StatusBadRequest, "bad field"))
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.EqualError(t, err, "svc API error 400: bad field")

	attempts := 0
	infra.WithRetry(context.Background(), fastRetry(), func() error {
		attempts++
		return infra.CheckStatus("svc", respond(http.StatusBadRequest, ""))
	})
	assert.Equal(t, 1, attempts, "4xx is permanent")

	attempts = 0
	infra.WithRetry(context.Background(), fastRetry(), func() error {
		attempts++
		return infra.CheckStatus("svc", respond(http.StatusServiceUnavailable, ""))
	})
	assert.Equal(t, 3, attempts, "5xx is retried")
}
