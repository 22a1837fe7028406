// Package infra holds helpers shared by the HTTP adapters.
package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. WithRetry returns the wrapped
// error unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// WithRetry calls fn until it succeeds, returns a Permanent error, the
// context ends or MaxAttempts is reached. Delays grow by Multiplier up to
// MaxDelay.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	delay := cfg.InitialDelay

	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if perm := (*permanentError)(nil); errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}
}

func IsRetryableHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}

// StatusError is a non-2xx reply from a remote service.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.Code, e.Body)
}

// CheckStatus returns nil for a 2xx response. Otherwise it reads the body
// into a StatusError, wrapped with Permanent when the status is not retryable.
func CheckStatus(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := &StatusError{Service: service, Code: resp.StatusCode, Body: string(body)}
	if IsRetryableHTTPStatus(resp.StatusCode) {
		return err
	}
	return Permanent(err)
}
