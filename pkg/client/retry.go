package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// retryWithBackoff executes fn with exponential backoff.
// Only errors whose class passes shouldRetry are retried; everything else is
// returned as is. Backoff waits honour ctx and carry ±20% jitter.
func retryWithBackoff(ctx context.Context, config RetryConfig, logger zerolog.Logger, fn func() error) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = 1
	}

	var lastErr error
	var errorClass ErrorClass
	backoff := config.InitialBackoff

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(errorClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errorClass = classOf(err)

		if !shouldRetry(errorClass) {
			return lastErr
		}

		if attempt >= config.MaxAttempts {
			break
		}

		apiRetriesTotal.WithLabelValues(string(errorClass)).Inc()

		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		apiRetryBackoffSeconds.WithLabelValues(string(errorClass)).Observe(jitter.Seconds())

		logger.Debug().
			Err(err).
			Str("error_class", string(errorClass)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying request after backoff")

		timer := time.NewTimer(jitter)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(errorClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	apiRetryExhaustedTotal.WithLabelValues(string(errorClass)).Inc()
	logger.Warn().
		Str("error_class", string(errorClass)).
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
