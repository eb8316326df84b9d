package session

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/nativectl/internal/protocol"
)

// NextBackoffDelay returns the retry delay for attempt N (1-based).
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	if cfg.InitialDelay <= 0 {
		return 0
	}
	if cfg.Multiplier < 1.0 {
		cfg.Multiplier = 1.0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		f := 0.5
		if rng != nil {
			f = 0.5 + rng.Float64()
		}
		delay = delay * f
	}
	return time.Duration(delay)
}

// Retryable reports whether a fresh attempt could succeed where err failed.
// Only transport failures qualify; a bad key or password fails the same way
// every time.
func Retryable(err error) bool {
	if err == nil || protocol.IsPeerDisconnect(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return protocol.Classify(err) == protocol.ClassTransport
}

// Retry runs fn up to attempts times. Each call is a whole new attempt; the
// wait before attempt N is NextBackoffDelay(cfg, N-1) measured on clk.
func Retry(ctx context.Context, clk clock.Clock, cfg BackoffConfig, attempts int, rng *rand.Rand, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := NextBackoffDelay(cfg, attempt-1, rng)
			log.Info().Msgf("session.Retry attempt=%d/%d delay=%s last_err=%v", attempt, attempts, delay, err)
			if delay > 0 {
				timer := clk.Timer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}
		err = fn(attempt)
		if !Retryable(err) {
			return err
		}
	}
	return err
}
