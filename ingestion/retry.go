// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy bounds how often a failing embedding request is attempted.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// MaxDelay caps a single wait. Zero leaves waits uncapped.
	MaxDelay time.Duration
}

// Delay returns the wait after the given failed attempt (1-based):
// BaseDelay, 2*BaseDelay, 4*BaseDelay and so on, capped at MaxDelay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for range attempt - 1 {
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Retry runs op until it succeeds, policy.MaxAttempts attempts have failed
// or ctx is done. It returns the last error of op, or the context error if
// ctx ends while waiting.
func Retry[T any](ctx context.Context, policy RetryPolicy, logger *slog.Logger, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		return zero, ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("succeeded after retry", "attempt", attempt)
			}
			return v, nil
		}
		if attempt == policy.MaxAttempts {
			return zero, err
		}

		wait := policy.Delay(attempt)
		logger.Debug("attempt failed, retrying", "attempt", attempt, "max_attempts", policy.MaxAttempts, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
