/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"math"
	"time"

	"github.com/suparena/ddbwrapper/errors"
	"github.com/suparena/ddbwrapper/storagemodels"
)

// retryContext tracks the retry budget of one logical request. Every
// recoverable outcome (throttling, unprocessed batch items) spends from the
// same budget.
type retryContext struct {
	w          *Wrapper
	tableName  string
	method     string
	maxRetries int
	retries    int
}

func (w *Wrapper) newRetryContext(tableName, method string) *retryContext {
	return &retryContext{
		w:          w,
		tableName:  tableName,
		method:     method,
		maxRetries: w.opts.MaxRetries,
	}
}

// exhausted reports whether no retries are left.
func (rc *retryContext) exhausted() bool {
	return rc.retries >= rc.maxRetries
}

// wait spends one retry: it announces the retry and sleeps for the backoff delay.
func (rc *retryContext) wait(ctx context.Context) error {
	rc.retries++
	delay := rc.w.backoff(rc.retries)

	rc.w.events.Emit(storagemodels.EventRetry, storagemodels.RetryEvent{
		TableName:  rc.tableName,
		Method:     rc.method,
		RetryCount: rc.retries,
		RetryDelay: delay,
	})
	rc.w.logger.Debug().
		Str("table", rc.tableName).
		Str("method", rc.method).
		Int("retry_count", rc.retries).
		Dur("delay", delay).
		Msg("retrying request")

	return sleep(ctx, delay)
}

// backoff returns the delay before the given retry (1-based).
func (w *Wrapper) backoff(retryCount int) time.Duration {
	if custom := w.opts.RetryDelayOptions.CustomBackoff; custom != nil {
		return max(custom(retryCount), 0)
	}
	base := float64(w.opts.RetryDelayOptions.Base)
	return time.Duration(base * math.Pow(2, float64(retryCount-1)))
}

// retry executes call, retrying throttled attempts while rc has budget left.
// Any other error is returned at once. When the budget is spent the last
// throttling error is returned.
func retry[T any](ctx context.Context, rc *retryContext, call func(context.Context) (T, error)) (T, error) {
	var zero T
	for {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}

		classified := errors.Classify(err)
		if classified.Kind != errors.KindThrottled || rc.exhausted() {
			return zero, classified
		}

		if err := rc.wait(ctx); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
