/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/suparena/ddbwrapper/events"
	"github.com/suparena/ddbwrapper/storagemodels"
)

// Metric names, before the provider namespace is applied.
const (
	MetricRetry            = "retry"
	MetricRetryDelay       = "retry_delay_ms"
	MetricConsumedCapacity = "consumed_capacity"
)

// Recorder translates wrapper events into provider calls. Provider errors are
// logged and never reach the wrapper.
type Recorder struct {
	provider Provider
	logger   zerolog.Logger
}

// NewRecorder creates a recorder sending to provider.
func NewRecorder(provider Provider, logger zerolog.Logger) *Recorder {
	return &Recorder{provider: provider, logger: logger}
}

// Attach subscribes the recorder to bus. The returned function detaches it.
func (r *Recorder) Attach(bus *events.Bus) (detach func()) {
	offRetry := bus.OnRetry(r.RecordRetry)
	offCapacity := bus.OnConsumedCapacity(r.RecordConsumedCapacity)
	return func() {
		offRetry()
		offCapacity()
	}
}

// RecordRetry counts a retry and observes its delay.
func (r *Recorder) RecordRetry(e storagemodels.RetryEvent) {
	tags := []string{"table:" + e.TableName, "method:" + e.Method}
	r.check(MetricRetry, r.provider.Count(MetricRetry, 1, tags))
	r.check(MetricRetryDelay, r.provider.Histogram(MetricRetryDelay, float64(e.RetryDelay.Milliseconds()), tags))
}

// RecordConsumedCapacity observes the capacity units consumed by one call.
func (r *Recorder) RecordConsumedCapacity(e storagemodels.ConsumedCapacityEvent) {
	if e.ConsumedCapacity == nil {
		return
	}
	units := e.ConsumedCapacity.CapacityUnits
	if units == nil {
		switch e.CapacityType {
		case storagemodels.ReadCapacityUnits:
			units = e.ConsumedCapacity.ReadCapacityUnits
		case storagemodels.WriteCapacityUnits:
			units = e.ConsumedCapacity.WriteCapacityUnits
		}
	}
	if units == nil {
		return
	}

	tags := []string{
		"table:" + aws.ToString(e.ConsumedCapacity.TableName),
		"method:" + e.Method,
		"capacity_type:" + string(e.CapacityType),
	}
	r.check(MetricConsumedCapacity, r.provider.Histogram(MetricConsumedCapacity, *units, tags))
}

func (r *Recorder) check(metric string, err error) {
	if err != nil {
		r.logger.Warn().Err(err).Str("metric", metric).Msg("failed to record metric")
	}
}
