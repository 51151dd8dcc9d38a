/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbwrapper/config"
	"github.com/suparena/ddbwrapper/events"
	"github.com/suparena/ddbwrapper/storagemodels"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeProvider struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (f *fakeProvider) record(kind, name string, value float64, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind, name, value, tags})
	return f.err
}

func (f *fakeProvider) Count(name string, value float64, tags []string) error {
	return f.record("count", name, value, tags)
}

func (f *fakeProvider) Gauge(name string, value float64, tags []string) error {
	return f.record("gauge", name, value, tags)
}

func (f *fakeProvider) Histogram(name string, value float64, tags []string) error {
	return f.record("histogram", name, value, tags)
}

func TestSetup(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		p, err := Setup(config.MetricsConf{Provider: "none"})
		require.NoError(t, err)
		assert.IsType(t, NoopProvider{}, p)
	})

	t.Run("datadog", func(t *testing.T) {
		p, err := Setup(config.MetricsConf{Provider: "datadog", Namespace: "ddbwrapper", Datadog: config.DatadogConf{Addr: "localhost:8125"}})
		require.NoError(t, err)
		dd, ok := p.(*DatadogProvider)
		require.True(t, ok)
		assert.NoError(t, dd.Count(MetricRetry, 1, []string{"table:Test"}))
		assert.NoError(t, dd.Close())
	})

	t.Run("prometheus", func(t *testing.T) {
		p, err := Setup(config.MetricsConf{Provider: "prometheus", Namespace: "ddbwrapper"})
		require.NoError(t, err)
		assert.IsType(t, &PrometheusProvider{}, p)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Setup(config.MetricsConf{Provider: "graphite"})
		assert.Error(t, err)
	})
}

func TestRecorder(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	provider := &fakeProvider{}
	detach := NewRecorder(provider, zerolog.Nop()).Attach(bus)

	bus.Emit(storagemodels.EventRetry, storagemodels.RetryEvent{
		TableName:  "Test",
		Method:     storagemodels.MethodPutItem,
		RetryCount: 1,
		RetryDelay: 200 * time.Millisecond,
	})
	bus.Emit(storagemodels.EventConsumedCapacity, storagemodels.ConsumedCapacityEvent{
		Method:       storagemodels.MethodQuery,
		CapacityType: storagemodels.ReadCapacityUnits,
		ConsumedCapacity: &types.ConsumedCapacity{
			TableName:     aws.String("Test"),
			CapacityUnits: aws.Float64(21),
		},
	})

	require.Len(t, provider.calls, 3)
	assert.Equal(t, call{"count", "retry", 1, []string{"table:Test", "method:putItem"}}, provider.calls[0])
	assert.Equal(t, call{"histogram", "retry_delay_ms", 200, []string{"table:Test", "method:putItem"}}, provider.calls[1])
	assert.Equal(t, call{
		"histogram", "consumed_capacity", 21,
		[]string{"table:Test", "method:query", "capacity_type:ReadCapacityUnits"},
	}, provider.calls[2])

	detach()
	bus.Emit(storagemodels.EventRetry, storagemodels.RetryEvent{})
	assert.Len(t, provider.calls, 3)
}

func TestRecorderCapacityFallback(t *testing.T) {
	provider := &fakeProvider{}
	r := NewRecorder(provider, zerolog.Nop())

	r.RecordConsumedCapacity(storagemodels.ConsumedCapacityEvent{
		Method:           storagemodels.MethodBatchWriteItem,
		CapacityType:     storagemodels.WriteCapacityUnits,
		ConsumedCapacity: &types.ConsumedCapacity{WriteCapacityUnits: aws.Float64(4)},
	})
	r.RecordConsumedCapacity(storagemodels.ConsumedCapacityEvent{
		Method:           storagemodels.MethodScan,
		CapacityType:     storagemodels.ReadCapacityUnits,
		ConsumedCapacity: &types.ConsumedCapacity{},
	})
	r.RecordConsumedCapacity(storagemodels.ConsumedCapacityEvent{Method: storagemodels.MethodScan})

	require.Len(t, provider.calls, 1)
	assert.Equal(t, 4.0, provider.calls[0].value)
}

func TestRecorderLogsProviderErrors(t *testing.T) {
	var buf bytes.Buffer
	provider := &fakeProvider{err: errors.New("agent unreachable")}
	r := NewRecorder(provider, zerolog.New(&buf))

	r.RecordRetry(storagemodels.RetryEvent{TableName: "Test", Method: storagemodels.MethodScan})
	assert.Contains(t, buf.String(), "failed to record metric")
	assert.Contains(t, buf.String(), "agent unreachable")
}

func TestPrometheusProvider(t *testing.T) {
	p := NewPrometheusProvider("ddbwrapper")

	require.NoError(t, p.Count(MetricRetry, 1, []string{"table:Test", "method:putItem"}))
	require.NoError(t, p.Count(MetricRetry, 2, []string{"method:putItem", "table:Test"}))
	require.NoError(t, p.Histogram(MetricConsumedCapacity, 21, []string{"table:Test"}))
	require.NoError(t, p.Gauge("in.flight", 3, nil))

	families, err := p.Registry().Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	require.Contains(t, byName, "ddbwrapper_retry_total")
	counter := byName["ddbwrapper_retry_total"].GetMetric()
	require.Len(t, counter, 1)
	assert.Equal(t, 3.0, counter[0].GetCounter().GetValue())

	require.Contains(t, byName, "ddbwrapper_consumed_capacity")
	hist := byName["ddbwrapper_consumed_capacity"].GetMetric()[0].GetHistogram()
	assert.Equal(t, uint64(1), hist.GetSampleCount())
	assert.Equal(t, 21.0, hist.GetSampleSum())

	require.Contains(t, byName, "ddbwrapper_in_flight")
	assert.Equal(t, 3.0, byName["ddbwrapper_in_flight"].GetMetric()[0].GetGauge().GetValue())
}

func TestParseTags(t *testing.T) {
	names, labels := parseTags([]string{"table:Test", "capacity-type:read", "flag"})
	assert.Equal(t, []string{"capacity_type", "flag", "table"}, names)
	assert.Equal(t, "Test", labels["table"])
	assert.Equal(t, "read", labels["capacity_type"])
	assert.Equal(t, "true", labels["flag"])
}
