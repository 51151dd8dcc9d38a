/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics turns wrapper events into metrics for Datadog or Prometheus.
package metrics

import (
	"fmt"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/suparena/ddbwrapper/config"
)

// Provider is the contract for sending metrics. Tags are "key:value" strings.
type Provider interface {
	Count(name string, value float64, tags []string) error
	Gauge(name string, value float64, tags []string) error
	Histogram(name string, value float64, tags []string) error
}

// NoopProvider discards every metric.
type NoopProvider struct{}

func (NoopProvider) Count(name string, value float64, tags []string) error     { return nil }
func (NoopProvider) Gauge(name string, value float64, tags []string) error     { return nil }
func (NoopProvider) Histogram(name string, value float64, tags []string) error { return nil }

// DatadogProvider sends metrics through DogStatsD.
type DatadogProvider struct {
	client statsd.ClientInterface
}

// NewDatadogProvider connects to the agent at addr. Metric names are prefixed
// with namespace followed by a dot.
func NewDatadogProvider(addr, namespace string) (*DatadogProvider, error) {
	var opts []statsd.Option
	if namespace != "" {
		opts = append(opts, statsd.WithNamespace(namespace+"."))
	}
	client, err := statsd.New(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create datadog statsd client: %w", err)
	}
	return &DatadogProvider{client: client}, nil
}

func (d *DatadogProvider) Count(name string, value float64, tags []string) error {
	return d.client.Count(name, int64(value), tags, 1)
}

func (d *DatadogProvider) Gauge(name string, value float64, tags []string) error {
	return d.client.Gauge(name, value, tags, 1)
}

func (d *DatadogProvider) Histogram(name string, value float64, tags []string) error {
	return d.client.Histogram(name, value, tags, 1)
}

// Close flushes buffered metrics and closes the client.
func (d *DatadogProvider) Close() error {
	return d.client.Close()
}

// Setup returns the provider selected by cfg.
func Setup(cfg config.MetricsConf) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return NoopProvider{}, nil
	case "datadog":
		return NewDatadogProvider(cfg.Datadog.Addr, cfg.Namespace)
	case "prometheus":
		return NewPrometheusProvider(cfg.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown metrics provider %q", cfg.Provider)
	}
}
