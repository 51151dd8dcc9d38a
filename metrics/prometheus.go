/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider records metrics in a private registry. Vectors are
// created on first use with the label names taken from the tags.
type PrometheusProvider struct {
	namespace string
	registry  *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusProvider creates a provider with its own registry.
func NewPrometheusProvider(namespace string) *PrometheusProvider {
	return &PrometheusProvider{
		namespace:  sanitize(namespace),
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry returns the registry holding every recorded metric.
func (p *PrometheusProvider) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusProvider) Count(name string, value float64, tags []string) error {
	names, labels := parseTags(tags)
	p.mu.Lock()
	defer p.mu.Unlock()

	key := vecKey(name, names)
	vec, ok := p.counters[key]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      sanitize(name) + "_total",
			Help:      fmt.Sprintf("Total of %s", name),
		}, names)
		if err := p.registry.Register(vec); err != nil {
			return fmt.Errorf("failed to register counter %s: %w", name, err)
		}
		p.counters[key] = vec
	}
	vec.With(labels).Add(value)
	return nil
}

func (p *PrometheusProvider) Gauge(name string, value float64, tags []string) error {
	names, labels := parseTags(tags)
	p.mu.Lock()
	defer p.mu.Unlock()

	key := vecKey(name, names)
	vec, ok := p.gauges[key]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
			Help:      fmt.Sprintf("Current %s", name),
		}, names)
		if err := p.registry.Register(vec); err != nil {
			return fmt.Errorf("failed to register gauge %s: %w", name, err)
		}
		p.gauges[key] = vec
	}
	vec.With(labels).Set(value)
	return nil
}

func (p *PrometheusProvider) Histogram(name string, value float64, tags []string) error {
	names, labels := parseTags(tags)
	p.mu.Lock()
	defer p.mu.Unlock()

	key := vecKey(name, names)
	vec, ok := p.histograms[key]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      sanitize(name),
			Help:      fmt.Sprintf("Distribution of %s", name),
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}, names)
		if err := p.registry.Register(vec); err != nil {
			return fmt.Errorf("failed to register histogram %s: %w", name, err)
		}
		p.histograms[key] = vec
	}
	vec.With(labels).Observe(value)
	return nil
}

// parseTags splits "key:value" tags into sorted label names and their values.
// A tag without a colon becomes a label with value "true".
func parseTags(tags []string) ([]string, prometheus.Labels) {
	labels := make(prometheus.Labels, len(tags))
	for _, tag := range tags {
		name, value, ok := strings.Cut(tag, ":")
		if !ok {
			value = "true"
		}
		labels[sanitize(name)] = value
	}
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, labels
}

func vecKey(name string, labelNames []string) string {
	return name + "|" + strings.Join(labelNames, ",")
}

// sanitize maps a statsd style name onto the Prometheus name charset.
func sanitize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
