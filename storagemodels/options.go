/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when an option is not set.
const (
	DefaultTableNamePrefix = ""
	DefaultGroupDelay      = 100 * time.Millisecond
	DefaultMaxRetries      = 10
	DefaultRetryDelayBase  = 100 * time.Millisecond
)

// BackoffFunc returns the delay before the given retry (1-based).
type BackoffFunc func(retryCount int) time.Duration

// RetryDelayOptions configures the delay between retries
type RetryDelayOptions struct {
	Base          time.Duration // Base of the exponential backoff (default: 100ms)
	CustomBackoff BackoffFunc   // Overrides the exponential backoff when set
}

// Options configures a wrapper. It is read-only once the wrapper is built.
type Options struct {
	TableNamePrefix   string            // Prepended to every table name (default: "")
	GroupDelay        time.Duration     // Pause between batch write groups (default: 100ms)
	MaxRetries        int               // Retries after the initial attempt (default: 10)
	RetryDelayOptions RetryDelayOptions // Backoff configuration
	Logger            zerolog.Logger    // Debug logging (default: disabled)
}

// Option is a functional option for configuring a wrapper
type Option func(*Options)

// DefaultOptions returns default wrapper options
func DefaultOptions() Options {
	return Options{
		TableNamePrefix: DefaultTableNamePrefix,
		GroupDelay:      DefaultGroupDelay,
		MaxRetries:      DefaultMaxRetries,
		RetryDelayOptions: RetryDelayOptions{
			Base: DefaultRetryDelayBase,
		},
		Logger: zerolog.Nop(),
	}
}

// WithTableNamePrefix sets the table name prefix
func WithTableNamePrefix(prefix string) Option {
	return func(opts *Options) {
		opts.TableNamePrefix = prefix
	}
}

// WithGroupDelay sets the delay between batch write groups
func WithGroupDelay(delay time.Duration) Option {
	return func(opts *Options) {
		if delay >= 0 {
			opts.GroupDelay = delay
		}
	}
}

// WithMaxRetries sets the maximum number of retries
func WithMaxRetries(retries int) Option {
	return func(opts *Options) {
		if retries >= 0 {
			opts.MaxRetries = retries
		}
	}
}

// WithRetryDelayBase sets the base of the exponential backoff
func WithRetryDelayBase(base time.Duration) Option {
	return func(opts *Options) {
		if base >= 0 {
			opts.RetryDelayOptions.Base = base
		}
	}
}

// WithCustomBackoff replaces the exponential backoff
func WithCustomBackoff(fn BackoffFunc) Option {
	return func(opts *Options) {
		opts.RetryDelayOptions.CustomBackoff = fn
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger zerolog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// Apply builds Options from the defaults and the given options.
func Apply(opts ...Option) Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
