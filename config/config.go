/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads wrapper, AWS, logging and metrics settings from a
// YAML file, an optional .env file and DDBWRAPPER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/suparena/ddbwrapper/datastore/ddb"
	"github.com/suparena/ddbwrapper/storagemodels"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DDBWRAPPER_"

// Config is the root of the configuration file.
type Config struct {
	Wrapper WrapperConf `yaml:"wrapper"`
	AWS     AWSConf     `yaml:"aws"`
	Logging LoggingConf `yaml:"logging"`
	Metrics MetricsConf `yaml:"metrics"`
}

// WrapperConf mirrors storagemodels.Options.
type WrapperConf struct {
	TableNamePrefix  string `yaml:"table_name_prefix"`
	GroupDelayMS     int    `yaml:"group_delay_ms" validate:"gte=0"`
	MaxRetries       int    `yaml:"max_retries" validate:"gte=0"`
	RetryDelayBaseMS int    `yaml:"retry_delay_base_ms" validate:"gte=0"`
}

// AWSConf selects the DynamoDB endpoint and credentials. Empty values fall
// back to the default AWS chain.
type AWSConf struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `yaml:"access_key_id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `yaml:"secret_access_key" validate:"required_with=AccessKeyID"`
	SessionToken    string `yaml:"session_token"`
}

// LoggingConf configures the zerolog logger.
type LoggingConf struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// MetricsConf selects the metrics backend.
type MetricsConf struct {
	Provider  string      `yaml:"provider" validate:"oneof=none datadog prometheus"`
	Namespace string      `yaml:"namespace"`
	Datadog   DatadogConf `yaml:"datadog"`
}

// DatadogConf configures the DogStatsD client.
type DatadogConf struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Wrapper: WrapperConf{
			TableNamePrefix:  storagemodels.DefaultTableNamePrefix,
			GroupDelayMS:     int(storagemodels.DefaultGroupDelay / time.Millisecond),
			MaxRetries:       storagemodels.DefaultMaxRetries,
			RetryDelayBaseMS: int(storagemodels.DefaultRetryDelayBase / time.Millisecond),
		},
		Logging: LoggingConf{Level: "info", Format: "json"},
		Metrics: MetricsConf{Provider: "none", Namespace: "ddbwrapper"},
	}
}

// Load reads .env (when present), the YAML file at path (when not empty) and
// the environment, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
// The environment is not consulted.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TABLE_NAME_PREFIX":     &cfg.Wrapper.TableNamePrefix,
		"AWS_REGION":            &cfg.AWS.Region,
		"AWS_ENDPOINT":          &cfg.AWS.Endpoint,
		"AWS_ACCESS_KEY_ID":     &cfg.AWS.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": &cfg.AWS.SecretAccessKey,
		"AWS_SESSION_TOKEN":     &cfg.AWS.SessionToken,
		"LOG_LEVEL":             &cfg.Logging.Level,
		"LOG_FORMAT":            &cfg.Logging.Format,
		"METRICS_PROVIDER":      &cfg.Metrics.Provider,
		"METRICS_NAMESPACE":     &cfg.Metrics.Namespace,
		"DATADOG_ADDR":          &cfg.Metrics.Datadog.Addr,
	}
	for name, dst := range strs {
		if val, ok := lookup(EnvPrefix + name); ok {
			*dst = val
		}
	}

	ints := map[string]*int{
		"GROUP_DELAY_MS":      &cfg.Wrapper.GroupDelayMS,
		"MAX_RETRIES":         &cfg.Wrapper.MaxRetries,
		"RETRY_DELAY_BASE_MS": &cfg.Wrapper.RetryDelayBaseMS,
	}
	for name, dst := range ints {
		val, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks field rules and cross-field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration:\n- %s", strings.Join(msgs, "\n- "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Metrics.Provider == "datadog" && c.Metrics.Datadog.Addr == "" {
		return errors.New("invalid configuration: metrics.datadog.addr is required for the datadog provider")
	}
	return nil
}

// WrapperOptions converts the wrapper section into options for ddb.New.
func (c *Config) WrapperOptions() []storagemodels.Option {
	return []storagemodels.Option{
		storagemodels.WithTableNamePrefix(c.Wrapper.TableNamePrefix),
		storagemodels.WithGroupDelay(time.Duration(c.Wrapper.GroupDelayMS) * time.Millisecond),
		storagemodels.WithMaxRetries(c.Wrapper.MaxRetries),
		storagemodels.WithRetryDelayBase(time.Duration(c.Wrapper.RetryDelayBaseMS) * time.Millisecond),
	}
}

// ClientConfig converts the aws section into a ddb.ClientConfig.
func (c *Config) ClientConfig() ddb.ClientConfig {
	return ddb.ClientConfig{
		Region:          c.AWS.Region,
		Endpoint:        c.AWS.Endpoint,
		AccessKeyID:     c.AWS.AccessKeyID,
		SecretAccessKey: c.AWS.SecretAccessKey,
		SessionToken:    c.AWS.SessionToken,
	}
}
