/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbwrapper

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/suparena/ddbwrapper/config"
	"github.com/suparena/ddbwrapper/datastore"
	"github.com/suparena/ddbwrapper/datastore/ddb"
	"github.com/suparena/ddbwrapper/metrics"
	"github.com/suparena/ddbwrapper/storagemodels"
)

// Client is a Wrapper assembled from configuration, with logging and metrics attached.
type Client struct {
	*ddb.Wrapper

	Logger  zerolog.Logger
	Metrics metrics.Provider

	detach func()
}

// Open builds a DynamoDB client from cfg and wires it up. Logs go to logOut.
func Open(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Client, error) {
	sdkClient, err := ddb.NewDynamoDBClient(ctx, cfg.ClientConfig())
	if err != nil {
		return nil, err
	}
	return Wire(sdkClient, cfg, logOut)
}

// Wire wraps an existing low-level client according to cfg.
func Wire(client datastore.Client, cfg *config.Config, logOut io.Writer) (*Client, error) {
	logger := cfg.Logging.Logger(logOut)

	provider, err := metrics.Setup(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	opts := append(cfg.WrapperOptions(), storagemodels.WithLogger(logger))
	w := ddb.New(client, opts...)

	return &Client{
		Wrapper: w,
		Logger:  logger,
		Metrics: provider,
		detach:  metrics.NewRecorder(provider, logger).Attach(w.Events()),
	}, nil
}

// Close detaches the metrics recorder and flushes the metrics provider.
func (c *Client) Close() error {
	c.detach()
	if closer, ok := c.Metrics.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
