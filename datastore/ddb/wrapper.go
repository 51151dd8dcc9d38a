/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/suparena/ddbwrapper/datastore"
	"github.com/suparena/ddbwrapper/errors"
	"github.com/suparena/ddbwrapper/events"
	"github.com/suparena/ddbwrapper/prefix"
	"github.com/suparena/ddbwrapper/storagemodels"
)

// Wrapper implements datastore.DataStore on top of a low-level DynamoDB
// client. It retries throttled requests, follows pagination, partitions batch
// writes and publishes retry and consumed-capacity events.
type Wrapper struct {
	client datastore.Client
	opts   storagemodels.Options
	events *events.Bus
	logger zerolog.Logger
}

var _ datastore.DataStore = (*Wrapper)(nil)

// New wraps client. Options are fixed for the lifetime of the Wrapper.
func New(client datastore.Client, opts ...storagemodels.Option) *Wrapper {
	options := storagemodels.Apply(opts...)
	return &Wrapper{
		client: client,
		opts:   options,
		events: events.NewBus(options.Logger),
		logger: options.Logger,
	}
}

// Events returns the bus on which retry and consumedCapacity events are published.
func (w *Wrapper) Events() *events.Bus {
	return w.events
}

// Options returns a copy of the effective configuration.
func (w *Wrapper) Options() storagemodels.Options {
	return w.opts
}

// GetItem is forwarded to the client once. Throttling is not retried.
func (w *Wrapper) GetItem(ctx context.Context, params *sdk.GetItemInput) (*sdk.GetItemOutput, error) {
	if params == nil {
		return nil, errNilParams
	}
	in := *params
	prefix.AddToRequest(w.opts.TableNamePrefix, &in)

	out, err := w.client.GetItem(ctx, &in)
	if err != nil {
		return nil, errors.Classify(err)
	}
	prefix.RemoveFromResponse(w.opts.TableNamePrefix, out)
	return out, nil
}

// UpdateItem is forwarded to the client once. Throttling is not retried.
func (w *Wrapper) UpdateItem(ctx context.Context, params *sdk.UpdateItemInput) (*sdk.UpdateItemOutput, error) {
	if params == nil {
		return nil, errNilParams
	}
	in := *params
	prefix.AddToRequest(w.opts.TableNamePrefix, &in)

	out, err := w.client.UpdateItem(ctx, &in)
	if err != nil {
		return nil, errors.Classify(err)
	}
	prefix.RemoveFromResponse(w.opts.TableNamePrefix, out)
	return out, nil
}

// DeleteItem is forwarded to the client once. Throttling is not retried.
func (w *Wrapper) DeleteItem(ctx context.Context, params *sdk.DeleteItemInput) (*sdk.DeleteItemOutput, error) {
	if params == nil {
		return nil, errNilParams
	}
	in := *params
	prefix.AddToRequest(w.opts.TableNamePrefix, &in)

	out, err := w.client.DeleteItem(ctx, &in)
	if err != nil {
		return nil, errors.Classify(err)
	}
	prefix.RemoveFromResponse(w.opts.TableNamePrefix, out)
	return out, nil
}

// PutItem writes one item, retrying throttled attempts.
func (w *Wrapper) PutItem(ctx context.Context, params *sdk.PutItemInput) (*sdk.PutItemOutput, error) {
	if params == nil {
		return nil, errNilParams
	}
	in := *params
	prefix.AddToRequest(w.opts.TableNamePrefix, &in)

	rc := w.newRetryContext(w.tableName(params.TableName), storagemodels.MethodPutItem)
	out, err := retry(ctx, rc, func(ctx context.Context) (*sdk.PutItemOutput, error) {
		return w.client.PutItem(ctx, &in)
	})
	if err != nil {
		return nil, err
	}

	prefix.RemoveFromResponse(w.opts.TableNamePrefix, out)
	w.emitConsumedCapacity(storagemodels.MethodPutItem, storagemodels.WriteCapacityUnits, out.ConsumedCapacity)
	return out, nil
}

// tableName returns the caller-facing table name.
func (w *Wrapper) tableName(name *string) string {
	return prefix.Remove(w.opts.TableNamePrefix, aws.ToString(name))
}

func (w *Wrapper) emitConsumedCapacity(method string, capacityType storagemodels.CapacityType, cc *types.ConsumedCapacity) {
	if cc == nil {
		return
	}
	w.events.Emit(storagemodels.EventConsumedCapacity, storagemodels.ConsumedCapacityEvent{
		Method:           method,
		CapacityType:     capacityType,
		ConsumedCapacity: cc,
	})
}

var errNilParams = errors.NewValidationError("params", "must not be nil")
