/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbwrapper/datastore/mock"
	wrapperrors "github.com/suparena/ddbwrapper/errors"
	"github.com/suparena/ddbwrapper/storagemodels"
)

func putInput() *sdk.PutItemInput {
	return &sdk.PutItemInput{
		TableName: aws.String("Test"),
		Item:      map[string]types.AttributeValue{"Id": &types.AttributeValueMemberS{Value: "1"}},
	}
}

func TestBackoff(t *testing.T) {
	t.Run("exponential", func(t *testing.T) {
		w := New(mock.New(), storagemodels.WithRetryDelayBase(100*time.Millisecond))
		assert.Equal(t, 100*time.Millisecond, w.backoff(1))
		assert.Equal(t, 200*time.Millisecond, w.backoff(2))
		assert.Equal(t, 400*time.Millisecond, w.backoff(3))
		assert.Equal(t, 51200*time.Millisecond, w.backoff(10))
	})

	t.Run("custom", func(t *testing.T) {
		var seen []int
		w := New(mock.New(), storagemodels.WithCustomBackoff(func(n int) time.Duration {
			seen = append(seen, n)
			return time.Duration(n) * time.Millisecond
		}))
		assert.Equal(t, 3*time.Millisecond, w.backoff(3))
		assert.Equal(t, []int{3}, seen)
	})

	t.Run("negative custom delay", func(t *testing.T) {
		w := New(mock.New(), storagemodels.WithCustomBackoff(func(int) time.Duration { return -time.Second }))
		assert.Equal(t, time.Duration(0), w.backoff(1))
	})
}

func TestPutItemRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("throttled once then succeeds", func(t *testing.T) {
		client := mock.New().WithResponses(mock.OpPutItem, mock.Throttle)
		w := newTestWrapper(client)
		events := recordEvents(w)

		params := putInput()
		_, err := w.PutItem(ctx, params)
		require.NoError(t, err)

		assert.Equal(t, 2, client.Calls(mock.OpPutItem))
		for _, in := range client.PutItemInputs() {
			assert.Equal(t, params, in)
		}
		assert.Equal(t, []storagemodels.RetryEvent{
			{TableName: "Test", Method: "putItem", RetryCount: 1, RetryDelay: 0},
		}, events.retries)
	})

	t.Run("succeeds on first try", func(t *testing.T) {
		client := mock.New()
		w := newTestWrapper(client)
		events := recordEvents(w)

		params := putInput()
		_, err := w.PutItem(ctx, params)
		require.NoError(t, err)

		require.Len(t, client.PutItemInputs(), 1)
		assert.Equal(t, params, client.PutItemInputs()[0])
		assert.Empty(t, events.retries)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		client := mock.New().WithDefaultResponse(mock.OpPutItem, mock.Throttle)
		w := newTestWrapper(client)
		events := recordEvents(w)

		_, err := w.PutItem(ctx, putInput())
		require.Error(t, err)

		assert.Equal(t, 3, client.Calls(mock.OpPutItem))
		assert.Len(t, events.retries, 2)
		assert.True(t, wrapperrors.IsThrottled(err))
		assert.False(t, wrapperrors.IsThroughputExceeded(err))

		var throttled *types.ProvisionedThroughputExceededException
		assert.True(t, errors.As(err, &throttled), "original SDK error must stay reachable")
	})

	t.Run("fatal error is not retried", func(t *testing.T) {
		client := mock.New().WithResponses(mock.OpPutItem, mock.Validation)
		w := newTestWrapper(client)
		events := recordEvents(w)

		_, err := w.PutItem(ctx, putInput())
		require.Error(t, err)

		assert.Equal(t, 1, client.Calls(mock.OpPutItem))
		assert.Empty(t, events.retries)
		assert.True(t, wrapperrors.IsFatal(err))

		var classified *wrapperrors.Error
		require.True(t, errors.As(err, &classified))
		assert.Equal(t, "ValidationException", classified.Code)
		assert.Equal(t, 400, classified.StatusCode)
	})

	t.Run("zero max retries", func(t *testing.T) {
		client := mock.New().WithResponses(mock.OpPutItem, mock.Throttle)
		w := newTestWrapper(client, storagemodels.WithMaxRetries(0))

		_, err := w.PutItem(ctx, putInput())
		assert.True(t, wrapperrors.IsThrottled(err))
		assert.Equal(t, 1, client.Calls(mock.OpPutItem))
	})

	t.Run("retry numbering and delays", func(t *testing.T) {
		client := mock.New().WithResponses(mock.OpPutItem, mock.Throttle, mock.Throttle)
		w := newTestWrapper(client, storagemodels.WithCustomBackoff(func(n int) time.Duration {
			return time.Duration(n) * time.Millisecond
		}))
		events := recordEvents(w)

		_, err := w.PutItem(ctx, putInput())
		require.NoError(t, err)

		require.Len(t, events.retries, 2)
		assert.Equal(t, 1, events.retries[0].RetryCount)
		assert.Equal(t, time.Millisecond, events.retries[0].RetryDelay)
		assert.Equal(t, 2, events.retries[1].RetryCount)
		assert.Equal(t, 2*time.Millisecond, events.retries[1].RetryDelay)
	})

	t.Run("context cancelled during backoff", func(t *testing.T) {
		client := mock.New().WithDefaultResponse(mock.OpPutItem, mock.Throttle)
		w := newTestWrapper(client, storagemodels.WithRetryDelayBase(time.Hour))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := w.PutItem(ctx, putInput())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 1, client.Calls(mock.OpPutItem))
	})

	t.Run("consumed capacity event", func(t *testing.T) {
		client := mock.New().WithCapacity(types.ConsumedCapacity{CapacityUnits: aws.Float64(1)})
		w := newTestWrapper(client)
		events := recordEvents(w)

		params := putInput()
		params.ReturnConsumedCapacity = types.ReturnConsumedCapacityTotal
		out, err := w.PutItem(ctx, params)
		require.NoError(t, err)

		require.Len(t, events.capacity, 1)
		assert.Equal(t, "putItem", events.capacity[0].Method)
		assert.Equal(t, storagemodels.WriteCapacityUnits, events.capacity[0].CapacityType)
		assert.Equal(t, out.ConsumedCapacity, events.capacity[0].ConsumedCapacity)
	})

	t.Run("no capacity event without capacity", func(t *testing.T) {
		w := newTestWrapper(mock.New())
		events := recordEvents(w)

		_, err := w.PutItem(ctx, putInput())
		require.NoError(t, err)
		assert.Empty(t, events.capacity)
	})
}
