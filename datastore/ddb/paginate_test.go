/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suparena/ddbwrapper/datastore/mock"
	wrapperrors "github.com/suparena/ddbwrapper/errors"
	"github.com/suparena/ddbwrapper/storagemodels"
)

// pagedClient serves six items in pages of two, each page reporting the same capacity.
func pagedClient() *mock.Client {
	client := mock.New().WithCapacity(types.ConsumedCapacity{
		CapacityUnits:          aws.Float64(7),
		Table:                  &types.Capacity{CapacityUnits: aws.Float64(2)},
		LocalSecondaryIndexes:  map[string]types.Capacity{"MyLocalIndex": {CapacityUnits: aws.Float64(4)}},
		GlobalSecondaryIndexes: map[string]types.Capacity{"MyGlobalIndex": {CapacityUnits: aws.Float64(1)}},
	})
	for i := 1; i <= 6; i++ {
		client.WithItems("Test", map[string]types.AttributeValue{
			"Id": &types.AttributeValueMemberS{Value: fmt.Sprintf("item-%d", i)},
		})
	}
	return client
}

func assertMergedCapacity(t *testing.T, cc *types.ConsumedCapacity) {
	t.Helper()
	require.NotNil(t, cc)
	assert.Equal(t, "Test", aws.ToString(cc.TableName))
	assert.Equal(t, 21.0, aws.ToFloat64(cc.CapacityUnits))
	assert.Equal(t, 6.0, aws.ToFloat64(cc.Table.CapacityUnits))
	assert.Equal(t, 12.0, aws.ToFloat64(cc.LocalSecondaryIndexes["MyLocalIndex"].CapacityUnits))
	assert.Equal(t, 3.0, aws.ToFloat64(cc.GlobalSecondaryIndexes["MyGlobalIndex"].CapacityUnits))
}

func TestQuery(t *testing.T) {
	ctx := context.Background()

	t.Run("follows every page", func(t *testing.T) {
		client := pagedClient()
		w := newTestWrapper(client)
		events := recordEvents(w)

		out, err := w.Query(ctx, &sdk.QueryInput{
			TableName:              aws.String("Test"),
			Limit:                  aws.Int32(2),
			ReturnConsumedCapacity: types.ReturnConsumedCapacityIndexes,
		})
		require.NoError(t, err)

		assert.Equal(t, 3, client.Calls(mock.OpQuery))
		require.Len(t, out.Items, 6)
		for i, it := range out.Items {
			assert.Equal(t, &types.AttributeValueMemberS{Value: fmt.Sprintf("item-%d", i+1)}, it["Id"])
		}
		assert.Equal(t, int32(6), out.Count)
		assert.Equal(t, int32(6), out.ScannedCount)
		assert.Nil(t, out.LastEvaluatedKey)
		assertMergedCapacity(t, out.ConsumedCapacity)

		require.Len(t, events.capacity, 1)
		assert.Equal(t, "query", events.capacity[0].Method)
		assert.Equal(t, storagemodels.ReadCapacityUnits, events.capacity[0].CapacityType)
		assert.Equal(t, out.ConsumedCapacity, events.capacity[0].ConsumedCapacity)
	})

	t.Run("passes LastEvaluatedKey as ExclusiveStartKey", func(t *testing.T) {
		client := pagedClient()
		w := newTestWrapper(client)

		_, err := w.Query(ctx, &sdk.QueryInput{TableName: aws.String("Test"), Limit: aws.Int32(2)})
		require.NoError(t, err)

		inputs := client.QueryInputs()
		require.Len(t, inputs, 3)
		assert.Nil(t, inputs[0].ExclusiveStartKey)
		assert.Equal(t, &types.AttributeValueMemberN{Value: "2"}, inputs[1].ExclusiveStartKey[mock.OffsetAttribute])
		assert.Equal(t, &types.AttributeValueMemberN{Value: "4"}, inputs[2].ExclusiveStartKey[mock.OffsetAttribute])
	})

	t.Run("starts at caller's ExclusiveStartKey", func(t *testing.T) {
		client := pagedClient()
		w := newTestWrapper(client)

		out, err := w.Query(ctx, &sdk.QueryInput{
			TableName:         aws.String("Test"),
			Limit:             aws.Int32(2),
			ExclusiveStartKey: map[string]types.AttributeValue{mock.OffsetAttribute: &types.AttributeValueMemberN{Value: "4"}},
		})
		require.NoError(t, err)
		assert.Len(t, out.Items, 2)
		assert.Equal(t, 1, client.Calls(mock.OpQuery))
	})

	t.Run("single page without capacity", func(t *testing.T) {
		client := pagedClient()
		w := newTestWrapper(client)
		events := recordEvents(w)

		out, err := w.Query(ctx, &sdk.QueryInput{TableName: aws.String("Test")})
		require.NoError(t, err)
		assert.Len(t, out.Items, 6)
		assert.Equal(t, 1, client.Calls(mock.OpQuery))
		assert.Nil(t, out.ConsumedCapacity)
		assert.Empty(t, events.capacity)
	})

	t.Run("throttled page is retried", func(t *testing.T) {
		client := pagedClient().WithResponses(mock.OpQuery, mock.Success, mock.Throttle, mock.Throttle)
		w := newTestWrapper(client)
		events := recordEvents(w)

		out, err := w.Query(ctx, &sdk.QueryInput{TableName: aws.String("Test"), Limit: aws.Int32(2)})
		require.NoError(t, err)
		assert.Len(t, out.Items, 6)
		assert.Equal(t, 5, client.Calls(mock.OpQuery))

		require.Len(t, events.retries, 2)
		assert.Equal(t, storagemodels.RetryEvent{TableName: "Test", Method: "query", RetryCount: 2}, events.retries[1])

		inputs := client.QueryInputs()
		assert.Equal(t, inputs[1].ExclusiveStartKey, inputs[2].ExclusiveStartKey)
		assert.Equal(t, inputs[1].ExclusiveStartKey, inputs[3].ExclusiveStartKey)
	})

	t.Run("each page has its own budget", func(t *testing.T) {
		client := pagedClient().WithResponses(mock.OpQuery,
			mock.Throttle, mock.Throttle, mock.Success,
			mock.Throttle, mock.Throttle, mock.Success,
		)
		w := newTestWrapper(client)

		out, err := w.Query(ctx, &sdk.QueryInput{TableName: aws.String("Test"), Limit: aws.Int32(2)})
		require.NoError(t, err)
		assert.Len(t, out.Items, 6)
	})

	t.Run("fatal error aborts", func(t *testing.T) {
		client := pagedClient().WithResponses(mock.OpQuery, mock.Success, mock.Validation)
		w := newTestWrapper(client)

		out, err := w.Query(ctx, &sdk.QueryInput{TableName: aws.String("Test"), Limit: aws.Int32(2)})
		assert.Nil(t, out)
		assert.True(t, wrapperrors.IsFatal(err))
		assert.Equal(t, 2, client.Calls(mock.OpQuery))
	})

	t.Run("exhausted throttling", func(t *testing.T) {
		client := pagedClient().WithDefaultResponse(mock.OpQuery, mock.Throttle)
		w := newTestWrapper(client)

		_, err := w.Query(ctx, &sdk.QueryInput{TableName: aws.String("Test")})
		assert.True(t, wrapperrors.IsThrottled(err))
		assert.Equal(t, 3, client.Calls(mock.OpQuery))
	})
}

func TestScan(t *testing.T) {
	ctx := context.Background()

	t.Run("follows every page", func(t *testing.T) {
		client := pagedClient()
		w := newTestWrapper(client)
		events := recordEvents(w)

		out, err := w.Scan(ctx, &sdk.ScanInput{
			TableName:              aws.String("Test"),
			Limit:                  aws.Int32(2),
			ReturnConsumedCapacity: types.ReturnConsumedCapacityIndexes,
		})
		require.NoError(t, err)

		assert.Equal(t, 3, client.Calls(mock.OpScan))
		assert.Len(t, out.Items, 6)
		assert.Nil(t, out.LastEvaluatedKey)
		assertMergedCapacity(t, out.ConsumedCapacity)

		require.Len(t, events.capacity, 1)
		assert.Equal(t, "scan", events.capacity[0].Method)
		assert.Equal(t, storagemodels.ReadCapacityUnits, events.capacity[0].CapacityType)
	})

	t.Run("total capacity only", func(t *testing.T) {
		client := pagedClient()
		w := newTestWrapper(client)

		out, err := w.Scan(ctx, &sdk.ScanInput{
			TableName:              aws.String("Test"),
			Limit:                  aws.Int32(2),
			ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
		})
		require.NoError(t, err)
		require.NotNil(t, out.ConsumedCapacity)
		assert.Equal(t, 21.0, aws.ToFloat64(out.ConsumedCapacity.CapacityUnits))
		assert.Nil(t, out.ConsumedCapacity.Table)
		assert.Nil(t, out.ConsumedCapacity.LocalSecondaryIndexes)
		assert.Nil(t, out.ConsumedCapacity.GlobalSecondaryIndexes)
	})

	t.Run("throttled page is retried", func(t *testing.T) {
		client := pagedClient().WithResponses(mock.OpScan, mock.Throttle)
		w := newTestWrapper(client)
		events := recordEvents(w)

		out, err := w.Scan(ctx, &sdk.ScanInput{TableName: aws.String("Test"), Limit: aws.Int32(2)})
		require.NoError(t, err)
		assert.Len(t, out.Items, 6)
		assert.Equal(t, 4, client.Calls(mock.OpScan))
		assert.Equal(t, []storagemodels.RetryEvent{{TableName: "Test", Method: "scan", RetryCount: 1}}, events.retries)
	})
}
