/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbwrapper/errors"
	"github.com/suparena/ddbwrapper/prefix"
	"github.com/suparena/ddbwrapper/storagemodels"
)

const (
	msgItemCollectionMetrics = "ReturnItemCollectionMetrics is supported in the AWS DynamoDB API, " +
		"but this capability is not yet implemented by this wrapper library."
	msgSingleTable = "Expected exactly 1 table name in RequestItems, but found 0 or 2+. " +
		"Writing to more than 1 table with BatchWriteItem is supported in the AWS DynamoDB API, " +
		"but this capability is not yet implemented by this wrapper library."

	// writeUnitsPerRequest is the WCU assumed for one put or delete request.
	writeUnitsPerRequest = 1
)

// BatchWriteItem writes the requests of a single table, optionally split into
// groups that are sent one after another with GroupDelay in between.
// Unprocessed items are resent until the group's retry budget is spent. A
// group that made no progress at all fails with a throughput-exceeded error;
// otherwise its leftovers are returned in UnprocessedItems.
func (w *Wrapper) BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, opts ...storagemodels.BatchWriteOption) (*sdk.BatchWriteItemOutput, error) {
	if params == nil {
		return nil, errNilParams
	}
	var options storagemodels.BatchWriteOptions
	for _, opt := range opts {
		opt(&options)
	}

	if params.ReturnItemCollectionMetrics == types.ReturnItemCollectionMetricsSize {
		return nil, errors.NewNotYetImplementedError(msgItemCollectionMetrics)
	}
	if len(params.RequestItems) != 1 {
		return nil, errors.NewNotYetImplementedError(msgSingleTable)
	}

	in := *params
	prefix.AddToRequest(w.opts.TableNamePrefix, &in)

	var (
		storeTable string
		requests   []types.WriteRequest
	)
	for name, reqs := range in.RequestItems {
		storeTable, requests = name, reqs
	}
	table := prefix.Remove(w.opts.TableNamePrefix, storeTable)

	groups, err := partition(requests, options.Partition)
	if err != nil {
		return nil, err
	}

	var (
		leftovers  []types.WriteRequest
		capacities []*types.ConsumedCapacity
	)
	for i, group := range groups {
		if i > 0 {
			if err := sleep(ctx, w.opts.GroupDelay); err != nil {
				return nil, err
			}
		}
		w.logger.Debug().
			Str("table", table).
			Int("group", i+1).
			Int("groups", len(groups)).
			Int("items", len(group)).
			Msg("writing batch group")

		res, err := w.writeGroup(ctx, &in, storeTable, table, group)
		if err != nil {
			return nil, err
		}
		leftovers = append(leftovers, res.unprocessed...)
		capacities = append(capacities, res.capacities...)
	}

	out := &sdk.BatchWriteItemOutput{
		UnprocessedItems: map[string][]types.WriteRequest{},
	}
	if len(leftovers) > 0 {
		out.UnprocessedItems[storeTable] = leftovers
	}
	if merged := mergeCapacity(capacities...); merged != nil {
		out.ConsumedCapacity = []types.ConsumedCapacity{*merged}
	}

	prefix.RemoveFromResponse(w.opts.TableNamePrefix, out)
	if len(out.ConsumedCapacity) > 0 {
		w.emitConsumedCapacity(storagemodels.MethodBatchWriteItem, storagemodels.WriteCapacityUnits, &out.ConsumedCapacity[0])
	}
	return out, nil
}

type groupResult struct {
	unprocessed []types.WriteRequest
	capacities  []*types.ConsumedCapacity
}

// writeGroup sends one group until everything is processed or the budget is
// spent. Throttling and unprocessed items draw from the same retryContext.
func (w *Wrapper) writeGroup(ctx context.Context, base *sdk.BatchWriteItemInput, storeTable, table string, group []types.WriteRequest) (groupResult, error) {
	var res groupResult
	rc := w.newRetryContext(table, storagemodels.MethodBatchWriteItem)

	remaining := group
	for {
		req := *base
		req.RequestItems = map[string][]types.WriteRequest{storeTable: remaining}

		out, err := retry(ctx, rc, func(ctx context.Context) (*sdk.BatchWriteItemOutput, error) {
			return w.client.BatchWriteItem(ctx, &req)
		})
		if err != nil {
			return groupResult{}, err
		}
		for i := range out.ConsumedCapacity {
			res.capacities = append(res.capacities, &out.ConsumedCapacity[i])
		}

		remaining = out.UnprocessedItems[storeTable]
		if len(remaining) == 0 {
			return res, nil
		}
		if rc.exhausted() {
			if len(remaining) >= len(group) {
				return groupResult{}, errors.NewThroughputExceededError()
			}
			res.unprocessed = remaining
			return res, nil
		}
		if err := rc.wait(ctx); err != nil {
			return groupResult{}, err
		}
	}
}

// partition splits requests into consecutive groups. Without partition
// options everything goes into one group.
func partition(requests []types.WriteRequest, p *storagemodels.PartitionOptions) ([][]types.WriteRequest, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	if p == nil {
		return [][]types.WriteRequest{requests}, nil
	}

	var size int
	switch p.Strategy {
	case storagemodels.EqualItemCount:
		if p.TargetItemCount <= 0 {
			return nil, errors.NewValidationError("TargetItemCount", "must be greater than zero")
		}
		size = p.TargetItemCount
	case storagemodels.EvenlyDistributedGroupWCU:
		if p.TargetGroupWCU < writeUnitsPerRequest {
			return nil, errors.NewValidationError("TargetGroupWCU", fmt.Sprintf("must be at least %d", writeUnitsPerRequest))
		}
		size = p.TargetGroupWCU / writeUnitsPerRequest
	default:
		return nil, errors.NewValidationError("Strategy", fmt.Sprintf("unknown partition strategy %q", p.Strategy))
	}

	groups := make([][]types.WriteRequest, 0, (len(requests)+size-1)/size)
	for start := 0; start < len(requests); start += size {
		end := min(start+size, len(requests))
		groups = append(groups, requests[start:end])
	}
	return groups, nil
}
