/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbwrapper/prefix"
	"github.com/suparena/ddbwrapper/storagemodels"
)

type item = map[string]types.AttributeValue

// page is the part of a Query or Scan response the paginator needs.
type page struct {
	items            []item
	count            int32
	scannedCount     int32
	lastEvaluatedKey item
	capacity         *types.ConsumedCapacity
}

type fetchFunc func(ctx context.Context, startKey item) (page, error)

type collected struct {
	items        []item
	count        int32
	scannedCount int32
	capacity     *types.ConsumedCapacity
}

// collect follows LastEvaluatedKey until the last page. Every page gets its own
// retry budget.
func (w *Wrapper) collect(ctx context.Context, table, method string, startKey item, fetch fetchFunc) (collected, error) {
	var (
		result     collected
		capacities []*types.ConsumedCapacity
	)
	for pages := 1; ; pages++ {
		rc := w.newRetryContext(table, method)
		p, err := retry(ctx, rc, func(ctx context.Context) (page, error) {
			return fetch(ctx, startKey)
		})
		if err != nil {
			return collected{}, err
		}

		result.items = append(result.items, p.items...)
		result.count += p.count
		result.scannedCount += p.scannedCount
		capacities = append(capacities, p.capacity)

		w.logger.Debug().
			Str("table", table).
			Str("method", method).
			Int("page", pages).
			Int("items", len(p.items)).
			Bool("more", len(p.lastEvaluatedKey) > 0).
			Msg("fetched page")

		if len(p.lastEvaluatedKey) == 0 {
			break
		}
		startKey = p.lastEvaluatedKey
	}
	result.capacity = mergeCapacity(capacities...)
	return result, nil
}

// Query returns every item matching params, following pagination. The
// result's LastEvaluatedKey is always nil.
func (w *Wrapper) Query(ctx context.Context, params *sdk.QueryInput) (*sdk.QueryOutput, error) {
	if params == nil {
		return nil, errNilParams
	}
	in := *params
	prefix.AddToRequest(w.opts.TableNamePrefix, &in)

	res, err := w.collect(ctx, w.tableName(params.TableName), storagemodels.MethodQuery, in.ExclusiveStartKey,
		func(ctx context.Context, startKey item) (page, error) {
			req := in
			req.ExclusiveStartKey = startKey
			out, err := w.client.Query(ctx, &req)
			if err != nil {
				return page{}, err
			}
			return page{
				items:            out.Items,
				count:            out.Count,
				scannedCount:     out.ScannedCount,
				lastEvaluatedKey: out.LastEvaluatedKey,
				capacity:         out.ConsumedCapacity,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	out := &sdk.QueryOutput{
		Items:            res.items,
		Count:            res.count,
		ScannedCount:     res.scannedCount,
		ConsumedCapacity: res.capacity,
	}
	prefix.RemoveFromResponse(w.opts.TableNamePrefix, out)
	w.emitConsumedCapacity(storagemodels.MethodQuery, storagemodels.ReadCapacityUnits, out.ConsumedCapacity)
	return out, nil
}

// Scan returns every item of the table (or index), following pagination.
func (w *Wrapper) Scan(ctx context.Context, params *sdk.ScanInput) (*sdk.ScanOutput, error) {
	if params == nil {
		return nil, errNilParams
	}
	in := *params
	prefix.AddToRequest(w.opts.TableNamePrefix, &in)

	res, err := w.collect(ctx, w.tableName(params.TableName), storagemodels.MethodScan, in.ExclusiveStartKey,
		func(ctx context.Context, startKey item) (page, error) {
			req := in
			req.ExclusiveStartKey = startKey
			out, err := w.client.Scan(ctx, &req)
			if err != nil {
				return page{}, err
			}
			return page{
				items:            out.Items,
				count:            out.Count,
				scannedCount:     out.ScannedCount,
				lastEvaluatedKey: out.LastEvaluatedKey,
				capacity:         out.ConsumedCapacity,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	out := &sdk.ScanOutput{
		Items:            res.items,
		Count:            res.count,
		ScannedCount:     res.scannedCount,
		ConsumedCapacity: res.capacity,
	}
	prefix.RemoveFromResponse(w.opts.TableNamePrefix, out)
	w.emitConsumedCapacity(storagemodels.MethodScan, storagemodels.ReadCapacityUnits, out.ConsumedCapacity)
	return out, nil
}
