package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/ddbwrapper/datastore"
	"github.com/suparena/ddbwrapper/storagemodels"
)

type command struct {
	flags *flag.FlagSet
	run   func(ctx context.Context, store datastore.DataStore, out io.Writer) error
}

var (
	batchFlags    = flag.NewFlagSet("batch-write", flag.ExitOnError)
	batchTable    = batchFlags.String("table", "", "Target table")
	batchFile     = batchFlags.String("file", "", "JSON file holding an array of items")
	batchStrategy = batchFlags.String("strategy", "", "Partition strategy: EqualItemCount or EvenlyDistributedGroupWCU")
	batchTarget   = batchFlags.Int("target", 25, "Items (or WCU) per group when a strategy is set")

	queryFlags = flag.NewFlagSet("query", flag.ExitOnError)
	queryTable = queryFlags.String("table", "", "Table to query")
	queryKey   = queryFlags.String("key", "", "Partition key condition as name=value")
	queryIndex = queryFlags.String("index", "", "Optional index name")
	queryLimit = queryFlags.Int("limit", 0, "Page size (0 lets DynamoDB decide)")

	scanFlags = flag.NewFlagSet("scan", flag.ExitOnError)
	scanTable = scanFlags.String("table", "", "Table to scan")
	scanIndex = scanFlags.String("index", "", "Optional index name")
	scanLimit = scanFlags.Int("limit", 0, "Page size (0 lets DynamoDB decide)")
)

var commands = map[string]command{
	"batch-write": {flags: batchFlags, run: func(ctx context.Context, store datastore.DataStore, out io.Writer) error {
		f, err := os.Open(*batchFile)
		if err != nil {
			return fmt.Errorf("failed to open items file: %w", err)
		}
		defer f.Close()
		return batchWrite(ctx, store, out, f, *batchTable, *batchStrategy, *batchTarget)
	}},
	"query": {flags: queryFlags, run: func(ctx context.Context, store datastore.DataStore, out io.Writer) error {
		return query(ctx, store, out, *queryTable, *queryKey, *queryIndex, int32(*queryLimit))
	}},
	"scan": {flags: scanFlags, run: func(ctx context.Context, store datastore.DataStore, out io.Writer) error {
		return scan(ctx, store, out, *scanTable, *scanIndex, int32(*scanLimit))
	}},
}

type batchResult struct {
	Written          int                     `json:"written"`
	Unprocessed      int                     `json:"unprocessed"`
	ConsumedCapacity *types.ConsumedCapacity `json:"consumedCapacity,omitempty"`
}

type itemsResult struct {
	Count            int32                   `json:"count"`
	Items            []map[string]any        `json:"items"`
	ConsumedCapacity *types.ConsumedCapacity `json:"consumedCapacity,omitempty"`
}

func batchWrite(ctx context.Context, store datastore.DataStore, out io.Writer, in io.Reader, table, strategy string, target int) error {
	if table == "" {
		return fmt.Errorf("-table is required")
	}

	var records []map[string]any
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return fmt.Errorf("failed to decode items: %w", err)
	}

	requests := make([]types.WriteRequest, 0, len(records))
	for i, r := range records {
		item, err := attributevalue.MarshalMap(r)
		if err != nil {
			return fmt.Errorf("failed to marshal item %d: %w", i, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	var opts []storagemodels.BatchWriteOption
	if strategy != "" {
		opts = append(opts, storagemodels.WithPartition(&storagemodels.PartitionOptions{
			Strategy:        storagemodels.PartitionStrategy(strategy),
			TargetItemCount: target,
			TargetGroupWCU:  target,
		}))
	}

	res, err := store.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
		RequestItems:           map[string][]types.WriteRequest{table: requests},
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}, opts...)
	if err != nil {
		return err
	}

	result := batchResult{Unprocessed: len(res.UnprocessedItems[table])}
	result.Written = len(requests) - result.Unprocessed
	if len(res.ConsumedCapacity) > 0 {
		result.ConsumedCapacity = &res.ConsumedCapacity[0]
	}
	return writeJSON(out, result)
}

func query(ctx context.Context, store datastore.DataStore, out io.Writer, table, key, index string, limit int32) error {
	if table == "" {
		return fmt.Errorf("-table is required")
	}
	name, value, ok := strings.Cut(key, "=")
	if !ok || name == "" {
		return fmt.Errorf("-key must have the form name=value")
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(name).Equal(expression.Value(value))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build key condition: %w", err)
	}

	in := &sdk.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnConsumedCapacity:    types.ReturnConsumedCapacityTotal,
	}
	if index != "" {
		in.IndexName = aws.String(index)
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}

	res, err := store.Query(ctx, in)
	if err != nil {
		return err
	}
	return writeItems(out, res.Count, res.Items, res.ConsumedCapacity)
}

func scan(ctx context.Context, store datastore.DataStore, out io.Writer, table, index string, limit int32) error {
	if table == "" {
		return fmt.Errorf("-table is required")
	}

	in := &sdk.ScanInput{
		TableName:              aws.String(table),
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	}
	if index != "" {
		in.IndexName = aws.String(index)
	}
	if limit > 0 {
		in.Limit = aws.Int32(limit)
	}

	res, err := store.Scan(ctx, in)
	if err != nil {
		return err
	}
	return writeItems(out, res.Count, res.Items, res.ConsumedCapacity)
}

func writeItems(out io.Writer, count int32, items []map[string]types.AttributeValue, cc *types.ConsumedCapacity) error {
	result := itemsResult{Count: count, Items: make([]map[string]any, 0, len(items)), ConsumedCapacity: cc}
	if err := attributevalue.UnmarshalListOfMaps(items, &result.Items); err != nil {
		return fmt.Errorf("failed to unmarshal items: %w", err)
	}
	return writeJSON(out, result)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func capacityUnits(e storagemodels.ConsumedCapacityEvent) float64 {
	if e.ConsumedCapacity == nil {
		return 0
	}
	return aws.ToFloat64(e.ConsumedCapacity.CapacityUnits)
}
