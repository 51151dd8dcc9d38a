/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package prefix rewrites table names on DynamoDB requests and responses so
// that several environments can share one account ("dev-Users", "prod-Users").
package prefix

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Add returns name with prefix prepended, unless it already starts with it.
func Add(prefix, name string) string {
	if prefix == "" || strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// Remove returns name without prefix.
func Remove(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimPrefix(name, prefix)
}

// AddToRequest prefixes TableName and the keys of RequestItems on a DynamoDB
// input struct in place. Applying it twice has the same effect as once.
// Unknown input types are left untouched.
func AddToRequest(p string, input any) {
	if p == "" || input == nil {
		return
	}

	switch in := input.(type) {
	case *dynamodb.GetItemInput:
		in.TableName = addPtr(p, in.TableName)
	case *dynamodb.PutItemInput:
		in.TableName = addPtr(p, in.TableName)
	case *dynamodb.UpdateItemInput:
		in.TableName = addPtr(p, in.TableName)
	case *dynamodb.DeleteItemInput:
		in.TableName = addPtr(p, in.TableName)
	case *dynamodb.QueryInput:
		in.TableName = addPtr(p, in.TableName)
	case *dynamodb.ScanInput:
		in.TableName = addPtr(p, in.TableName)
	case *dynamodb.BatchWriteItemInput:
		in.RequestItems = renameKeys(in.RequestItems, func(name string) string { return Add(p, name) })
	case *dynamodb.BatchGetItemInput:
		in.RequestItems = renameKeys(in.RequestItems, func(name string) string { return Add(p, name) })
	}
}

// RemoveFromResponse strips the prefix from every field of a DynamoDB output
// struct that echoes a table name: Responses, UnprocessedKeys,
// UnprocessedItems, ItemCollectionMetrics and ConsumedCapacity.
func RemoveFromResponse(p string, output any) {
	if p == "" || output == nil {
		return
	}

	strip := func(name string) string { return Remove(p, name) }

	switch out := output.(type) {
	case *dynamodb.GetItemOutput:
		out.ConsumedCapacity = stripCapacity(p, out.ConsumedCapacity)
	case *dynamodb.PutItemOutput:
		out.ConsumedCapacity = stripCapacity(p, out.ConsumedCapacity)
	case *dynamodb.UpdateItemOutput:
		out.ConsumedCapacity = stripCapacity(p, out.ConsumedCapacity)
	case *dynamodb.DeleteItemOutput:
		out.ConsumedCapacity = stripCapacity(p, out.ConsumedCapacity)
	case *dynamodb.QueryOutput:
		out.ConsumedCapacity = stripCapacity(p, out.ConsumedCapacity)
	case *dynamodb.ScanOutput:
		out.ConsumedCapacity = stripCapacity(p, out.ConsumedCapacity)
	case *dynamodb.BatchWriteItemOutput:
		out.UnprocessedItems = renameKeys(out.UnprocessedItems, strip)
		out.ItemCollectionMetrics = renameKeys(out.ItemCollectionMetrics, strip)
		out.ConsumedCapacity = stripCapacities(p, out.ConsumedCapacity)
	case *dynamodb.BatchGetItemOutput:
		out.Responses = renameKeys(out.Responses, strip)
		out.UnprocessedKeys = renameKeys(out.UnprocessedKeys, strip)
		out.ConsumedCapacity = stripCapacities(p, out.ConsumedCapacity)
	}
}

func addPtr(p string, name *string) *string {
	if name == nil {
		return nil
	}
	return aws.String(Add(p, *name))
}

// renameKeys returns a new map so that maps shared with the caller are not modified.
func renameKeys[V any](m map[string]V, rename func(string) string) map[string]V {
	if m == nil {
		return nil
	}
	renamed := make(map[string]V, len(m))
	for k, v := range m {
		renamed[rename(k)] = v
	}
	return renamed
}

func stripCapacity(p string, cc *types.ConsumedCapacity) *types.ConsumedCapacity {
	if cc == nil || cc.TableName == nil {
		return cc
	}
	stripped := *cc
	stripped.TableName = aws.String(Remove(p, *cc.TableName))
	return &stripped
}

func stripCapacities(p string, ccs []types.ConsumedCapacity) []types.ConsumedCapacity {
	if ccs == nil {
		return nil
	}
	stripped := make([]types.ConsumedCapacity, len(ccs))
	for i := range ccs {
		stripped[i] = *stripCapacity(p, &ccs[i])
	}
	return stripped
}
