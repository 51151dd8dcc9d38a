/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides a scriptable in-memory DynamoDB client for testing
package mock

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/suparena/ddbwrapper/datastore"
)

// Response scripts the outcome of one request.
type Response int

const (
	// Success processes the request normally
	Success Response = iota
	// Throttle fails with ProvisionedThroughputExceededException
	Throttle
	// AllUnprocessed returns every batch write request as unprocessed
	AllUnprocessed
	// SomeUnprocessed processes the first batch write request and returns the rest
	SomeUnprocessed
	// Validation fails with ValidationException
	Validation
)

// Operation names used to script and inspect requests
const (
	OpGetItem        = "GetItem"
	OpPutItem        = "PutItem"
	OpUpdateItem     = "UpdateItem"
	OpDeleteItem     = "DeleteItem"
	OpQuery          = "Query"
	OpScan           = "Scan"
	OpBatchWriteItem = "BatchWriteItem"
)

// OffsetAttribute holds the position of the next item in the LastEvaluatedKey
// produced by Query and Scan.
const OffsetAttribute = "mock:offset"

type item = map[string]types.AttributeValue

// Client is an in-memory datastore.Client whose responses can be scripted
// per operation and request number. Every input is recorded.
type Client struct {
	mu        sync.Mutex
	tables    map[string][]item
	scripts   map[string][]Response
	fallback  map[string]Response
	requests  map[string][]any
	capacity  *types.ConsumedCapacity
	putHook   func(*dynamodb.PutItemInput)
	batchHook func(*dynamodb.BatchWriteItemInput)
}

var _ datastore.Client = (*Client)(nil)

// New creates an empty mock client
func New() *Client {
	return &Client{
		tables:   make(map[string][]item),
		scripts:  make(map[string][]Response),
		fallback: make(map[string]Response),
		requests: make(map[string][]any),
	}
}

// WithResponses scripts the outcome of the next requests of op, in order.
// Requests beyond the script use the default response (Success unless set
// with WithDefaultResponse).
func (c *Client) WithResponses(op string, responses ...Response) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts[op] = append(c.scripts[op], responses...)
	return c
}

// WithDefaultResponse sets the outcome of unscripted requests of op
func (c *Client) WithDefaultResponse(op string, r Response) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback[op] = r
	return c
}

// WithItems seeds table with items, returned by Query and Scan in order
func (c *Client) WithItems(table string, items ...item) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[table] = append(c.tables[table], items...)
	return c
}

// WithCapacity sets the consumed capacity reported by every successful
// response that asks for it. TOTAL reports only the unit fields; INDEXES
// also reports Table and the index maps. TableName is always the request's.
func (c *Client) WithCapacity(cc types.ConsumedCapacity) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = &cc
	return c
}

// OnPutItem registers a hook invoked with every PutItem input before it is processed
func (c *Client) OnPutItem(f func(*dynamodb.PutItemInput)) *Client {
	c.putHook = f
	return c
}

// OnBatchWriteItem registers a hook invoked with every BatchWriteItem input before it is processed
func (c *Client) OnBatchWriteItem(f func(*dynamodb.BatchWriteItemInput)) *Client {
	c.batchHook = f
	return c
}

// Calls returns the number of requests of op received so far
func (c *Client) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests[op])
}

// Items returns a copy of the items stored in table
func (c *Client) Items(table string) []map[string]types.AttributeValue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]item(nil), c.tables[table]...)
}

// PutItemInputs returns every PutItem input received
func (c *Client) PutItemInputs() []*dynamodb.PutItemInput {
	return inputs[*dynamodb.PutItemInput](c, OpPutItem)
}

// QueryInputs returns every Query input received
func (c *Client) QueryInputs() []*dynamodb.QueryInput {
	return inputs[*dynamodb.QueryInput](c, OpQuery)
}

// ScanInputs returns every Scan input received
func (c *Client) ScanInputs() []*dynamodb.ScanInput {
	return inputs[*dynamodb.ScanInput](c, OpScan)
}

// BatchWriteItemInputs returns every BatchWriteItem input received
func (c *Client) BatchWriteItemInputs() []*dynamodb.BatchWriteItemInput {
	return inputs[*dynamodb.BatchWriteItemInput](c, OpBatchWriteItem)
}

// GetItemInputs returns every GetItem input received
func (c *Client) GetItemInputs() []*dynamodb.GetItemInput {
	return inputs[*dynamodb.GetItemInput](c, OpGetItem)
}

// UpdateItemInputs returns every UpdateItem input received
func (c *Client) UpdateItemInputs() []*dynamodb.UpdateItemInput {
	return inputs[*dynamodb.UpdateItemInput](c, OpUpdateItem)
}

// DeleteItemInputs returns every DeleteItem input received
func (c *Client) DeleteItemInputs() []*dynamodb.DeleteItemInput {
	return inputs[*dynamodb.DeleteItemInput](c, OpDeleteItem)
}

func inputs[T any](c *Client, op string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(c.requests[op]))
	for _, r := range c.requests[op] {
		out = append(out, r.(T))
	}
	return out
}

// record stores the input and returns the scripted response for it.
// Must be called with c.mu held.
func (c *Client) record(op string, input any) Response {
	c.requests[op] = append(c.requests[op], input)
	if script := c.scripts[op]; len(script) > 0 {
		c.scripts[op] = script[1:]
		return script[0]
	}
	return c.fallback[op]
}

// GetItem returns the first stored item whose attributes contain Key
func (c *Client) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure(OpGetItem, c.record(OpGetItem, params)); err != nil {
		return nil, err
	}
	out := &dynamodb.GetItemOutput{
		ConsumedCapacity: c.consumed(params.TableName, params.ReturnConsumedCapacity),
	}
	if i := c.find(aws.ToString(params.TableName), params.Key); i >= 0 {
		out.Item = c.tables[aws.ToString(params.TableName)][i]
	}
	return out, nil
}

// PutItem appends the item to its table
func (c *Client) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if c.putHook != nil {
		c.putHook(params)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure(OpPutItem, c.record(OpPutItem, params)); err != nil {
		return nil, err
	}
	table := aws.ToString(params.TableName)
	c.tables[table] = append(c.tables[table], params.Item)
	return &dynamodb.PutItemOutput{
		ConsumedCapacity: c.consumed(params.TableName, params.ReturnConsumedCapacity),
	}, nil
}

// UpdateItem records the request without changing stored items
func (c *Client) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure(OpUpdateItem, c.record(OpUpdateItem, params)); err != nil {
		return nil, err
	}
	return &dynamodb.UpdateItemOutput{
		ConsumedCapacity: c.consumed(params.TableName, params.ReturnConsumedCapacity),
	}, nil
}

// DeleteItem removes the first stored item whose attributes contain Key
func (c *Client) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure(OpDeleteItem, c.record(OpDeleteItem, params)); err != nil {
		return nil, err
	}
	table := aws.ToString(params.TableName)
	if i := c.find(table, params.Key); i >= 0 {
		c.tables[table] = append(c.tables[table][:i:i], c.tables[table][i+1:]...)
	}
	return &dynamodb.DeleteItemOutput{
		ConsumedCapacity: c.consumed(params.TableName, params.ReturnConsumedCapacity),
	}, nil
}

// Query returns a page of at most Limit stored items. Key conditions are not evaluated.
func (c *Client) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure(OpQuery, c.record(OpQuery, params)); err != nil {
		return nil, err
	}
	items, next, err := c.page(aws.ToString(params.TableName), params.ExclusiveStartKey, params.Limit)
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: next,
		ConsumedCapacity: c.consumed(params.TableName, params.ReturnConsumedCapacity),
	}, nil
}

// Scan returns a page of at most Limit stored items
func (c *Client) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.failure(OpScan, c.record(OpScan, params)); err != nil {
		return nil, err
	}
	items, next, err := c.page(aws.ToString(params.TableName), params.ExclusiveStartKey, params.Limit)
	if err != nil {
		return nil, err
	}
	return &dynamodb.ScanOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: next,
		ConsumedCapacity: c.consumed(params.TableName, params.ReturnConsumedCapacity),
	}, nil
}

// BatchWriteItem applies put and delete requests according to the scripted response
func (c *Client) BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	if c.batchHook != nil {
		c.batchHook(params)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	response := c.record(OpBatchWriteItem, params)
	if err := c.failure(OpBatchWriteItem, response); err != nil {
		return nil, err
	}

	out := &dynamodb.BatchWriteItemOutput{
		UnprocessedItems: make(map[string][]types.WriteRequest),
	}
	for table, requests := range params.RequestItems {
		processed := requests
		switch response {
		case AllUnprocessed:
			processed = nil
		case SomeUnprocessed:
			processed = requests[:min(1, len(requests))]
		}
		if rest := requests[len(processed):]; len(rest) > 0 {
			out.UnprocessedItems[table] = append([]types.WriteRequest(nil), rest...)
		}

		for _, r := range processed {
			switch {
			case r.PutRequest != nil:
				c.tables[table] = append(c.tables[table], r.PutRequest.Item)
			case r.DeleteRequest != nil:
				if i := c.find(table, r.DeleteRequest.Key); i >= 0 {
					c.tables[table] = append(c.tables[table][:i:i], c.tables[table][i+1:]...)
				}
			}
		}

		if cc := c.consumed(aws.String(table), params.ReturnConsumedCapacity); cc != nil {
			cc.CapacityUnits = aws.Float64(float64(len(processed)))
			out.ConsumedCapacity = append(out.ConsumedCapacity, *cc)
		}
	}
	return out, nil
}

func (c *Client) failure(op string, r Response) error {
	switch r {
	case Throttle:
		return ThrottlingError(op)
	case Validation:
		return ValidationError(op, "One or more parameter values were invalid")
	}
	return nil
}

func (c *Client) page(table string, startKey item, limit *int32) ([]item, item, error) {
	all := c.tables[table]
	start := 0
	if av, ok := startKey[OffsetAttribute].(*types.AttributeValueMemberN); ok {
		n, err := strconv.Atoi(av.Value)
		if err != nil {
			return nil, nil, ValidationError(OpQuery, fmt.Sprintf("invalid ExclusiveStartKey: %v", err))
		}
		start = n
	}
	start = min(start, len(all))

	end := len(all)
	if limit != nil && *limit > 0 {
		end = min(start+int(*limit), len(all))
	}

	items := append([]item(nil), all[start:end]...)
	if end >= len(all) {
		return items, nil, nil
	}
	return items, item{OffsetAttribute: &types.AttributeValueMemberN{Value: strconv.Itoa(end)}}, nil
}

// find returns the index of the first item of table containing every attribute of key, or -1
func (c *Client) find(table string, key item) int {
	if len(key) == 0 {
		return -1
	}
	for i, it := range c.tables[table] {
		matched := true
		for name, want := range key {
			if !reflect.DeepEqual(it[name], want) {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

func (c *Client) consumed(table *string, mode types.ReturnConsumedCapacity) *types.ConsumedCapacity {
	if c.capacity == nil || mode == "" || mode == types.ReturnConsumedCapacityNone {
		return nil
	}
	cc := types.ConsumedCapacity{
		TableName:          table,
		CapacityUnits:      c.capacity.CapacityUnits,
		ReadCapacityUnits:  c.capacity.ReadCapacityUnits,
		WriteCapacityUnits: c.capacity.WriteCapacityUnits,
	}
	if mode == types.ReturnConsumedCapacityIndexes {
		cc.Table = c.capacity.Table
		cc.LocalSecondaryIndexes = c.capacity.LocalSecondaryIndexes
		cc.GlobalSecondaryIndexes = c.capacity.GlobalSecondaryIndexes
	}
	return &cc
}

// ThrottlingError returns the error the SDK produces when op is rejected with
// ProvisionedThroughputExceededException
func ThrottlingError(op string) error {
	return HTTPError(op, http.StatusBadRequest, &types.ProvisionedThroughputExceededException{
		Message: aws.String("The level of configured provisioned throughput for the table was exceeded."),
	})
}

// ValidationError returns the error the SDK produces when op is rejected with ValidationException
func ValidationError(op, message string) error {
	return HTTPError(op, http.StatusBadRequest, &smithy.GenericAPIError{
		Code:    "ValidationException",
		Message: message,
		Fault:   smithy.FaultClient,
	})
}

// HTTPError wraps apiErr the way the SDK wraps a failed operation response
func HTTPError(op string, status int, apiErr error) error {
	return &smithy.OperationError{
		ServiceID:     "DynamoDB",
		OperationName: op,
		Err: &awshttp.ResponseError{
			ResponseError: &smithyhttp.ResponseError{
				Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
				Err:      apiErr,
			},
			RequestID: "mock-request",
		},
	}
}
