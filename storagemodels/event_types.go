/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EventKind names a wrapper event
type EventKind string

const (
	EventRetry            EventKind = "retry"
	EventConsumedCapacity EventKind = "consumedCapacity"
)

// CapacityType tells whether consumed capacity was spent on reads or writes
type CapacityType string

const (
	ReadCapacityUnits  CapacityType = "ReadCapacityUnits"
	WriteCapacityUnits CapacityType = "WriteCapacityUnits"
)

// Method names reported in events
const (
	MethodGetItem        = "getItem"
	MethodPutItem        = "putItem"
	MethodUpdateItem     = "updateItem"
	MethodDeleteItem     = "deleteItem"
	MethodQuery          = "query"
	MethodScan           = "scan"
	MethodBatchWriteItem = "batchWriteItem"
)

// RetryEvent is emitted before every retry of a throttled or partially processed request
type RetryEvent struct {
	TableName  string        // Table name without prefix
	Method     string        // Wrapper method, e.g. "putItem"
	RetryCount int           // 1-based number of retries issued so far
	RetryDelay time.Duration // Delay before this retry
}

// ConsumedCapacityEvent is emitted once per call when the store reported consumed capacity
type ConsumedCapacityEvent struct {
	Method           string
	CapacityType     CapacityType
	ConsumedCapacity *types.ConsumedCapacity // Merged over every request issued by the call
}
