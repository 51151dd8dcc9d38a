/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mergeCapacity sums consumed capacity reported by several responses of one
// logical operation. Nil records are skipped and nil is returned when no
// record was reported. A field is only present in the result when at least
// one record reported it.
func mergeCapacity(records ...*types.ConsumedCapacity) *types.ConsumedCapacity {
	var merged *types.ConsumedCapacity
	for _, r := range records {
		if r == nil {
			continue
		}
		if merged == nil {
			merged = &types.ConsumedCapacity{}
			if r.TableName != nil {
				merged.TableName = aws.String(*r.TableName)
			}
		}

		merged.CapacityUnits = addUnits(merged.CapacityUnits, r.CapacityUnits)
		merged.ReadCapacityUnits = addUnits(merged.ReadCapacityUnits, r.ReadCapacityUnits)
		merged.WriteCapacityUnits = addUnits(merged.WriteCapacityUnits, r.WriteCapacityUnits)
		merged.Table = addCapacity(merged.Table, r.Table)
		merged.LocalSecondaryIndexes = addIndexes(merged.LocalSecondaryIndexes, r.LocalSecondaryIndexes)
		merged.GlobalSecondaryIndexes = addIndexes(merged.GlobalSecondaryIndexes, r.GlobalSecondaryIndexes)
	}
	return merged
}

func addUnits(sum, units *float64) *float64 {
	if units == nil {
		return sum
	}
	if sum == nil {
		return aws.Float64(*units)
	}
	return aws.Float64(*sum + *units)
}

func addCapacity(sum, c *types.Capacity) *types.Capacity {
	if c == nil {
		return sum
	}
	if sum == nil {
		sum = &types.Capacity{}
	}
	return &types.Capacity{
		CapacityUnits:      addUnits(sum.CapacityUnits, c.CapacityUnits),
		ReadCapacityUnits:  addUnits(sum.ReadCapacityUnits, c.ReadCapacityUnits),
		WriteCapacityUnits: addUnits(sum.WriteCapacityUnits, c.WriteCapacityUnits),
	}
}

// addIndexes sums per index name. sum is always a map owned by mergeCapacity.
func addIndexes(sum, indexes map[string]types.Capacity) map[string]types.Capacity {
	if indexes == nil {
		return sum
	}
	if sum == nil {
		sum = make(map[string]types.Capacity, len(indexes))
	}
	for name, c := range indexes {
		var prev *types.Capacity
		if p, ok := sum[name]; ok {
			prev = &p
		}
		sum[name] = *addCapacity(prev, &c)
	}
	return sum
}
