package storagemodels

// PartitionStrategy selects how an oversized batch write is split into groups.
type PartitionStrategy string

const (
	// EqualItemCount splits into groups of at most TargetItemCount write requests.
	EqualItemCount PartitionStrategy = "EqualItemCount"
	// EvenlyDistributedGroupWCU splits into groups consuming at most TargetGroupWCU write
	// capacity units, counting one unit per write request.
	EvenlyDistributedGroupWCU PartitionStrategy = "EvenlyDistributedGroupWCU"
)

// PartitionOptions configures batch write partitioning. A nil value sends all
// items in one request.
type PartitionOptions struct {
	Strategy        PartitionStrategy
	TargetItemCount int
	TargetGroupWCU  int
}

// BatchWriteOptions configures a single BatchWriteItem call
type BatchWriteOptions struct {
	Partition *PartitionOptions
}

// BatchWriteOption is a functional option for BatchWriteItem
type BatchWriteOption func(*BatchWriteOptions)

// WithEqualItemCount partitions the batch into groups of at most n items
func WithEqualItemCount(n int) BatchWriteOption {
	return func(opts *BatchWriteOptions) {
		opts.Partition = &PartitionOptions{
			Strategy:        EqualItemCount,
			TargetItemCount: n,
		}
	}
}

// WithEvenlyDistributedGroupWCU partitions the batch into groups of at most wcu write capacity units
func WithEvenlyDistributedGroupWCU(wcu int) BatchWriteOption {
	return func(opts *BatchWriteOptions) {
		opts.Partition = &PartitionOptions{
			Strategy:       EvenlyDistributedGroupWCU,
			TargetGroupWCU: wcu,
		}
	}
}

// WithPartition sets explicit partition options, e.g. ones read from configuration
func WithPartition(p *PartitionOptions) BatchWriteOption {
	return func(opts *BatchWriteOptions) {
		opts.Partition = p
	}
}
