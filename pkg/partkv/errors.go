package partkv

import (
	"errors"
	"fmt"
)

// Runtime, caller-visible sentinel errors. These never escape Handler's
// entry points as panics or raw errors; they are always converted into a
// Response/BulkResponse variant at the worker boundary.
var (
	// ErrPartitionUnavailable is returned when a key routes to a partition
	// whose accessor slot was left empty at assembly time (the partition
	// had no current version and was skipped, logged, during assembly).
	ErrPartitionUnavailable = errors.New("partition unavailable")

	// ErrPartitionerOutOfRange is returned when a Partitioner implementation
	// returns an index outside [0, numPartitions).
	ErrPartitionerOutOfRange = errors.New("partitioner returned an out-of-range partition index")

	// ErrHandlerNotReady is returned by get/getBulk when called outside the
	// Ready state (Constructing, ShuttingDown, or Terminated).
	ErrHandlerNotReady = errors.New("handler is not in the Ready state")

	// ErrAlreadyTerminated is returned by a second call to shutDown.
	ErrAlreadyTerminated = errors.New("handler already terminated")
)

// assemblyError wraps a fatal failure encountered while binding the
// accessor topology together in HandlerAssembler. Every assemblyError
// names the metadata identifiers it was resolving when it failed, so a
// construction failure is always actionable from the message alone.
type assemblyError struct {
	stage   string
	detail  string
	wrapped error
}

func (e *assemblyError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("partkv: assembly failed at %s: %s: %v", e.stage, e.detail, e.wrapped)
	}
	return fmt.Sprintf("partkv: assembly failed at %s: %s", e.stage, e.detail)
}

func (e *assemblyError) Unwrap() error { return e.wrapped }

func errAssembly(stage, detail string, wrapped error) error {
	return &assemblyError{stage: stage, detail: detail, wrapped: wrapped}
}

// versionMismatchError is the specific assembly-fatal condition where a
// reader's self-reported version disagrees with the version metadata
// dictates. It is never silently tolerated (spec section 4.5/7).
type versionMismatchError struct {
	domainID        uint32
	partitionNumber int
	wantVersion     int64
	gotVersion      int64
}

func (e *versionMismatchError) Error() string {
	return fmt.Sprintf("partkv: version mismatch for domain %d partition %d: metadata dictates version %d, reader reports %d",
		e.domainID, e.partitionNumber, e.wantVersion, e.gotVersion)
}
