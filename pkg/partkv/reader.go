package partkv

// ReadOutcome is the result of a single PartitionReader.Read call.
type ReadOutcome struct {
	kind  readOutcomeKind
	value []byte // only valid when kind == readFound; view backed by caller's scratch buffer
	err   error  // only valid when kind == readIOFailure
}

type readOutcomeKind uint8

const (
	readNotFound readOutcomeKind = iota
	readFound
	readIOFailure
)

// Found reports a successful lookup. The returned ReadOutcome's value may
// be backed by the scratch buffer passed to Read and is only valid until
// the next call against that buffer.
func Found(value []byte) ReadOutcome { return ReadOutcome{kind: readFound, value: value} }

// NotFound reports that the key is absent from the partition.
func NotFound() ReadOutcome { return ReadOutcome{kind: readNotFound} }

// IoFailure reports a low-level read failure (disk error, corruption, ...).
func IoFailure(err error) ReadOutcome { return ReadOutcome{kind: readIOFailure, err: err} }

func (r ReadOutcome) isFound() bool     { return r.kind == readFound }
func (r ReadOutcome) isNotFound() bool  { return r.kind == readNotFound }
func (r ReadOutcome) isIOFailure() bool { return r.kind == readIOFailure }

// IsFound, IsNotFound and IsIOFailure expose the same three-way outcome to
// callers outside this package (storage engines under test, instrumentation
// wrappers) that only have the exported constructors to build a ReadOutcome
// with in the first place.
func (r ReadOutcome) IsFound() bool     { return r.isFound() }
func (r ReadOutcome) IsNotFound() bool  { return r.isNotFound() }
func (r ReadOutcome) IsIOFailure() bool { return r.isIOFailure() }

// Value returns the found value and ok=true when IsFound, else nil, false.
func (r ReadOutcome) Value() ([]byte, bool) {
	if !r.isFound() {
		return nil, false
	}
	return r.value, true
}

// Err returns the wrapped error when IsIOFailure, else nil.
func (r ReadOutcome) Err() error {
	if !r.isIOFailure() {
		return nil
	}
	return r.err
}

// PartitionReader is an opened, immutable view of one partition at one
// version. Implementations must be safely callable from multiple
// goroutines concurrently *on distinct reader instances*; a single
// instance need not itself be safe for concurrent Read calls, which is
// why every RequestExecutor worker brings its own scratch buffer rather
// than sharing one, and why a reader may internally serialize concurrent
// calls if it needs to.
type PartitionReader interface {
	// Read looks up key, placing any found value's bytes into scratch
	// (growing it as needed) and returning a view backed by scratch.
	Read(key []byte, scratch *Scratch) ReadOutcome

	// VersionNumber returns the version this reader believes it is
	// serving, or ok=false if the reader cannot report one.
	VersionNumber() (version int64, ok bool)

	// Close releases whatever resources (file handles, decoders) this
	// reader holds. Called exactly once, during Handler shutdown.
	Close() error
}

// Scratch is a worker-owned, reusable byte buffer that a PartitionReader
// fills in on a successful Read instead of allocating a fresh slice per
// request. Its lifetime is the owning worker's: a response produced from a
// task must copy out of it (or be consumed) before that worker is handed
// its next task.
type Scratch struct {
	buf []byte
}

// Reset returns a zero-length view over the scratch's backing array,
// reusing its capacity.
func (s *Scratch) Reset() []byte {
	s.buf = s.buf[:0]
	return s.buf
}

// Grow ensures the backing array has at least n bytes of capacity and
// returns a zero-length slice over it.
func (s *Scratch) Grow(n int) []byte {
	if cap(s.buf) < n {
		s.buf = make([]byte, 0, n)
	}
	return s.buf[:0]
}

// Bytes returns the current contents.
func (s *Scratch) Bytes() []byte { return s.buf }

// Set overwrites the scratch's logical contents; used by reader
// implementations once they know how much they read.
func (s *Scratch) Set(b []byte) { s.buf = b }

// StorageEngine opens partition readers for one domain. One StorageEngine
// instance is shared across all of a domain's partitions.
type StorageEngine interface {
	// OpenReader opens partitionNumber at whatever version is currently
	// materialized on this host for this domain. config is an
	// engine-specific opaque string (e.g. a root directory) supplied by
	// the Domain metadata.
	OpenReader(config string, partitionNumber int) (PartitionReader, error)
}
