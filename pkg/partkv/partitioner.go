package partkv

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/crypto/blake2b"
)

// Partitioner maps a key byte sequence to a partition index within a
// domain. Implementations must be pure and deterministic across processes
// for the same key: the whole cluster must agree on where a key lives.
type Partitioner interface {
	// Partition returns an index in [0, numPartitions). Callers (the
	// DomainAccessor) treat any other value as a fatal routing error.
	Partition(key []byte, numPartitions int) int
}

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32CPartitioner routes keys by CRC32-Castagnoli mod numPartitions. On
// hardware with an SSE4.2 CRC32 instruction it uses hash/crc32's hardware
// path transparently; cpuid is consulted only to decide whether to log
// that the software table fallback is in effect, since hash/crc32 itself
// already picks the fast path internally when available.
type CRC32CPartitioner struct {
	logger Logger
}

// NewCRC32CPartitioner builds the default partitioner. logger may be nil.
func NewCRC32CPartitioner(logger Logger) *CRC32CPartitioner {
	if logger == nil {
		logger = nopLogger{}
	}
	p := &CRC32CPartitioner{logger: logger}
	if !cpuid.CPU.Supports(cpuid.SSE42) {
		logger.Log(LogLevelDebug, "cpu lacks sse4.2, crc32c partitioner will use the software castagnoli table")
	}
	return p
}

func (p *CRC32CPartitioner) Partition(key []byte, numPartitions int) int {
	if numPartitions <= 0 {
		return -1
	}
	sum := crc32.Checksum(key, castagnoliTable)
	return int(sum % uint32(numPartitions))
}

// Blake2bPartitioner routes keys by the first 8 bytes of a BLAKE2b-256
// digest, read as a big-endian uint64, mod numPartitions. Use this instead of CRC32CPartitioner when keys are
// attacker-influenced and you want a pre-image-resistant mapping so a
// client cannot deliberately pile keys onto a single partition.
type Blake2bPartitioner struct{}

// NewBlake2bPartitioner builds a Blake2bPartitioner.
func NewBlake2bPartitioner() *Blake2bPartitioner { return &Blake2bPartitioner{} }

func (Blake2bPartitioner) Partition(key []byte, numPartitions int) int {
	if numPartitions <= 0 {
		return -1
	}
	sum := blake2b.Sum256(key)
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(numPartitions))
}
