package partkv

import (
	"strconv"
	"sync/atomic"
)

// partitionIdentity names one partition within one domain.
type partitionIdentity struct {
	domainID        uint32
	domainName      string
	partitionNumber int
}

// PartitionAccessor binds one local partition to its reader and tracks
// opaque per-partition counters. Counters are advisory; they are updated
// on every call but are not part of the serving contract and need not be
// globally consistent (spec section 5, section 8).
type PartitionAccessor struct {
	id     partitionIdentity
	reader PartitionReader

	hits   atomic.Uint64
	misses atomic.Uint64
	errs   atomic.Uint64

	m *metrics
}

func newPartitionAccessor(id partitionIdentity, reader PartitionReader, m *metrics) *PartitionAccessor {
	return &PartitionAccessor{id: id, reader: reader, m: m}
}

// get delegates to the underlying reader, bumping advisory counters.
func (a *PartitionAccessor) get(key []byte, scratch *Scratch) ReadOutcome {
	outcome := a.reader.Read(key, scratch)
	switch {
	case outcome.isFound():
		a.hits.Add(1)
	case outcome.isNotFound():
		a.misses.Add(1)
	default:
		a.errs.Add(1)
	}
	if a.m != nil {
		domain := a.id.domainName
		part := strconv.Itoa(a.id.partitionNumber)
		switch {
		case outcome.isFound():
			a.m.partitionHits.WithLabelValues(domain, part).Inc()
		case outcome.isNotFound():
			a.m.partitionMisses.WithLabelValues(domain, part).Inc()
		default:
			a.m.partitionErrors.WithLabelValues(domain, part).Inc()
		}
	}
	return outcome
}

func (a *PartitionAccessor) shutDown() error {
	return a.reader.Close()
}

// DomainAccessor owns the dense, never-resized partition-accessor table
// for one domain and routes a key to the right slot through the domain's
// Partitioner.
type DomainAccessor struct {
	domainID    uint32
	name        string
	partitioner Partitioner
	slots       []*PartitionAccessor // len == domain.NumParts; nil entries are empty slots
}

func newDomainAccessor(domainID uint32, name string, numParts int, partitioner Partitioner) *DomainAccessor {
	return &DomainAccessor{
		domainID:    domainID,
		name:        name,
		partitioner: partitioner,
		slots:       make([]*PartitionAccessor, numParts),
	}
}

func (d *DomainAccessor) install(partitionNumber int, a *PartitionAccessor) {
	d.slots[partitionNumber] = a
}

// get routes key to its partition and delegates, per spec section 4.4:
//  1. idx = partitioner.Partition(key, P); idx out of range => IoFailure.
//  2. empty slot => ErrPartitionUnavailable (as an IoFailure outcome).
//  3. otherwise delegate.
func (d *DomainAccessor) get(key []byte, scratch *Scratch) ReadOutcome {
	idx := d.partitioner.Partition(key, len(d.slots))
	if idx < 0 || idx >= len(d.slots) {
		return IoFailure(ErrPartitionerOutOfRange)
	}
	acc := d.slots[idx]
	if acc == nil {
		return IoFailure(ErrPartitionUnavailable)
	}
	return acc.get(key, scratch)
}

// shutDown shuts down every non-empty slot's reader, domain ascending /
// partition ascending order is enforced by the Handler that calls this
// across domains in id order and by slots being a dense, ordered array.
func (d *DomainAccessor) shutDown(logger Logger) {
	for i, acc := range d.slots {
		if acc == nil {
			continue
		}
		if err := acc.shutDown(); err != nil {
			logger.Log(LogLevelWarn, "error closing partition reader during shutdown",
				"domain", d.name, "partition", i, "err", err)
		}
	}
}
