package partkv

import (
	"fmt"

	"golang.org/x/sync/semaphore"
)

// HandlerAssembler boots the core: resolves metadata from a Coordinator,
// validates version consistency, and constructs the accessor tables that
// back a Handler. This is the single point where metadata inconsistency
// is detected; once Assemble returns successfully the serving path
// performs no further metadata lookups (spec section 4.5).
type HandlerAssembler struct {
	coordinator Coordinator
	hostAddress string
}

// NewHandlerAssembler builds an assembler bound to the given coordinator
// and this host's network identity (as it appears in the coordinator's
// Ring.Hosts).
func NewHandlerAssembler(coordinator Coordinator, hostAddress string) *HandlerAssembler {
	return &HandlerAssembler{coordinator: coordinator, hostAddress: hostAddress}
}

// Assemble runs the binding algorithm described in spec section 4.5 and
// returns a Handler in the Ready state, or a non-nil error describing
// exactly which step failed. On error, no Handler is produced.
func (a *HandlerAssembler) Assemble(opts ...Opt) (*Handler, error) {
	c := newCfg(opts...)
	if c.ringGroupName == "" {
		return nil, errAssembly("config", "ringGroupName is required", nil)
	}
	if c.numConcurrentGets <= 0 {
		return nil, errAssembly("config", "numConcurrentGets must be positive", nil)
	}

	// Step 1-2: locate the ring containing this host, and the domain-group
	// attached to that ring's ring-group.
	ringGroup, ok := a.coordinator.RingGroup(c.ringGroupName)
	if !ok {
		return nil, errAssembly("ring-group lookup", "no ring-group named "+c.ringGroupName, nil)
	}

	var (
		ring  Ring
		host  Host
		found bool
	)
	for _, r := range ringGroup.Rings {
		if h, ok := r.HostByAddress(a.hostAddress); ok {
			ring, host, found = r, h, true
			break
		}
	}
	if !found {
		return nil, errAssembly("ring lookup", "no ring in ring-group "+c.ringGroupName+" contains host "+a.hostAddress, nil)
	}

	domainGroup, ok := a.coordinator.DomainGroup(ringGroup.DomainGroupName)
	if !ok {
		return nil, errAssembly("domain-group lookup", "no domain-group named "+ringGroup.DomainGroupName, nil)
	}

	// Step 3: choose the effective version.
	effectiveVersion, ok := ring.EffectiveVersion()
	if !ok {
		return nil, errAssembly("effective version", "ring has neither an updating-to nor a current version", nil)
	}

	// Step 4: fetch the domain-group-version for that number.
	dgv, ok := domainGroup.VersionByNumber(effectiveVersion)
	if !ok {
		return nil, errAssembly("domain-group-version lookup",
			fmt.Sprintf("domain-group %s has no version numbered %d", ringGroup.DomainGroupName, effectiveVersion), nil)
	}

	// Step 6: compute maxDomainId, allocate the domain-accessor table.
	var maxDomainID uint32
	for _, d := range dgv.Domains {
		if d.ID > maxDomainID {
			maxDomainID = d.ID
		}
	}
	domains := make([]*DomainAccessor, maxDomainID+1)

	m := newMetrics(c.reg, c.metricsNamespace())

	// Step 7: for each domain in the domain-group-version.
	for _, domain := range dgv.Domains {
		hostDomain, ok := host.HostDomain(domain.ID)
		if !ok {
			return nil, errAssembly("host-domain lookup", "host "+a.hostAddress+" has no binding for domain "+domain.Name, nil)
		}

		partAccessors := make([]*PartitionAccessor, domain.NumParts)

		for _, p := range hostDomain.Partitions {
			if !p.HasCurrentVersion {
				c.logger.Log(LogLevelInfo, "partition has no current version, skipping",
					"domain", domain.Name, "partition", p.PartitionNumber)
				continue
			}

			if p.PartitionNumber < 0 || p.PartitionNumber >= len(partAccessors) {
				return nil, errAssembly("partition index",
					fmt.Sprintf("domain %s has no partition %d (numParts=%d)", domain.Name, p.PartitionNumber, domain.NumParts), nil)
			}

			wantDGV, ok := domainGroup.VersionByNumber(p.CurrentDomainGroupVersion)
			if !ok {
				return nil, errAssembly("partition domain-version resolution",
					fmt.Sprintf("domain %s partition %d: current domain-group-version %d is unresolvable",
						domain.Name, p.PartitionNumber, p.CurrentDomainGroupVersion), nil)
			}
			wantVersion, ok := wantDGV.DomainVersions[domain.ID]
			if !ok {
				return nil, errAssembly("partition domain-version resolution",
					fmt.Sprintf("domain-group-version %d does not pin a version for domain %s",
						p.CurrentDomainGroupVersion, domain.Name), nil)
			}

			reader, err := domain.StorageEngine.OpenReader(domain.StorageEngineConfig, p.PartitionNumber)
			if err != nil {
				return nil, errAssembly("open reader", "domain "+domain.Name, err)
			}

			if gotVersion, ok := reader.VersionNumber(); ok && gotVersion != wantVersion {
				return nil, &versionMismatchError{
					domainID:        domain.ID,
					partitionNumber: p.PartitionNumber,
					wantVersion:     wantVersion,
					gotVersion:      gotVersion,
				}
			}

			id := partitionIdentity{domainID: domain.ID, domainName: domain.Name, partitionNumber: p.PartitionNumber}
			partAccessors[p.PartitionNumber] = newPartitionAccessor(id, reader, m)
		}

		da := newDomainAccessor(domain.ID, domain.Name, domain.NumParts, domain.Partitioner)
		for i, pa := range partAccessors {
			if pa != nil {
				da.install(i, pa)
			}
		}
		domains[domain.ID] = da
		c.logger.Log(LogLevelDebug, "domain assembled", "domain", domain.Name, "table", dumpForLog(hostDomain))
	}

	h := &Handler{
		cfg:      c,
		state:    stateReady,
		domains:  domains,
		executor: NewRequestExecutor(c.numConcurrentGets, c.logger),
		metrics:  m,
	}
	if c.maxBulkInFlight > 0 {
		h.bulkSem = semaphore.NewWeighted(int64(c.maxBulkInFlight))
	}
	return h, nil
}

func (c cfg) metricsNamespace() string {
	if c.metricsNS != "" {
		return c.metricsNS
	}
	return "partkv"
}
