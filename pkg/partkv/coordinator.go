package partkv

// Coordinator is the external cluster-metadata collaborator. It exposes
// the graph HandlerAssembler resolves at startup: ring-groups -> rings ->
// hosts -> host-domains -> partitions, and domain-groups -> domain-group-
// versions -> per-domain versions. The core never calls back into this
// interface once assembly succeeds.
type Coordinator interface {
	// RingGroup returns the named ring-group, or ok=false if unknown.
	RingGroup(name string) (RingGroup, bool)

	// DomainGroup returns the named domain-group, or ok=false if unknown.
	DomainGroup(name string) (DomainGroup, bool)
}

// RingGroup owns a set of rings and is attached to exactly one domain-group.
type RingGroup struct {
	Name            string
	Rings           []Ring
	DomainGroupName string
}

// Ring owns a set of hosts and pins them to an effective domain-group
// version, either "current" or (while a rollout is in progress)
// "updating-to".
type Ring struct {
	Hosts          []Host
	CurrentVersion int64 // 0 with HasCurrent=false means absent
	HasCurrent     bool
	UpdatingToVer  int64
	HasUpdatingTo  bool
}

// HostByAddress returns the Host whose network identity matches addr.
func (r Ring) HostByAddress(addr string) (Host, bool) {
	for _, h := range r.Hosts {
		if h.Address == addr {
			return h, true
		}
	}
	return Host{}, false
}

// EffectiveVersion chooses the ring's updating-to version if present, else
// its current version. ok is false if both are absent.
func (r Ring) EffectiveVersion() (version int64, ok bool) {
	if r.HasUpdatingTo {
		return r.UpdatingToVer, true
	}
	if r.HasCurrent {
		return r.CurrentVersion, true
	}
	return 0, false
}

// Host is one partition server in a Ring, identified by network address,
// hosting zero or more HostDomain bindings.
type Host struct {
	Address     string
	HostDomains map[uint32]HostDomain // keyed by domain id
}

// HostDomain returns the host's binding for the given domain, if any.
func (h Host) HostDomain(domainID uint32) (HostDomain, bool) {
	hd, ok := h.HostDomains[domainID]
	return hd, ok
}

// HostDomain is the set of partitions of one domain assigned to one host.
type HostDomain struct {
	DomainID   uint32
	Partitions []Partition
}

// Partition is one (domainId, partitionNumber) assignment on a host, along
// with the metadata the assembler needs to decide whether and at what
// version to open a reader for it.
type Partition struct {
	PartitionNumber int

	// CurrentVersion is the version this partition's data is materialized
	// at on this host, if known. A partition with HasCurrentVersion==false
	// is skipped (logged) during assembly; its accessor slot stays empty.
	CurrentVersion    int64
	HasCurrentVersion bool

	// CurrentDomainGroupVersion names the domain-group-version number this
	// partition's data was last brought up to date against. The assembler
	// resolves the version the partition *should* be at by looking this
	// domain-group-version up and reading its per-domain version for the
	// partition's domain.
	CurrentDomainGroupVersion int64
}

// DomainGroup owns a sequence of immutable, numbered snapshots
// (DomainGroupVersion) of a fixed set of domains.
type DomainGroup struct {
	Name     string
	Versions map[int64]DomainGroupVersion
}

// VersionByNumber returns the domain-group-version numbered n.
func (dg DomainGroup) VersionByNumber(n int64) (DomainGroupVersion, bool) {
	v, ok := dg.Versions[n]
	return v, ok
}

// DomainGroupVersion pins one version per constituent domain.
type DomainGroupVersion struct {
	Number  int64
	Domains []Domain // the domains known to this version

	// DomainVersions maps domain id to the version that domain is pinned
	// to in this snapshot.
	DomainVersions map[uint32]int64
}

// Domain is a logical key-value namespace, fixed-partitioned, with a
// partitioner and a storage engine used to open readers for its
// partitions. Immutable for the lifetime of a Handler.
type Domain struct {
	ID                  uint32
	Name                string
	NumParts            int
	Partitioner         Partitioner
	StorageEngine       StorageEngine
	StorageEngineConfig string
}
