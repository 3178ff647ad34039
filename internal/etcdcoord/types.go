// Package etcdcoord is the reference Coordinator: it reads the
// ring-group/ring/host/domain-group metadata graph as JSON documents out
// of etcd and hydrates them into partkv's plain domain types. This mirrors
// the wire-struct/domain-struct split the franz-go family uses between its
// kmsg wire messages and kgo's client-level types: everything in this file
// is the wire shape; coordinator.go does the hydration.
package etcdcoord

// wireRingGroup is the JSON document stored at <prefix>/ring-groups/<name>.
type wireRingGroup struct {
	Name            string     `json:"name"`
	DomainGroupName string     `json:"domainGroupName"`
	Rings           []wireRing `json:"rings"`
}

type wireRing struct {
	Hosts          []wireHost `json:"hosts"`
	CurrentVersion *int64     `json:"currentVersion,omitempty"`
	UpdatingTo     *int64     `json:"updatingToVersion,omitempty"`
}

type wireHost struct {
	Address     string                    `json:"address"`
	HostDomains map[uint32]wireHostDomain `json:"hostDomains"`
}

type wireHostDomain struct {
	DomainID   uint32          `json:"domainId"`
	Partitions []wirePartition `json:"partitions"`
}

type wirePartition struct {
	PartitionNumber           int    `json:"partitionNumber"`
	CurrentVersion            *int64 `json:"currentVersion,omitempty"`
	CurrentDomainGroupVersion int64  `json:"currentDomainGroupVersion"`
}

// wireDomainGroup is the JSON document stored at <prefix>/domain-groups/<name>.
type wireDomainGroup struct {
	Name     string                       `json:"name"`
	Versions map[int64]wireDomainGroupVer `json:"versions"`
}

type wireDomainGroupVer struct {
	Number         int64            `json:"number"`
	Domains        []wireDomain     `json:"domains"`
	DomainVersions map[uint32]int64 `json:"domainVersions"`
}

// wireDomain names a domain's shape and which registered Partitioner /
// StorageEngine implementations to hydrate it with; Partitioner and
// StorageEngine themselves are Go interfaces and cannot come over the
// wire, so the coordinator resolves these names against the Registry
// supplied at construction (see coordinator.go).
type wireDomain struct {
	ID                  uint32 `json:"id"`
	Name                string `json:"name"`
	NumParts            int    `json:"numParts"`
	PartitionerName     string `json:"partitioner"`
	StorageEngineName   string `json:"storageEngine"`
	StorageEngineConfig string `json:"storageEngineConfig"`
}
