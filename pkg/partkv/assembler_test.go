package partkv

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseRingGroup(hostAddr string) RingGroup {
	return RingGroup{
		Name:            "ring1",
		DomainGroupName: "dg1",
		Rings: []Ring{{
			CurrentVersion: 1,
			HasCurrent:     true,
			Hosts: []Host{{
				Address: hostAddr,
				HostDomains: map[uint32]HostDomain{
					1: {DomainID: 1, Partitions: []Partition{
						{PartitionNumber: 0, CurrentVersion: 1, HasCurrentVersion: true, CurrentDomainGroupVersion: 1},
					}},
				},
			}},
		}},
	}
}

func baseDomainGroup(engine StorageEngine) DomainGroup {
	return DomainGroup{
		Name: "dg1",
		Versions: map[int64]DomainGroupVersion{
			1: {
				Number: 1,
				Domains: []Domain{{
					ID:                  1,
					Name:                "people",
					NumParts:            1,
					Partitioner:         stubPartitioner{fixed: 0},
					StorageEngine:       engine,
					StorageEngineConfig: "root",
				}},
				DomainVersions: map[uint32]int64{1: 1},
			},
		},
	}
}

type fakeEngineAtVersion struct{ version int64 }

func (f fakeEngineAtVersion) OpenReader(config string, partitionNumber int) (PartitionReader, error) {
	return &fakeReader{version: f.version, hasVer: true}, nil
}

func TestAssembleRequiresRingGroupName(t *testing.T) {
	a := NewHandlerAssembler(fixedCoordinator{}, "host-a")
	_, err := a.Assemble()
	assert.Error(t, err)
}

func TestAssembleFailsOnUnknownRingGroup(t *testing.T) {
	a := NewHandlerAssembler(fixedCoordinator{}, "host-a")
	_, err := a.Assemble(WithRingGroupName("nope"))
	assert.Error(t, err)
}

func TestAssembleFailsWhenHostNotInAnyRing(t *testing.T) {
	coordinator := fixedCoordinator{
		ring:        baseRingGroup("some-other-host"),
		domainGroup: baseDomainGroup(fakeEngineAtVersion{version: 1}),
	}
	a := NewHandlerAssembler(coordinator, "host-a")
	_, err := a.Assemble(WithRingGroupName("ring1"), WithRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestAssembleFailsOnVersionMismatch(t *testing.T) {
	coordinator := fixedCoordinator{
		ring:        baseRingGroup("host-a"),
		domainGroup: baseDomainGroup(fakeEngineAtVersion{version: 2}), // metadata wants version 1
	}
	a := NewHandlerAssembler(coordinator, "host-a")
	_, err := a.Assemble(WithRingGroupName("ring1"), WithRegisterer(prometheus.NewRegistry()))
	require.Error(t, err)

	var mismatch *versionMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestAssembleSucceedsAndProducesReadyHandler(t *testing.T) {
	coordinator := fixedCoordinator{
		ring:        baseRingGroup("host-a"),
		domainGroup: baseDomainGroup(fakeEngineAtVersion{version: 1}),
	}
	a := NewHandlerAssembler(coordinator, "host-a")
	h, err := a.Assemble(WithRingGroupName("ring1"), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer h.ShutDown()

	assert.Equal(t, stateReady, h.currentState())
}

func TestAssembleSkipsPartitionWithNoCurrentVersion(t *testing.T) {
	ring := baseRingGroup("host-a")
	ring.Rings[0].Hosts[0].HostDomains[1] = HostDomain{
		DomainID: 1,
		Partitions: []Partition{
			{PartitionNumber: 0, HasCurrentVersion: false},
		},
	}
	coordinator := fixedCoordinator{ring: ring, domainGroup: baseDomainGroup(fakeEngineAtVersion{version: 1})}

	a := NewHandlerAssembler(coordinator, "host-a")
	h, err := a.Assemble(WithRingGroupName("ring1"), WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err, "a partition with no current version is skipped, not fatal")
	defer h.ShutDown()

	dom := h.domainAccessor(1)
	require.NotNil(t, dom)
	assert.Nil(t, dom.slots[0], "the skipped partition's slot must stay empty")
}

func TestAssembleFailsOnOutOfRangePartitionNumber(t *testing.T) {
	ring := baseRingGroup("host-a")
	ring.Rings[0].Hosts[0].HostDomains[1] = HostDomain{
		DomainID: 1,
		Partitions: []Partition{
			// domain has NumParts=1, so partition 5 is out of range.
			{PartitionNumber: 5, CurrentVersion: 1, HasCurrentVersion: true, CurrentDomainGroupVersion: 1},
		},
	}
	coordinator := fixedCoordinator{ring: ring, domainGroup: baseDomainGroup(fakeEngineAtVersion{version: 1})}

	a := NewHandlerAssembler(coordinator, "host-a")
	_, err := a.Assemble(WithRingGroupName("ring1"), WithRegisterer(prometheus.NewRegistry()))
	require.Error(t, err, "an out-of-range partition number from the coordinator must be a fatal assembly error, not a panic")
}
