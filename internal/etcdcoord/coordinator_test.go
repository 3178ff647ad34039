package etcdcoord

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringserve/partkv/pkg/partkv"
)

type stubPartitioner struct{}

func (stubPartitioner) Partition(key []byte, numPartitions int) int { return 0 }

type stubEngine struct{}

func (stubEngine) OpenReader(config string, partitionNumber int) (partkv.PartitionReader, error) {
	return nil, nil
}

func TestHydrateRingCurrentAndUpdatingToVersions(t *testing.T) {
	current := int64(3)
	updating := int64(4)
	wr := wireRing{
		CurrentVersion: &current,
		UpdatingTo:     &updating,
		Hosts: []wireHost{{
			Address: "host-a",
			HostDomains: map[uint32]wireHostDomain{
				1: {DomainID: 1, Partitions: []wirePartition{{PartitionNumber: 0, CurrentDomainGroupVersion: 3}}},
			},
		}},
	}

	want := partkv.Ring{
		CurrentVersion: 3,
		HasCurrent:     true,
		UpdatingToVer:  4,
		HasUpdatingTo:  true,
		Hosts: []partkv.Host{{
			Address: "host-a",
			HostDomains: map[uint32]partkv.HostDomain{
				1: {DomainID: 1, Partitions: []partkv.Partition{{PartitionNumber: 0, CurrentDomainGroupVersion: 3}}},
			},
		}},
	}

	got := hydrateRing(wr)
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("hydrateRing mismatch (-want +got):\n%s", diff)
	}

	hd, ok := got.Hosts[0].HostDomain(1)
	require.True(t, ok)
	require.Len(t, hd.Partitions, 1)
	assert.False(t, hd.Partitions[0].HasCurrentVersion)
}

func TestCoordinatorHydrateDomainResolvesRegistry(t *testing.T) {
	c := &Coordinator{
		registry: Registry{
			Partitioners:   map[string]partkv.Partitioner{"stub": stubPartitioner{}},
			StorageEngines: map[string]partkv.StorageEngine{"stub": stubEngine{}},
		},
	}

	d, err := c.hydrateDomain(wireDomain{
		ID:                1,
		Name:              "people",
		NumParts:          4,
		PartitionerName:   "stub",
		StorageEngineName: "stub",
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), d.ID)
	assert.Equal(t, 4, d.NumParts)
	assert.NotNil(t, d.Partitioner)
	assert.NotNil(t, d.StorageEngine)
}

func TestCoordinatorHydrateDomainUnknownPartitioner(t *testing.T) {
	c := &Coordinator{registry: Registry{
		Partitioners:   map[string]partkv.Partitioner{},
		StorageEngines: map[string]partkv.StorageEngine{"stub": stubEngine{}},
	}}

	_, err := c.hydrateDomain(wireDomain{Name: "people", PartitionerName: "missing", StorageEngineName: "stub"})
	assert.Error(t, err)
}

func TestCoordinatorHydrateDomainUnknownStorageEngine(t *testing.T) {
	c := &Coordinator{registry: Registry{
		Partitioners:   map[string]partkv.Partitioner{"stub": stubPartitioner{}},
		StorageEngines: map[string]partkv.StorageEngine{},
	}}

	_, err := c.hydrateDomain(wireDomain{Name: "people", PartitionerName: "stub", StorageEngineName: "missing"})
	assert.Error(t, err)
}
