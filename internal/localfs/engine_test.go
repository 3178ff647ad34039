package localfs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringserve/partkv/pkg/partkv"
)

func TestEngineOpenReaderSatisfiesStorageEngine(t *testing.T) {
	var _ partkv.StorageEngine = NewEngine()

	root := t.TempDir()
	require.NoError(t, WriteSegment(root, 3, 1, CodecSnappy, []Record{{Key: []byte("k"), Value: []byte("v")}}))

	reader, err := NewEngine().OpenReader(root, 3)
	require.NoError(t, err)
	defer reader.Close()

	out := reader.Read([]byte("k"), &partkv.Scratch{})
	require.True(t, out.IsFound())
}
