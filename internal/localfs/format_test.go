package localfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringserve/partkv/pkg/partkv"
)

func writeAndOpen(t *testing.T, codec Codec, records []Record) *Reader {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, WriteSegment(root, 0, 7, codec, records))
	r, err := Open(root, 0)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSegmentRoundTripAcrossCodecs(t *testing.T) {
	records := []Record{
		{Key: []byte("alice"), Value: []byte("engineer")},
		{Key: []byte("bob"), Value: []byte("designer")},
		{Key: []byte("carol"), Value: []byte("")}, // empty value must survive too
	}

	for _, codec := range []Codec{CodecZstd, CodecSnappy, CodecLZ4} {
		codec := codec
		t.Run(codecName(codec), func(t *testing.T) {
			r := writeAndOpen(t, codec, records)

			for _, rec := range records {
				scratch := &partkv.Scratch{}
				out := r.Read(rec.Key, scratch)
				require.Truef(t, out.IsFound(), "key %q should be found", rec.Key)
				val, _ := out.Value()
				assert.Equal(t, string(rec.Value), string(val))
			}

			missing := &partkv.Scratch{}
			out := r.Read([]byte("dave"), missing)
			assert.True(t, out.IsNotFound())

			version, ok := r.VersionNumber()
			assert.True(t, ok)
			assert.Equal(t, int64(7), version)
		})
	}
}

func TestReaderMissingVersionFileReportsUnknown(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, WriteSegment(root, 0, 1, CodecZstd, []Record{{Key: []byte("k"), Value: []byte("v")}}))
	require.NoError(t, os.Remove(root+"/0.version"))

	r, err := Open(root, 0)
	require.NoError(t, err)
	defer r.Close()

	_, ok := r.VersionNumber()
	assert.False(t, ok)
}

func codecName(c Codec) string {
	switch c {
	case CodecZstd:
		return "zstd"
	case CodecSnappy:
		return "snappy"
	case CodecLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}
