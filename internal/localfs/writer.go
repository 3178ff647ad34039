package localfs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Record is one key/value pair to materialize into a segment.
type Record struct {
	Key   []byte
	Value []byte
}

// WriteSegment builds an immutable segment file for partitionNumber under
// root, compressing each value with codec, and writes a sibling version
// file. It exists to make the reference storage engine self-contained for
// tests; the write path itself is out of
// scope for the serving core (spec section 1, Non-goals).
func WriteSegment(root string, partitionNumber int, version int64, codec Codec, records []Record) error {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return string(sorted[i].Key) < string(sorted[j].Key)
	})

	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}

	segPath := filepath.Join(root, segmentFileName(partitionNumber))
	f, err := os.Create(segPath)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.Write([]byte{byte(codec)}); err != nil {
		return err
	}

	compress, closeCompressor, err := newCompressFunc(codec)
	if err != nil {
		return err
	}
	defer closeCompressor()

	for _, rec := range sorted {
		compressed, err := compress(rec.Value)
		if err != nil {
			return err
		}
		if err := writeRecord(bw, rec.Key, compressed); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	verPath := filepath.Join(root, versionFileName(partitionNumber))
	return os.WriteFile(verPath, []byte(fmt.Sprintf("%d", version)), 0o644)
}

// newCompressFunc returns a per-value compressor for codec and a closer to
// release any resources the compressor holds.
func newCompressFunc(codec Codec) (compress func([]byte) ([]byte, error), closer func(), err error) {
	switch codec {
	case CodecZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, nil, err
		}
		return func(v []byte) ([]byte, error) {
			return enc.EncodeAll(v, nil), nil
		}, func() { enc.Close() }, nil
	case CodecSnappy:
		return func(v []byte) ([]byte, error) {
			return snappy.Encode(nil, v), nil
		}, func() {}, nil
	case CodecLZ4:
		// lz4's block API needs the original length to decompress, so we
		// prefix it: uint32 original length, 1 stored/compressed flag
		// byte, then the payload (lz4 signals "incompressible" with
		// CompressBlock returning n==0, in which case we store v as-is).
		return func(v []byte) ([]byte, error) {
			block := make([]byte, lz4.CompressBlockBound(len(v)))
			var c lz4.Compressor
			n, err := c.CompressBlock(v, block)
			if err != nil {
				return nil, err
			}
			payload, stored := block[:n], byte(0)
			if n == 0 {
				payload, stored = v, 1
			}
			out := make([]byte, 5+len(payload))
			binary.BigEndian.PutUint32(out, uint32(len(v)))
			out[4] = stored
			copy(out[5:], payload)
			return out, nil
		}, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("localfs: unknown codec %d", codec)
	}
}
