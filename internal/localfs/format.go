// Package localfs is the reference StorageEngine: it opens immutable,
// versioned partition segment files from local disk and answers point
// lookups against an in-memory index, decompressing values with the
// segment's codec (zstd, Snappy or LZ4) into the caller's scratch buffer.
package localfs

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Segment file layout, written once by WriteSegment and never mutated after
// (spec: "immutable partition"):
//
//	byte   codec  (Codec constant)
//	repeated {
//	    uint32 keyLen
//	    []byte key
//	    uint32 compressedValLen
//	    []byte compressedValue
//	}
//
// A sibling "<partitionNumber>.version" file, if present, holds a decimal
// version number; its absence means the reader reports VersionNumber as
// unknown rather than disagreeing with metadata.
const recordHeaderLen = 8 // keyLen(4) + compressedValLen(4)

// Codec names the per-segment value compression. zstd is the default;
// Snappy and LZ4 are offered for callers who would rather trade
// compression ratio for faster decode on the read path.
type Codec byte

const (
	CodecZstd Codec = iota
	CodecSnappy
	CodecLZ4
)

func writeRecord(w io.Writer, key, compressedVal []byte) error {
	var hdr [recordHeaderLen]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(key)))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(compressedVal)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(key); err != nil {
		return err
	}
	_, err := w.Write(compressedVal)
	return err
}

// readRecordHeader reads one record's header from r, returning the key and
// compressed-value lengths. io.EOF is returned (unwrapped) when the
// segment is exhausted.
func readRecordHeader(r io.Reader) (keyLen, valLen uint32, err error) {
	var hdr [recordHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, err
	}
	return binary.BigEndian.Uint32(hdr[0:4]), binary.BigEndian.Uint32(hdr[4:8]), nil
}

func segmentFileName(partitionNumber int) string {
	return fmt.Sprintf("%d.segment", partitionNumber)
}

func versionFileName(partitionNumber int) string {
	return fmt.Sprintf("%d.version", partitionNumber)
}
