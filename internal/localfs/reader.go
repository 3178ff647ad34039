package localfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ringserve/partkv/pkg/partkv"
)

// decoderPool shares zstd decoders across reader instances. Building a
// decoder is comparatively expensive; decoders are safe for concurrent use
// across goroutines as long as each call to DecodeAll brings its own
// destination buffer, which is exactly what Read below does.
var decoderPool = sync.Pool{
	New: func() interface{} {
		d, err := zstd.NewReader(nil)
		if err != nil {
			panic(fmt.Sprintf("localfs: building zstd decoder: %v", err))
		}
		return d
	},
}

// Engine is the reference partkv.StorageEngine: config is the root
// directory under which "<partitionNumber>.segment" / ".version" files
// live for one domain.
type Engine struct{}

// NewEngine builds the reference local-filesystem StorageEngine.
func NewEngine() *Engine { return &Engine{} }

func (Engine) OpenReader(root string, partitionNumber int) (partkv.PartitionReader, error) {
	return Open(root, partitionNumber)
}

// Reader is an opened, immutable view of one partition's segment file.
// Concurrent calls to Read against the *same* Reader are safe (reads are
// pure seeks on an os.File index lookup plus a pooled decoder), though
// callers should still bring their own scratch per spec section 4.1/4.6.
type Reader struct {
	f       *os.File
	idx     *segmentIndex
	codec   Codec
	version int64
	hasVer  bool
}

// Open builds a Reader for partitionNumber's segment file under root,
// scanning it once to build the in-memory index.
func Open(root string, partitionNumber int) (*Reader, error) {
	segPath := filepath.Join(root, segmentFileName(partitionNumber))
	f, err := os.Open(segPath)
	if err != nil {
		return nil, err
	}

	codec, idx, err := buildIndex(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	r := &Reader{f: f, idx: idx, codec: codec}

	verPath := filepath.Join(root, versionFileName(partitionNumber))
	if raw, err := os.ReadFile(verPath); err == nil {
		v, parseErr := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
		if parseErr == nil {
			r.version = v
			r.hasVer = true
		}
	}

	return r, nil
}

func buildIndex(f *os.File) (Codec, *segmentIndex, error) {
	var codecByte [1]byte
	if _, err := io.ReadFull(f, codecByte[:]); err != nil {
		return 0, nil, fmt.Errorf("localfs: reading codec byte: %w", err)
	}
	codec := Codec(codecByte[0])

	idx := newSegmentIndex()
	offset := int64(1)
	for {
		keyLen, valLen, err := readRecordHeader(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, nil, err
		}

		key := make([]byte, keyLen)
		if _, err := io.ReadFull(f, key); err != nil {
			return 0, nil, err
		}

		valOffset := offset + recordHeaderLen + int64(keyLen)
		if _, err := f.Seek(int64(valLen), io.SeekCurrent); err != nil {
			return 0, nil, err
		}

		idx.insert(key, valOffset, int64(valLen))
		offset = valOffset + int64(valLen)
	}
	return codec, idx, nil
}

// Read implements partkv.PartitionReader.
func (r *Reader) Read(key []byte, scratch *partkv.Scratch) partkv.ReadOutcome {
	offset, length, ok := r.idx.lookup(key)
	if !ok {
		return partkv.NotFound()
	}

	compressed := make([]byte, length)
	if _, err := r.f.ReadAt(compressed, offset); err != nil {
		return partkv.IoFailure(fmt.Errorf("localfs: reading value at offset %d: %w", offset, err))
	}

	out, err := r.decompress(compressed, scratch)
	if err != nil {
		return partkv.IoFailure(fmt.Errorf("localfs: inflating value: %w", err))
	}
	return partkv.Found(out)
}

func (r *Reader) decompress(compressed []byte, scratch *partkv.Scratch) ([]byte, error) {
	switch r.codec {
	case CodecZstd:
		dec := decoderPool.Get().(*zstd.Decoder)
		defer decoderPool.Put(dec)
		out, err := dec.DecodeAll(compressed, scratch.Reset())
		if err != nil {
			return nil, err
		}
		scratch.Set(out)
		return scratch.Bytes(), nil

	case CodecSnappy:
		n, err := snappy.DecodedLen(compressed)
		if err != nil {
			return nil, err
		}
		dst := scratch.Grow(n)
		out, err := snappy.Decode(dst[:n], compressed)
		if err != nil {
			return nil, err
		}
		scratch.Set(out)
		return scratch.Bytes(), nil

	case CodecLZ4:
		if len(compressed) < 5 {
			return nil, fmt.Errorf("lz4 payload too short")
		}
		origLen := binary.BigEndian.Uint32(compressed[:4])
		stored := compressed[4]
		payload := compressed[5:]
		dst := scratch.Grow(int(origLen))[:origLen]
		if stored == 1 {
			copy(dst, payload)
			scratch.Set(dst)
			return scratch.Bytes(), nil
		}
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, err
		}
		scratch.Set(dst[:n])
		return scratch.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown codec %d", r.codec)
	}
}

// VersionNumber implements partkv.PartitionReader.
func (r *Reader) VersionNumber() (int64, bool) { return r.version, r.hasVer }

// Close implements partkv.PartitionReader.
func (r *Reader) Close() error { return r.f.Close() }
