package compression

import "io"

// RecordReader reads a record's content blocks one at a time from
// whatever underlying storage (compressed or not) the record was
// written in, letting readers consume a record chunk-by-chunk without
// caring whether it was stored compressed. Grounded on the fixed/
// variable record-reading split; there is no single matching original
// source file for this exact façade since the original interleaves it
// with file I/O directly.
type RecordReader interface {
	// Read reads exactly len(p) bytes of decompressed record content
	// into p, or returns an error (including io.ErrUnexpectedEOF).
	Read(p []byte) error
	// Remaining returns how many decompressed bytes are left to read.
	Remaining() int
}

// UncompressedRecordReader reads directly from an in-memory decoded
// record payload.
type UncompressedRecordReader struct {
	data []byte
	pos  int
}

// NewUncompressedRecordReader wraps data for sequential reads.
func NewUncompressedRecordReader(data []byte) *UncompressedRecordReader {
	return &UncompressedRecordReader{data: data}
}

func (r *UncompressedRecordReader) Read(p []byte) error {
	if len(p) > len(r.data)-r.pos {
		return io.ErrUnexpectedEOF
	}
	copy(p, r.data[r.pos:r.pos+len(p)])
	r.pos += len(p)
	return nil
}

func (r *UncompressedRecordReader) Remaining() int {
	return len(r.data) - r.pos
}

// CompressedRecordReader decompresses an entire record's compressed
// bytes up front (records are small enough that this is simpler and
// just as fast as true streaming decompression) and then serves reads
// the same way UncompressedRecordReader does.
type CompressedRecordReader struct {
	inner *UncompressedRecordReader
}

// NewCompressedRecordReader decompresses compressed (of type t,
// expanding to decompressedSize bytes) and returns a reader over the
// result.
func NewCompressedRecordReader(compressed []byte, t Type, decompressedSize int) (*CompressedRecordReader, error) {
	data, err := Decompress(compressed, t, decompressedSize)
	if err != nil {
		return nil, err
	}
	return &CompressedRecordReader{inner: NewUncompressedRecordReader(data)}, nil
}

func (r *CompressedRecordReader) Read(p []byte) error {
	return r.inner.Read(p)
}

func (r *CompressedRecordReader) Remaining() int {
	return r.inner.Remaining()
}
