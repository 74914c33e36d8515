package filewriter

import (
	"encoding/binary"
	"fmt"
	"math"

	vrs "github.com/go-vrs/vrs"
)

// indexEntrySize is one IndexEntry's fixed on-disk size in bytes.
const indexEntrySize = 4 + 2 + 1 + 8 + 8 + 4

// IndexEntrySize is an exported alias of indexEntrySize, for callers
// outside this package (filereader) that need to size index reads
// without duplicating the layout.
const IndexEntrySize = indexEntrySize

// IndexEntry records one record's location and identity for random access.
type IndexEntry struct {
	StreamTypeID     uint32
	StreamInstanceID uint16
	RecordType       uint8
	Timestamp        float64
	FileOffset       uint64
	DiskSize         uint32
}

// StreamID reconstructs the vrs.StreamId this entry describes.
func (e IndexEntry) StreamID() vrs.StreamId {
	return vrs.StreamId{TypeId: vrs.RecordableTypeId(e.StreamTypeID), InstanceId: e.StreamInstanceID}
}

// MarshalBinary encodes e into indexEntrySize bytes.
func (e IndexEntry) MarshalBinary() []byte {
	buf := make([]byte, indexEntrySize)
	i := 0
	binary.LittleEndian.PutUint32(buf[i:], e.StreamTypeID)
	i += 4
	binary.LittleEndian.PutUint16(buf[i:], e.StreamInstanceID)
	i += 2
	buf[i] = e.RecordType
	i++
	binary.LittleEndian.PutUint64(buf[i:], math.Float64bits(e.Timestamp))
	i += 8
	binary.LittleEndian.PutUint64(buf[i:], e.FileOffset)
	i += 8
	binary.LittleEndian.PutUint32(buf[i:], e.DiskSize)
	return buf
}

// UnmarshalIndexEntry decodes one IndexEntry from buf.
func UnmarshalIndexEntry(buf []byte) (IndexEntry, error) {
	if len(buf) < indexEntrySize {
		return IndexEntry{}, fmt.Errorf("filewriter: index entry truncated: got %d bytes, need %d", len(buf), indexEntrySize)
	}
	var e IndexEntry
	i := 0
	e.StreamTypeID = binary.LittleEndian.Uint32(buf[i:])
	i += 4
	e.StreamInstanceID = binary.LittleEndian.Uint16(buf[i:])
	i += 2
	e.RecordType = buf[i]
	i++
	e.Timestamp = math.Float64frombits(binary.LittleEndian.Uint64(buf[i:]))
	i += 8
	e.FileOffset = binary.LittleEndian.Uint64(buf[i:])
	i += 8
	e.DiskSize = binary.LittleEndian.Uint32(buf[i:])
	return e, nil
}

// Index accumulates IndexEntry rows as records are emitted, and decides
// between the in-place-preallocated layout and a trailing index per
// SPEC_FULL.md §5 Open Question 2: NewIndex(n) reserves n
// IndexEntry slots right after the file header; at close, if the
// actual record count fits, that reserved region is rewritten in place
// (no trailer, the file is streamable); otherwise the reservation is
// left unused and a full trailer index is appended instead.
type Index struct {
	entries      []IndexEntry
	preallocated int
}

// NewIndex returns an Index that will try to fit within preallocated
// slots before falling back to a trailer.
func NewIndex(preallocated int) *Index {
	return &Index{preallocated: preallocated}
}

// Append records one more entry in emission order.
func (idx *Index) Append(e IndexEntry) {
	idx.entries = append(idx.entries, e)
}

// Entries returns every recorded entry in emission order.
func (idx *Index) Entries() []IndexEntry { return idx.entries }

// FitsInPreallocation reports whether every entry recorded so far fits
// within the slots reserved by NewIndex.
func (idx *Index) FitsInPreallocation() bool {
	return len(idx.entries) <= idx.preallocated
}

// Preallocated returns the number of IndexEntry slots reserved after
// the file header.
func (idx *Index) Preallocated() int { return idx.preallocated }

// MarshalBinary concatenates every entry's binary encoding in emission order.
func (idx *Index) MarshalBinary() []byte {
	buf := make([]byte, 0, len(idx.entries)*indexEntrySize)
	for _, e := range idx.entries {
		buf = append(buf, e.MarshalBinary()...)
	}
	return buf
}

// ParseIndex decodes a contiguous run of IndexEntry records from buf.
func ParseIndex(buf []byte) ([]IndexEntry, error) {
	if len(buf)%indexEntrySize != 0 {
		return nil, fmt.Errorf("filewriter: index region size %d is not a multiple of entry size %d", len(buf), indexEntrySize)
	}
	n := len(buf) / indexEntrySize
	out := make([]IndexEntry, n)
	for i := 0; i < n; i++ {
		e, err := UnmarshalIndexEntry(buf[i*indexEntrySize : (i+1)*indexEntrySize])
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}
