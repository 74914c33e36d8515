package filereader

import (
	"fmt"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/filewriter"
)

// StreamIndex is the ordered list of IndexEntry rows belonging to one
// stream, the structure getRecord/getRecordByTime binary-search over.
// Grounded on pkg/core/index/content_index.go's per-key sorted-entry
// lookup shape.
type StreamIndex struct {
	StreamID vrs.StreamId
	Entries  []filewriter.IndexEntry
}

// buildStreamIndices groups a flat, on-disk-order index into one
// StreamIndex per stream, preserving each stream's on-disk (and so
// timestamp-non-decreasing, per spec.md §3 invariant 1) order.
func buildStreamIndices(entries []filewriter.IndexEntry) map[vrs.StreamId]*StreamIndex {
	out := map[vrs.StreamId]*StreamIndex{}
	for _, e := range entries {
		id := e.StreamID()
		s := out[id]
		if s == nil {
			s = &StreamIndex{StreamID: id}
			out[id] = s
		}
		s.Entries = append(s.Entries, e)
	}
	return out
}

// RecordCount returns how many entries of recordType (or all
// configuration/state/data entries, if recordType is nil) belong to
// this stream. The stream's own Tag record (synthesized by the file
// writer at close, per spec.md §3) is never counted: it describes the
// stream rather than being one of its records.
func (s *StreamIndex) RecordCount(recordType *vrs.RecordType) int {
	n := 0
	for _, e := range s.Entries {
		t := vrs.RecordType(e.RecordType)
		if t == vrs.Tag {
			continue
		}
		if recordType != nil && t != *recordType {
			continue
		}
		n++
	}
	return n
}

// NthRecord returns the nth (0-based) entry of recordType in this stream.
func (s *StreamIndex) NthRecord(recordType vrs.RecordType, n int) (filewriter.IndexEntry, error) {
	i := 0
	for _, e := range s.Entries {
		if vrs.RecordType(e.RecordType) != recordType {
			continue
		}
		if i == n {
			return e, nil
		}
		i++
	}
	return filewriter.IndexEntry{}, fmt.Errorf("filereader: stream %s has no %s record #%d", s.StreamID, recordType, n)
}

// TagEntry returns this stream's Tag index entry, if the file carries
// one (files written by this module's own RecordFileWriter always do;
// a hand-built or foreign file might not).
func (s *StreamIndex) TagEntry() (filewriter.IndexEntry, bool) {
	for _, e := range s.Entries {
		if vrs.RecordType(e.RecordType) == vrs.Tag {
			return e, true
		}
	}
	return filewriter.IndexEntry{}, false
}

// FirstAtOrAfter returns the first (lowest-index) entry whose timestamp
// is >= target, per spec.md §4.H's getRecordByTime tie-break rule:
// "if multiple records share a timestamp, always return the first one."
func (s *StreamIndex) FirstAtOrAfter(target float64) (filewriter.IndexEntry, bool) {
	e, _, ok := s.firstAtOrAfterFrom(target, 0)
	return e, ok
}

// firstAtOrAfterFrom scans s.Entries starting at fromIndex for the
// first non-Tag entry whose timestamp is >= target, also returning its
// slice index so callers (the lookupCache) can resume a later search
// without rescanning from the start.
func (s *StreamIndex) firstAtOrAfterFrom(target float64, fromIndex int) (filewriter.IndexEntry, int, bool) {
	if fromIndex < 0 {
		fromIndex = 0
	}
	for i := fromIndex; i < len(s.Entries); i++ {
		e := s.Entries[i]
		if vrs.RecordType(e.RecordType) == vrs.Tag {
			continue
		}
		if e.Timestamp >= target {
			return e, i, true
		}
	}
	return filewriter.IndexEntry{}, -1, false
}
