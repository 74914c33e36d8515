package filereader

import (
	"testing"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/filewriter"
)

func TestBuildStreamIndicesGroupsByStream(t *testing.T) {
	a := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	b := vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1}
	entries := []filewriter.IndexEntry{
		{StreamTypeID: uint32(a.TypeId), StreamInstanceID: a.InstanceId, RecordType: uint8(vrs.Data), Timestamp: 1},
		{StreamTypeID: uint32(b.TypeId), StreamInstanceID: b.InstanceId, RecordType: uint8(vrs.Data), Timestamp: 1},
		{StreamTypeID: uint32(a.TypeId), StreamInstanceID: a.InstanceId, RecordType: uint8(vrs.Data), Timestamp: 2},
	}
	byStream := buildStreamIndices(entries)
	if len(byStream) != 2 {
		t.Fatalf("expected 2 streams, got %d", len(byStream))
	}
	if got := len(byStream[a].Entries); got != 2 {
		t.Fatalf("expected stream a to have 2 entries, got %d", got)
	}
}

func TestStreamIndexRecordCountExcludesTag(t *testing.T) {
	s := &StreamIndex{Entries: []filewriter.IndexEntry{
		{RecordType: uint8(vrs.Tag), Timestamp: -1},
		{RecordType: uint8(vrs.Configuration), Timestamp: 0},
		{RecordType: uint8(vrs.Data), Timestamp: 1},
		{RecordType: uint8(vrs.Data), Timestamp: 2},
	}}
	if got := s.RecordCount(nil); got != 3 {
		t.Fatalf("expected 3 non-tag records, got %d", got)
	}
	data := vrs.Data
	if got := s.RecordCount(&data); got != 2 {
		t.Fatalf("expected 2 data records, got %d", got)
	}
}

func TestStreamIndexNthRecord(t *testing.T) {
	s := &StreamIndex{Entries: []filewriter.IndexEntry{
		{RecordType: uint8(vrs.Data), Timestamp: 1, FileOffset: 10},
		{RecordType: uint8(vrs.Data), Timestamp: 2, FileOffset: 20},
	}}
	e, err := s.NthRecord(vrs.Data, 1)
	if err != nil {
		t.Fatalf("NthRecord: %v", err)
	}
	if e.FileOffset != 20 {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if _, err := s.NthRecord(vrs.Data, 5); err == nil {
		t.Fatal("expected an error for an out-of-range index")
	}
}

func TestStreamIndexFirstAtOrAfterTieBreaksToLowestIndex(t *testing.T) {
	s := &StreamIndex{Entries: []filewriter.IndexEntry{
		{RecordType: uint8(vrs.Tag), Timestamp: -1},
		{RecordType: uint8(vrs.Data), Timestamp: 5, FileOffset: 1},
		{RecordType: uint8(vrs.Data), Timestamp: 5, FileOffset: 2},
		{RecordType: uint8(vrs.Data), Timestamp: 6, FileOffset: 3},
	}}
	e, ok := s.FirstAtOrAfter(5)
	if !ok || e.FileOffset != 1 {
		t.Fatalf("expected the first of the tied entries, got %+v, ok=%v", e, ok)
	}
	if _, ok := s.FirstAtOrAfter(100); ok {
		t.Fatal("expected no match past the last entry's timestamp")
	}
}

func TestStreamIndexTagEntry(t *testing.T) {
	s := &StreamIndex{Entries: []filewriter.IndexEntry{
		{RecordType: uint8(vrs.Tag), Timestamp: -1, FileOffset: 44},
		{RecordType: uint8(vrs.Data), Timestamp: 1},
	}}
	e, ok := s.TagEntry()
	if !ok || e.FileOffset != 44 {
		t.Fatalf("unexpected tag entry: %+v, ok=%v", e, ok)
	}
}
