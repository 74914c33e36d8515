package filter

import (
	"path/filepath"
	"testing"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/filereader"
)

func openFiltered(t *testing.T, path string) (*filereader.RecordFileReader, *FilteredFileReader) {
	t.Helper()
	reader, err := filereader.OpenFile(chunkio.NewSpec(path), false)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	return reader, New(reader)
}

func TestCopyProducesSameRecordCount(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.vrs")
	dst := filepath.Join(dir, "dst.vrs")
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeTestFile(t, src, id, 0, 1, 2, 3)

	reader, f := openFiltered(t, src)
	defer reader.Close()

	if err := Copy(f, dst, CreateFile, CopyOptions{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	out, err := filereader.OpenFile(chunkio.NewSpec(dst), false)
	if err != nil {
		t.Fatalf("OpenFile(dst): %v", err)
	}
	defer out.Close()

	if got := out.GetRecordCount(id, nil); got != 4 {
		t.Fatalf("expected 4 records copied, got %d", got)
	}
}

func TestCopyPreservesTimestampsAndTags(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.vrs")
	dst := filepath.Join(dir, "dst.vrs")
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeTestFile(t, src, id, 0, 1.5, 3)

	reader, f := openFiltered(t, src)
	wantTags := reader.GetTags(id)
	defer reader.Close()

	if err := Copy(f, dst, CreateFile, CopyOptions{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	out, err := filereader.OpenFile(chunkio.NewSpec(dst), false)
	if err != nil {
		t.Fatalf("OpenFile(dst): %v", err)
	}
	defer out.Close()

	gotTags := out.GetTags(id)
	for k, v := range wantTags {
		if gotTags[k] != v {
			t.Fatalf("tag %q = %q, want %q", k, gotTags[k], v)
		}
	}

	var dataType = vrs.Data
	if got := out.GetRecordCount(id, &dataType); got != 3 {
		t.Fatalf("expected 3 data records, got %d", got)
	}
}

func TestCopyAppliesTimeRange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.vrs")
	dst := filepath.Join(dir, "dst.vrs")
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeTestFile(t, src, id, 0, 1, 2, 3, 4)

	reader, f := openFiltered(t, src)
	defer reader.Close()
	f.Time.HasMin, f.Time.Min = true, 1
	f.Time.HasMax, f.Time.Max = true, 3

	if err := Copy(f, dst, CreateFile, CopyOptions{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	out, err := filereader.OpenFile(chunkio.NewSpec(dst), false)
	if err != nil {
		t.Fatalf("OpenFile(dst): %v", err)
	}
	defer out.Close()

	if got := out.GetRecordCount(id, nil); got != 3 {
		t.Fatalf("expected 3 records within [1,3], got %d", got)
	}
}

func TestCopyWithIntervalDecimation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.vrs")
	dst := filepath.Join(dir, "dst.vrs")
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeTestFile(t, src, id, 0, 0.3, 0.9, 1.0, 1.5, 2.1)

	reader, f := openFiltered(t, src)
	defer reader.Close()
	dec := NewDefaultDecimator()
	dec.StreamIntervals[id] = 1.0
	f.Decimator = dec

	if err := Copy(f, dst, CreateFile, CopyOptions{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	out, err := filereader.OpenFile(chunkio.NewSpec(dst), false)
	if err != nil {
		t.Fatalf("OpenFile(dst): %v", err)
	}
	defer out.Close()

	if got := out.GetRecordCount(id, nil); got != 3 {
		t.Fatalf("expected 3 records to survive interval decimation, got %d", got)
	}
}

func TestMergeRemapsCollidingStreamsAndInterleavesByTimestamp(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.vrs")
	pathB := filepath.Join(dir, "b.vrs")
	dst := filepath.Join(dir, "merged.vrs")
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeTestFile(t, pathA, id, 0, 2, 4)
	writeTestFile(t, pathB, id, 1, 3, 5)

	readerA, fA := openFiltered(t, pathA)
	defer readerA.Close()
	readerB, fB := openFiltered(t, pathB)
	defer readerB.Close()

	if err := Merge([]*FilteredFileReader{fA, fB}, dst, CreateFile, CopyOptions{}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	out, err := filereader.OpenFile(chunkio.NewSpec(dst), false)
	if err != nil {
		t.Fatalf("OpenFile(dst): %v", err)
	}
	defer out.Close()

	streams := out.GetStreams()
	if len(streams) != 2 {
		t.Fatalf("expected 2 distinct streams after remap, got %+v", streams)
	}
	if got := out.GetRecordCount(id, nil); got != 3 {
		t.Fatalf("expected 3 records for the first file's stream id, got %d", got)
	}

	var prev float64 = -1
	for _, e := range out.GetIndex() {
		if vrs.RecordType(e.RecordType) == vrs.Tag {
			continue
		}
		if e.Timestamp < prev {
			t.Fatalf("merged index not in timestamp order: %v before %v", e.Timestamp, prev)
		}
		prev = e.Timestamp
	}
}
