package multireader

import (
	"path/filepath"
	"testing"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/compression"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/recordable"
	"github.com/go-vrs/vrs/recordformat"
)

// writeStreamFile writes a single-stream VRS file at path, with
// records at the given timestamps carrying a "sample" value equal to
// 10x the record's position.
func writeStreamFile(t *testing.T, path string, streamID vrs.StreamId, captureTimeEpoch string, timestamps ...float64) {
	t.Helper()
	w, err := filewriter.Create(chunkio.NewSpec(path), filewriter.DefaultOptions())
	if err != nil {
		t.Fatalf("filewriter.Create: %v", err)
	}
	r := recordable.New(streamID)
	if captureTimeEpoch != "" {
		r.SetTag(vrs.TagCaptureTimeEpoch, captureTimeEpoch)
	}
	format := recordformat.New(recordformat.Data, 1)
	format.Add(recordformat.DataLayoutBlock(-1))
	r.AddRecordFormat(format)
	w.AddRecordable(r, compression.None)

	layout := datalayout.New()
	v := datalayout.Add(layout, datalayout.MakeValue[uint32]("sample"))

	for i, ts := range timestamps {
		v.Set(uint32(i * 10))
		if _, err := r.CreateRecord(ts, recordformat.Data, 1, recordable.NewDataSource().WithLayout(0, layout)); err != nil {
			t.Fatalf("CreateRecord: %v", err)
		}
	}
	if err := w.WriteRecordsAsync(10); err != nil {
		t.Fatalf("WriteRecordsAsync: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpenSingleFileIsPassThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.vrs")
	streamID := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeStreamFile(t, path, streamID, "", 0, 1, 2)

	r, err := Open([]string{path}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	streams := r.GetStreams()
	if len(streams) != 1 || streams[0] != streamID {
		t.Fatalf("unexpected streams: %+v", streams)
	}
	if got := r.TotalRecordCount(); got != 3 {
		t.Fatalf("expected 3 records, got %d", got)
	}
	if r.index != nil {
		t.Fatal("expected no consolidated index to be built for a single file")
	}
}

func TestOpenMergesTimestampsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.vrs")
	pathB := filepath.Join(dir, "b.vrs")
	idA := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	idB := vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1}
	writeStreamFile(t, pathA, idA, "", 0, 2, 4)
	writeStreamFile(t, pathB, idB, "", 1, 3, 5)

	r, err := Open([]string{pathA, pathB}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if got := r.TotalRecordCount(); got != 6 {
		t.Fatalf("expected 6 records, got %d", got)
	}

	// 3 data records plus one Tag record per file.
	index := r.GetIndex()
	if len(index) != 8 {
		t.Fatalf("expected 8 index entries, got %d", len(index))
	}
	var prev float64 = -1
	for _, e := range index {
		if e.Entry.Timestamp < prev {
			t.Fatalf("index not in timestamp order: %v before %v", e.Entry.Timestamp, prev)
		}
		prev = e.Entry.Timestamp
	}
}

func TestOpenRemapsCollidingStreamIds(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.vrs")
	pathB := filepath.Join(dir, "b.vrs")
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeStreamFile(t, pathA, id, "", 0, 1)
	writeStreamFile(t, pathB, id, "", 0, 1)

	r, err := Open([]string{pathA, pathB}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	streams := r.GetStreams()
	if len(streams) != 2 {
		t.Fatalf("expected 2 unique streams, got %+v", streams)
	}
	found := map[vrs.StreamId]bool{}
	for _, s := range streams {
		found[s] = true
	}
	if !found[id] {
		t.Fatalf("expected the first file's stream id %s to survive unchanged: %+v", id, streams)
	}
	remapped := vrs.StreamId{TypeId: id.TypeId, InstanceId: id.InstanceId + 1}
	if !found[remapped] {
		t.Fatalf("expected the second file's colliding stream id to be remapped to %s: %+v", remapped, streams)
	}
	if got := r.GetRecordCount(id, nil); got != 2 {
		t.Fatalf("expected 2 records for %s, got %d", id, got)
	}
	if got := r.GetRecordCount(remapped, nil); got != 2 {
		t.Fatalf("expected 2 records for %s, got %d", remapped, got)
	}
}

func TestOpenRejectsUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.vrs")
	pathB := filepath.Join(dir, "b.vrs")
	idA := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	idB := vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1}
	writeStreamFile(t, pathA, idA, "1000", 0)
	writeStreamFile(t, pathB, idB, "2000", 0)

	if _, err := Open([]string{pathA, pathB}, false); err == nil {
		t.Fatal("expected Open to reject files with disagreeing capture_time_epoch tags")
	}
}

func TestOpenAllowsSharedCaptureTimeEpoch(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.vrs")
	pathB := filepath.Join(dir, "b.vrs")
	idA := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	idB := vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1}
	writeStreamFile(t, pathA, idA, "1000", 0)
	writeStreamFile(t, pathB, idB, "1000", 1)

	r, err := Open([]string{pathA, pathB}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
}

func TestGetStreamForTag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.vrs")
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	writeStreamFile(t, path, id, "", 0)

	r, err := Open([]string{path}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got, ok := r.GetStreamForTag(vrs.TagCaptureTimeEpoch, "1000", vrs.RecordableTypeUndefined)
	if ok {
		t.Fatalf("expected no match for an absent tag value, got %s", got)
	}
}
