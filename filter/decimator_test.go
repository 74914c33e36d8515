package filter

import (
	"testing"

	vrs "github.com/go-vrs/vrs"
)

func dataRecord(id vrs.StreamId, ts float64) *vrs.Record {
	return &vrs.Record{StreamId: id, Timestamp: ts, Type: vrs.Data}
}

func TestNoDecimationPassesEverything(t *testing.T) {
	var d NoDecimation
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	for ts := 0.0; ts < 5; ts++ {
		if d.Decimate(id, dataRecord(id, ts), nil) {
			t.Fatalf("NoDecimation should never skip, skipped ts=%v", ts)
		}
	}
}

func TestDefaultDecimatorNeverDropsConfigurationOrState(t *testing.T) {
	d := NewDefaultDecimator()
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	d.StreamIntervals[id] = 10
	cfg := &vrs.Record{StreamId: id, Timestamp: 0, Type: vrs.Configuration}
	if d.Decimate(id, cfg, nil) {
		t.Fatal("Configuration records must never be decimated")
	}
	state := &vrs.Record{StreamId: id, Timestamp: 0.1, Type: vrs.State}
	if d.Decimate(id, state, nil) {
		t.Fatal("State records must never be decimated")
	}
}

func TestDefaultDecimatorIntervalMode(t *testing.T) {
	d := NewDefaultDecimator()
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	d.StreamIntervals[id] = 1.0

	var kept []float64
	for _, ts := range []float64{0, 0.3, 0.9, 1.0, 1.5, 2.1} {
		if !d.Decimate(id, dataRecord(id, ts), nil) {
			kept = append(kept, ts)
		}
	}
	want := []float64{0, 1.0, 2.1}
	if len(kept) != len(want) {
		t.Fatalf("kept %v, want %v", kept, want)
	}
	for i := range want {
		if kept[i] != want[i] {
			t.Fatalf("kept %v, want %v", kept, want)
		}
	}
}

func TestDefaultDecimatorIntervalModeIsPerStream(t *testing.T) {
	d := NewDefaultDecimator()
	idA := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	idB := vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1}
	d.StreamIntervals[idA] = 1.0
	// idB has no configured interval: every record passes through.

	if d.Decimate(idA, dataRecord(idA, 0), nil) {
		t.Fatal("first record on idA should never be skipped")
	}
	if d.Decimate(idA, dataRecord(idA, 0.5), nil) == false {
		t.Fatal("second record on idA arrives too soon and should be skipped")
	}
	if d.Decimate(idB, dataRecord(idB, 0.1), nil) {
		t.Fatal("idB has no interval configured, should never be skipped")
	}
}

func TestDefaultDecimatorBucketModeKeepsClosestToCenter(t *testing.T) {
	d := NewDefaultDecimator()
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	d.BucketIntervals[id] = 1.0

	var emitted []float64
	emit := func(r *vrs.Record) { emitted = append(emitted, r.Timestamp) }

	// Bucket 1 opens on the first record (ts=0.1), centered at 0.6:
	// candidates 0.1 and 0.4, 0.4 is closer to the center.
	for _, ts := range []float64{0.1, 0.4} {
		d.Decimate(id, dataRecord(id, ts), emit)
	}
	// ts=1.2 is past bucket one's end (1.1), which submits it.
	d.Decimate(id, dataRecord(id, 1.2), emit)

	if len(emitted) != 1 || emitted[0] != 0.4 {
		t.Fatalf("expected bucket one to submit 0.4, got %v", emitted)
	}

	d.Flush(id, emit)
	if len(emitted) != 2 || emitted[1] != 1.2 {
		t.Fatalf("expected Flush to submit the still-open bucket's candidate 1.2, got %v", emitted)
	}
}

func TestDefaultDecimatorBucketModeRespectsMaxDelta(t *testing.T) {
	d := NewDefaultDecimator()
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	d.BucketIntervals[id] = 1.0
	d.BucketMaxDelta = 0.1

	var emitted []float64
	emit := func(r *vrs.Record) { emitted = append(emitted, r.Timestamp) }

	// The bucket opens at 0.9, so its center is 1.4; 0.9 is 0.5 away,
	// farther than BucketMaxDelta, and should never become the bucket's
	// candidate.
	d.Decimate(id, dataRecord(id, 0.9), emit)
	d.Flush(id, emit)
	if len(emitted) != 0 {
		t.Fatalf("expected no candidate within max delta, got %v", emitted)
	}
}

func TestDefaultDecimatorGraceWindowIsWidestBucketTimes1Point2(t *testing.T) {
	d := NewDefaultDecimator()
	idA := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	idB := vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1}
	d.BucketIntervals[idA] = 1.0
	d.BucketIntervals[idB] = 2.0

	if got, want := d.GraceWindow(), 2.4; got != want {
		t.Fatalf("GraceWindow() = %v, want %v", got, want)
	}
}
