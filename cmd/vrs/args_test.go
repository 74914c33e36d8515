package main

import (
	"testing"

	vrs "github.com/go-vrs/vrs"
)

func TestParseFilterArgsBasicCopyFlags(t *testing.T) {
	fa, err := parseFilterArgs([]string{"in.vrs", "--to", "out.vrs", "--before", "10", "--no-progress"})
	if err != nil {
		t.Fatalf("parseFilterArgs: %v", err)
	}
	if len(fa.remaining) != 1 || fa.remaining[0] != "in.vrs" {
		t.Fatalf("expected remaining=[in.vrs], got %v", fa.remaining)
	}
	if fa.dst != "out.vrs" {
		t.Fatalf("expected dst=out.vrs, got %q", fa.dst)
	}
	if !fa.noProgress {
		t.Fatal("expected --no-progress to be recorded")
	}
	if !fa.time.HasMax || fa.time.Max != 10 {
		t.Fatalf("expected Time.Max=10, got %+v", fa.time)
	}
}

func TestParseFilterArgsRangeAndDecimate(t *testing.T) {
	fa, err := parseFilterArgs([]string{"in.vrs", "--to", "out.vrs", "--range", "+1", "+2", "--decimate", "1202", "0.010"})
	if err != nil {
		t.Fatalf("parseFilterArgs: %v", err)
	}
	if !fa.time.HasMin || fa.time.Min != 1 || !fa.time.HasMax || fa.time.Max != 2 {
		t.Fatalf("unexpected time range: %+v", fa.time)
	}
	if len(fa.decimate) != 1 || fa.decimate[0].isStream || fa.decimate[0].typeID != vrs.RecordableTypeId(1202) {
		t.Fatalf("unexpected decimate targets: %+v", fa.decimate)
	}
	if fa.decimate[0].interval != 0.010 {
		t.Fatalf("expected interval 0.010, got %v", fa.decimate[0].interval)
	}
}

func TestParseFilterArgsStreamSelectors(t *testing.T) {
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	fa, err := parseFilterArgs([]string{"in.vrs", "+" + id.String(), "-1200"})
	if err != nil {
		t.Fatalf("parseFilterArgs: %v", err)
	}
	if len(fa.selector.IncludeStreams) != 1 || fa.selector.IncludeStreams[0] != id {
		t.Fatalf("expected include stream %v, got %+v", id, fa.selector.IncludeStreams)
	}
	if len(fa.selector.ExcludeTypes) != 1 || fa.selector.ExcludeTypes[0] != vrs.MotionSensorData {
		t.Fatalf("expected exclude type 1200, got %+v", fa.selector.ExcludeTypes)
	}
}

func TestParseFilterArgsFileAndStreamTags(t *testing.T) {
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	fa, err := parseFilterArgs([]string{
		"in.vrs", "--file-tag", "session", "abc123",
		"--stream-tag", id.String(), "role", "front-camera",
	})
	if err != nil {
		t.Fatalf("parseFilterArgs: %v", err)
	}
	if fa.fileTags["session"] != "abc123" {
		t.Fatalf("expected file tag session=abc123, got %+v", fa.fileTags)
	}
	if len(fa.streamTags) != 1 || fa.streamTags[0].id != id || fa.streamTags[0].key != "role" || fa.streamTags[0].value != "front-camera" {
		t.Fatalf("unexpected stream tags: %+v", fa.streamTags)
	}

	overrider := fa.tagOverrider()
	if overrider == nil {
		t.Fatal("expected a non-nil tag overrider")
	}
	got := overrider(id, map[string]string{"existing": "v"})
	if got["session"] != "abc123" || got["role"] != "front-camera" || got["existing"] != "v" {
		t.Fatalf("unexpected merged tags: %+v", got)
	}
	other := vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1}
	got2 := overrider(other, map[string]string{})
	if _, ok := got2["role"]; ok {
		t.Fatalf("expected --stream-tag to be scoped to its own stream, got %+v", got2)
	}
	if got2["session"] != "abc123" {
		t.Fatalf("expected --file-tag to apply to every stream, got %+v", got2)
	}
}

func TestParseByteSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"512", 512 << 20},
		{"512M", 512 << 20},
		{"2G", 2 * 1024 << 20},
	}
	for _, c := range cases {
		got, err := parseByteSize(c.in)
		if err != nil {
			t.Fatalf("parseByteSize(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseByteSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestResolveDecimatorExpandsBareTypeId(t *testing.T) {
	fa, err := parseFilterArgs([]string{"in.vrs", "--decimate", "1202", "0.5"})
	if err != nil {
		t.Fatalf("parseFilterArgs: %v", err)
	}
	streams := []vrs.StreamId{
		{TypeId: vrs.SlamCameraData, InstanceId: 1},
		{TypeId: vrs.SlamCameraData, InstanceId: 2},
		{TypeId: vrs.MotionSensorData, InstanceId: 1},
	}
	d := fa.resolveDecimator(streams)
	if len(d.StreamIntervals) != 2 {
		t.Fatalf("expected both SlamCameraData streams to be decimated, got %+v", d.StreamIntervals)
	}
	for _, id := range streams[:2] {
		if d.StreamIntervals[id] != 0.5 {
			t.Errorf("expected interval 0.5 for %v, got %v", id, d.StreamIntervals[id])
		}
	}
	if _, ok := d.StreamIntervals[streams[2]]; ok {
		t.Fatal("expected the MotionSensorData stream to be left alone")
	}
}

func TestResolveDecimatorBucketIntervalOverridesMode(t *testing.T) {
	fa, err := parseFilterArgs([]string{"in.vrs", "--decimate", "1201-1", "0.5", "--bucket-interval", "2", "--bucket-max-delta", "0.1"})
	if err != nil {
		t.Fatalf("parseFilterArgs: %v", err)
	}
	id := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	d := fa.resolveDecimator([]vrs.StreamId{id})
	if len(d.StreamIntervals) != 0 {
		t.Fatalf("expected bucket mode to take over, got StreamIntervals=%+v", d.StreamIntervals)
	}
	if d.BucketIntervals[id] != 2 {
		t.Fatalf("expected bucket interval 2, got %v", d.BucketIntervals[id])
	}
	if d.BucketMaxDelta != 0.1 {
		t.Fatalf("expected bucket max delta 0.1, got %v", d.BucketMaxDelta)
	}
}
