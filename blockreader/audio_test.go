package blockreader

import (
	"testing"

	"github.com/go-vrs/vrs/recordformat"
)

func TestParseAudioSpecAndFrameSize(t *testing.T) {
	block := recordformat.AudioBlock(recordformat.AudioPCM, map[string]string{
		"sample_rate": "48000", "channels": "2", "bits_per_sample": "16",
	})
	spec := ParseAudioSpec(block)
	if spec.SampleRate != 48000 || spec.Channels != 2 || spec.BitsPerSample != 16 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if got := PCMFrameSize(spec); got != 4 {
		t.Fatalf("expected frame size 4, got %d", got)
	}
}

func TestParseAudioSpecMissingFields(t *testing.T) {
	block := recordformat.AudioBlock(recordformat.AudioOpus, nil)
	spec := ParseAudioSpec(block)
	if spec.SampleRate != 0 || spec.Channels != 0 || spec.BitsPerSample != 0 {
		t.Fatalf("expected zero-valued spec, got %+v", spec)
	}
}
