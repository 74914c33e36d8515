package blockreader

import (
	"strconv"

	"github.com/go-vrs/vrs/recordformat"
)

// AudioSpec is the decoded form of an audio content block's Spec map.
type AudioSpec struct {
	SampleRate int
	Channels   int
	BitsPerSample int
}

// ParseAudioSpec reads sample_rate/channels/bits_per_sample out of
// block.Spec, leaving fields zero-valued when absent.
func ParseAudioSpec(block recordformat.ContentBlock) AudioSpec {
	var s AudioSpec
	if v, ok := block.Spec["sample_rate"]; ok {
		s.SampleRate, _ = strconv.Atoi(v)
	}
	if v, ok := block.Spec["channels"]; ok {
		s.Channels, _ = strconv.Atoi(v)
	}
	if v, ok := block.Spec["bits_per_sample"]; ok {
		s.BitsPerSample, _ = strconv.Atoi(v)
	}
	return s
}

// PCMFrameSize returns the byte size of one PCM sample frame (all channels).
func PCMFrameSize(spec AudioSpec) int {
	return spec.Channels * (spec.BitsPerSample / 8)
}
