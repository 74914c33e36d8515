package videoframe

import (
	"errors"
	"strconv"
	"testing"

	"github.com/go-vrs/vrs/blockreader"
	"github.com/go-vrs/vrs/recordformat"
)

type echoDecoder struct{}

func (echoDecoder) Decode(spec map[string]string, data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func init() {
	blockreader.RegisterDecoder("videoframe-test-codec", func(recordformat.ContentBlock) (blockreader.Decoder, error) {
		return echoDecoder{}, nil
	})
}

func frameBlock(timestamp float64, index uint32) recordformat.ContentBlock {
	spec := map[string]string{"codec": "videoframe-test-codec"}
	block := recordformat.ImageBlock(recordformat.ImageVideo, spec)
	return mirrorTestKeyframe(block, timestamp, index)
}

// mirrorTestKeyframe stands in for the keyframe mirroring PlayRecord
// does from a DataLayout block, for tests that exercise Handler
// directly without going through PlayRecord.
func mirrorTestKeyframe(block recordformat.ContentBlock, timestamp float64, index uint32) recordformat.ContentBlock {
	spec := map[string]string{}
	for k, v := range block.Spec {
		spec[k] = v
	}
	spec["keyframe_timestamp"] = strconv.FormatFloat(timestamp, 'g', -1, 64)
	spec["keyframe_index"] = strconv.FormatUint(uint64(index), 10)
	block.Spec = spec
	return block
}

func TestHandlerDecodesKeyframeThenSequentialFrames(t *testing.T) {
	h := New()

	if _, err := h.TryToDecodeFrame(frameBlock(1.0, 0), []byte{1, 2, 3}); err != nil {
		t.Fatalf("keyframe decode: %v", err)
	}
	if h.IsMissingFrames() {
		t.Fatal("expected no missing frames after a successful keyframe decode")
	}

	if _, err := h.TryToDecodeFrame(frameBlock(1.0, 1), []byte{4, 5, 6}); err != nil {
		t.Fatalf("p-frame decode: %v", err)
	}
	if h.IsMissingFrames() {
		t.Fatal("expected no missing frames after a successful sequential decode")
	}
}

func TestHandlerOutOfSequenceFrameFails(t *testing.T) {
	h := New()
	if _, err := h.TryToDecodeFrame(frameBlock(1.0, 0), []byte{1}); err != nil {
		t.Fatalf("keyframe decode: %v", err)
	}

	_, err := h.TryToDecodeFrame(frameBlock(1.0, 3), []byte{2})
	if !errors.Is(err, ErrFrameSequence) {
		t.Fatalf("expected ErrFrameSequence, got %v", err)
	}
	if !h.IsMissingFrames() {
		t.Fatal("expected IsMissingFrames to report true")
	}
	if got := h.RequestedKeyframeIndex(); got != 3 {
		t.Fatalf("expected requested keyframe index 3, got %d", got)
	}
	if got := h.FramesToSkip(); got != 1 {
		t.Fatalf("expected 1 already-decoded frame to skip, got %d", got)
	}
}

func TestHandlerResetRequiresFreshKeyframe(t *testing.T) {
	h := New()
	if _, err := h.TryToDecodeFrame(frameBlock(1.0, 0), []byte{1}); err != nil {
		t.Fatalf("keyframe decode: %v", err)
	}
	h.Reset()
	if _, err := h.TryToDecodeFrame(frameBlock(1.0, 1), []byte{2}); err == nil {
		t.Fatal("expected a reset handler to require index 0 again")
	}
}
