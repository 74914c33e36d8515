// Package videoframe implements sequential decoding of video-codec
// image content blocks, where frames after the first in a group of
// pictures can only be decoded in order following the group's
// keyframe. Grounded on
// original_source/vrs/utils/VideoFrameHandler.h/.cpp and spec.md §4.I.
package videoframe

import (
	"errors"
	"fmt"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/blockreader"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/filereader"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/recordformat"
)

// ErrFrameSequence is returned by TryToDecodeFrame when the requested
// frame is neither the group's keyframe nor the frame immediately
// following the last one successfully decoded.
var ErrFrameSequence = errors.New("videoframe: frame out of sequence")

// Handler tracks one video stream's decode cursor and decoder
// instance across a sequence of ContentImage blocks of ImageFormat
// video. It is meant to be embedded or held by a blockreader.StreamPlayer
// implementation, which calls TryToDecodeFrame from OnImageRead.
type Handler struct {
	decoder blockreader.Decoder

	decodedKeyframeTimestamp   float64
	decodedKeyframeIndex       uint32
	requestedKeyframeTimestamp float64
	requestedKeyframeIndex     uint32
	videoGoodState             bool
	isVideo                    bool
}

// New returns a Handler ready to decode the first frame of a stream.
func New() *Handler {
	h := &Handler{}
	h.Reset()
	return h
}

// TryToDecodeFrame attempts to decode block's encoded bytes. block
// must describe a video image (blockreader.IsVideoBlock(block)); its
// Spec carries the keyframe_timestamp/keyframe_index pair PlayRecord
// mirrors in from the record's preceding DataLayout block.
//
// On success, the decoded frame bytes are returned and the handler's
// decode cursor advances so the next sequential frame can be decoded.
// On failure, ErrFrameSequence (or a wrapped decoder/codec error) is
// returned; IsMissingFrames reports whether the caller should replay
// earlier frames via ReadMissingFrames before retrying.
func (h *Handler) TryToDecodeFrame(block recordformat.ContentBlock, data []byte) ([]byte, error) {
	spec := blockreader.ParseImageSpec(block)
	h.isVideo = true
	h.requestedKeyframeTimestamp = spec.KeyframeTimestamp
	h.requestedKeyframeIndex = spec.KeyframeIndex
	h.videoGoodState = h.requestedKeyframeIndex == 0 ||
		(h.requestedKeyframeTimestamp == h.decodedKeyframeTimestamp &&
			h.requestedKeyframeIndex == h.decodedKeyframeIndex+1)
	if !h.videoGoodState {
		return nil, fmt.Errorf("videoframe: stream %s: %w (requested %d, decoded %d)",
			spec.Codec, ErrFrameSequence, h.requestedKeyframeIndex, h.decodedKeyframeIndex)
	}
	h.decodedKeyframeTimestamp = h.requestedKeyframeTimestamp
	h.decodedKeyframeIndex = h.requestedKeyframeIndex
	if h.decoder == nil {
		decoder, err := blockreader.NewDecoder(block)
		if err != nil {
			return nil, err
		}
		h.decoder = decoder
	}
	return h.decoder.Decode(block.Spec, data)
}

// IsMissingFrames reports whether the last TryToDecodeFrame call
// failed because earlier frames in the group need to be decoded
// first.
func (h *Handler) IsMissingFrames() bool {
	return h.isVideo && !h.videoGoodState
}

// RequestedKeyframeTimestamp returns the keyframe timestamp of the
// frame that last failed to decode.
func (h *Handler) RequestedKeyframeTimestamp() float64 {
	return h.requestedKeyframeTimestamp
}

// RequestedKeyframeIndex returns the frame index, within its group of
// pictures, of the frame that last failed to decode.
func (h *Handler) RequestedKeyframeIndex() uint32 {
	return h.requestedKeyframeIndex
}

// FramesToSkip returns how many frames past the requested group's
// keyframe are already decoded and so don't need replaying.
func (h *Handler) FramesToSkip() uint32 {
	if h.isVideo &&
		h.decodedKeyframeTimestamp == h.requestedKeyframeTimestamp &&
		h.decodedKeyframeIndex+1 < h.requestedKeyframeIndex {
		return h.decodedKeyframeIndex + 1
	}
	return 0
}

// Reset clears the handler's decode cursor, forcing the next
// TryToDecodeFrame call to require a keyframe. The decoder instance,
// if any, is kept.
func (h *Handler) Reset() {
	h.decodedKeyframeIndex = blockreader.InvalidFrameIndex
	h.decodedKeyframeTimestamp = 0
	h.requestedKeyframeIndex = blockreader.InvalidFrameIndex
	h.requestedKeyframeTimestamp = 0
	h.videoGoodState = false
}

// ReadMissingFrames replays the records between record's stream's
// requested keyframe and record itself, so a subsequent read of
// record can decode cleanly. It's meant to be called from a
// StreamPlayer's RecordReadComplete callback, after IsMissingFrames
// reports true for the record just read: reading can't recurse into
// another read while a record is being played back.
//
// player receives the replayed records' callbacks (including this
// Handler's own TryToDecodeFrame, typically invoked from player's
// OnImageRead). layoutForBlock is the same DataLayout-block decoder
// the caller used to read record itself, so the keyframe
// timestamp/index fields PlayRecord mirrors into each replayed
// frame's image block are available again. If exactFrame is true,
// every frame from the keyframe up to record is replayed; if false,
// only the keyframe (or the nearest already-decoded frame) is
// replayed, leaving result unspecified for use cases like UI
// scrubbing that only need *a* displayable frame quickly.
func (h *Handler) ReadMissingFrames(fileReader *filereader.RecordFileReader, record filewriter.IndexEntry, exactFrame bool, layoutForBlock func(blockIndex int) *datalayout.Layout, player blockreader.StreamPlayer) error {
	if !h.IsMissingFrames() || h.requestedKeyframeIndex == blockreader.InvalidFrameIndex {
		return nil
	}
	if !exactFrame && h.FramesToSkip() != 0 {
		return nil
	}

	streamID := record.StreamID()
	keyframe, ok := fileReader.GetRecordByTime(streamID, h.requestedKeyframeTimestamp)
	if !ok || keyframe.Timestamp != h.requestedKeyframeTimestamp {
		return fmt.Errorf("videoframe: stream %s: keyframe at %v not found", streamID, h.requestedKeyframeTimestamp)
	}

	streamIndex := fileReader.GetStreamIndex(streamID)
	if streamIndex == nil {
		return fmt.Errorf("videoframe: stream %s: no index", streamID)
	}
	recordIndex := -1
	for i, e := range streamIndex.Entries {
		if e.FileOffset == keyframe.FileOffset {
			recordIndex = i
			break
		}
	}
	if recordIndex < 0 {
		return fmt.Errorf("videoframe: stream %s: keyframe entry not found in stream index", streamID)
	}

	entries := streamIndex.Entries
	keyFrameIndex := h.requestedKeyframeIndex
	framesToSkip := h.FramesToSkip()
	for frameIndex := uint32(0); recordIndex < len(entries) && frameIndex <= keyFrameIndex; frameIndex++ {
		entry := entries[recordIndex]
		if vrs.RecordType(entry.RecordType) != vrs.Data {
			break
		}
		if framesToSkip > 0 {
			framesToSkip--
			recordIndex++
			continue
		}
		if err := fileReader.ReadRecordWithLayouts(entry, player, layoutForBlock); err != nil {
			return err
		}
		recordIndex++
		if h.IsMissingFrames() {
			return fmt.Errorf("videoframe: stream %s: frames still missing after replay", streamID)
		}
		if !exactFrame {
			break
		}
	}
	return nil
}
