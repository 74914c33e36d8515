// Package blockreader drives content-block-by-content-block playback
// of a record: given a RecordFormat and a record's raw bytes, it
// iterates the declared block sequence and invokes typed callbacks on
// a StreamPlayer, resolving each block's size along the way. Grounded
// on original_source/vrs/utils/VideoRecordFormatStreamPlayer.h's
// callback-based playback shape and spec.md §4.E/§4.I.
package blockreader

import (
	"fmt"
	"strconv"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/recordformat"
)

// RecordContext carries the metadata a StreamPlayer callback needs
// about the record currently being read.
type RecordContext struct {
	StreamID      vrs.StreamId
	RecordType    recordformat.RecordType
	FormatVersion uint32
	TimestampSec  float64
}

// StreamPlayer receives per-content-block callbacks as a record is
// played back. Every callback returns whether playback of the current
// record should continue; returning false stops iterating the
// record's remaining blocks (but not subsequent records).
type StreamPlayer interface {
	ProcessRecordHeader(ctx RecordContext) bool
	OnDataLayoutRead(ctx RecordContext, blockIndex int, layout *datalayout.Layout) bool
	OnImageRead(ctx RecordContext, blockIndex int, block recordformat.ContentBlock, data []byte) bool
	OnAudioRead(ctx RecordContext, blockIndex int, block recordformat.ContentBlock, data []byte) bool
	OnCustomBlockRead(ctx RecordContext, blockIndex int, block recordformat.ContentBlock, data []byte) bool
	OnUnsupportedBlock(ctx RecordContext, blockIndex int, block recordformat.ContentBlock) bool
	RecordReadComplete(ctx RecordContext)
}

// BaseStreamPlayer gives every callback a harmless default
// implementation (continue playback, do nothing), so a caller who
// only cares about, say, data layouts can embed BaseStreamPlayer and
// override just OnDataLayoutRead.
type BaseStreamPlayer struct{}

func (BaseStreamPlayer) ProcessRecordHeader(RecordContext) bool { return true }
func (BaseStreamPlayer) OnDataLayoutRead(RecordContext, int, *datalayout.Layout) bool {
	return true
}
func (BaseStreamPlayer) OnImageRead(RecordContext, int, recordformat.ContentBlock, []byte) bool {
	return true
}
func (BaseStreamPlayer) OnAudioRead(RecordContext, int, recordformat.ContentBlock, []byte) bool {
	return true
}
func (BaseStreamPlayer) OnCustomBlockRead(RecordContext, int, recordformat.ContentBlock, []byte) bool {
	return true
}
func (BaseStreamPlayer) OnUnsupportedBlock(RecordContext, int, recordformat.ContentBlock) bool {
	return true
}
func (BaseStreamPlayer) RecordReadComplete(RecordContext) {}

// PlayRecord iterates format's content blocks over payload (the
// record's decompressed bytes), decoding each DataLayout block against
// layoutForBlock (typically built from the RecordFormat's own declared
// schema) and invoking the matching StreamPlayer callback for every
// other block type. If the supplied layout's ReadFrom fails against the
// record's actual bytes — the writer used a different field layout than
// this reader's Go struct expects — and schemaForBlock supplies a
// previously stored datalayout.Schema for that block index (spec.md
// §4.D / Testable Property 7), PlayRecord falls back to decoding via
// datalayout.Layout.MapFromSchema instead of failing the record.
// schemaForBlock may be nil when no such fallback schema is available.
func PlayRecord(ctx RecordContext, format *recordformat.Format, payload []byte, layoutForBlock func(blockIndex int) *datalayout.Layout, schemaForBlock func(blockIndex int) (datalayout.Schema, bool), player StreamPlayer) error {
	if !player.ProcessRecordHeader(ctx) {
		return nil
	}
	offset := 0
	var nextContentBlockSize int64 = -1
	var pendingKeyframeTimestamp *float64
	var pendingKeyframeIndex *uint32
	for i, block := range format.Blocks {
		remaining := int64(len(payload) - offset)
		size, err := format.ResolveBlockSize(i, remaining, nextContentBlockSize)
		if err != nil {
			return fmt.Errorf("blockreader: record %s block %d: %w", ctx.StreamID, i, err)
		}
		nextContentBlockSize = -1
		if offset+int(size) > len(payload) {
			return fmt.Errorf("blockreader: record %s block %d overruns payload: need %d, have %d", ctx.StreamID, i, size, len(payload)-offset)
		}
		blockData := payload[offset : offset+int(size)]
		offset += int(size)

		var cont bool
		switch block.Type {
		case recordformat.ContentDataLayout:
			layout := layoutForBlock(i)
			if layout != nil {
				if err := layout.ReadFrom(blockData); err != nil {
					mapped := false
					if schemaForBlock != nil {
						if schema, ok := schemaForBlock(i); ok {
							mapped = layout.MapFromSchema(schema, blockData) == nil
						}
					}
					if !mapped {
						return fmt.Errorf("blockreader: record %s block %d: %w", ctx.StreamID, i, err)
					}
				}
				if n := nextContentBlockSizeField(layout); n >= 0 {
					nextContentBlockSize = n
				}
				if ts := datalayout.FindValue[float64](layout, "keyframe_timestamp"); ts != nil && ts.IsAvailable() {
					v := ts.Get()
					pendingKeyframeTimestamp = &v
				}
				if idx := datalayout.FindValue[uint32](layout, "keyframe_index"); idx != nil && idx.IsAvailable() {
					v := idx.Get()
					pendingKeyframeIndex = &v
				}
			}
			cont = player.OnDataLayoutRead(ctx, i, layout)
		case recordformat.ContentImage:
			if pendingKeyframeTimestamp != nil || pendingKeyframeIndex != nil {
				block = mirrorKeyframeSpec(block, pendingKeyframeTimestamp, pendingKeyframeIndex)
				pendingKeyframeTimestamp, pendingKeyframeIndex = nil, nil
			}
			cont = player.OnImageRead(ctx, i, block, blockData)
		case recordformat.ContentAudio:
			cont = player.OnAudioRead(ctx, i, block, blockData)
		case recordformat.ContentCustom:
			cont = player.OnCustomBlockRead(ctx, i, block, blockData)
		default:
			cont = player.OnUnsupportedBlock(ctx, i, block)
		}
		if !cont {
			break
		}
	}
	player.RecordReadComplete(ctx)
	return nil
}

// mirrorKeyframeSpec clones block.Spec and stamps in the keyframe
// timestamp/index carried by the DataLayout block that preceded this
// video image block, per spec.md §4.I.
func mirrorKeyframeSpec(block recordformat.ContentBlock, timestamp *float64, index *uint32) recordformat.ContentBlock {
	spec := make(map[string]string, len(block.Spec)+2)
	for k, v := range block.Spec {
		spec[k] = v
	}
	if timestamp != nil {
		spec["keyframe_timestamp"] = strconv.FormatFloat(*timestamp, 'g', -1, 64)
	}
	if index != nil {
		spec["keyframe_index"] = strconv.FormatUint(uint64(*index), 10)
	}
	block.Spec = spec
	return block
}

// nextContentBlockSizeField looks for the well-known
// "next_content_block_size" field in layout, returning its value or -1
// if absent, implementing the DataLayout-driven size declaration from
// spec.md §4.D.
func nextContentBlockSizeField(layout *datalayout.Layout) int64 {
	field := datalayout.FindValue[uint32](layout, "next_content_block_size")
	if field == nil || !field.IsAvailable() {
		return -1
	}
	return int64(field.Get())
}
