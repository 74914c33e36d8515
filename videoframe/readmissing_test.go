package videoframe

import (
	"path/filepath"
	"testing"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/blockreader"
	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/compression"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/filereader"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/recordable"
	"github.com/go-vrs/vrs/recordformat"
)

type recordingPlayer struct {
	blockreader.BaseStreamPlayer
	handler     *Handler
	reader      *filereader.RecordFileReader
	layout      *datalayout.Layout
	lastDecoded []byte
	lastErr     error
	decodes     int
}

func (p *recordingPlayer) OnImageRead(ctx blockreader.RecordContext, blockIndex int, block recordformat.ContentBlock, data []byte) bool {
	p.decodes++
	p.lastDecoded, p.lastErr = p.handler.TryToDecodeFrame(block, data)
	return true
}

func (p *recordingPlayer) RecordReadComplete(ctx blockreader.RecordContext) {
	if !p.handler.IsMissingFrames() {
		return
	}
	entry, ok := p.reader.GetRecordByTime(ctx.StreamID, ctx.TimestampSec)
	if !ok {
		return
	}
	p.handler.ReadMissingFrames(p.reader, entry, true, func(int) *datalayout.Layout { return p.layout }, p)
}

func writeVideoTestFile(t *testing.T, path string, frameCount int) (vrs.StreamId, *datalayout.Layout) {
	t.Helper()
	w, err := filewriter.Create(chunkio.NewSpec(path), filewriter.DefaultOptions())
	if err != nil {
		t.Fatalf("filewriter.Create: %v", err)
	}
	streamID := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	r := recordable.New(streamID)

	writeLayout := datalayout.New()
	keyTS := datalayout.Add(writeLayout, datalayout.MakeValue[float64]("keyframe_timestamp"))
	keyIdx := datalayout.Add(writeLayout, datalayout.MakeValue[uint32]("keyframe_index"))

	format := recordformat.New(recordformat.Data, 1)
	format.Add(recordformat.DataLayoutBlock(int64(writeLayout.FixedSize())))
	format.Add(recordformat.ImageBlock(recordformat.ImageVideo, map[string]string{"codec": "videoframe-readmissing-codec"}))
	r.AddRecordFormat(format)
	w.AddRecordable(r, compression.None)

	for i := 0; i < frameCount; i++ {
		keyTS.Set(0)
		keyIdx.Set(uint32(i))
		payload := []byte{byte(i)}
		source := recordable.NewDataSource().WithLayout(0, writeLayout).WithChunk(0, payload)
		if _, err := r.CreateRecord(float64(i), recordformat.Data, 1, source); err != nil {
			t.Fatalf("CreateRecord %d: %v", i, err)
		}
	}
	if err := w.WriteRecordsAsync(10); err != nil {
		t.Fatalf("WriteRecordsAsync: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	readLayout := datalayout.New()
	datalayout.Add(readLayout, datalayout.MakeValue[float64]("keyframe_timestamp"))
	datalayout.Add(readLayout, datalayout.MakeValue[uint32]("keyframe_index"))
	return streamID, readLayout
}

func TestReadMissingFramesReplaysGroupOfPictures(t *testing.T) {
	blockreader.RegisterDecoder("videoframe-readmissing-codec", func(recordformat.ContentBlock) (blockreader.Decoder, error) {
		return echoDecoder{}, nil
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "video.vrs")
	streamID, readLayout := writeVideoTestFile(t, path, 4)

	reader, err := filereader.OpenFile(chunkio.NewSpec(path), false)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer reader.Close()

	player := &recordingPlayer{handler: New(), reader: reader, layout: readLayout}

	lastEntry, err := reader.GetRecord(streamID, vrs.Data, 3)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	err = reader.ReadRecordWithLayouts(lastEntry, player, func(int) *datalayout.Layout { return readLayout })
	if err != nil {
		t.Fatalf("ReadRecordWithLayouts: %v", err)
	}

	if player.handler.IsMissingFrames() {
		t.Fatal("expected ReadMissingFrames to have resolved the sequence gap")
	}
	if len(player.lastDecoded) != 1 || player.lastDecoded[0] != 3 {
		t.Fatalf("expected the final decode to yield frame 3's payload, got %v (err=%v)", player.lastDecoded, player.lastErr)
	}
	// 1 failed out-of-sequence attempt at frame 3, then a full replay of
	// frames 0-3 (the keyframe plus every frame up to and including the
	// target) once ReadMissingFrames runs.
	if player.decodes != 5 {
		t.Fatalf("expected 5 decode attempts, got %d", player.decodes)
	}
}
