package blockreader

import (
	"testing"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/recordformat"
)

type recordingPlayer struct {
	BaseStreamPlayer
	imageCalls  int
	lastImage   []byte
	layoutCalls int
	complete    bool
}

func (p *recordingPlayer) OnDataLayoutRead(ctx RecordContext, i int, layout *datalayout.Layout) bool {
	p.layoutCalls++
	return true
}

func (p *recordingPlayer) OnImageRead(ctx RecordContext, i int, block recordformat.ContentBlock, data []byte) bool {
	p.imageCalls++
	p.lastImage = data
	return true
}

func (p *recordingPlayer) RecordReadComplete(ctx RecordContext) {
	p.complete = true
}

func TestPlayRecordDispatchesDataLayoutAndImage(t *testing.T) {
	layout := datalayout.New()
	counter := datalayout.Add(layout, datalayout.MakeValue[uint32]("counter"))
	counter.Set(5)
	layoutBytes := layout.CollectVariableDataAndUpdateIndex()

	format := recordformat.New(recordformat.Data, 1)
	format.Add(recordformat.DataLayoutBlock(int64(len(layoutBytes))))
	format.Add(recordformat.ImageBlock(recordformat.ImageRaw, map[string]string{"width": "2", "height": "1", "pixel_format": "gray8"}))

	imageBytes := []byte{10, 20}
	payload := append(append([]byte{}, layoutBytes...), imageBytes...)

	readLayout := datalayout.New()
	readCounter := datalayout.Add(readLayout, datalayout.MakeValue[uint32]("counter"))

	player := &recordingPlayer{}
	streamID := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	err := PlayRecord(RecordContext{StreamID: streamID}, format, payload, func(i int) *datalayout.Layout {
		if i == 0 {
			return readLayout
		}
		return nil
	}, nil, player)
	if err != nil {
		t.Fatalf("PlayRecord: %v", err)
	}
	if player.layoutCalls != 1 || player.imageCalls != 1 {
		t.Fatalf("expected 1 layout call and 1 image call, got %d/%d", player.layoutCalls, player.imageCalls)
	}
	if readCounter.Get() != 5 {
		t.Fatalf("expected the data layout block to be decoded, counter=%d", readCounter.Get())
	}
	if string(player.lastImage) != string(imageBytes) {
		t.Fatalf("unexpected image bytes: %v", player.lastImage)
	}
	if !player.complete {
		t.Fatal("expected RecordReadComplete to be called")
	}
}

// TestPlayRecordFallsBackToStoredSchemaOnLayoutMismatch exercises the
// schema-evolution path from spec.md §4.D / Testable Property 7: a
// reader declaring more fields than an older record actually carries
// can't ReadFrom it directly, but can still recover the fields that do
// exist via MapFromSchema given the writer's stored schema.
func TestPlayRecordFallsBackToStoredSchemaOnLayoutMismatch(t *testing.T) {
	writerLayout := datalayout.New()
	counter := datalayout.Add(writerLayout, datalayout.MakeValue[uint32]("counter"))
	counter.Set(9)
	writerBytes := writerLayout.CollectVariableDataAndUpdateIndex()
	writerSchema := writerLayout.DescribeSchema()

	format := recordformat.New(recordformat.Data, 1)
	format.Add(recordformat.DataLayoutBlock(int64(len(writerBytes))))

	readerLayout := datalayout.New()
	readerCounter := datalayout.Add(readerLayout, datalayout.MakeValue[uint32]("counter"))
	readerExtra := datalayout.Add(readerLayout, datalayout.MakeValue[uint32]("extra"))

	player := &recordingPlayer{}
	streamID := vrs.StreamId{TypeId: vrs.SlamCameraData, InstanceId: 1}
	err := PlayRecord(RecordContext{StreamID: streamID}, format, writerBytes,
		func(i int) *datalayout.Layout { return readerLayout },
		func(i int) (datalayout.Schema, bool) { return writerSchema, true },
		player)
	if err != nil {
		t.Fatalf("PlayRecord: %v", err)
	}
	if !readerCounter.IsAvailable() || readerCounter.Get() != 9 {
		t.Fatalf("expected counter to map across via the fallback schema, got %d available=%v", readerCounter.Get(), readerCounter.IsAvailable())
	}
	if readerExtra.IsAvailable() {
		t.Fatal("expected the field absent from the old record to stay unavailable")
	}
}

