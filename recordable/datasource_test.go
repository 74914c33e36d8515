package recordable

import (
	"bytes"
	"testing"

	"github.com/go-vrs/vrs/datalayout"
)

func TestDataSourceSerializeLayoutsThenChunks(t *testing.T) {
	layout := datalayout.New()
	v := datalayout.Add(layout, datalayout.MakeValue[uint32]("x"))
	v.Set(7)

	src := NewDataSource().WithLayout(0, layout).WithChunk(0, []byte{1, 2}).WithChunk(2, []byte{3})
	out := src.serialize()

	layoutBytes := layout.CollectVariableDataAndUpdateIndex()
	want := append(append([]byte{}, layoutBytes...), []byte{1, 2, 3}...)
	if !bytes.Equal(out, want) {
		t.Fatalf("unexpected serialization: got %v, want %v", out, want)
	}
}

func TestDataSourceSerializeEmpty(t *testing.T) {
	out := NewDataSource().serialize()
	if len(out) != 0 {
		t.Fatalf("expected empty serialization, got %v", out)
	}
}
