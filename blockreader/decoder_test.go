package blockreader

import (
	"testing"

	"github.com/go-vrs/vrs/recordformat"
)

type echoDecoder struct{}

func (echoDecoder) Decode(spec map[string]string, data []byte) ([]byte, error) { return data, nil }

func TestRegisterDecoderAndNewDecoder(t *testing.T) {
	RegisterDecoder("test-echo-codec", func(block recordformat.ContentBlock) (Decoder, error) {
		return echoDecoder{}, nil
	})
	block := recordformat.ImageBlock(recordformat.ImageVideo, map[string]string{"codec": "test-echo-codec"})
	dec, err := NewDecoder(block)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	out, err := dec.Decode(block.Spec, []byte{1, 2, 3})
	if err != nil || len(out) != 3 {
		t.Fatalf("Decode: %v, %v", out, err)
	}
}

func TestNewDecoderUnregisteredCodec(t *testing.T) {
	block := recordformat.ImageBlock(recordformat.ImageVideo, map[string]string{"codec": "no-such-codec"})
	if _, err := NewDecoder(block); err == nil {
		t.Fatal("expected an error for an unregistered codec")
	}
}
