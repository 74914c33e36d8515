package blockreader

import (
	"testing"

	"github.com/go-vrs/vrs/recordformat"
)

func TestParseImageSpecAndRawSize(t *testing.T) {
	block := recordformat.ImageBlock(recordformat.ImageRaw, map[string]string{
		"width": "640", "height": "480", "pixel_format": "rgb8",
	})
	spec := ParseImageSpec(block)
	if spec.Width != 640 || spec.Height != 480 || spec.PixelFormat != "rgb8" {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	size, err := RawImageSize(spec)
	if err != nil {
		t.Fatalf("RawImageSize: %v", err)
	}
	if size != 640*480*3 {
		t.Fatalf("unexpected size %d", size)
	}
}

func TestRawImageSizeUnknownPixelFormat(t *testing.T) {
	_, err := RawImageSize(ImageSpec{Width: 1, Height: 1, PixelFormat: "nonexistent"})
	if err == nil {
		t.Fatal("expected an error for an unrecognized pixel format")
	}
}

func TestIsVideoBlock(t *testing.T) {
	video := recordformat.ImageBlock(recordformat.ImageVideo, map[string]string{"codec": "h264"})
	raw := recordformat.ImageBlock(recordformat.ImageRaw, nil)
	if !IsVideoBlock(video) {
		t.Fatal("expected video block to be recognized")
	}
	if IsVideoBlock(raw) {
		t.Fatal("raw image block should not be a video block")
	}
}
