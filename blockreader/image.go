package blockreader

import (
	"fmt"
	"strconv"

	"github.com/go-vrs/vrs/recordformat"
)

// InvalidFrameIndex marks the absence of a keyframe index, mirroring
// original_source/vrs/utils/VideoFrameHandler.h's kInvalidFrameIndex.
const InvalidFrameIndex = ^uint32(0)

// ImageSpec is the decoded form of an image content block's Spec map:
// dimensions and pixel format for raw images, a codec name for
// compressed/video images, and (for video images) the keyframe
// timestamp/index PlayRecord mirrors in from the preceding DataLayout
// block, per spec.md §4.I.
type ImageSpec struct {
	Width            int
	Height           int
	PixelFormat      string
	Codec            string
	KeyframeTimestamp float64
	KeyframeIndex     uint32
}

// ParseImageSpec reads the width/height/pixel_format/codec/keyframe_*
// entries out of block.Spec, leaving fields zero-valued (KeyframeIndex
// InvalidFrameIndex) when absent.
func ParseImageSpec(block recordformat.ContentBlock) ImageSpec {
	s := ImageSpec{KeyframeIndex: InvalidFrameIndex}
	if v, ok := block.Spec["width"]; ok {
		s.Width, _ = strconv.Atoi(v)
	}
	if v, ok := block.Spec["height"]; ok {
		s.Height, _ = strconv.Atoi(v)
	}
	s.PixelFormat = block.Spec["pixel_format"]
	s.Codec = block.Spec["codec"]
	if v, ok := block.Spec["keyframe_timestamp"]; ok {
		s.KeyframeTimestamp, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := block.Spec["keyframe_index"]; ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			s.KeyframeIndex = uint32(n)
		}
	}
	return s
}

// RawImageSize returns the expected byte size of a raw image block
// given its spec, or an error if the pixel format isn't recognized.
func RawImageSize(spec ImageSpec) (int, error) {
	if spec.PixelFormat == "yuv420" {
		// 4:2:0 subsampling: one luma byte per pixel plus one byte per 4
		// pixels in each of the two chroma planes (Width*Height/2 for the
		// combined U+V planes).
		return spec.Width*spec.Height + spec.Width*spec.Height/2, nil
	}
	bytesPerPixel, ok := pixelFormatSizes[spec.PixelFormat]
	if !ok {
		return 0, fmt.Errorf("blockreader: unknown pixel format %q", spec.PixelFormat)
	}
	return spec.Width * spec.Height * bytesPerPixel, nil
}

var pixelFormatSizes = map[string]int{
	"gray8":  1,
	"gray16": 2,
	"rgb8":   3,
	"rgba8":  4,
	"bgr8":   3,
}

// IsVideoBlock reports whether block is a codec-compressed video
// frame, as opposed to a raw or still-image (jpg/png) block.
func IsVideoBlock(block recordformat.ContentBlock) bool {
	return block.Type == recordformat.ContentImage && block.ImageFormat == recordformat.ImageVideo
}
