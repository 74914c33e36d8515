// Package recordformat declares, for one (record type, format
// version) of a stream, the ordered sequence of content blocks a
// record of that shape carries, and serializes that sequence to and
// from the VRS-tag string stored as a stream's "RF:<RecordType>:<formatVersion>"
// tag. Ported from spec.md §4.D.
package recordformat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ContentType identifies the kind of payload a ContentBlock describes.
type ContentType int

const (
	ContentEmpty ContentType = iota
	ContentDataLayout
	ContentImage
	ContentAudio
	ContentCustom
)

func (c ContentType) String() string {
	switch c {
	case ContentEmpty:
		return "empty"
	case ContentDataLayout:
		return "data_layout"
	case ContentImage:
		return "image"
	case ContentAudio:
		return "audio"
	case ContentCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ImageFormat names an image content block's encoding.
type ImageFormat int

const (
	ImageRaw ImageFormat = iota
	ImageJPG
	ImagePNG
	ImageVideo
	ImageCustomCodec
)

func (f ImageFormat) String() string {
	switch f {
	case ImageRaw:
		return "raw"
	case ImageJPG:
		return "jpg"
	case ImagePNG:
		return "png"
	case ImageVideo:
		return "video"
	case ImageCustomCodec:
		return "custom_codec"
	default:
		return "unknown"
	}
}

// AudioFormat names an audio content block's encoding.
type AudioFormat int

const (
	AudioPCM AudioFormat = iota
	AudioOpus
)

func (f AudioFormat) String() string {
	switch f {
	case AudioPCM:
		return "pcm"
	case AudioOpus:
		return "opus"
	default:
		return "unknown"
	}
}

// ContentBlock describes one content block within a record: its type,
// and, when known ahead of time, the parameters needed to determine
// its size (image dimensions/pixel format, a fixed DataLayout size,
// etc). A size of -1 means "not declared here" — per spec.md §4.D's
// size-resolution rules, the actual size is recovered at read time
// either from a next_content_block_size field in the preceding
// DataLayout, or (for the last block in the record) from whatever
// bytes remain.
type ContentBlock struct {
	Type        ContentType
	ImageFormat ImageFormat
	AudioFormat AudioFormat
	// Spec carries type-specific parameters as key=value pairs, e.g.
	// "width=640,height=480,pixel_format=rgb8" for a raw image, or
	// "size=33" for a fixed-size DataLayout.
	Spec map[string]string
	Size int64
}

// DataLayoutBlock returns a ContentBlock describing a DataLayout of
// fixedSize bytes (or -1 if the size isn't declared here).
func DataLayoutBlock(fixedSize int64) ContentBlock {
	b := ContentBlock{Type: ContentDataLayout, Size: fixedSize}
	if fixedSize >= 0 {
		b.Spec = map[string]string{"size": strconv.FormatInt(fixedSize, 10)}
	}
	return b
}

// ImageBlock returns a ContentBlock describing an image of the given format and spec.
func ImageBlock(format ImageFormat, spec map[string]string) ContentBlock {
	return ContentBlock{Type: ContentImage, ImageFormat: format, Spec: spec, Size: -1}
}

// AudioBlock returns a ContentBlock describing audio of the given format and spec.
func AudioBlock(format AudioFormat, spec map[string]string) ContentBlock {
	return ContentBlock{Type: ContentAudio, AudioFormat: format, Spec: spec, Size: -1}
}

// CustomBlock returns a ContentBlock describing an opaque payload of size bytes (-1 if unknown here).
func CustomBlock(size int64) ContentBlock {
	b := ContentBlock{Type: ContentCustom, Size: size}
	if size >= 0 {
		b.Spec = map[string]string{"size": strconv.FormatInt(size, 10)}
	}
	return b
}

// EmptyBlock returns the zero-size placeholder ContentBlock.
func EmptyBlock() ContentBlock {
	return ContentBlock{Type: ContentEmpty, Size: 0}
}

// String renders b in the compact block-spec form used in a
// RecordFormat's serialized tag, e.g. "data_layout/size=33", "image/raw",
// "image/video/codec=h264", "audio/opus", "custom/size=128".
func (b ContentBlock) String() string {
	var sb strings.Builder
	sb.WriteString(b.Type.String())
	switch b.Type {
	case ContentImage:
		sb.WriteByte('/')
		sb.WriteString(b.ImageFormat.String())
	case ContentAudio:
		sb.WriteByte('/')
		sb.WriteString(b.AudioFormat.String())
	}
	keys := make([]string, 0, len(b.Spec))
	for k := range b.Spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "/%s=%s", k, b.Spec[k])
	}
	return sb.String()
}

// parseContentBlock parses one "+"-delimited block-spec token back
// into a ContentBlock.
func parseContentBlock(token string) (ContentBlock, error) {
	parts := strings.Split(token, "/")
	if len(parts) == 0 {
		return ContentBlock{}, fmt.Errorf("recordformat: empty content block token")
	}
	b := ContentBlock{Size: -1, Spec: map[string]string{}}
	switch parts[0] {
	case "empty":
		b.Type = ContentEmpty
		b.Size = 0
		return b, nil
	case "data_layout":
		b.Type = ContentDataLayout
	case "image":
		b.Type = ContentImage
		if len(parts) > 1 && !strings.Contains(parts[1], "=") {
			switch parts[1] {
			case "raw":
				b.ImageFormat = ImageRaw
			case "jpg":
				b.ImageFormat = ImageJPG
			case "png":
				b.ImageFormat = ImagePNG
			case "video":
				b.ImageFormat = ImageVideo
			case "custom_codec":
				b.ImageFormat = ImageCustomCodec
			}
			parts = append(parts[:1], parts[2:]...)
		}
	case "audio":
		b.Type = ContentAudio
		if len(parts) > 1 && !strings.Contains(parts[1], "=") {
			switch parts[1] {
			case "pcm":
				b.AudioFormat = AudioPCM
			case "opus":
				b.AudioFormat = AudioOpus
			}
			parts = append(parts[:1], parts[2:]...)
		}
	case "custom":
		b.Type = ContentCustom
	default:
		return ContentBlock{}, fmt.Errorf("recordformat: unknown content block type %q", parts[0])
	}
	for _, kv := range parts[1:] {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		key, val := kv[:eq], kv[eq+1:]
		b.Spec[key] = val
		if key == "size" {
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				b.Size = n
			}
		}
	}
	return b, nil
}
