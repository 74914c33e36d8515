package compression

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Compressor performs one-shot compression of record payloads
// (streaming zstd frames are StreamWriter's job), reusing its encoder across calls the way Compressor::impl_
// reuses a single ZSTD_CCtx. Not safe for concurrent use by multiple
// goroutines; the writer package gives each worker its own Compressor.
type Compressor struct {
	buf         bytes.Buffer
	lastType    Type
	zstdEncoder *zstd.Encoder
	streamLevel zstd.EncoderLevel
}

// NewCompressor returns an idle Compressor.
func NewCompressor() *Compressor {
	return &Compressor{}
}

// Compress attempts to compress data under preset, returning the
// compressed bytes and the Type actually used. If the compressed
// result would not be smaller than data, or preset is None/Undefined,
// or data is smaller than the minimum worth compressing, Compress
// returns (nil, TypeNone) and the caller should store data uncompressed.
func (c *Compressor) Compress(data []byte, preset Preset) ([]byte, Type) {
	if !shouldTryToCompress(preset, len(data)) {
		c.lastType = TypeNone
		return nil, TypeNone
	}
	switch {
	case preset.IsLz4():
		out, err := lz4Compress(data, preset)
		if err != nil || len(out) >= len(data) {
			c.lastType = TypeNone
			return nil, TypeNone
		}
		c.lastType = TypeLz4
		return out, TypeLz4
	case preset.IsZstd():
		out, err := c.zstdCompress(data, preset)
		if err != nil || len(out) >= len(data) {
			c.lastType = TypeNone
			return nil, TypeNone
		}
		c.lastType = TypeZstd
		return out, TypeZstd
	default:
		c.lastType = TypeNone
		return nil, TypeNone
	}
}

// LastType returns the Type used by the most recent Compress call.
func (c *Compressor) LastType() Type { return c.lastType }

func (c *Compressor) zstdCompress(data []byte, preset Preset) ([]byte, error) {
	level := zstd.EncoderLevelFromZstd(zstdLevelFor(preset))
	if c.zstdEncoder == nil || c.streamLevel != level {
		if c.zstdEncoder != nil {
			c.zstdEncoder.Close()
		}
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return nil, fmt.Errorf("compression: creating zstd encoder: %w", err)
		}
		c.zstdEncoder = enc
		c.streamLevel = level
	}
	c.buf.Reset()
	return c.zstdEncoder.EncodeAll(data, c.buf.Bytes()), nil
}

// Close releases the Compressor's reusable encoder. Callers that pool
// Compressors across many records should call Close when a Compressor
// is finally discarded.
func (c *Compressor) Close() error {
	if c.zstdEncoder != nil {
		c.zstdEncoder.Close()
		c.zstdEncoder = nil
	}
	return nil
}

// Decompress decompresses data, which was compressed as Type t,
// returning the original payload.
func Decompress(data []byte, t Type, decompressedSize int) ([]byte, error) {
	switch t {
	case TypeNone:
		return data, nil
	case TypeLz4:
		return lz4Decompress(data, decompressedSize)
	case TypeZstd:
		return zstdDecompress(data, decompressedSize)
	default:
		return nil, fmt.Errorf("compression: unknown compression type %d", t)
	}
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil)
		if err != nil {
			panic(err) // zstd.NewReader(nil) cannot fail
		}
		return d
	},
}

func zstdDecompress(data []byte, decompressedSize int) ([]byte, error) {
	d := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(d)
	out := make([]byte, 0, decompressedSize)
	return d.DecodeAll(data, out)
}
