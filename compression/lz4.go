package compression

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// lz4Compress compresses data as a single LZ4 frame, using the
// compression level implied by preset, matching
// Compressor::CompressorImpl::getLz4Preferences: Lz4Tight uses level 4,
// Lz4Fast uses the library's fast default (0).
func lz4Compress(data []byte, preset Preset) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	opts := []lz4.Option{}
	if preset == Lz4Tight {
		opts = append(opts, lz4.CompressionLevelOption(lz4.Level(lz4TightLevel)))
	}
	if err := w.Apply(opts...); err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lz4Decompress decompresses a single LZ4 frame produced by lz4Compress.
func lz4Decompress(data []byte, decompressedSize int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	out := make([]byte, 0, decompressedSize)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
