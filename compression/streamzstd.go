package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ErrTooMuchData is returned by StreamWriter.AddFrameData/EndFrame when the
// compressed output would exceed the maxCompressedSize cap passed to
// NewStreamWriter, mirroring Compressor::addFrameData's TOO_MUCH_DATA
// result: the caller should fall back to storing the record
// uncompressed rather than writing a partial, unusably large frame.
var ErrTooMuchData = errors.New("compression: too much data for capped zstd frame")

// StreamWriter incrementally compresses a single zstd frame of known
// (but not yet fully buffered) size into an io.Writer, capping the
// total compressed bytes written. Ported from the
// startFrame/addFrameData/endFrame sequence in Compressor.cpp, which
// exists so the writer can compress a record's content blocks as they
// are produced rather than buffering the whole record in memory first.
type StreamWriter struct {
	out              io.Writer
	enc              *zstd.Encoder
	maxCompressedSize int64
	written          int64
	closed           bool
}

// NewStreamWriter starts a new capped zstd frame writing to out, at
// the compression level implied by preset. A maxCompressedSize of 0
// means no cap.
func NewStreamWriter(out io.Writer, preset Preset, maxCompressedSize int64) (*StreamWriter, error) {
	level := zstd.EncoderLevelFromZstd(zstdLevelFor(preset))
	sw := &StreamWriter{out: out, maxCompressedSize: maxCompressedSize}
	enc, err := zstd.NewWriter(sw.countingWriter(), zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("compression: starting zstd stream: %w", err)
	}
	sw.enc = enc
	return sw, nil
}

// countingWriter wraps sw.out so every flushed chunk is counted against
// the compressed-size cap before being forwarded.
func (sw *StreamWriter) countingWriter() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		if sw.maxCompressedSize > 0 && sw.written+int64(len(p)) > sw.maxCompressedSize {
			return 0, ErrTooMuchData
		}
		n, err := sw.out.Write(p)
		sw.written += int64(n)
		return n, err
	})
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// AddFrameData compresses and flushes another chunk of the frame's
// input data.
func (sw *StreamWriter) AddFrameData(data []byte) error {
	_, err := sw.enc.Write(data)
	return err
}

// EndFrame finalizes the frame, flushing any remaining compressed
// bytes, and returns the total number of compressed bytes written.
func (sw *StreamWriter) EndFrame() (int64, error) {
	if sw.closed {
		return sw.written, nil
	}
	sw.closed = true
	if err := sw.enc.Close(); err != nil {
		return sw.written, err
	}
	return sw.written, nil
}

// CompressToBuffer is a convenience one-shot wrapper around
// StreamWriter for callers that want a capped zstd frame in memory
// rather than streamed to an io.Writer.
func CompressToBuffer(data []byte, preset Preset, maxCompressedSize int64) ([]byte, error) {
	var buf bytes.Buffer
	sw, err := NewStreamWriter(&buf, preset, maxCompressedSize)
	if err != nil {
		return nil, err
	}
	if err := sw.AddFrameData(data); err != nil {
		return nil, err
	}
	if _, err := sw.EndFrame(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
