package chunkio

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// ChunkedFile is a random-access file object that may be split across
// several underlying chunks, addressed as a single contiguous byte
// range. Grounded on the connect/disconnect lifecycle and positional
// access shape of pkg/storage/interface.go's Backend, generalized from
// content-addressed blocks to byte-offset ranges within possibly
// multiple chunk files.
type ChunkedFile interface {
	// Open connects the file for reading and/or writing.
	Open() error
	// Close releases any open chunk handles.
	Close() error
	// Size returns the total size across all chunks.
	Size() int64
	// ReadAt reads len(p) bytes starting at absolute offset off,
	// transparently crossing chunk boundaries.
	ReadAt(p []byte, off int64) (int, error)
	// WriteAt writes p at absolute offset off within the last (or
	// only) chunk; writers only ever append to the last chunk.
	WriteAt(p []byte, off int64) (int, error)
	// AddChunk appends a new, initially empty chunk at path, returning
	// its index and recording path in the spec's chunk list.
	AddChunk(path string) (int, error)
	// Spec returns the underlying file spec (chunk paths and sizes).
	Spec() Spec
}

// chunk tracks one physical chunk file and its byte-offset range
// within the logical ChunkedFile.
type chunk struct {
	path      string
	file      *os.File
	startByte int64
	size      int64
}

// DiskFile is the default ChunkedFile, reading/writing a Spec's chunks
// as ordinary files on local disk. Ported in shape from
// pkg/storage/backends/mock.go's in-memory Backend (open/connected
// state, simple error paths) but backed by real os.File handles
// instead of an in-memory map, since VRS files are written and read
// well past the point where holding everything in memory is practical.
type DiskFile struct {
	spec      Spec
	chunks    []*chunk
	connected bool
	writable  bool
}

// NewDiskFile returns a DiskFile for spec. writable enables WriteAt
// and AddChunk; a read-only DiskFile opens its chunks O_RDONLY.
func NewDiskFile(spec Spec, writable bool) *DiskFile {
	return &DiskFile{spec: spec, writable: writable}
}

func (f *DiskFile) Open() error {
	if f.connected {
		return nil
	}
	flag := os.O_RDONLY
	if f.writable {
		flag = os.O_RDWR | os.O_CREATE
	}
	var offset int64
	for i, path := range f.spec.Chunks {
		fh, err := os.OpenFile(path, flag, 0o644)
		if err != nil {
			f.closeChunks()
			return fmt.Errorf("chunkio: opening chunk %d (%s): %w", i, path, err)
		}
		info, err := fh.Stat()
		if err != nil {
			fh.Close()
			f.closeChunks()
			return fmt.Errorf("chunkio: stat chunk %d (%s): %w", i, path, err)
		}
		c := &chunk{path: path, file: fh, startByte: offset, size: info.Size()}
		f.chunks = append(f.chunks, c)
		offset += c.size
	}
	f.connected = true
	return nil
}

func (f *DiskFile) Close() error {
	if !f.connected {
		return nil
	}
	err := f.closeChunks()
	f.connected = false
	return err
}

func (f *DiskFile) closeChunks() error {
	var firstErr error
	for _, c := range f.chunks {
		if c.file == nil {
			continue
		}
		if err := c.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *DiskFile) Size() int64 {
	var total int64
	for _, c := range f.chunks {
		total += c.size
	}
	return total
}

func (f *DiskFile) Spec() Spec {
	return f.spec
}

// chunkFor returns the chunk containing absolute offset off, via
// binary search over chunk start offsets.
func (f *DiskFile) chunkFor(off int64) (*chunk, error) {
	idx := sort.Search(len(f.chunks), func(i int) bool {
		return f.chunks[i].startByte+f.chunks[i].size > off
	})
	if idx == len(f.chunks) {
		return nil, io.EOF
	}
	return f.chunks[idx], nil
}

func (f *DiskFile) ReadAt(p []byte, off int64) (int, error) {
	if !f.connected {
		return 0, fmt.Errorf("chunkio: read from unopened file")
	}
	total := 0
	for total < len(p) {
		c, err := f.chunkFor(off)
		if err != nil {
			if total > 0 {
				return total, io.ErrUnexpectedEOF
			}
			return 0, err
		}
		localOff := off - c.startByte
		remaining := c.size - localOff
		want := int64(len(p) - total)
		if want > remaining {
			want = remaining
		}
		n, err := c.file.ReadAt(p[total:int64(total)+want], localOff)
		total += n
		off += int64(n)
		if err != nil && err != io.EOF {
			return total, err
		}
		if int64(n) < want {
			break
		}
	}
	if total < len(p) {
		return total, io.ErrUnexpectedEOF
	}
	return total, nil
}

func (f *DiskFile) WriteAt(p []byte, off int64) (int, error) {
	if !f.writable {
		return 0, fmt.Errorf("chunkio: file is read-only")
	}
	if len(f.chunks) == 0 {
		return 0, fmt.Errorf("chunkio: no chunks to write to")
	}
	last := f.chunks[len(f.chunks)-1]
	localOff := off - last.startByte
	if localOff < 0 {
		return 0, fmt.Errorf("chunkio: write offset %d precedes last chunk", off)
	}
	n, err := last.file.WriteAt(p, localOff)
	if int64(n)+localOff > last.size {
		last.size = int64(n) + localOff
	}
	return n, err
}

func (f *DiskFile) AddChunk(path string) (int, error) {
	if !f.writable {
		return 0, fmt.Errorf("chunkio: file is read-only")
	}
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return 0, err
	}
	idx := len(f.chunks)
	f.chunks = append(f.chunks, &chunk{path: path, file: fh, startByte: f.Size()})
	f.spec.Chunks = append(f.spec.Chunks, path)
	return idx, nil
}
