package filewriter

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"sync"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/compression"
	"github.com/go-vrs/vrs/internal/vlog"
	"github.com/go-vrs/vrs/recordable"
)

// Options configures a RecordFileWriter.
type Options struct {
	// DefaultPreset is the compression preset used for streams that
	// don't set their own. Per SPEC_FULL.md §5 Open Question 4, the
	// library-wide default is Lz4Fast.
	DefaultPreset compression.Preset
	// GraceWindow is writeRecordsAsync's ordering contract: records
	// with timestamp <= upToTimestamp - GraceWindow are safe to
	// serialize without violating global non-decreasing order, per
	// spec.md §4.G.
	GraceWindow float64
	// PreallocatedIndexEntries reserves room for that many IndexEntry
	// slots right after the file header (SPEC_FULL.md §5 Open Question 2).
	PreallocatedIndexEntries int
	// CompressionWorkers is the compression pool size; <= 0 uses
	// runtime.NumCPU().
	CompressionWorkers int
	// MaxChunkBytes rolls the file to a new chunk once the current
	// chunk reaches this size, per spec.md §4.A ("when maxChunkBytes >
	// 0, the writer rolls to a new chunk after a record is fully
	// written"). <= 0 disables rolling (single-chunk output).
	MaxChunkBytes int64
}

// DefaultOptions returns the writer defaults named in SPEC_FULL.md §5.
func DefaultOptions() Options {
	return Options{DefaultPreset: compression.Lz4Fast, GraceWindow: 1.0, PreallocatedIndexEntries: 1024}
}

// RecordFileWriter emits a chunked VRS file: it pulls buffered records
// from each registered Recordable's RecordManager, compresses them
// through a worker pool, and writes them to disk in non-decreasing
// timestamp order from a single internal writer goroutine's worth of
// sequential I/O (no actual extra goroutine is needed here since
// writeRecordsAsync already returns only after its batch is durably
// ordered on disk). Grounded on spec.md §4.G.
type RecordFileWriter struct {
	mu          sync.Mutex
	file        chunkio.ChunkedFile
	pool        *compressionPool
	opts        Options
	recordables map[vrs.StreamId]*recordable.Recordable
	presets     map[vrs.StreamId]compression.Preset
	index       *Index
	writePos    uint64
	prevSize    uint32
	closed      bool
	log         *vlog.Logger

	currentChunkStart uint64
	nextChunkIndex    int
}

// Create opens a new writable file at spec and reserves header and
// preallocated-index space.
func Create(spec chunkio.Spec, opts Options) (*RecordFileWriter, error) {
	file := chunkio.NewDiskFile(spec, true)
	if err := file.Open(); err != nil {
		return nil, fmt.Errorf("filewriter: creating file: %w", err)
	}
	w := &RecordFileWriter{
		file:           file,
		pool:           newCompressionPool(opts.CompressionWorkers, 256),
		opts:           opts,
		recordables:    map[vrs.StreamId]*recordable.Recordable{},
		presets:        map[vrs.StreamId]compression.Preset{},
		index:          NewIndex(opts.PreallocatedIndexEntries),
		log:            vlog.Default.WithComponent("filewriter"),
		nextChunkIndex: 1,
	}
	reserved := uint64(fileHeaderSize + opts.PreallocatedIndexEntries*indexEntrySize)
	if _, err := file.WriteAt(make([]byte, reserved), 0); err != nil {
		return nil, fmt.Errorf("filewriter: reserving header/index space: %w", err)
	}
	w.writePos = reserved
	return w, nil
}

// AddRecordable registers r with the writer so its buffered records
// are picked up by WriteRecordsAsync, using preset as r's compression
// preset (or the writer's DefaultPreset if preset is Undefined).
func (w *RecordFileWriter) AddRecordable(r *recordable.Recordable, preset compression.Preset) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recordables[r.StreamID()] = r
	if preset == compression.Undefined {
		preset = w.opts.DefaultPreset
	}
	w.presets[r.StreamID()] = preset
}

// pendingRecord pairs a drained record with the preset its stream uses.
type pendingRecord struct {
	rec    *vrs.Record
	preset compression.Preset
}

// WriteRecordsAsync drains every registered Recordable's buffered
// records with timestamp <= upToTimestamp - GraceWindow, compresses
// them concurrently through the worker pool, and writes them to disk
// in non-decreasing timestamp order (stream-FIFO tie-break), updating
// the index as it goes. Despite the name, this implementation does the
// actual disk writes before returning; "async" describes the contract
// with producers (they may keep calling CreateRecord for other
// streams while this runs), not a background goroutine the caller
// must separately wait on.
func (w *RecordFileWriter) WriteRecordsAsync(upToTimestamp float64) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return fmt.Errorf("filewriter: write on a closed writer")
	}
	cutoff := upToTimestamp - w.opts.GraceWindow
	var pending []pendingRecord
	for streamID, r := range w.recordables {
		for _, rec := range r.Manager().DrainUpTo(cutoff) {
			pending = append(pending, pendingRecord{rec: rec, preset: w.presets[streamID]})
		}
	}
	w.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].rec.Timestamp < pending[j].rec.Timestamp
	})

	results := make([]<-chan compressionResult, len(pending))
	for i, p := range pending {
		results[i] = w.pool.Submit(p.rec.Payload, p.preset)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for i, p := range pending {
		result := <-results[i]
		if err := w.writeOneLocked(p.rec, result); err != nil {
			return err
		}
		if err := w.rollChunkIfNeededLocked(); err != nil {
			return err
		}
	}
	return nil
}

// rollChunkIfNeededLocked adds a new chunk once the current one has
// grown to opts.MaxChunkBytes, per spec.md §4.A: rolling only ever
// happens right after a record is fully written, so no record straddles
// a chunk boundary.
func (w *RecordFileWriter) rollChunkIfNeededLocked() error {
	if w.opts.MaxChunkBytes <= 0 {
		return nil
	}
	if w.writePos-w.currentChunkStart < uint64(w.opts.MaxChunkBytes) {
		return nil
	}
	spec := w.file.Spec()
	if len(spec.Chunks) == 0 {
		return nil
	}
	path := chunkio.NextChunkPath(spec.Chunks[0], w.nextChunkIndex)
	if _, err := w.file.AddChunk(path); err != nil {
		return fmt.Errorf("filewriter: rolling to chunk %s: %w", path, err)
	}
	w.nextChunkIndex++
	w.currentChunkStart = w.writePos
	return nil
}

func (w *RecordFileWriter) writeOneLocked(rec *vrs.Record, result compressionResult) error {
	header := RecordHeader{
		Magic:              recordMagic,
		RecordSize:         uint32(len(result.Data)),
		PreviousRecordSize: w.prevSize,
		StreamTypeID:       uint32(rec.StreamId.TypeId),
		StreamInstanceID:   rec.StreamId.InstanceId,
		Timestamp:          rec.Timestamp,
		RecordType:         uint8(rec.Type),
		FormatVersion:      rec.FormatVersion,
		CompressionType:    uint8(result.Type),
		UncompressedSize:   uint32(result.UncompressedSize),
	}
	buf := append(header.MarshalBinary(), result.Data...)
	if _, err := w.file.WriteAt(buf, int64(w.writePos)); err != nil {
		return fmt.Errorf("filewriter: writing record: %w", err)
	}
	w.index.Append(IndexEntry{
		StreamTypeID:     header.StreamTypeID,
		StreamInstanceID: header.StreamInstanceID,
		RecordType:       header.RecordType,
		Timestamp:        header.Timestamp,
		FileOffset:       w.writePos,
		DiskSize:         uint32(len(buf)),
	})
	w.writePos += uint64(len(buf))
	w.prevSize = uint32(len(buf))
	return nil
}

// writeTagRecordLocked synthesizes r's Tag record (its user tags and
// registered RecordFormats, per spec.md §3) and writes it immediately,
// ahead of any buffered data, so it always sorts first on disk for its
// stream: Tag records carry math.Inf(-1) as their timestamp, which is
// below every real record's timestamp (NaN excepted, which this library
// never produces). Called once per recordable
// from Close, before the final drain, since RecordManager.submit only
// enforces monotonic timestamps on records a Recordable creates itself.
func (w *RecordFileWriter) writeTagRecordLocked(r *recordable.Recordable) error {
	payload, err := marshalTagRecord(r)
	if err != nil {
		return fmt.Errorf("filewriter: marshaling tags for stream %s: %w", r.StreamID(), err)
	}
	rec := &vrs.Record{StreamId: r.StreamID(), Timestamp: math.Inf(-1), Type: vrs.Tag, Payload: payload}
	return w.writeOneLocked(rec, compressionResult{Data: payload, Type: compression.TypeNone, UncompressedSize: len(payload)})
}

// WatchChunkDirectory starts watching the directory holding w's chunk
// files for chunks deleted or renamed away from outside this process
// (an operator's cleanup job, log rotation, a misconfigured retention
// policy racing a long-lived recording), per SPEC_FULL.md §3's fsnotify
// wiring. onExternalRemove is called with the path of any of w's own
// chunk files it sees removed; it is never called for unrelated files
// sharing the directory. The returned stop function cancels the watch
// and blocks until its goroutine has exited; call it before Close.
func (w *RecordFileWriter) WatchChunkDirectory(ctx context.Context, onExternalRemove func(path string)) (stop func(), err error) {
	spec := w.file.Spec()
	if len(spec.Chunks) == 0 {
		return nil, fmt.Errorf("filewriter: no chunk path to watch")
	}
	watcher, err := chunkio.NewChunkWatcher(filepath.Dir(spec.Chunks[0]))
	if err != nil {
		return nil, fmt.Errorf("filewriter: watching chunk directory: %w", err)
	}
	watchCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Watch(watchCtx, func(e chunkio.ChunkEvent) {
			if e.Op != chunkio.ChunkRemoved || !w.ownsChunk(e.Path) {
				return
			}
			if onExternalRemove != nil {
				onExternalRemove(e.Path)
			}
		})
	}()
	stop = func() {
		cancel()
		watcher.Close()
		<-done
	}
	return stop, nil
}

// ownsChunk reports whether path is one of the chunk files w itself
// wrote, so WatchChunkDirectory ignores unrelated files sharing the
// watched directory.
func (w *RecordFileWriter) ownsChunk(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range w.file.Spec().Chunks {
		if c == path {
			return true
		}
	}
	return false
}

// QueueByteSize approximates getBackgroundThreadQueueByteSize(): the
// number of jobs the compression pool hasn't yet picked up, which a
// caller can use to decide whether to stall producers per spec.md
// §4.G's backpressure contract (the library itself never blocks).
func (w *RecordFileWriter) QueueByteSize() int {
	return w.pool.QueueLen()
}

// Close flushes any remaining buffered records (pulling everything
// regardless of grace window, since no further records can arrive once
// the caller decides to close), finalizes the index per SPEC_FULL.md
// §5 Open Question 2, and closes the underlying file.
func (w *RecordFileWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	for _, r := range w.recordables {
		if err := w.writeTagRecordLocked(r); err != nil {
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	if err := w.WriteRecordsAsync(maxTimestamp()); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	w.pool.Stop()

	entries := w.index.Entries()
	var indexOffset uint64
	if w.index.FitsInPreallocation() {
		indexOffset = fileHeaderSize
		if _, err := w.file.WriteAt(w.index.MarshalBinary(), int64(fileHeaderSize)); err != nil {
			return fmt.Errorf("filewriter: writing in-place index: %w", err)
		}
	} else {
		indexOffset = w.writePos
		if _, err := w.file.WriteAt(w.index.MarshalBinary(), int64(w.writePos)); err != nil {
			return fmt.Errorf("filewriter: writing trailer index: %w", err)
		}
		w.writePos += uint64(len(entries) * indexEntrySize)
	}

	header := FileHeader{
		Magic:             fileMagic,
		Version:           fileFormatVersion,
		FirstRecordOffset: fileHeaderSize + uint64(w.opts.PreallocatedIndexEntries*indexEntrySize),
		IndexOffset:       indexOffset,
		HeaderSize:        fileHeaderSize,
		FileSize:          w.writePos,
		IndexPreallocated: uint64(w.opts.PreallocatedIndexEntries),
	}
	if _, err := w.file.WriteAt(header.MarshalBinary(), 0); err != nil {
		return fmt.Errorf("filewriter: writing file header: %w", err)
	}
	return w.file.Close()
}

// maxTimestamp is a very large sentinel, large enough that
// WriteRecordsAsync(maxTimestamp()) drains every record regardless of
// GraceWindow (used only at Close).
func maxTimestamp() float64 {
	return 1e18
}
