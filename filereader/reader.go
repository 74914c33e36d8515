// Package filereader implements the read side of a VRS file: opening
// a file written by package filewriter, loading (or rebuilding) its
// index, and serving random-access and sequential record playback.
// Grounded on spec.md §4.H.
package filereader

import (
	"fmt"
	"sync"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/blockreader"
	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/compression"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/internal/vlog"
	"github.com/go-vrs/vrs/recordformat"
)

type formatKey struct {
	recordType    recordformat.RecordType
	formatVersion uint32
}

// RecordFileReader opens a file produced by filewriter.RecordFileWriter
// and serves index-driven random access plus sequential playback.
type RecordFileReader struct {
	mu      sync.Mutex
	file    chunkio.ChunkedFile
	header  filewriter.FileHeader
	flat    []filewriter.IndexEntry // on-disk order, across every stream
	streams map[vrs.StreamId]*StreamIndex
	tags    map[vrs.StreamId]map[string]string
	formats map[vrs.StreamId]map[formatKey]*recordformat.Format
	cache   *lookupCache
	lastCfg map[vrs.StreamId]*vrs.Record
	schemas map[vrs.StreamId]map[filewriter.DataLayoutSchemaKey]datalayout.Schema
	log     *vlog.Logger
}

// ReaderOptions configures OpenFileWithOptions. The zero value behaves
// like OpenFile(spec, false): no index reconstruction and the default
// lookup-cache size.
type ReaderOptions struct {
	// AutoReconstructIndex rebuilds a missing or truncated index by a
	// linear scan over every record instead of failing to open.
	AutoReconstructIndex bool
	// CacheSize bounds the per-stream getRecordByTime lookup cache;
	// <= 0 uses the same default OpenFile does.
	CacheSize int
}

// OpenFile opens spec as a VRS file, per spec.md §4.H, with the
// default lookup-cache size. If the stored index is missing or
// truncated and autoReconstructIndex is true, the index is rebuilt by
// a linear scan over every record instead of failing.
func OpenFile(spec chunkio.Spec, autoReconstructIndex bool) (*RecordFileReader, error) {
	return OpenFileWithOptions(spec, ReaderOptions{AutoReconstructIndex: autoReconstructIndex})
}

// OpenFileWithOptions is OpenFile with the reader defaults named in
// SPEC_FULL.md §2.4 (auto-reconstruct-index, lookup-cache size)
// configurable rather than hardcoded.
func OpenFileWithOptions(spec chunkio.Spec, opts ReaderOptions) (*RecordFileReader, error) {
	file := chunkio.NewDiskFile(spec, false)
	if err := file.Open(); err != nil {
		return nil, fmt.Errorf("filereader: opening file: %w", err)
	}

	headerBuf := make([]byte, filewriter.FileHeaderSize)
	if _, err := file.ReadAt(headerBuf, 0); err != nil {
		file.Close()
		return nil, fmt.Errorf("filereader: reading file header: %w", err)
	}
	header, err := filewriter.UnmarshalFileHeader(headerBuf)
	if err != nil {
		file.Close()
		return nil, err
	}

	entries, err := loadIndex(file, header)
	if err != nil {
		if !opts.AutoReconstructIndex {
			file.Close()
			return nil, fmt.Errorf("filereader: loading index: %w", err)
		}
		entries, err = reconstructIndex(file, header)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("filereader: reconstructing index: %w", err)
		}
	}

	r := &RecordFileReader{
		file:    file,
		header:  header,
		flat:    entries,
		streams: buildStreamIndices(entries),
		tags:    map[vrs.StreamId]map[string]string{},
		formats: map[vrs.StreamId]map[formatKey]*recordformat.Format{},
		cache:   newLookupCache(opts.CacheSize),
		lastCfg: map[vrs.StreamId]*vrs.Record{},
		schemas: map[vrs.StreamId]map[filewriter.DataLayoutSchemaKey]datalayout.Schema{},
		log:     vlog.Default.WithComponent("filereader"),
	}
	if err := r.loadStreamTags(); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

// loadIndex reads the index region named by header, either the
// in-place preallocated region (dead zero-padding past the last
// written entry is dropped via StreamId.IsValid) or a trailer index
// running to end of file.
func loadIndex(file chunkio.ChunkedFile, header filewriter.FileHeader) ([]filewriter.IndexEntry, error) {
	if header.IndexOffset > header.FileSize || int64(header.FileSize) > file.Size() {
		return nil, fmt.Errorf("index offset %d is inconsistent with file size %d", header.IndexOffset, header.FileSize)
	}
	var buf []byte
	if header.IndexOffset == filewriter.FileHeaderSize {
		buf = make([]byte, header.IndexPreallocated*filewriter.IndexEntrySize)
	} else {
		size := header.FileSize - header.IndexOffset
		buf = make([]byte, size)
	}
	if len(buf) == 0 {
		return nil, nil
	}
	if _, err := file.ReadAt(buf, int64(header.IndexOffset)); err != nil {
		return nil, fmt.Errorf("reading index region: %w", err)
	}
	all, err := filewriter.ParseIndex(buf)
	if err != nil {
		return nil, err
	}
	if header.IndexOffset != filewriter.FileHeaderSize {
		return all, nil
	}
	out := make([]filewriter.IndexEntry, 0, len(all))
	for _, e := range all {
		if e.StreamID().IsValid() {
			out = append(out, e)
		}
	}
	return out, nil
}

// reconstructIndex walks every RecordHeader from FirstRecordOffset to
// IndexOffset, rebuilding index entries from what it reads. Per
// spec.md's invariant 6, a truncated file yields the same index minus
// whatever records were lost to the truncation.
func reconstructIndex(file chunkio.ChunkedFile, header filewriter.FileHeader) ([]filewriter.IndexEntry, error) {
	limit := header.IndexOffset
	if limit == 0 || limit > uint64(file.Size()) {
		limit = uint64(file.Size())
	}
	var entries []filewriter.IndexEntry
	pos := header.FirstRecordOffset
	headerBuf := make([]byte, filewriter.RecordHeaderSize)
	for pos+uint64(filewriter.RecordHeaderSize) <= limit {
		if _, err := file.ReadAt(headerBuf, int64(pos)); err != nil {
			break
		}
		rh, err := filewriter.UnmarshalRecordHeader(headerBuf)
		if err != nil {
			break
		}
		diskSize := uint64(filewriter.RecordHeaderSize) + uint64(rh.RecordSize)
		if pos+diskSize > limit {
			break
		}
		entries = append(entries, filewriter.IndexEntry{
			StreamTypeID:     rh.StreamTypeID,
			StreamInstanceID: rh.StreamInstanceID,
			RecordType:       rh.RecordType,
			Timestamp:        rh.Timestamp,
			FileOffset:       pos,
			DiskSize:         uint32(diskSize),
		})
		pos += diskSize
	}
	return entries, nil
}

// loadStreamTags reads each stream's Tag record (if any) and populates
// its user tags and RecordFormat registry.
func (r *RecordFileReader) loadStreamTags() error {
	for id, s := range r.streams {
		entry, ok := s.TagEntry()
		if !ok {
			continue
		}
		rec, err := r.readRawRecord(entry)
		if err != nil {
			return fmt.Errorf("filereader: reading tag record for stream %s: %w", id, err)
		}
		data, err := filewriter.ParseTagRecordPayload(rec.Payload)
		if err != nil {
			return fmt.Errorf("filereader: parsing tag record for stream %s: %w", id, err)
		}
		r.tags[id] = data.UserTags
		formats := map[formatKey]*recordformat.Format{}
		for rt, byVersion := range data.Formats {
			for version, f := range byVersion {
				formats[formatKey{rt, version}] = f
			}
		}
		r.formats[id] = formats
		r.schemas[id] = data.Schemas
	}
	return nil
}

// DataLayoutSchema returns the datalayout.Schema to map an older record's
// DataLayout block against when the reader's own layout can't ReadFrom it
// directly. It first looks for a schema recovered from id's Tag record
// (the writer called recordable.Recordable.SetDataLayoutSchema for that
// block, per spec.md §4.D), and if none was stored, falls back to asking
// any registered datalayout.LegacyFormatsProvider for a layout covering
// this stream type and format, per original_source/vrs/utils/legacy_formats.
func (r *RecordFileReader) DataLayoutSchema(id vrs.StreamId, recordType vrs.RecordType, formatVersion uint32, blockIndex int) (datalayout.Schema, bool) {
	r.mu.Lock()
	schema, ok := r.schemas[id][filewriter.DataLayoutSchemaKey{RecordType: recordType, FormatVersion: formatVersion, BlockIndex: blockIndex}]
	r.mu.Unlock()
	if ok {
		return schema, true
	}
	legacyKey := datalayout.LegacyFormatKey{
		RecordableTypeID: uint16(id.TypeId),
		RecordType:       int(recordType),
		FormatVersion:    formatVersion,
	}
	if layout, ok := datalayout.LookupLegacyFormat(legacyKey); ok {
		return layout.DescribeSchema(), true
	}
	return datalayout.Schema{}, false
}

// GetStreams returns every stream id present in the file's index.
func (r *RecordFileReader) GetStreams() []vrs.StreamId {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]vrs.StreamId, 0, len(r.streams))
	for id := range r.streams {
		out = append(out, id)
	}
	return out
}

// GetTags returns the user tag map recovered from id's Tag record, or
// nil if id is unknown or carries no Tag record.
func (r *RecordFileReader) GetTags(id vrs.StreamId) map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tags[id]
}

// GetTag returns the first value found for name across every stream's
// tag map, and whether any stream carried it. This port has no
// separate file-level tag store (spec.md §3's Tag records are
// per-stream), so conventions that are normally file-wide — like
// vrs.TagCaptureTimeEpoch/TagSessionId, consulted by multireader's
// file-relatedness check — are read back by scanning every stream.
func (r *RecordFileReader) GetTag(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tags := range r.tags {
		if v, ok := tags[name]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// GetIndex returns the full index for the whole file, in the same
// order the records appear on disk.
func (r *RecordFileReader) GetIndex() []filewriter.IndexEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]filewriter.IndexEntry, len(r.flat))
	copy(out, r.flat)
	return out
}

// GetStreamIndex returns id's StreamIndex, or nil if id is unknown.
func (r *RecordFileReader) GetStreamIndex(id vrs.StreamId) *StreamIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[id]
}

// GetRecordCount returns how many records of recordType (or all
// records, if recordType is nil) id has.
func (r *RecordFileReader) GetRecordCount(id vrs.StreamId, recordType *vrs.RecordType) int {
	r.mu.Lock()
	s := r.streams[id]
	r.mu.Unlock()
	if s == nil {
		return 0
	}
	return s.RecordCount(recordType)
}

// GetRecord returns the nth (0-based) entry of recordType for id.
func (r *RecordFileReader) GetRecord(id vrs.StreamId, recordType vrs.RecordType, n int) (filewriter.IndexEntry, error) {
	r.mu.Lock()
	s := r.streams[id]
	r.mu.Unlock()
	if s == nil {
		return filewriter.IndexEntry{}, fmt.Errorf("filereader: unknown stream %s", id)
	}
	return s.NthRecord(recordType, n)
}

// GetRecordByTime returns the first (lowest-index) record of id whose
// timestamp is >= target, consulting and updating the per-stream LRU
// cache to accelerate sequential nearby-timestamp lookups.
func (r *RecordFileReader) GetRecordByTime(id vrs.StreamId, target float64) (filewriter.IndexEntry, bool) {
	r.mu.Lock()
	s := r.streams[id]
	r.mu.Unlock()
	if s == nil {
		return filewriter.IndexEntry{}, false
	}
	from := 0
	if hint, ok := r.cache.Get(id); ok && hint.timestamp <= target {
		from = hint.index
	}
	e, i, ok := s.firstAtOrAfterFrom(target, from)
	if ok {
		r.cache.Put(id, timeIndex{timestamp: target, index: i})
	}
	return e, ok
}

// readRawRecord reads entry's on-disk bytes and decompresses its
// payload, without any RecordFormat-driven interpretation.
func (r *RecordFileReader) readRawRecord(entry filewriter.IndexEntry) (*vrs.Record, error) {
	buf := make([]byte, entry.DiskSize)
	if _, err := r.file.ReadAt(buf, int64(entry.FileOffset)); err != nil {
		return nil, fmt.Errorf("reading record at offset %d: %w", entry.FileOffset, err)
	}
	rh, err := filewriter.UnmarshalRecordHeader(buf[:filewriter.RecordHeaderSize])
	if err != nil {
		return nil, err
	}
	raw := buf[filewriter.RecordHeaderSize:]
	payload, err := compression.Decompress(raw, compression.Type(rh.CompressionType), int(rh.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("decompressing record: %w", err)
	}
	return &vrs.Record{
		StreamId:      entry.StreamID(),
		Timestamp:     rh.Timestamp,
		Type:          vrs.RecordType(rh.RecordType),
		FormatVersion: rh.FormatVersion,
		Payload:       payload,
	}, nil
}

// ReadRecord reads entry and dispatches its content blocks to player,
// using the RecordFormat registered for the record's (type,
// formatVersion) via the stream's Tag record. DataLayout blocks are
// reported with a nil *datalayout.Layout: the concrete, typed Layout
// a DataLayout block decodes into is only known to the application
// that declared it (DataLayout's generic fields have no run-time
// type-erased form, unlike the original's), so callers that need
// DataLayout content must use ReadRecordWithLayouts instead.
// Configuration records are cached per stream to support
// ReadFirstConfigurationRecord.
func (r *RecordFileReader) ReadRecord(entry filewriter.IndexEntry, player blockreader.StreamPlayer) error {
	return r.ReadRecordWithLayouts(entry, player, nil)
}

// ReadRecordWithLayouts is ReadRecord, but layoutForBlock supplies the
// concrete *datalayout.Layout a DataLayout content block should decode
// into (by its index within the record), typically the same Layout
// value the application used to declare its RecordFormat when writing.
// A nil layoutForBlock (or one returning nil for a given index) leaves
// that block undecoded, matching ReadRecord's behavior.
func (r *RecordFileReader) ReadRecordWithLayouts(entry filewriter.IndexEntry, player blockreader.StreamPlayer, layoutForBlock func(blockIndex int) *datalayout.Layout) error {
	rec, err := r.readRawRecord(entry)
	if err != nil {
		return err
	}
	if rec.Type == vrs.Configuration {
		r.mu.Lock()
		r.lastCfg[rec.StreamId] = rec
		r.mu.Unlock()
	}
	format := r.recordFormat(rec.StreamId, rec.Type, rec.FormatVersion)
	if format == nil {
		return fmt.Errorf("filereader: stream %s has no registered RecordFormat for (%s, %d)", rec.StreamId, rec.Type, rec.FormatVersion)
	}
	if layoutForBlock == nil {
		layoutForBlock = func(int) *datalayout.Layout { return nil }
	}
	schemaForBlock := func(blockIndex int) (datalayout.Schema, bool) {
		return r.DataLayoutSchema(rec.StreamId, rec.Type, rec.FormatVersion, blockIndex)
	}
	ctx := blockreader.RecordContext{
		StreamID:      rec.StreamId,
		RecordType:    rec.Type,
		FormatVersion: rec.FormatVersion,
		TimestampSec:  rec.Timestamp,
	}
	return blockreader.PlayRecord(ctx, format, rec.Payload, layoutForBlock, schemaForBlock, player)
}

// ReadAllRecords iterates every record in the file in on-disk order,
// dispatching each to player.
func (r *RecordFileReader) ReadAllRecords(player blockreader.StreamPlayer) error {
	for _, entry := range r.GetIndex() {
		if vrs.RecordType(entry.RecordType) == vrs.Tag {
			continue
		}
		if err := r.ReadRecord(entry, player); err != nil {
			return err
		}
	}
	return nil
}

// ReadFirstConfigurationRecord returns the most recently read
// Configuration record for id, reading the stream's first one from
// disk on first use. Returns nil if id has no Configuration record.
func (r *RecordFileReader) ReadFirstConfigurationRecord(id vrs.StreamId) (*vrs.Record, error) {
	r.mu.Lock()
	if rec, ok := r.lastCfg[id]; ok {
		r.mu.Unlock()
		return rec, nil
	}
	s := r.streams[id]
	r.mu.Unlock()
	if s == nil {
		return nil, fmt.Errorf("filereader: unknown stream %s", id)
	}
	entry, err := s.NthRecord(vrs.Configuration, 0)
	if err != nil {
		return nil, nil
	}
	rec, err := r.readRawRecord(entry)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.lastCfg[id] = rec
	r.mu.Unlock()
	return rec, nil
}

func (r *RecordFileReader) recordFormat(id vrs.StreamId, recordType vrs.RecordType, formatVersion uint32) *recordformat.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.formats[id][formatKey{recordType, formatVersion}]
}

// RecordFormat returns the RecordFormat id registered for (recordType,
// formatVersion), or nil if none was. Exported for callers (e.g.
// package filter's verbatim Copier) that need to re-register a stream's
// exact wire format on a different file rather than decode through it.
func (r *RecordFileReader) RecordFormat(id vrs.StreamId, recordType vrs.RecordType, formatVersion uint32) *recordformat.Format {
	return r.recordFormat(id, recordType, formatVersion)
}

// ReadRawRecord reads entry's on-disk bytes and decompresses its
// payload, without any RecordFormat-driven content-block
// interpretation. Exported for callers that only need the record's raw
// fields (e.g. a verbatim copy), as opposed to ReadRecord/
// ReadRecordWithLayouts's per-content-block dispatch.
func (r *RecordFileReader) ReadRawRecord(entry filewriter.IndexEntry) (*vrs.Record, error) {
	return r.readRawRecord(entry)
}

// Size returns the total byte size of the underlying file.
func (r *RecordFileReader) Size() int64 {
	return r.file.Size()
}

// Close releases the underlying file.
func (r *RecordFileReader) Close() error {
	return r.file.Close()
}
