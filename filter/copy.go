package filter

import (
	"fmt"
	"math"
	"sort"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/compression"
	"github.com/go-vrs/vrs/filereader"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/internal/vlog"
	"github.com/go-vrs/vrs/recordable"
)

// CreateFile opens path as a new on-disk RecordFileWriter, suitable as
// Copy/Merge's newFile argument for destinations that are plain,
// unchunked files.
func CreateFile(path string, opts filewriter.Options) (*filewriter.RecordFileWriter, error) {
	return filewriter.Create(chunkio.NewSpec(path), opts)
}

// CopyOptions configures Copy and Merge, grounded on
// original_source/vrs/utils/FilterCopyHelpers.h's CopyOptions and
// original_source/vrs/utils/ThrottleHelpers.h's throttling knobs.
type CopyOptions struct {
	// Preset overrides the destination's compression preset for every
	// stream; compression.Undefined uses the destination writer's
	// DefaultPreset. Source records' compression is not carried over.
	Preset compression.Preset
	// WriterOptions configures the destination RecordFileWriter;
	// zero value uses filewriter.DefaultOptions().
	WriterOptions filewriter.Options
	// TagOverrider, if set, is called for every stream before its Tag
	// record is written, so callers can rewrite tags (e.g. stamp a new
	// session id) without touching record payloads. Grounded on
	// FilterCopyHelpers.h's TagOverrider.
	TagOverrider func(id vrs.StreamId, tags map[string]string) map[string]string
	// Progress, if non-nil, is called after each record is copied with
	// the running count and the source's total filtered record count.
	Progress func(copied, total int)
	// MakeStreamFilter, if set, is called once per source stream id to
	// obtain the StreamFilter its records are run through. A nil
	// return (or a nil MakeStreamFilter) uses verbatimFilter.
	MakeStreamFilter func(id vrs.StreamId) StreamFilter
}

// StreamFilter transforms a record's payload before it's written to
// the destination, run after decimation decides a record survives at
// all. Grounded on original_source/vrs/utils/FilterCopyHelpers.h's
// Copier/RecordFilterCopier: the default, used whenever
// CopyOptions.MakeStreamFilter is nil or returns nil, is a verbatim
// copier that passes every record's payload through unchanged. A
// custom StreamFilter can rewrite payload bytes (e.g. strip a
// DataLayout field, flip an image) as long as the rewritten bytes
// still fit the stream's existing RecordFormat shape; restructuring a
// record into a different content-block layout is out of scope here
// (see DESIGN.md).
type StreamFilter interface {
	// Filter returns the payload to write for rec, or ok=false to drop
	// the record (in addition to whatever the Decimator already
	// decided).
	Filter(rec *vrs.Record) (payload []byte, ok bool, err error)
}

type verbatimFilter struct{}

func (verbatimFilter) Filter(rec *vrs.Record) ([]byte, bool, error) { return rec.Payload, true, nil }

func streamFilterFor(opts CopyOptions, id vrs.StreamId) StreamFilter {
	if opts.MakeStreamFilter == nil {
		return verbatimFilter{}
	}
	if f := opts.MakeStreamFilter(id); f != nil {
		return f
	}
	return verbatimFilter{}
}

// ThrottledWriter paces calls to WriteRecordsAsync during a copy so
// memory held by not-yet-flushed records stays bounded, mirroring
// original_source/vrs/utils/ThrottleHelpers.h/.cpp's ThrottledWriter.
// The underlying RecordFileWriter here always writes synchronously
// (see filewriter.RecordFileWriter.WriteRecordsAsync's doc comment),
// so there's no background queue to apply real backpressure against;
// what's left of the original's role is flushing often enough that a
// long copy doesn't buffer every record in memory before the first
// write, and reporting progress at a bounded rate.
type ThrottledWriter struct {
	writer  *filewriter.RecordFileWriter
	copied  int
	maxTS   float64
	log     *vlog.Logger
}

// NewThrottledWriter wraps writer for use by a copy loop.
func NewThrottledWriter(writer *filewriter.RecordFileWriter) *ThrottledWriter {
	return &ThrottledWriter{writer: writer, maxTS: math.Inf(-1), log: vlog.Default.WithComponent("filter")}
}

// onRecordDecoded is called once per source record consumed, with the
// timestamp up to which it's now safe to flush (the record's own
// timestamp minus whatever grace window applies, e.g. a decimator's
// bucket width). It mirrors the write cadence of the original's
// onRecordDecoded: every 10 records for the first 100, then every 100.
func (w *ThrottledWriter) onRecordDecoded(flushUpTo float64) error {
	w.copied++
	if flushUpTo > w.maxTS {
		w.maxTS = flushUpTo
	}
	interval := 100
	if w.copied <= 100 {
		interval = 10
	}
	if w.copied%interval != 0 {
		return nil
	}
	if vlog.DefaultThrottler.Report("filter.ThrottledWriter.onRecordDecoded", nil) {
		w.log.Debug("flushing copy buffer", map[string]any{"copied": w.copied, "upToTimestamp": w.maxTS})
	}
	return w.writer.WriteRecordsAsync(w.maxTS)
}

// finish flushes everything still buffered and closes the writer.
func (w *ThrottledWriter) finish() error {
	if err := w.writer.WriteRecordsAsync(math.Inf(1)); err != nil {
		return err
	}
	return w.writer.Close()
}

// copyDestination is the subset of *recordable.Recordable a verbatim
// copy needs on the destination side, built fresh per source stream.
type copyDestination struct {
	recordable *recordable.Recordable
	formats    map[formatKey]bool
}

type formatKey struct {
	recordType    vrs.RecordType
	formatVersion uint32
}

// Copy reads every record src's FilteredFileReader selects (after
// decimation) and writes a byte-identical copy of each to a new file
// at dstPath, per spec.md §4.K. Streams are copied verbatim: content
// blocks are never decoded, only their RecordFormat descriptor and raw
// payload bytes are carried over, so a copy is bit-for-bit equivalent
// to re-encoding the same DataSource the original writer used.
func Copy(src *FilteredFileReader, dstPath string, newFile func(string, filewriter.Options) (*filewriter.RecordFileWriter, error), opts CopyOptions) error {
	writerOpts := opts.WriterOptions
	if writerOpts == (filewriter.Options{}) {
		writerOpts = filewriter.DefaultOptions()
	}
	w, err := newFile(dstPath, writerOpts)
	if err != nil {
		return fmt.Errorf("filter: creating %s: %w", dstPath, err)
	}
	tw := NewThrottledWriter(w)

	dests := map[vrs.StreamId]*copyDestination{}
	filters := map[vrs.StreamId]StreamFilter{}
	getDest := func(id vrs.StreamId) *copyDestination {
		d, ok := dests[id]
		if !ok {
			r := recordable.New(id)
			tags := src.Reader.GetTags(id)
			if opts.TagOverrider != nil {
				tags = opts.TagOverrider(id, tags)
			}
			for k, v := range tags {
				r.SetTag(k, v)
			}
			w.AddRecordable(r, opts.Preset)
			d = &copyDestination{recordable: r, formats: map[formatKey]bool{}}
			dests[id] = d
			filters[id] = streamFilterFor(opts, id)
		}
		return d
	}

	entries := src.FilteredIndex()
	grace := src.Decimator.GraceWindow()
	total := len(entries)

	for i, entry := range entries {
		id := entry.StreamID()
		rec, err := src.Reader.ReadRawRecord(entry)
		if err != nil {
			return fmt.Errorf("filter: reading %s @ %v: %w", id, entry.Timestamp, err)
		}

		var emitErr error
		emit := func(out *vrs.Record) {
			if emitErr == nil {
				getDest(out.StreamId)
				_, emitErr = writeRecord(src.Reader, dests[out.StreamId], out, filters[out.StreamId])
			}
		}
		skip := src.Decimator.Decimate(id, rec, emit)
		if emitErr != nil {
			return emitErr
		}
		if skip {
			continue
		}
		getDest(id)
		if _, err := writeRecord(src.Reader, dests[id], rec, filters[id]); err != nil {
			return err
		}

		if err := tw.onRecordDecoded(entry.Timestamp - grace); err != nil {
			return err
		}
		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	for id := range dests {
		var flushErr error
		src.Decimator.Flush(id, func(out *vrs.Record) {
			if flushErr == nil {
				getDest(out.StreamId)
				_, flushErr = writeRecord(src.Reader, dests[out.StreamId], out, filters[out.StreamId])
			}
		})
		if flushErr != nil {
			return flushErr
		}
	}

	return tw.finish()
}

// writeRecord runs rec through sf, registers rec's exact RecordFormat
// on dest (if not already registered), and recreates it as a single
// opaque chunk, per recordable.DataSource.serialize's chunk-then-layout
// concatenation: passing a record's (possibly sf-rewritten) bytes
// through as one chunk reproduces the original record shape exactly
// when sf is verbatimFilter, since serialize only cares which slots
// are populated, not how their bytes were produced. Returns wrote=false
// if sf dropped the record.
func writeRecord(src *filereader.RecordFileReader, dest *copyDestination, rec *vrs.Record, sf StreamFilter) (wrote bool, err error) {
	payload, ok, err := sf.Filter(rec)
	if err != nil {
		return false, fmt.Errorf("filter: filtering %s @ %v: %w", rec.StreamId, rec.Timestamp, err)
	}
	if !ok {
		return false, nil
	}
	key := formatKey{rec.Type, rec.FormatVersion}
	if !dest.formats[key] {
		format := src.RecordFormat(rec.StreamId, rec.Type, rec.FormatVersion)
		if format == nil {
			return false, fmt.Errorf("filter: stream %s has no RecordFormat for (%s, %d)", rec.StreamId, rec.Type, rec.FormatVersion)
		}
		dest.recordable.AddRecordFormat(format)
		dest.formats[key] = true
	}
	if _, err := dest.recordable.CreateRecord(rec.Timestamp, rec.Type, rec.FormatVersion, recordable.NewDataSource().WithChunk(0, payload)); err != nil {
		return false, err
	}
	return true, nil
}

// Merge copies every record from each of srcs (after each one's own
// filtering/decimation) into a single destination file at dstPath, in
// merged timestamp order, per spec.md §4.K's merge operation. Streams
// colliding across sources are remapped exactly as multireader does,
// so the merged file's stream ids match what multireader.Open would
// assign when reading the same sources back unmerged.
func Merge(srcs []*FilteredFileReader, dstPath string, newFile func(string, filewriter.Options) (*filewriter.RecordFileWriter, error), opts CopyOptions) error {
	writerOpts := opts.WriterOptions
	if writerOpts == (filewriter.Options{}) {
		writerOpts = filewriter.DefaultOptions()
	}
	w, err := newFile(dstPath, writerOpts)
	if err != nil {
		return fmt.Errorf("filter: creating %s: %w", dstPath, err)
	}
	tw := NewThrottledWriter(w)

	seen := map[vrs.StreamId]bool{}
	remap := make([]map[vrs.StreamId]vrs.StreamId, len(srcs))
	dests := map[vrs.StreamId]*copyDestination{}
	filters := map[vrs.StreamId]StreamFilter{}

	type pending struct {
		srcIndex int
		entry    filewriter.IndexEntry
	}
	var merged []pending
	for si, src := range srcs {
		remap[si] = map[vrs.StreamId]vrs.StreamId{}
		ids := src.Reader.GetStreams()
		sort.Slice(ids, func(i, j int) bool {
			if ids[i].TypeId != ids[j].TypeId {
				return ids[i].TypeId < ids[j].TypeId
			}
			return ids[i].InstanceId < ids[j].InstanceId
		})
		for _, id := range ids {
			unique := id
			for seen[unique] {
				unique = vrs.StreamId{TypeId: unique.TypeId, InstanceId: unique.InstanceId + 1}
			}
			seen[unique] = true
			remap[si][id] = unique
		}
		for _, e := range src.FilteredIndex() {
			merged = append(merged, pending{srcIndex: si, entry: e})
		}
	}
	// Stable sort by timestamp preserves each source's own relative
	// record order for ties, matching multireader's merge semantics.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].entry.Timestamp < merged[j].entry.Timestamp
	})

	getDest := func(srcIndex int, id vrs.StreamId) *copyDestination {
		unique := remap[srcIndex][id]
		d, ok := dests[unique]
		if !ok {
			r := recordable.New(unique)
			tags := srcs[srcIndex].Reader.GetTags(id)
			if opts.TagOverrider != nil {
				tags = opts.TagOverrider(unique, tags)
			}
			for k, v := range tags {
				r.SetTag(k, v)
			}
			w.AddRecordable(r, opts.Preset)
			d = &copyDestination{recordable: r, formats: map[formatKey]bool{}}
			dests[unique] = d
			filters[unique] = streamFilterFor(opts, unique)
		}
		return d
	}

	total := len(merged)
	for i, m := range merged {
		src := srcs[m.srcIndex]
		id := m.entry.StreamID()
		rec, err := src.Reader.ReadRawRecord(m.entry)
		if err != nil {
			return fmt.Errorf("filter: reading %s @ %v: %w", id, m.entry.Timestamp, err)
		}
		grace := src.Decimator.GraceWindow()
		var emitErr error
		emit := func(out *vrs.Record) {
			if emitErr == nil {
				getDest(m.srcIndex, out.StreamId)
				unique := remap[m.srcIndex][out.StreamId]
				_, emitErr = writeRecord(src.Reader, dests[unique], out, filters[unique])
			}
		}
		skip := src.Decimator.Decimate(id, rec, emit)
		if emitErr != nil {
			return emitErr
		}
		if skip {
			continue
		}
		getDest(m.srcIndex, id)
		unique := remap[m.srcIndex][id]
		if _, err := writeRecord(src.Reader, dests[unique], rec, filters[unique]); err != nil {
			return err
		}

		if err := tw.onRecordDecoded(m.entry.Timestamp - grace); err != nil {
			return err
		}
		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	for si, src := range srcs {
		for _, id := range src.Reader.GetStreams() {
			var flushErr error
			src.Decimator.Flush(id, func(out *vrs.Record) {
				if flushErr == nil {
					getDest(si, out.StreamId)
					unique := remap[si][out.StreamId]
					_, flushErr = writeRecord(src.Reader, dests[unique], out, filters[unique])
				}
			})
			if flushErr != nil {
				return flushErr
			}
		}
	}

	return tw.finish()
}
