// Package multireader presents several related VRS files as a single,
// timestamp-ordered sequence of records, disambiguating any StreamId
// that collides across files. Grounded on
// original_source/vrs/MultiRecordFileReader.h/.cpp and spec.md §4.J.
package multireader

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/filereader"
	"github.com/go-vrs/vrs/filewriter"
)

// UniqueStreamId is a StreamId that has been disambiguated across every
// open file: it's safe to use as a lookup key against a Reader even
// when two files happened to reuse the same (typeId, instance) pair.
type UniqueStreamId = vrs.StreamId

// relatedFileTags lists the tags that, when carried by more than one
// file, must agree for those files to be opened together.
var relatedFileTags = []string{vrs.TagCaptureTimeEpoch, vrs.TagSessionId}

type streamIdReaderPair struct {
	streamID vrs.StreamId
	reader   *filereader.RecordFileReader
}

// ConsolidatedEntry is one row of a Reader's merged index: Entry is the
// record's location within its own file, ReaderIndex says which of
// Reader's underlying files it came from.
type ConsolidatedEntry struct {
	Entry       filewriter.IndexEntry
	ReaderIndex int
}

// Reader opens a set of related VRS files and serves them as one:
// GetStreams/GetIndex/GetRecordCount all operate across every file,
// and a StreamId that collides between two files is transparently
// remapped to a fresh UniqueStreamId by the second file to use it.
type Reader struct {
	readers   []*filereader.RecordFileReader
	filePaths []string

	index []ConsolidatedEntry // nil in the single-file case

	uniqueStreamIds      map[vrs.StreamId]bool
	uniqueFilter         *bloom.BloomFilter
	readerStreamToUnique []map[vrs.StreamId]vrs.StreamId // indexed by reader position
	uniqueToPair         map[vrs.StreamId]streamIdReaderPair
}

// Open opens every path in paths, in order, as one related set of VRS
// files. Per spec.md §4.J, files may each carry a captureTimeEpoch or
// sessionId tag (vrs.TagCaptureTimeEpoch/TagSessionId); whenever two or
// more files carry one, its value must agree across every file that
// has it. A file missing a given tag passes through unconstrained by
// it.
func Open(paths []string, autoReconstructIndex bool) (*Reader, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("multireader: at least one file must be opened")
	}
	r := &Reader{filePaths: append([]string(nil), paths...)}
	for _, p := range paths {
		reader, err := filereader.OpenFile(chunkio.NewSpec(p), autoReconstructIndex)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("multireader: opening %s: %w", p, err)
		}
		r.readers = append(r.readers, reader)
	}
	if !r.areFilesRelated() {
		r.Close()
		return nil, fmt.Errorf("multireader: files disagree on one of %v", relatedFileTags)
	}
	r.createConsolidatedIndex()
	r.initializeUniqueStreamIds()
	return r, nil
}

func (r *Reader) hasSingleFile() bool { return len(r.readers) == 1 }

// Close releases every underlying file, returning the first error
// encountered, if any.
func (r *Reader) Close() error {
	var first error
	for _, reader := range r.readers {
		if err := reader.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.readers = nil
	return first
}

// areFilesRelated reports whether every relatedFileTags entry that's
// present in more than one file agrees on its value, per spec.md §4.J.
// A tag absent from (or empty in) a file never blocks the match.
func (r *Reader) areFilesRelated() bool {
	if len(r.readers) <= 1 {
		return true
	}
	for _, tag := range relatedFileTags {
		expected := ""
		i := 0
		for ; i < len(r.readers); i++ {
			if v, ok := r.readers[i].GetTag(tag); ok && v != "" {
				expected = v
				i++
				break
			}
		}
		if expected == "" {
			continue // no reader carries this tag
		}
		for ; i < len(r.readers); i++ {
			if v, ok := r.readers[i].GetTag(tag); ok && v != "" && v != expected {
				return false
			}
		}
	}
	return true
}

// mergeItem is one cursor into a single file's index, ordered into a
// min-heap by timestamp so createConsolidatedIndex can k-way merge
// every file's (already timestamp-ordered) index without concatenating
// and re-sorting them.
type mergeItem struct {
	entry       filewriter.IndexEntry
	readerIndex int
	pos         int
}

type mergeHeap []mergeItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].entry.Timestamp < h[j].entry.Timestamp }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// createConsolidatedIndex builds r.index as a single timestamp-ordered
// merge of every file's index. In the single-file case it's skipped
// entirely (r.index stays nil) since that file's own index already
// serves every query, per spec.md §4.J's "degenerate pass-through".
func (r *Reader) createConsolidatedIndex() {
	if r.hasSingleFile() {
		r.index = nil
		return
	}
	perFile := make([][]filewriter.IndexEntry, len(r.readers))
	total := 0
	h := &mergeHeap{}
	for i, reader := range r.readers {
		entries := reader.GetIndex()
		perFile[i] = entries
		total += len(entries)
		if len(entries) > 0 {
			heap.Push(h, mergeItem{entry: entries[0], readerIndex: i, pos: 0})
		}
	}
	out := make([]ConsolidatedEntry, 0, total)
	for h.Len() > 0 {
		item := heap.Pop(h).(mergeItem)
		out = append(out, ConsolidatedEntry{Entry: item.entry, ReaderIndex: item.readerIndex})
		next := item.pos + 1
		if next < len(perFile[item.readerIndex]) {
			heap.Push(h, mergeItem{entry: perFile[item.readerIndex][next], readerIndex: item.readerIndex, pos: next})
		}
	}
	r.index = out
}

// streamIDKey is the byte form of a StreamId used as a bloom filter
// element.
func streamIDKey(id vrs.StreamId) []byte {
	return []byte(fmt.Sprintf("%d:%d", uint32(id.TypeId), id.InstanceId))
}

// initializeUniqueStreamIds walks every file's streams in file order,
// remapping any StreamId already claimed by an earlier file to a fresh
// UniqueStreamId, per spec.md §4.J. Skipped in the single-file case,
// where every StreamId is already unique by construction.
func (r *Reader) initializeUniqueStreamIds() {
	if r.hasSingleFile() {
		return
	}
	r.uniqueStreamIds = map[vrs.StreamId]bool{}
	r.uniqueFilter = bloom.NewWithEstimates(1024, 0.01)
	r.readerStreamToUnique = make([]map[vrs.StreamId]vrs.StreamId, len(r.readers))
	r.uniqueToPair = map[vrs.StreamId]streamIdReaderPair{}
	for ri, reader := range r.readers {
		r.readerStreamToUnique[ri] = map[vrs.StreamId]vrs.StreamId{}
		ids := reader.GetStreams()
		sortStreamIds(ids)
		for _, sid := range ids {
			unique := sid
			if r.maybeCollides(sid) {
				unique = r.generateUniqueStreamId(sid)
			}
			r.readerStreamToUnique[ri][sid] = unique
			r.uniqueToPair[unique] = streamIdReaderPair{streamID: sid, reader: reader}
			r.uniqueStreamIds[unique] = true
			r.uniqueFilter.Add(streamIDKey(unique))
		}
	}
}

// maybeCollides reports whether id is already claimed as a
// UniqueStreamId by an earlier file's stream. The bloom filter can
// only return false positives, never false negatives, so a miss short
// circuits the exact map lookup.
func (r *Reader) maybeCollides(id vrs.StreamId) bool {
	if !r.uniqueFilter.Test(streamIDKey(id)) {
		return false
	}
	return r.uniqueStreamIds[id]
}

// generateUniqueStreamId bumps duplicate's instance id until it finds
// one not already claimed.
func (r *Reader) generateUniqueStreamId(duplicate vrs.StreamId) vrs.StreamId {
	candidate := duplicate
	for {
		candidate = vrs.StreamId{TypeId: candidate.TypeId, InstanceId: candidate.InstanceId + 1}
		if !r.maybeCollides(candidate) {
			return candidate
		}
	}
}

func sortStreamIds(ids []vrs.StreamId) {
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].TypeId != ids[j].TypeId {
			return ids[i].TypeId < ids[j].TypeId
		}
		return ids[i].InstanceId < ids[j].InstanceId
	})
}

func (r *Reader) streamIdReaderPair(id UniqueStreamId) (streamIdReaderPair, bool) {
	if r.hasSingleFile() {
		return streamIdReaderPair{streamID: id, reader: r.readers[0]}, true
	}
	p, ok := r.uniqueToPair[id]
	return p, ok
}

// GetStreams returns every UniqueStreamId across all open files.
func (r *Reader) GetStreams() []UniqueStreamId {
	if r.hasSingleFile() {
		return r.readers[0].GetStreams()
	}
	out := make([]UniqueStreamId, 0, len(r.uniqueStreamIds))
	for id := range r.uniqueStreamIds {
		out = append(out, id)
	}
	sortStreamIds(out)
	return out
}

// GetStreamsOfType returns every UniqueStreamId whose RecordableTypeId
// is typeId, or every stream if typeId is vrs.RecordableTypeUndefined.
func (r *Reader) GetStreamsOfType(typeId vrs.RecordableTypeId) []UniqueStreamId {
	var out []UniqueStreamId
	for _, id := range r.GetStreams() {
		if typeId == vrs.RecordableTypeUndefined || id.TypeId == typeId {
			out = append(out, id)
		}
	}
	return out
}

// TotalRecordCount returns how many non-Tag records exist across every
// open file.
func (r *Reader) TotalRecordCount() int {
	n := 0
	for _, entry := range r.GetIndex() {
		if vrs.RecordType(entry.Entry.RecordType) != vrs.Tag {
			n++
		}
	}
	return n
}

// GetRecordCount returns the number of records of recordType (or every
// record, if recordType is nil) that id carries.
func (r *Reader) GetRecordCount(id UniqueStreamId, recordType *vrs.RecordType) int {
	p, ok := r.streamIdReaderPair(id)
	if !ok {
		return 0
	}
	return p.reader.GetRecordCount(p.streamID, recordType)
}

// GetTags returns id's user tag map, or nil if id is unknown.
func (r *Reader) GetTags(id UniqueStreamId) map[string]string {
	p, ok := r.streamIdReaderPair(id)
	if !ok {
		return nil
	}
	return p.reader.GetTags(p.streamID)
}

// GetStreamForTag returns the first UniqueStreamId (lowest
// RecordableTypeId, then lowest instance id) whose tag named tagName
// equals value, optionally restricted to typeId
// (vrs.RecordableTypeUndefined matches any type). The second result is
// false if no stream matches.
func (r *Reader) GetStreamForTag(tagName, value string, typeId vrs.RecordableTypeId) (UniqueStreamId, bool) {
	for _, id := range r.GetStreams() {
		if typeId != vrs.RecordableTypeUndefined && id.TypeId != typeId {
			continue
		}
		if tags := r.GetTags(id); tags != nil && tags[tagName] == value {
			return id, true
		}
	}
	return UniqueStreamId{}, false
}

// GetFileChunks returns each constituent file's path and byte size.
func (r *Reader) GetFileChunks() []FileChunk {
	out := make([]FileChunk, len(r.readers))
	for i, reader := range r.readers {
		out[i] = FileChunk{Path: r.filePaths[i], Size: reader.Size()}
	}
	return out
}

// FileChunk names one of a Reader's constituent files and its size.
type FileChunk struct {
	Path string
	Size int64
}

// GetIndex returns the consolidated, timestamp-ordered index across
// every open file, per spec.md §4.J.
func (r *Reader) GetIndex() []ConsolidatedEntry {
	if r.hasSingleFile() {
		flat := r.readers[0].GetIndex()
		out := make([]ConsolidatedEntry, len(flat))
		for i, e := range flat {
			out[i] = ConsolidatedEntry{Entry: e, ReaderIndex: 0}
		}
		return out
	}
	out := make([]ConsolidatedEntry, len(r.index))
	copy(out, r.index)
	return out
}

// ReaderFor returns the underlying *filereader.RecordFileReader backing
// entry, along with the file-local IndexEntry to pass to its
// ReadRecord/ReadRecordWithLayouts.
func (r *Reader) ReaderFor(entry ConsolidatedEntry) (*filereader.RecordFileReader, filewriter.IndexEntry) {
	return r.readers[entry.ReaderIndex], entry.Entry
}
