package recordable

import (
	"fmt"
	"sync"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/recordformat"
)

// ConfigurationStateProvider is the trait spec.md §8's "Virtual
// createConfigurationRecord/createStateRecord overrides" redesign flag
// asks for: two methods that produce a stream's Configuration and State
// record payloads, without the C++ original's virtual dispatch.
// RecordFileWriter does not call them, neither when a Recordable is
// added nor later; a producer passes their results to CreateRecord
// itself.
type ConfigurationStateProvider interface {
	CreateConfigurationRecord() DataSource
	CreateStateRecord() DataSource
}

// Recordable is a producer-side object emitting records for a single
// stream. Applications create one with New and call CreateRecord as
// their sensor/device produces data.
type Recordable struct {
	streamID vrs.StreamId
	tags     map[string]string
	mu       sync.Mutex
	formats  map[formatKey]*recordformat.Format
	layouts  map[layoutKey]*datalayout.Layout
	manager  *RecordManager
}

type formatKey struct {
	recordType    recordformat.RecordType
	formatVersion uint32
}

type layoutKey struct {
	recordType    recordformat.RecordType
	formatVersion uint32
	blockIndex    int
}

// New creates a Recordable for streamID, with its own RecordManager.
func New(streamID vrs.StreamId) *Recordable {
	return &Recordable{
		streamID: streamID,
		tags:     map[string]string{},
		formats:  map[formatKey]*recordformat.Format{},
		layouts:  map[layoutKey]*datalayout.Layout{},
		manager:  newRecordManager(streamID),
	}
}

// StreamID returns the stream this Recordable produces records for.
func (r *Recordable) StreamID() vrs.StreamId { return r.streamID }

// SetTag sets a user tag on the stream's tag map.
func (r *Recordable) SetTag(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[key] = value
}

// Tags returns a copy of the stream's current user tag map.
func (r *Recordable) Tags() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.tags))
	for k, v := range r.tags {
		out[k] = v
	}
	return out
}

// AddRecordFormat registers the content-block sequence for
// (recordType, formatVersion) on this stream. Must be called before
// any record of that (type, version) is created.
func (r *Recordable) AddRecordFormat(format *recordformat.Format) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats[formatKey{format.RecordType, format.FormatVersion}] = format
}

// RecordFormat returns the registered Format for (recordType,
// formatVersion), or nil if none was registered.
func (r *Recordable) RecordFormat(recordType recordformat.RecordType, formatVersion uint32) *recordformat.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.formats[formatKey{recordType, formatVersion}]
}

// Manager returns the Recordable's RecordManager, the buffer a
// RecordFileWriter drains records from.
func (r *Recordable) Manager() *RecordManager { return r.manager }

// SetDataLayoutSchema registers the canonical Layout this stream uses
// to write blockIndex's DataLayout content block within (recordType,
// formatVersion), so the file writer can persist its JSON schema in a
// "DL:<RecordType>:<formatVersion>:<blockIndex>" tag (spec.md §4.D) and
// a reader without this exact Go struct can still recover the block's
// fields via datalayout.Layout.MapFrom/MapFromSchema.
func (r *Recordable) SetDataLayoutSchema(recordType recordformat.RecordType, formatVersion uint32, blockIndex int, layout *datalayout.Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layouts[layoutKey{recordType, formatVersion, blockIndex}] = layout
}

// DataLayoutSchema returns the Layout registered via
// SetDataLayoutSchema for (recordType, formatVersion, blockIndex), or
// nil if none was set.
func (r *Recordable) DataLayoutSchema(recordType recordformat.RecordType, formatVersion uint32, blockIndex int) *datalayout.Layout {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.layouts[layoutKey{recordType, formatVersion, blockIndex}]
}

// Formats returns every RecordFormat registered on this stream, in no
// particular order. Used by the file writer to synthesize the
// stream's Tag record at close.
func (r *Recordable) Formats() []*recordformat.Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*recordformat.Format, 0, len(r.formats))
	for _, f := range r.formats {
		out = append(out, f)
	}
	return out
}

// CreateRecord copies source's chunks into a single contiguous record
// buffer immediately and hands the resulting Record to the
// Recordable's RecordManager, per spec.md §4.F: "createRecord(...)
// copies dataSource chunks into a single contiguous record buffer
// immediately, guaranteeing the caller may release source buffers on
// return." Not safe to call concurrently for the same Recordable; the
// library only requires one producer goroutine per Recordable.
func (r *Recordable) CreateRecord(timestamp float64, recordType recordformat.RecordType, formatVersion uint32, source DataSource) (*vrs.Record, error) {
	format := r.RecordFormat(recordType, formatVersion)
	if format == nil {
		return nil, fmt.Errorf("recordable: stream %s has no registered RecordFormat for (%s, %d)", r.streamID, recordType, formatVersion)
	}
	rec := &vrs.Record{
		StreamId:      r.streamID,
		Timestamp:     timestamp,
		Type:          recordType,
		FormatVersion: formatVersion,
		Payload:       source.serialize(),
	}
	r.manager.submit(rec)
	return rec, nil
}
