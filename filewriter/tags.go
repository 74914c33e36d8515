package filewriter

import (
	"encoding/json"
	"fmt"

	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/recordable"
	"github.com/go-vrs/vrs/recordformat"
)

// tagRecordPayload is the JSON envelope a Tag-type record carries: a
// stream's user tag map, its registered RecordFormat tag strings, and
// any DataLayout schemas registered for its DataLayout content blocks
// — keyed exactly as recordformat.Format.TagKey/TagValue and
// recordformat.DataLayoutTagKey render them. spec.md §3 describes Tag
// records as carrying "the VRS-tag sets associated with a stream",
// written by the file writer rather than by the Recordable itself.
type tagRecordPayload struct {
	UserTags map[string]string `json:"user_tags"`
	Formats  map[string]string `json:"formats"`
	Schemas  map[string]string `json:"schemas,omitempty"`
}

// marshalTagRecord renders r's tags, RecordFormat registry and any
// registered DataLayout schemas (Recordable.SetDataLayoutSchema) into a
// Tag record payload. Persisting each DataLayout block's schema under
// its "DL:<RecordType>:<formatVersion>:<blockIndex>" tag is what lets a
// reader recover a writer's DataLayout schema from the file alone
// (spec.md §4.D / Testable Property 7), rather than needing to link
// against the writer's exact Go struct.
func marshalTagRecord(r *recordable.Recordable) ([]byte, error) {
	payload := tagRecordPayload{UserTags: r.Tags(), Formats: map[string]string{}}
	for _, f := range r.Formats() {
		payload.Formats[f.TagKey()] = f.TagValue()
		for i, block := range f.Blocks {
			if block.Type != recordformat.ContentDataLayout {
				continue
			}
			layout := r.DataLayoutSchema(f.RecordType, f.FormatVersion, i)
			if layout == nil {
				continue
			}
			schemaJSON, err := layout.ToJSON()
			if err != nil {
				return nil, fmt.Errorf("filewriter: encoding data layout schema: %w", err)
			}
			if payload.Schemas == nil {
				payload.Schemas = map[string]string{}
			}
			payload.Schemas[recordformat.DataLayoutTagKey(f.RecordType, f.FormatVersion, i)] = schemaJSON
		}
	}
	return json.Marshal(payload)
}

// DataLayoutSchemaKey identifies one (recordType, formatVersion,
// blockIndex) DataLayout schema recovered from a stream's Tag record.
type DataLayoutSchemaKey struct {
	RecordType    recordformat.RecordType
	FormatVersion uint32
	BlockIndex    int
}

// TagRecordData is a stream's tags, RecordFormat registry and
// DataLayout schemas, as recovered from its Tag record by
// ParseTagRecordPayload.
type TagRecordData struct {
	UserTags map[string]string
	Formats  map[recordformat.RecordType]map[uint32]*recordformat.Format
	Schemas  map[DataLayoutSchemaKey]datalayout.Schema
}

// ParseTagRecordPayload decodes the JSON envelope marshalTagRecord
// produces, resolving each format's tag key/value back into a
// *recordformat.Format and each "DL:" entry back into a
// datalayout.Schema.
func ParseTagRecordPayload(payload []byte) (TagRecordData, error) {
	var raw tagRecordPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return TagRecordData{}, fmt.Errorf("filewriter: decoding tag record: %w", err)
	}
	data := TagRecordData{
		UserTags: raw.UserTags,
		Formats:  map[recordformat.RecordType]map[uint32]*recordformat.Format{},
	}
	for key, value := range raw.Formats {
		rt, version, err := recordformat.ParseTagKey(key)
		if err != nil {
			return TagRecordData{}, err
		}
		f, err := recordformat.ParseTagValue(rt, version, value)
		if err != nil {
			return TagRecordData{}, err
		}
		if data.Formats[rt] == nil {
			data.Formats[rt] = map[uint32]*recordformat.Format{}
		}
		data.Formats[rt][version] = f
	}
	for key, value := range raw.Schemas {
		rt, version, blockIndex, err := recordformat.ParseDataLayoutTagKey(key)
		if err != nil {
			return TagRecordData{}, err
		}
		schema, err := datalayout.SchemaFromJSON(value)
		if err != nil {
			return TagRecordData{}, fmt.Errorf("filewriter: decoding data layout schema %q: %w", key, err)
		}
		if data.Schemas == nil {
			data.Schemas = map[DataLayoutSchemaKey]datalayout.Schema{}
		}
		data.Schemas[DataLayoutSchemaKey{rt, version, blockIndex}] = schema
	}
	return data, nil
}
