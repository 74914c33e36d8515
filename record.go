package vrs

import (
	"fmt"
	"strings"
)

// RecordType classifies the role a record plays in a stream's timeline.
type RecordType uint8

const (
	// Configuration records describe how a stream is set up; by
	// convention there is usually one, near the start of the stream.
	Configuration RecordType = iota
	// State records capture a stream's state at a point in time,
	// independent of the regular data cadence.
	State
	// Data records carry the stream's regular payload (frames, samples,
	// controller events, ...).
	Data
	// Tag records carry the VRS-tag sets associated with a stream or a
	// file; not emitted by recordables directly.
	Tag
)

// String returns a lowercase name for the record type, used in
// RecordFormat VRS-tag keys ("RF:<RecordType>:<formatVersion>").
func (t RecordType) String() string {
	switch t {
	case Configuration:
		return "configuration"
	case State:
		return "state"
	case Data:
		return "data"
	case Tag:
		return "tag"
	default:
		return "undefined"
	}
}

// ParseRecordType parses a RecordType by its String() name
// (case-insensitive), for CLI/config use.
func ParseRecordType(s string) (RecordType, error) {
	switch strings.ToLower(s) {
	case "configuration":
		return Configuration, nil
	case "state":
		return State, nil
	case "data":
		return Data, nil
	case "tag":
		return Tag, nil
	default:
		return 0, fmt.Errorf("vrs: unknown record type %q", s)
	}
}

// Record is the in-memory representation of one (streamId, timestamp,
// type, formatVersion, payload) tuple, as described in spec.md §3. It is
// the unit produced by Recordable.CreateRecord and consumed, on the read
// side, by the content-block dispatch in package blockreader.
type Record struct {
	StreamId      StreamId
	Timestamp     float64
	Type          RecordType
	FormatVersion uint32
	Payload       []byte
}

// Size returns the size in bytes of the record's payload, the quantity
// the on-disk RecordHeader.recordSize field is derived from.
func (r *Record) Size() int {
	return len(r.Payload)
}
