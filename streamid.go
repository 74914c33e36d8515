// Package vrs provides the shared data-model types used throughout the
// record system: stream identification, the record envelope, and the
// well-known tag conventions recordables and files use to describe
// themselves. Most other packages in this module (recordformat,
// blockreader, recordable, filewriter, filereader, videoframe,
// multireader, filter) import this package; chunkio, compression and
// datalayout do not. It must not import any of them, to keep the
// dependency graph acyclic.
package vrs

import (
	"fmt"
	"strconv"
	"strings"
)

// RecordableTypeId identifies a device class producing a stream, e.g. a
// SLAM camera or an IMU. It is a fixed enumeration shared across a
// deployment; values below 1000 are reserved for this module's own use,
// leaving the rest open to application-defined device classes.
type RecordableTypeId uint32

// Well-known recordable type ids used in the examples and tests
// throughout this module. Application code is free to define its own.
const (
	RecordableTypeUndefined RecordableTypeId = 0
	SlamCameraData          RecordableTypeId = 1201
	MotionSensorData        RecordableTypeId = 1200
	ControllerData          RecordableTypeId = 1100
	AudioData               RecordableTypeId = 1300
)

// StreamId is the pair (RecordableTypeId, instanceId) identifying one
// stream within a file. instanceId is 1-based and assigned in creation
// order for a given RecordableTypeId within a process.
type StreamId struct {
	TypeId     RecordableTypeId
	InstanceId uint16
}

// IsValid reports whether the StreamId refers to an actual stream.
// The zero value (type Undefined, instance 0) is never a valid stream.
func (id StreamId) IsValid() bool {
	return id.TypeId != RecordableTypeUndefined && id.InstanceId != 0
}

// String renders the StreamId in its canonical textual form "<typeId>-<instance>".
func (id StreamId) String() string {
	return fmt.Sprintf("%d-%d", id.TypeId, id.InstanceId)
}

// ParseStreamId parses the canonical "<typeId>-<instance>" textual form
// produced by StreamId.String.
func ParseStreamId(s string) (StreamId, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return StreamId{}, fmt.Errorf("vrs: invalid stream id %q", s)
	}
	typeId, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return StreamId{}, fmt.Errorf("vrs: invalid stream id %q: %w", s, err)
	}
	instance, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return StreamId{}, fmt.Errorf("vrs: invalid stream id %q: %w", s, err)
	}
	return StreamId{TypeId: RecordableTypeId(typeId), InstanceId: uint16(instance)}, nil
}

// StreamIdAllocator assigns 1-based, creation-ordered instance ids per
// RecordableTypeId within a single process, matching the data model's
// "instanceId is 1-based, assigned in order of stream creation" rule.
type StreamIdAllocator struct {
	next map[RecordableTypeId]uint16
}

// NewStreamIdAllocator creates an empty allocator.
func NewStreamIdAllocator() *StreamIdAllocator {
	return &StreamIdAllocator{next: make(map[RecordableTypeId]uint16)}
}

// Allocate returns the next StreamId for typeId, starting at instance 1.
func (a *StreamIdAllocator) Allocate(typeId RecordableTypeId) StreamId {
	a.next[typeId]++
	return StreamId{TypeId: typeId, InstanceId: a.next[typeId]}
}
