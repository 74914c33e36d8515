package recordformat

import (
	"fmt"
	"strconv"
	"strings"

	vrs "github.com/go-vrs/vrs"
)

// RecordType is an alias for the root package's record-kind
// enumeration. recordformat is a leaf consumer of vrs (vrs itself never
// imports recordformat), so there is no cycle in reusing it directly
// here rather than keeping a second, shadow enumeration in sync by hand.
type RecordType = vrs.RecordType

const (
	Configuration = vrs.Configuration
	State         = vrs.State
	Data          = vrs.Data
	Tag           = vrs.Tag
)

// tagRecordType renders t the way RecordFormat tag keys expect
// ("Configuration", "State", ...), distinct from vrs.RecordType.String's
// lowercase form used elsewhere.
func tagRecordType(t RecordType) string {
	switch t {
	case Configuration:
		return "Configuration"
	case State:
		return "State"
	case Data:
		return "Data"
	case Tag:
		return "Tag"
	default:
		return "Unknown"
	}
}

// Format is the ordered list of content blocks one (RecordType,
// formatVersion) of a stream carries.
type Format struct {
	RecordType    RecordType
	FormatVersion uint32
	Blocks        []ContentBlock
}

// New creates a Format for recordType/formatVersion with no blocks yet.
func New(recordType RecordType, formatVersion uint32) *Format {
	return &Format{RecordType: recordType, FormatVersion: formatVersion}
}

// Add appends a content block to f's sequence, returning f for chaining.
func (f *Format) Add(block ContentBlock) *Format {
	f.Blocks = append(f.Blocks, block)
	return f
}

// TagKey returns the VRS-tag key this format is stored under, e.g. "RF:Data:2".
func (f *Format) TagKey() string {
	return fmt.Sprintf("RF:%s:%d", tagRecordType(f.RecordType), f.FormatVersion)
}

// TagValue serializes f's block sequence to the "+"-joined compact
// form stored as the tag's value, e.g. "data_layout/size=33+image/raw".
func (f *Format) TagValue() string {
	parts := make([]string, len(f.Blocks))
	for i, b := range f.Blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, "+")
}

// ParseTagKey parses a "RF:<RecordType>:<formatVersion>" tag key.
func ParseTagKey(key string) (RecordType, uint32, error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] != "RF" {
		return 0, 0, fmt.Errorf("recordformat: not a RecordFormat tag key: %q", key)
	}
	rt, err := parseRecordType(parts[1])
	if err != nil {
		return 0, 0, err
	}
	version, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("recordformat: invalid format version in %q: %w", key, err)
	}
	return rt, uint32(version), nil
}

func parseRecordType(s string) (RecordType, error) {
	switch s {
	case "Configuration":
		return Configuration, nil
	case "State":
		return State, nil
	case "Data":
		return Data, nil
	case "Tag":
		return Tag, nil
	default:
		return 0, fmt.Errorf("recordformat: unknown record type %q", s)
	}
}

// DataLayoutTagKey returns the VRS-tag key under which blockIndex's
// DataLayout schema within (recordType, formatVersion) is stored, e.g.
// "DL:Data:2:0". Implements spec.md §4.D / Testable Property 7's
// DataLayout schema-evolution tag alongside this Format's own "RF:" key.
func DataLayoutTagKey(recordType RecordType, formatVersion uint32, blockIndex int) string {
	return fmt.Sprintf("DL:%s:%d:%d", tagRecordType(recordType), formatVersion, blockIndex)
}

// ParseDataLayoutTagKey parses a "DL:<RecordType>:<formatVersion>:<blockIndex>" tag key.
func ParseDataLayoutTagKey(key string) (RecordType, uint32, int, error) {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) != 4 || parts[0] != "DL" {
		return 0, 0, 0, fmt.Errorf("recordformat: not a DataLayout tag key: %q", key)
	}
	rt, err := parseRecordType(parts[1])
	if err != nil {
		return 0, 0, 0, err
	}
	version, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("recordformat: invalid format version in %q: %w", key, err)
	}
	blockIndex, err := strconv.Atoi(parts[3])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("recordformat: invalid block index in %q: %w", key, err)
	}
	return rt, uint32(version), blockIndex, nil
}

// ParseTagValue parses a tag value (as produced by TagValue) into a
// Format's block sequence for the given record type/version.
func ParseTagValue(recordType RecordType, formatVersion uint32, value string) (*Format, error) {
	f := New(recordType, formatVersion)
	if value == "" {
		return f, nil
	}
	for _, token := range strings.Split(value, "+") {
		b, err := parseContentBlock(token)
		if err != nil {
			return nil, err
		}
		f.Add(b)
	}
	return f, nil
}

// ResolveBlockSize determines the size in bytes of the block at index
// i within a record whose total remaining payload (after the blocks
// before i have been consumed) is remainingBytes, and whose preceding
// DataLayout block (if any) declared nextContentBlockSize via its
// next_content_block_size field. Implements the three-tier resolution
// from spec.md §4.D:
//  1. the block's own declared size, if fixed in the RecordFormat;
//  2. nextContentBlockSize, if the preceding block supplied one;
//  3. remainingBytes, if this is the last block in the record.
func (f *Format) ResolveBlockSize(i int, remainingBytes int64, nextContentBlockSize int64) (int64, error) {
	if i < 0 || i >= len(f.Blocks) {
		return 0, fmt.Errorf("recordformat: block index %d out of range", i)
	}
	b := f.Blocks[i]
	if b.Size >= 0 {
		return b.Size, nil
	}
	if nextContentBlockSize >= 0 {
		return nextContentBlockSize, nil
	}
	if i == len(f.Blocks)-1 {
		return remainingBytes, nil
	}
	return 0, fmt.Errorf("recordformat: cannot resolve size of block %d (%s): not the last block and no size was declared", i, b.Type)
}
