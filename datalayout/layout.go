package datalayout

import (
	"encoding/binary"
	"fmt"
)

// Layout is an ordered, named field list describing one record's
// content-block payload: a fixed-size region holding DataPieceValue
// and DataPieceArray fields back to back, followed by a small index of
// lengths and the concatenated variable-size region holding
// DataPieceVector, DataPieceString and DataPieceStringMap fields.
//
// A Layout declared by the code that's reading a record does not need
// to match the Layout the writer used field for field: MapFrom matches by
// name and element type, leaving fields absent from the incoming
// record at their zero value with IsAvailable() == false.
type Layout struct {
	fields []binaryField
}

// New creates an empty Layout. Add fields to it with Add.
func New() *Layout {
	return &Layout{}
}

// Add appends field to the layout, in declaration order. Returns field
// unchanged so callers can write `x := layout.Add(datalayout.MakeValue[uint32]("foo"))`.
func Add[F binaryField](l *Layout, field F) F {
	l.fields = append(l.fields, field)
	return field
}

// FixedSize returns the total size of the layout's fixed-size region.
func (l *Layout) FixedSize() int {
	total := 0
	for _, f := range l.fields {
		total += f.FixedSize()
	}
	return total
}

// Fields returns the layout's fields in declaration order.
func (l *Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	for i, f := range l.fields {
		out[i] = f
	}
	return out
}

// variableFields returns the subset of fields living in the variable region.
func (l *Layout) variableFields() []binaryField {
	var out []binaryField
	for _, f := range l.fields {
		if f.FixedSize() == 0 && f.Kind() != KindValue && f.Kind() != KindArray {
			out = append(out, f)
		}
	}
	return out
}

// CollectVariableDataAndUpdateIndex serializes the fixed region, the
// variable-length index (one uint32 length per variable field, in
// declaration order), and the concatenated variable region, ready to
// write as a content block's bytes.
func (l *Layout) CollectVariableDataAndUpdateIndex() []byte {
	fixed := make([]byte, l.FixedSize())
	offset := 0
	for _, f := range l.fields {
		sz := f.FixedSize()
		if sz > 0 {
			f.writeFixed(fixed[offset : offset+sz])
			offset += sz
		}
	}

	varFields := l.variableFields()
	index := make([]byte, 4*len(varFields))
	var variable []byte
	for i, f := range varFields {
		data := f.writeVariable()
		binary.LittleEndian.PutUint32(index[i*4:i*4+4], uint32(len(data)))
		variable = append(variable, data...)
	}

	out := make([]byte, 0, len(fixed)+len(index)+len(variable))
	out = append(out, fixed...)
	out = append(out, index...)
	out = append(out, variable...)
	return out
}

// ReadFrom parses buf (as produced by CollectVariableDataAndUpdateIndex
// for this exact Layout) back into the layout's fields. It is used
// when a reader's Layout was built with the exact same field set the
// writer used, e.g. re-reading a record this process just wrote.
func (l *Layout) ReadFrom(buf []byte) error {
	fixedSize := l.FixedSize()
	if len(buf) < fixedSize {
		return fmt.Errorf("datalayout: buffer too small for fixed region: have %d, want %d", len(buf), fixedSize)
	}
	offset := 0
	for _, f := range l.fields {
		sz := f.FixedSize()
		if sz > 0 {
			f.readFixed(buf[offset : offset+sz])
			offset += sz
		}
	}

	varFields := l.variableFields()
	indexSize := 4 * len(varFields)
	if len(buf) < offset+indexSize {
		return fmt.Errorf("datalayout: buffer too small for variable index")
	}
	index := buf[offset : offset+indexSize]
	offset += indexSize

	for i, f := range varFields {
		length := int(binary.LittleEndian.Uint32(index[i*4 : i*4+4]))
		if offset+length > len(buf) {
			return fmt.Errorf("datalayout: variable field %q length %d overruns buffer", f.Name(), length)
		}
		f.readVariable(buf[offset : offset+length])
		offset += length
	}
	return nil
}

// mappedRecord decodes an unknown-shape record (one possibly written
// by a different format version) into name->raw-bytes/length pairs,
// without requiring the reader to know the writer's exact field order.
type mappedRecord struct {
	fixedByName    map[string][]byte
	variableByName map[string][]byte
}

// MapFrom decodes buf using other's field layout (typically the
// RecordFormat's declared layout for this record), then copies
// matching fields (by name and element type) into l. Fields in l not
// present in other, or present with a different element type, are
// left unavailable. This is how a reader built against one format
// version can still extract the fields it knows about from a record
// written under a different (but compatible) version.
func (l *Layout) MapFrom(other *Layout, buf []byte) error {
	mapped, err := other.decodeToMap(buf)
	if err != nil {
		return err
	}
	otherTypes := make(map[string]string, len(other.fields))
	for _, f := range other.fields {
		otherTypes[f.Name()] = f.ElementTypeName()
	}
	for _, f := range l.fields {
		if otherTypes[f.Name()] != f.ElementTypeName() {
			continue
		}
		if f.FixedSize() > 0 {
			if data, ok := mapped.fixedByName[f.Name()]; ok && len(data) == f.FixedSize() {
				f.readFixed(data)
			}
		} else {
			if data, ok := mapped.variableByName[f.Name()]; ok {
				f.readVariable(data)
			}
		}
	}
	return nil
}

func (l *Layout) decodeToMap(buf []byte) (*mappedRecord, error) {
	fixedSize := l.FixedSize()
	if len(buf) < fixedSize {
		return nil, fmt.Errorf("datalayout: buffer too small for fixed region: have %d, want %d", len(buf), fixedSize)
	}
	m := &mappedRecord{fixedByName: map[string][]byte{}, variableByName: map[string][]byte{}}
	offset := 0
	for _, f := range l.fields {
		sz := f.FixedSize()
		if sz > 0 {
			m.fixedByName[f.Name()] = buf[offset : offset+sz]
			offset += sz
		}
	}

	varFields := l.variableFields()
	indexSize := 4 * len(varFields)
	if len(buf) < offset+indexSize {
		return nil, fmt.Errorf("datalayout: buffer too small for variable index")
	}
	index := buf[offset : offset+indexSize]
	offset += indexSize
	for i, f := range varFields {
		length := int(binary.LittleEndian.Uint32(index[i*4 : i*4+4]))
		if offset+length > len(buf) {
			return nil, fmt.Errorf("datalayout: variable field %q length %d overruns buffer", f.Name(), length)
		}
		m.variableByName[f.Name()] = buf[offset : offset+length]
		offset += length
	}
	return m, nil
}

// FindValue returns the DataPieceValue named name in l, or nil if no
// such field exists (or it has a different element type).
func FindValue[T Numeric](l *Layout, name string) *DataPieceValue[T] {
	for _, f := range l.fields {
		if p, ok := f.(*DataPieceValue[T]); ok && p.Name() == name {
			return p
		}
	}
	return nil
}

// FindString returns the DataPieceString named name in l, or nil.
func FindString(l *Layout, name string) *DataPieceString {
	for _, f := range l.fields {
		if p, ok := f.(*DataPieceString); ok && p.Name() == name {
			return p
		}
	}
	return nil
}
