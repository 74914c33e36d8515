// Package datalayout implements VRS's self-describing binary record
// schema: a layout is a named, typed list of fields split into a
// fixed-size region (scalars and fixed arrays) and a variable-size
// region (strings, vectors, string maps), so readers can map an
// unknown record's layout onto the fields they actually care about by
// name and type, tolerating fields the writer added or removed.
package datalayout

import "fmt"

// Numeric is the set of scalar types a DataPieceValue/DataPieceArray
// can hold.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Kind identifies which region and shape a field occupies.
type Kind int

const (
	KindValue Kind = iota
	KindArray
	KindVector
	KindString
	KindStringMap
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindArray:
		return "array"
	case KindVector:
		return "vector"
	case KindString:
		return "string"
	case KindStringMap:
		return "string_map"
	default:
		return "unknown"
	}
}

// Field is the common interface every typed piece implements, letting
// a Layout hold a heterogeneous, ordered field list.
type Field interface {
	Name() string
	Kind() Kind
	// ElementTypeName names the field's element type for cross-layout
	// matching, e.g. "int32", "float64", "string".
	ElementTypeName() string
	// FixedSize returns the field's fixed-region footprint in bytes,
	// or 0 for variable-region fields.
	FixedSize() int

	setAvailable(bool)
	available() bool
}

type fieldBase struct {
	name      string
	elemType  string
	available_ bool
}

func (f *fieldBase) Name() string            { return f.name }
func (f *fieldBase) ElementTypeName() string { return f.elemType }
func (f *fieldBase) setAvailable(v bool)     { f.available_ = v }
func (f *fieldBase) available() bool         { return f.available_ }

// DataPieceValue is a single fixed-size scalar field, e.g. a
// timestamp, a sensor reading, a frame counter.
type DataPieceValue[T Numeric] struct {
	fieldBase
	value        T
	offsetInFixed int
}

// MakeValue creates a new, unattached scalar field named name.
func MakeValue[T Numeric](name string) *DataPieceValue[T] {
	return &DataPieceValue[T]{fieldBase: fieldBase{name: name, elemType: typeNameOf[T]()}}
}

func (p *DataPieceValue[T]) Kind() Kind    { return KindValue }
func (p *DataPieceValue[T]) FixedSize() int {
	var zero T
	return sizeOfNumeric(zero)
}

// Get returns the field's current value, or the zero value if the
// field wasn't present in the record being read.
func (p *DataPieceValue[T]) Get() T { return p.value }

// Set stages a value to be written.
func (p *DataPieceValue[T]) Set(v T) { p.value = v }

// IsAvailable reports whether this field was found (and populated)
// in the record most recently mapped onto this layout.
func (p *DataPieceValue[T]) IsAvailable() bool { return p.available() }

// DataPieceArray is a fixed-length array of scalars, e.g. a 3-float
// translation vector or a 9-float rotation matrix.
type DataPieceArray[T Numeric] struct {
	fieldBase
	values []T
	count  int
}

// MakeArray creates a new fixed-length array field of count elements.
func MakeArray[T Numeric](name string, count int) *DataPieceArray[T] {
	return &DataPieceArray[T]{fieldBase: fieldBase{name: name, elemType: typeNameOf[T]()}, count: count, values: make([]T, count)}
}

func (p *DataPieceArray[T]) Kind() Kind { return KindArray }
func (p *DataPieceArray[T]) FixedSize() int {
	var zero T
	return sizeOfNumeric(zero) * p.count
}
func (p *DataPieceArray[T]) Get() []T          { return p.values }
func (p *DataPieceArray[T]) Set(v []T)         { copy(p.values, v) }
func (p *DataPieceArray[T]) IsAvailable() bool { return p.available() }

// DataPieceVector is a variable-length vector of scalars, stored in
// the variable-size region.
type DataPieceVector[T Numeric] struct {
	fieldBase
	values []T
}

// MakeVector creates a new variable-length vector field.
func MakeVector[T Numeric](name string) *DataPieceVector[T] {
	return &DataPieceVector[T]{fieldBase: fieldBase{name: name, elemType: "vector<" + typeNameOf[T]() + ">"}}
}

func (p *DataPieceVector[T]) Kind() Kind     { return KindVector }
func (p *DataPieceVector[T]) FixedSize() int { return 0 }
func (p *DataPieceVector[T]) Get() []T       { return p.values }
func (p *DataPieceVector[T]) Set(v []T)      { p.values = v }
func (p *DataPieceVector[T]) IsAvailable() bool { return p.available() }

// DataPieceString is a variable-length UTF-8 string field.
type DataPieceString struct {
	fieldBase
	value string
}

// MakeString creates a new string field.
func MakeString(name string) *DataPieceString {
	return &DataPieceString{fieldBase: fieldBase{name: name, elemType: "string"}}
}

func (p *DataPieceString) Kind() Kind        { return KindString }
func (p *DataPieceString) FixedSize() int    { return 0 }
func (p *DataPieceString) Get() string       { return p.value }
func (p *DataPieceString) Set(v string)      { p.value = v }
func (p *DataPieceString) IsAvailable() bool { return p.available() }

// DataPieceStringMap is a variable-length string-keyed map of scalars.
type DataPieceStringMap[T Numeric] struct {
	fieldBase
	values map[string]T
}

// MakeStringMap creates a new string-keyed map field.
func MakeStringMap[T Numeric](name string) *DataPieceStringMap[T] {
	return &DataPieceStringMap[T]{fieldBase: fieldBase{name: name, elemType: "string_map<" + typeNameOf[T]() + ">"}}
}

func (p *DataPieceStringMap[T]) Kind() Kind        { return KindStringMap }
func (p *DataPieceStringMap[T]) FixedSize() int    { return 0 }
func (p *DataPieceStringMap[T]) Get() map[string]T { return p.values }
func (p *DataPieceStringMap[T]) Set(v map[string]T) { p.values = v }
func (p *DataPieceStringMap[T]) IsAvailable() bool  { return p.available() }

func typeNameOf[T Numeric]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}

func sizeOfNumeric[T Numeric](zero T) int {
	switch any(zero).(type) {
	case int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	case int64, uint64, float64:
		return 8
	default:
		return 8
	}
}
