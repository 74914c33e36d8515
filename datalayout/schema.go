package datalayout

import (
	"encoding/json"
	"fmt"
)

// FieldSchema is one field's entry in a Layout's JSON schema
// description, the dialect VRS tags (and this module's `vrs check`
// inspection output) use to describe a record format without requiring
// the reader to link against the writer's exact field declarations.
type FieldSchema struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Type  string `json:"type"`
	Count int    `json:"count,omitempty"`
	// Size is the field's fixed-region footprint in bytes (0 for
	// variable-region fields), the same value FixedSize() returns.
	// LayoutFromSchema uses it to reconstruct each field's shape.
	Size int `json:"size,omitempty"`
}

// Schema describes a Layout's fields for serialization into a stream's
// "DL:<RecordType>:<formatVersion>:<blockIndex>" tag value (spec.md
// §4.D), and for round-tripping through JSON so a content block's
// structure can be recovered from a file's tags alone, without the
// reader linking against the writer's exact field declarations.
type Schema struct {
	Fields []FieldSchema `json:"fields"`
}

// DescribeSchema builds the JSON-serializable schema for l.
func (l *Layout) DescribeSchema() Schema {
	s := Schema{Fields: make([]FieldSchema, 0, len(l.fields))}
	for _, f := range l.fields {
		s.Fields = append(s.Fields, FieldSchema{
			Name: f.Name(),
			Kind: f.Kind().String(),
			Type: f.ElementTypeName(),
			Size: f.FixedSize(),
		})
	}
	return s
}

// ToJSON renders the layout's schema as JSON.
func (l *Layout) ToJSON() (string, error) {
	b, err := json.Marshal(l.DescribeSchema())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SchemaFromJSON parses a Schema previously produced by ToJSON, for
// tools that only need to inspect a layout's shape (e.g. `vrs check`)
// without linking against the original typed fields.
func SchemaFromJSON(jsonStr string) (Schema, error) {
	var s Schema
	err := json.Unmarshal([]byte(jsonStr), &s)
	return s, err
}

// shapeField is a placeholder Field carrying only the name, kind and
// fixed-region size a Schema records. It is only ever used as MapFrom's
// "other" argument: decodeToMap slices other's buffer using Name/Kind/
// FixedSize alone, so shapeField's own read/write methods are never
// invoked.
type shapeField struct {
	fieldBase
	kind      Kind
	fixedSize int
}

func (f *shapeField) Kind() Kind            { return f.kind }
func (f *shapeField) FixedSize() int        { return f.fixedSize }
func (f *shapeField) writeFixed([]byte)     {}
func (f *shapeField) readFixed([]byte)      {}
func (f *shapeField) writeVariable() []byte { return nil }
func (f *shapeField) readVariable([]byte)   {}

func parseKind(s string) (Kind, error) {
	switch s {
	case "value":
		return KindValue, nil
	case "array":
		return KindArray, nil
	case "vector":
		return KindVector, nil
	case "string":
		return KindString, nil
	case "string_map":
		return KindStringMap, nil
	default:
		return 0, fmt.Errorf("datalayout: unknown field kind %q", s)
	}
}

// LayoutFromSchema reconstructs a shape-only Layout from a Schema
// previously recovered from a "DL:" tag: one placeholder field per
// FieldSchema, preserving name, kind, element type name and
// fixed-region footprint. Pass the result as MapFrom's (or
// MapFromSchema's) "other" layout when the reader has no concrete
// *Layout for the exact format version that wrote a record — e.g. a
// legacy file whose writer's Go struct no longer exists in this
// process, per spec.md §4.D's schema-evolution requirement.
func LayoutFromSchema(s Schema) (*Layout, error) {
	l := New()
	for _, fs := range s.Fields {
		kind, err := parseKind(fs.Kind)
		if err != nil {
			return nil, err
		}
		l.fields = append(l.fields, &shapeField{
			fieldBase: fieldBase{name: fs.Name, elemType: fs.Type},
			kind:      kind,
			fixedSize: fs.Size,
		})
	}
	return l, nil
}

// MapFromSchema is MapFrom, using a Layout reconstructed from schema
// (typically recovered from a file's "DL:" tag) instead of a concrete
// writer Layout, for when the reader has no Go struct for the exact
// format version that wrote buf.
func (l *Layout) MapFromSchema(schema Schema, buf []byte) error {
	other, err := LayoutFromSchema(schema)
	if err != nil {
		return err
	}
	return l.MapFrom(other, buf)
}
