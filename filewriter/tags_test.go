package filewriter

import (
	"testing"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/datalayout"
	"github.com/go-vrs/vrs/recordable"
	"github.com/go-vrs/vrs/recordformat"
)

func TestMarshalTagRecordRoundTripsDataLayoutSchema(t *testing.T) {
	r := recordable.New(vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1})
	r.SetTag("name", "imu-0")

	format := recordformat.New(recordformat.Data, 1)
	format.Add(recordformat.DataLayoutBlock(-1))
	r.AddRecordFormat(format)

	layout := datalayout.New()
	datalayout.Add(layout, datalayout.MakeValue[uint32]("counter"))
	datalayout.Add(layout, datalayout.MakeString("label"))
	r.SetDataLayoutSchema(recordformat.Data, 1, 0, layout)

	payload, err := marshalTagRecord(r)
	if err != nil {
		t.Fatalf("marshalTagRecord: %v", err)
	}

	data, err := ParseTagRecordPayload(payload)
	if err != nil {
		t.Fatalf("ParseTagRecordPayload: %v", err)
	}
	if data.UserTags["name"] != "imu-0" {
		t.Fatalf("unexpected user tags: %v", data.UserTags)
	}
	if data.Formats[recordformat.Data][1] == nil {
		t.Fatal("expected the registered RecordFormat to round-trip")
	}

	key := DataLayoutSchemaKey{RecordType: recordformat.Data, FormatVersion: 1, BlockIndex: 0}
	schema, ok := data.Schemas[key]
	if !ok {
		t.Fatalf("expected a stored schema at %+v, got %+v", key, data.Schemas)
	}
	if len(schema.Fields) != 2 || schema.Fields[0].Name != "counter" || schema.Fields[1].Name != "label" {
		t.Fatalf("unexpected schema fields: %+v", schema.Fields)
	}
}

func TestMarshalTagRecordOmitsSchemasWhenNoneRegistered(t *testing.T) {
	r := recordable.New(vrs.StreamId{TypeId: vrs.MotionSensorData, InstanceId: 1})
	format := recordformat.New(recordformat.Data, 1)
	format.Add(recordformat.DataLayoutBlock(-1))
	r.AddRecordFormat(format)

	payload, err := marshalTagRecord(r)
	if err != nil {
		t.Fatalf("marshalTagRecord: %v", err)
	}
	data, err := ParseTagRecordPayload(payload)
	if err != nil {
		t.Fatalf("ParseTagRecordPayload: %v", err)
	}
	if len(data.Schemas) != 0 {
		t.Fatalf("expected no schemas when none were registered, got %+v", data.Schemas)
	}
}
