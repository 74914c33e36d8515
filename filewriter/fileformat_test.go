package filewriter

import "testing"

func TestFileHeaderRoundTrip(t *testing.T) {
	h := FileHeader{
		Magic: fileMagic, Version: fileFormatVersion,
		FirstRecordOffset: 100, IndexOffset: 44, HeaderSize: fileHeaderSize,
		FileSize: 5000, IndexPreallocated: 16,
	}
	got, err := UnmarshalFileHeader(h.MarshalBinary())
	if err != nil {
		t.Fatalf("UnmarshalFileHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestFileHeaderRejectsBadMagic(t *testing.T) {
	h := FileHeader{Magic: 0xdeadbeef, Version: fileFormatVersion}
	if _, err := UnmarshalFileHeader(h.MarshalBinary()); err == nil {
		t.Fatal("expected an error for a bad magic")
	}
}

func TestRecordHeaderRoundTrip(t *testing.T) {
	h := RecordHeader{
		Magic: recordMagic, RecordSize: 128, PreviousRecordSize: 64,
		StreamTypeID: 1201, StreamInstanceID: 1, Timestamp: 3.5,
		RecordType: 2, FormatVersion: 1, CompressionType: 1, UncompressedSize: 256,
	}
	got, err := UnmarshalRecordHeader(h.MarshalBinary())
	if err != nil {
		t.Fatalf("UnmarshalRecordHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestRecordHeaderRejectsTruncated(t *testing.T) {
	if _, err := UnmarshalRecordHeader([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected an error for a truncated record header")
	}
}
