package errorcode

import "testing"

func TestCodeToMessageBuiltin(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{NotAVRSFile, "Not a VRS file"},
		{IndexRecordError, "Index record error"},
		{TooMuchData, "Too much data"},
	}
	for _, tt := range tests {
		if got := CodeToMessage(tt.code); got != tt.want {
			t.Errorf("CodeToMessage(%v) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCodeToMessageUnknown(t *testing.T) {
	got := CodeToMessage(Code(999999))
	if got == "" {
		t.Fatal("expected a non-empty fallback message")
	}
}

func TestRegisterDomainStableCodes(t *testing.T) {
	d := RegisterDomain("test-domain-1")
	c1 := d.Code(42, "bad thing")
	c2 := d.Code(42, "bad thing again")
	if c1 != c2 {
		t.Errorf("expected the same native error to map to the same Code, got %v and %v", c1, c2)
	}
	c3 := d.Code(43, "another bad thing")
	if c3 == c1 {
		t.Errorf("expected distinct native errors to map to distinct Codes")
	}
	if CodeToMessage(c1) != "bad thing" {
		t.Errorf("CodeToMessage(c1) = %q, want %q", CodeToMessage(c1), "bad thing")
	}
}

func TestRegisterDomainIdempotent(t *testing.T) {
	d1 := RegisterDomain("idempotent-domain")
	d2 := RegisterDomain("idempotent-domain")
	if d1 != d2 {
		t.Error("expected RegisterDomain to return the same *Domain for the same name")
	}
}

func TestErrorUnwrapAndIs(t *testing.T) {
	cause := New(FileNotFound, "chunkio", nil)
	wrapped := New(ReadError, "filereader", cause)

	if !Is(wrapped, ReadError) {
		t.Error("expected Is(wrapped, ReadError) to be true")
	}
	if !Is(wrapped, FileNotFound) {
		t.Error("expected Is(wrapped, FileNotFound) to see through Cause")
	}
	if Is(wrapped, TooMuchData) {
		t.Error("expected Is(wrapped, TooMuchData) to be false")
	}
}
