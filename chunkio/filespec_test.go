package chunkio

import "testing"

func TestSpecJSONRoundTrip(t *testing.T) {
	s := Spec{
		FileHandlerName: "mystorage",
		FileName:        "file.vrs",
		Chunks:          []string{"chunk1", "chunk2"},
	}
	s.SetExtra("region", "us-east-1")

	j, err := s.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	back, err := FromJSON(j)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.FileHandlerName != s.FileHandlerName || back.FileName != s.FileName {
		t.Fatalf("round trip mismatch: got %+v, want %+v", back, s)
	}
	if len(back.Chunks) != 2 || back.Chunks[0] != "chunk1" {
		t.Fatalf("chunks did not round trip: %+v", back.Chunks)
	}
	if back.GetExtra("region") != "us-east-1" {
		t.Fatalf("extras did not round trip: %+v", back.Extras)
	}
}

func TestFromPathJSONURIPlainPath(t *testing.T) {
	s, err := FromPathJSONURI("/tmp/recording.vrs", "")
	if err != nil {
		t.Fatalf("FromPathJSONURI: %v", err)
	}
	if !s.IsDiskFile() {
		t.Fatal("expected a plain path to parse as a disk file")
	}
	if len(s.Chunks) != 1 || s.Chunks[0] != "/tmp/recording.vrs" {
		t.Fatalf("unexpected chunks: %+v", s.Chunks)
	}
}

func TestFromPathJSONURIScheme(t *testing.T) {
	s, err := FromPathJSONURI("s3://my-bucket/path/to/file.vrs?region=us-west-2", "")
	if err != nil {
		t.Fatalf("FromPathJSONURI: %v", err)
	}
	if s.FileHandlerName != "s3" {
		t.Fatalf("expected scheme 's3', got %q", s.FileHandlerName)
	}
	if s.GetExtra("region") != "us-west-2" {
		t.Fatalf("expected region extra to be parsed, got %+v", s.Extras)
	}
}

func TestFromPathJSONURIJson(t *testing.T) {
	s, err := FromPathJSONURI(`{"storage":"mystorage","chunks":["chunk1","chunk2"],"filename":"file.vrs"}`, "")
	if err != nil {
		t.Fatalf("FromPathJSONURI: %v", err)
	}
	if s.FileHandlerName != "mystorage" || len(s.Chunks) != 2 {
		t.Fatalf("unexpected spec: %+v", s)
	}
}

func TestFileSizeUnknownWithoutChunkSizes(t *testing.T) {
	s := NewSpec("a", "b")
	if s.FileSize() != -1 {
		t.Fatalf("expected -1 with no chunk sizes, got %d", s.FileSize())
	}
	s.ChunkSizes = []int64{10, 20}
	if s.FileSize() != 30 {
		t.Fatalf("expected 30, got %d", s.FileSize())
	}
}

func TestNextChunkPath(t *testing.T) {
	cases := []struct{ first, want string }{
		{"out.vrs", "out_1.vrs"},
		{"/tmp/recordings/out.vrs", "/tmp/recordings/out_1.vrs"},
		{"noext", "noext_1"},
		{"a.b/out", "a.b/out_1"},
	}
	for _, c := range cases {
		if got := NextChunkPath(c.first, 1); got != c.want {
			t.Errorf("NextChunkPath(%q, 1) = %q, want %q", c.first, got, c.want)
		}
	}
	if got := NextChunkPath("out.vrs", 2); got != "out_2.vrs" {
		t.Errorf("NextChunkPath(%q, 2) = %q, want out_2.vrs", "out.vrs", got)
	}
}

func TestGetExtraAsBool(t *testing.T) {
	s := Spec{}
	s.SetExtra("flag", "true")
	if !s.GetExtraAsBool("flag", false) {
		t.Fatal("expected \"true\" to parse as true")
	}
	if s.GetExtraAsBool("missing", true) != true {
		t.Fatal("expected default to be returned for a missing extra")
	}
}
