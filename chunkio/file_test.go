package chunkio

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestDiskFileSingleChunkReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunk0")

	f := NewDiskFile(NewSpec(path), true)
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	payload := []byte("hello vrs")
	if _, err := f.WriteAt(payload, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if f.Size() != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), f.Size())
	}

	buf := make([]byte, len(payload))
	n, err := f.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != len(payload) || !bytes.Equal(buf, payload) {
		t.Fatalf("ReadAt returned %q, want %q", buf[:n], payload)
	}
}

func TestDiskFileAddChunkExtendsSpec(t *testing.T) {
	dir := t.TempDir()
	path0 := filepath.Join(dir, "chunk0")
	path1 := filepath.Join(dir, "chunk1")

	f := NewDiskFile(NewSpec(path0), true)
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte("abc"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	idx, err := f.AddChunk(path1)
	if err != nil {
		t.Fatalf("AddChunk: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected chunk index 1, got %d", idx)
	}
	if got := f.Spec().Chunks; len(got) != 2 || got[1] != path1 {
		t.Fatalf("expected spec to grow to include %s, got %v", path1, got)
	}
	if _, err := f.WriteAt([]byte("de"), 3); err != nil {
		t.Fatalf("WriteAt into new chunk: %v", err)
	}
	if f.Size() != 5 {
		t.Fatalf("expected total size 5, got %d", f.Size())
	}
}

func TestDiskFileMultiChunkReadCrossesBoundary(t *testing.T) {
	dir := t.TempDir()
	path0 := filepath.Join(dir, "chunk0")
	path1 := filepath.Join(dir, "chunk1")

	w := NewDiskFile(NewSpec(path0), true)
	if err := w.Open(); err != nil {
		t.Fatalf("Open chunk0: %v", err)
	}
	if _, err := w.WriteAt([]byte("0123456789"), 0); err != nil {
		t.Fatalf("WriteAt chunk0: %v", err)
	}
	w.Close()

	w2 := NewDiskFile(NewSpec(path1), true)
	if err := w2.Open(); err != nil {
		t.Fatalf("Open chunk1: %v", err)
	}
	if _, err := w2.WriteAt([]byte("abcdefghij"), 0); err != nil {
		t.Fatalf("WriteAt chunk1: %v", err)
	}
	w2.Close()

	f := NewDiskFile(NewSpec(path0, path1), false)
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if f.Size() != 20 {
		t.Fatalf("expected total size 20, got %d", f.Size())
	}

	buf := make([]byte, 6)
	n, err := f.ReadAt(buf, 7)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	want := "789abc"
	if n != len(want) || string(buf[:n]) != want {
		t.Fatalf("ReadAt across boundary = %q, want %q", buf[:n], want)
	}
}

func TestDiskFileReadOnlyRejectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunk0")

	setup := NewDiskFile(NewSpec(path), true)
	if err := setup.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	setup.Close()

	f := NewDiskFile(NewSpec(path), false)
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if _, err := f.WriteAt([]byte("x"), 0); err == nil {
		t.Fatal("expected write to a read-only DiskFile to fail")
	}
}
