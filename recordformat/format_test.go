package recordformat

import "testing"

func TestContentBlockStringAndParseRoundTrip(t *testing.T) {
	cases := []ContentBlock{
		DataLayoutBlock(33),
		ImageBlock(ImageRaw, nil),
		ImageBlock(ImageVideo, map[string]string{"codec": "h264"}),
		AudioBlock(AudioOpus, nil),
		CustomBlock(128),
		EmptyBlock(),
	}
	for _, b := range cases {
		s := b.String()
		parsed, err := parseContentBlock(s)
		if err != nil {
			t.Fatalf("parseContentBlock(%q): %v", s, err)
		}
		if parsed.Type != b.Type {
			t.Fatalf("round trip type mismatch for %q: got %v, want %v", s, parsed.Type, b.Type)
		}
		if parsed.Size != b.Size {
			t.Fatalf("round trip size mismatch for %q: got %d, want %d", s, parsed.Size, b.Size)
		}
	}
}

func TestFormatTagRoundTrip(t *testing.T) {
	f := New(Data, 2)
	f.Add(DataLayoutBlock(33)).Add(ImageBlock(ImageRaw, nil))

	key := f.TagKey()
	if key != "RF:Data:2" {
		t.Fatalf("unexpected tag key %q", key)
	}
	value := f.TagValue()
	if value != "data_layout/size=33+image/raw" {
		t.Fatalf("unexpected tag value %q", value)
	}

	rt, version, err := ParseTagKey(key)
	if err != nil {
		t.Fatalf("ParseTagKey: %v", err)
	}
	f2, err := ParseTagValue(rt, version, value)
	if err != nil {
		t.Fatalf("ParseTagValue: %v", err)
	}
	if len(f2.Blocks) != 2 || f2.Blocks[0].Size != 33 || f2.Blocks[1].ImageFormat != ImageRaw {
		t.Fatalf("unexpected parsed format: %+v", f2.Blocks)
	}
}

func TestResolveBlockSizePrecedence(t *testing.T) {
	f := New(Data, 1)
	f.Add(DataLayoutBlock(33)).Add(CustomBlock(-1))

	size, err := f.ResolveBlockSize(0, 1000, -1)
	if err != nil || size != 33 {
		t.Fatalf("expected declared size 33, got %d, err %v", size, err)
	}

	size, err = f.ResolveBlockSize(1, 1000, 500)
	if err != nil || size != 500 {
		t.Fatalf("expected next-content-block-size 500 to take precedence, got %d, err %v", size, err)
	}

	size, err = f.ResolveBlockSize(1, 1000, -1)
	if err != nil || size != 1000 {
		t.Fatalf("expected fallback to remaining bytes, got %d, err %v", size, err)
	}
}

func TestResolveBlockSizeAmbiguousMiddleBlockErrors(t *testing.T) {
	f := New(Data, 1)
	f.Add(CustomBlock(-1)).Add(CustomBlock(-1))
	if _, err := f.ResolveBlockSize(0, 1000, -1); err == nil {
		t.Fatal("expected an error for an undeclared, non-last block with no next-content-block-size")
	}
}
