package main

import (
	"fmt"
	"os"

	"github.com/go-vrs/vrs/filter"
)

// runCopy implements "vrs copy <file> --to <out> [filters...]", per
// original_source/tools/vrs/test/VrsAppTest.cpp's
// "copy <file> --to <out> --before 10 --no-progress" invocations.
func runCopy(args []string) error {
	fa, err := parseFilterArgs(args)
	if err != nil {
		return err
	}
	if len(fa.remaining) != 1 {
		return fmt.Errorf("copy: expected exactly one source file, got %d", len(fa.remaining))
	}
	if fa.dst == "" {
		return fmt.Errorf("copy: --to <destination> is required")
	}

	cfg, err := loadConfig(fa)
	if err != nil {
		return err
	}
	reader, src, err := openFiltered(fa.remaining[0], fa, readerOptionsFor(cfg))
	if err != nil {
		return err
	}
	defer reader.Close()

	writerOpts, err := writerOptionsFor(cfg, fa)
	if err != nil {
		return err
	}
	preset, err := fa.copyPreset()
	if err != nil {
		return err
	}

	opts := filter.CopyOptions{
		Preset:        preset,
		WriterOptions: writerOpts,
		TagOverrider:  fa.tagOverrider(),
	}

	var bar *progressBar
	if !fa.noProgress {
		bar = newProgressBar(0, "copy", progressWriter())
		opts.Progress = func(copied, total int) { bar.Set(copied, total) }
	}

	if err := filter.Copy(src, fa.dst, filter.CreateFile, opts); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if bar != nil {
		bar.Finish()
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", fa.dst)
	return nil
}
