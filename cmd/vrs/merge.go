package main

import (
	"fmt"
	"os"

	"github.com/go-vrs/vrs/filereader"
	"github.com/go-vrs/vrs/filter"
)

// runMerge implements "vrs merge <file>... --to <out> [filters...]",
// per VrsAppTest.cpp's "merge <part1> <part2> --to <merged> --no-progress".
// The same filter flags apply to every source file being merged.
func runMerge(args []string) error {
	fa, err := parseFilterArgs(args)
	if err != nil {
		return err
	}
	if len(fa.remaining) < 2 {
		return fmt.Errorf("merge: expected at least two source files, got %d", len(fa.remaining))
	}
	if fa.dst == "" {
		return fmt.Errorf("merge: --to <destination> is required")
	}

	cfg, err := loadConfig(fa)
	if err != nil {
		return err
	}
	readerOpts := readerOptionsFor(cfg)

	var readers []*filereader.RecordFileReader
	var srcs []*filter.FilteredFileReader
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()
	for _, path := range fa.remaining {
		reader, f, err := openFiltered(path, fa, readerOpts)
		if err != nil {
			return err
		}
		readers = append(readers, reader)
		srcs = append(srcs, f)
	}

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
		bar = newProgressBar(0, "merge", progressWriter())
		opts.Progress = func(copied, total int) { bar.Set(copied, total) }
	}

	if err := filter.Merge(srcs, fa.dst, filter.CreateFile, opts); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if bar != nil {
		bar.Finish()
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", fa.dst)
	return nil
}
