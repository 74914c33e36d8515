package main

import (
	"fmt"
	"os"

	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/filereader"
	"github.com/go-vrs/vrs/filter"
)

// runCheck implements "vrs check <file>...", printing each file's
// logical checksum and, when more than one file is given, reporting
// whether they all match. Grounded on
// original_source/tools/vrs/test/VrsAppTest.cpp's
// recordsChecksum(original, false) == recordsChecksum(merged, false)
// comparisons, which the original uses to confirm a copy/merge
// preserved record content.
func runCheck(args []string) error {
	fa, err := parseFilterArgs(args)
	if err != nil {
		return err
	}
	if len(fa.remaining) == 0 {
		return fmt.Errorf("check: expected at least one file")
	}

	cfg, err := loadConfig(fa)
	if err != nil {
		return err
	}
	readerOpts := readerOptionsFor(cfg)

	var first string
	mismatch := false
	for _, path := range fa.remaining {
		reader, err := filereader.OpenFileWithOptions(chunkio.NewSpec(path), readerOpts)
		if err != nil {
			return fmt.Errorf("check: opening %s: %w", path, err)
		}
		f := filter.New(reader)
		f.Time = fa.time
		f.Streams = fa.selector
		sum, err := filter.Checksum(f)
		reader.Close()
		if err != nil {
			return fmt.Errorf("check: checksumming %s: %w", path, err)
		}
		fmt.Fprintf(os.Stdout, "%s  %s\n", sum, path)
		if first == "" {
			first = sum
		} else if sum != first {
			mismatch = true
		}
	}

	if len(fa.remaining) > 1 {
		if mismatch {
			fmt.Fprintln(os.Stdout, "checksums differ")
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, "checksums match")
	}
	return nil
}
