package main

import (
	"fmt"
	"os"

	"github.com/go-vrs/vrs/chunkio"
	"github.com/go-vrs/vrs/config"
	"github.com/go-vrs/vrs/filereader"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/filter"
)

// loadConfig loads fa's --config override, falling back to defaults.
func loadConfig(fa *filterArgs) (*config.Config, error) {
	return config.LoadConfig(fa.configPath)
}

// readerOptionsFor translates cfg's reader defaults into
// filereader.ReaderOptions.
func readerOptionsFor(cfg *config.Config) filereader.ReaderOptions {
	autoReconstruct, cacheSize := cfg.ReaderOptions()
	return filereader.ReaderOptions{AutoReconstructIndex: autoReconstruct, CacheSize: cacheSize}
}

// openFiltered opens path read-only and wraps it in a *filter.FilteredFileReader
// built from fa's time range, stream selector, and decimation flags
// (with any bare RecordableTypeId decimate target resolved against
// this particular source's own stream list, per
// original_source/tools/vrs/test/VrsAppTest.cpp's "--decimate 1202 ..."
// usage).
func openFiltered(path string, fa *filterArgs, readerOpts filereader.ReaderOptions) (*filereader.RecordFileReader, *filter.FilteredFileReader, error) {
	reader, err := filereader.OpenFileWithOptions(chunkio.NewSpec(path), readerOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}

	f := filter.New(reader)
	f.Time = fa.time
	f.Streams = fa.selector
	switch {
	case fa.firstRecords:
		f.Decimator = newFirstRecordDecimator()
	case len(fa.decimate) > 0 || fa.bucketInterval > 0:
		f.Decimator = fa.resolveDecimator(reader.GetStreams())
	}
	return reader, f, nil
}

// writerOptionsFor builds filewriter.Options for a destination file
// from cfg's defaults layered with fa's --compression/--chunk-size/--mt
// overrides.
func writerOptionsFor(cfg interface {
	WriterOptions() (filewriter.Options, error)
}, fa *filterArgs) (filewriter.Options, error) {
	base, err := cfg.WriterOptions()
	if err != nil {
		return filewriter.Options{}, err
	}
	return fa.writerOptions(base)
}

func progressWriter() *os.File { return os.Stderr }
