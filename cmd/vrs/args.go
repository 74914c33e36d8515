package main

import (
	"fmt"
	"strconv"
	"strings"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/compression"
	"github.com/go-vrs/vrs/filewriter"
	"github.com/go-vrs/vrs/filter"
)

// decimateTarget is a --decimate selector not yet resolved against any
// particular source file's actual stream list.
type decimateTarget struct {
	typeID   vrs.RecordableTypeId
	streamID vrs.StreamId
	isStream bool
	interval float64
}

// streamTagOverride is one --stream-tag <id> <k> <v> entry.
type streamTagOverride struct {
	id    vrs.StreamId
	key   string
	value string
}

// filterArgs accumulates every flag parseFilterArgs understands, before
// it's resolved against an opened source (selectors and decimation
// targets may name a RecordableTypeId that only resolves to concrete
// StreamIds once a file's stream list is known).
type filterArgs struct {
	configPath  string
	dst         string
	noProgress   bool
	firstRecords bool
	mt          int
	chunkSize   int64
	compression string

	time     filter.TimeRange
	selector filter.StreamSelector

	decimate       []decimateTarget
	bucketInterval float64
	bucketMaxDelta float64

	fileTags   map[string]string
	streamTags []streamTagOverride

	remaining []string // positional (source file) arguments
}

func newFilterArgs() *filterArgs {
	return &filterArgs{time: filter.NewTimeRange(), fileTags: map[string]string{}}
}

// parseFilterArgs scans args left to right, recognizing every flag
// named in spec.md §6's CLI surface. Unrecognized tokens that don't
// start with '-'/'+' are collected as positional source paths.
func parseFilterArgs(args []string) (*filterArgs, error) {
	fa := newFilterArgs()

	next := func(i int, flag string) (string, int, error) {
		if i+1 >= len(args) {
			return "", i, fmt.Errorf("cmd/vrs: %s requires an argument", flag)
		}
		return args[i+1], i + 1, nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			fa.configPath, i = v, ni

		case arg == "--to":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			fa.dst, i = v, ni

		case arg == "--no-progress":
			fa.noProgress = true

		case arg == "--first-records":
			// Handled by the caller once the source is open (it installs
			// a per-stream first-record decimator); recorded here only so
			// it's not treated as an unrecognized positional.
			fa.firstRecords = true

		case arg == "--after":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --after: %w", err)
			}
			fa.time.HasMin, fa.time.Min, i = true, t, ni

		case arg == "--before":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			t, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --before: %w", err)
			}
			fa.time.HasMax, fa.time.Max, i = true, t, ni

		case arg == "--range":
			if i+2 >= len(args) {
				return nil, fmt.Errorf("cmd/vrs: --range requires two arguments")
			}
			minV, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --range: %w", err)
			}
			maxV, err := strconv.ParseFloat(args[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --range: %w", err)
			}
			fa.time.HasMin, fa.time.Min = true, minV
			fa.time.HasMax, fa.time.Max = true, maxV
			i += 2

		case arg == "--around":
			if i+2 >= len(args) {
				return nil, fmt.Errorf("cmd/vrs: --around requires two arguments")
			}
			center, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --around: %w", err)
			}
			radius, err := strconv.ParseFloat(args[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --around: %w", err)
			}
			fa.time.HasAround, fa.time.Around, fa.time.AroundDelta = true, center, radius
			i += 2

		case arg == "--decimate":
			if i+2 >= len(args) {
				return nil, fmt.Errorf("cmd/vrs: --decimate requires a stream and an interval")
			}
			target, err := parseDecimateSelector(args[i+1])
			if err != nil {
				return nil, err
			}
			interval, err := strconv.ParseFloat(args[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --decimate: %w", err)
			}
			target.interval = interval
			fa.decimate = append(fa.decimate, target)
			i += 2

		case arg == "--bucket-interval":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			s, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --bucket-interval: %w", err)
			}
			fa.bucketInterval, i = s, ni

		case arg == "--bucket-max-delta":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			s, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --bucket-max-delta: %w", err)
			}
			fa.bucketMaxDelta, i = s, ni

		case strings.HasPrefix(arg, "--compression="):
			fa.compression = strings.TrimPrefix(arg, "--compression=")

		case arg == "--chunk-size":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			n, err := parseByteSize(v)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --chunk-size: %w", err)
			}
			fa.chunkSize, i = n, ni

		case arg == "--mt":
			v, ni, err := next(i, arg)
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --mt: %w", err)
			}
			fa.mt, i = n, ni

		case arg == "--file-tag":
			if i+2 >= len(args) {
				return nil, fmt.Errorf("cmd/vrs: --file-tag requires a key and a value")
			}
			fa.fileTags[args[i+1]] = args[i+2]
			i += 2

		case arg == "--stream-tag":
			if i+3 >= len(args) {
				return nil, fmt.Errorf("cmd/vrs: --stream-tag requires a stream, a key, and a value")
			}
			id, err := parseStreamSelector(args[i+1])
			if err != nil {
				return nil, fmt.Errorf("cmd/vrs: --stream-tag: %w", err)
			}
			fa.streamTags = append(fa.streamTags, streamTagOverride{id: id, key: args[i+2], value: args[i+3]})
			i += 3

		case strings.HasPrefix(arg, "+") && len(arg) > 1:
			if err := applySelector(&fa.selector, arg[1:], true); err != nil {
				return nil, err
			}

		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			if err := applySelector(&fa.selector, arg[1:], false); err != nil {
				return nil, err
			}

		default:
			fa.remaining = append(fa.remaining, arg)
		}
	}
	return fa, nil
}

// applySelector resolves token (a RecordableTypeId, a StreamId in
// "<type>-<instance>" form, or a RecordType name) into s's matching
// include/exclude list, per original_source/vrs/utils/cli/CliParsing.h's
// parseTimeAndStreamFilters.
func applySelector(s *filter.StreamSelector, token string, include bool) error {
	if id, err := vrs.ParseStreamId(token); err == nil {
		if include {
			s.IncludeStreams = append(s.IncludeStreams, id)
		} else {
			s.ExcludeStreams = append(s.ExcludeStreams, id)
		}
		return nil
	}
	if n, err := strconv.ParseUint(token, 10, 32); err == nil {
		t := vrs.RecordableTypeId(n)
		if include {
			s.IncludeTypes = append(s.IncludeTypes, t)
		} else {
			s.ExcludeTypes = append(s.ExcludeTypes, t)
		}
		return nil
	}
	if rt, err := vrs.ParseRecordType(token); err == nil {
		if include {
			s.IncludeRecordTypes = append(s.IncludeRecordTypes, rt)
		} else {
			s.ExcludeRecordTypes = append(s.ExcludeRecordTypes, rt)
		}
		return nil
	}
	return fmt.Errorf("cmd/vrs: unrecognized stream selector %q", token)
}

// parseStreamSelector parses token as either a full StreamId or a bare
// RecordableTypeId with instance 1, for flags (like --stream-tag) that
// need exactly one concrete stream.
func parseStreamSelector(token string) (vrs.StreamId, error) {
	if id, err := vrs.ParseStreamId(token); err == nil {
		return id, nil
	}
	if n, err := strconv.ParseUint(token, 10, 32); err == nil {
		return vrs.StreamId{TypeId: vrs.RecordableTypeId(n), InstanceId: 1}, nil
	}
	return vrs.StreamId{}, fmt.Errorf("unrecognized stream %q", token)
}

func parseDecimateSelector(token string) (decimateTarget, error) {
	if id, err := vrs.ParseStreamId(token); err == nil {
		return decimateTarget{streamID: id, isStream: true}, nil
	}
	if n, err := strconv.ParseUint(token, 10, 32); err == nil {
		return decimateTarget{typeID: vrs.RecordableTypeId(n)}, nil
	}
	return decimateTarget{}, fmt.Errorf("cmd/vrs: unrecognized decimate target %q", token)
}

// parseByteSize parses a --chunk-size value the way
// original_source/vrs/utils/cli/CliParsing.cpp's parseCopyOptions does:
// the number is in megabytes, with an optional trailing 'M' (explicit,
// no-op) or 'G' (multiplies by 1024 before converting to bytes) suffix;
// a bare number with no suffix is megabytes too. Returns a byte count,
// since that's the unit filewriter.Options.MaxChunkBytes takes.
func parseByteSize(s string) (int64, error) {
	factor := int64(1)
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'M', 'm':
			s = s[:n-1]
		case 'G', 'g':
			factor, s = 1024, s[:n-1]
		}
	}
	mb, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return mb * factor * (1 << 20), nil
}

// resolveDecimator builds a filter.DefaultDecimator for one opened
// source, expanding any bare RecordableTypeId decimate target into
// every matching stream actually present in that source. --bucket-interval
// is a single global knob (matching the original's one-process-wide
// setting): when set, every configured target uses bucket mode at that
// width instead of interval mode, with --bucket-max-delta as the
// shared cutoff.
func (fa *filterArgs) resolveDecimator(streams []vrs.StreamId) *filter.DefaultDecimator {
	d := filter.NewDefaultDecimator()
	d.BucketMaxDelta = fa.bucketMaxDelta
	for _, target := range fa.decimate {
		ids := target.matches(streams)
		for _, id := range ids {
			if fa.bucketInterval > 0 {
				d.BucketIntervals[id] = fa.bucketInterval
			} else {
				d.StreamIntervals[id] = target.interval
			}
		}
	}
	return d
}

func (t decimateTarget) matches(streams []vrs.StreamId) []vrs.StreamId {
	if t.isStream {
		return []vrs.StreamId{t.streamID}
	}
	var out []vrs.StreamId
	for _, id := range streams {
		if id.TypeId == t.typeID {
			out = append(out, id)
		}
	}
	return out
}

// writerOptions builds filewriter.Options from fa, layering CLI
// overrides (--compression, --chunk-size, --mt) over the config file's
// (or DefaultOptions') values.
func (fa *filterArgs) writerOptions(base filewriter.Options) (filewriter.Options, error) {
	opts := base
	if fa.compression != "" {
		preset, err := compression.ParsePreset(fa.compression)
		if err != nil {
			return opts, fmt.Errorf("cmd/vrs: --compression: %w", err)
		}
		opts.DefaultPreset = preset
	}
	if fa.chunkSize > 0 {
		opts.MaxChunkBytes = fa.chunkSize
	}
	if fa.mt > 0 {
		opts.CompressionWorkers = fa.mt
	}
	return opts, nil
}

// copyPreset reports the per-record compression preset override
// (CopyOptions.Preset) --compression requests, or Undefined to keep
// each source record's own preset.
func (fa *filterArgs) copyPreset() (compression.Preset, error) {
	if fa.compression == "" {
		return compression.Undefined, nil
	}
	return compression.ParsePreset(fa.compression)
}

// tagOverrider builds a CopyOptions.TagOverrider applying fa's
// --file-tag (broadcast to every stream, since this port keeps no
// separate file-level tag store — see filereader.RecordFileReader.GetTag)
// and --stream-tag (applied only to its named stream) overrides.
func (fa *filterArgs) tagOverrider() func(id vrs.StreamId, tags map[string]string) map[string]string {
	if len(fa.fileTags) == 0 && len(fa.streamTags) == 0 {
		return nil
	}
	return func(id vrs.StreamId, tags map[string]string) map[string]string {
		out := make(map[string]string, len(tags)+len(fa.fileTags))
		for k, v := range tags {
			out[k] = v
		}
		for k, v := range fa.fileTags {
			out[k] = v
		}
		for _, o := range fa.streamTags {
			if o.id == id {
				out[o.key] = o.value
			}
		}
		return out
	}
}
