// Package compression wraps lz4 and zstd behind the preset scheme
// used to compress record payloads, ported from
// original_source/vrs/Compressor.cpp/.h.
package compression

import "fmt"

// Preset selects a compression algorithm and effort level for a record.
type Preset int

const (
	Undefined Preset = iota
	None

	Lz4Fast
	Lz4Tight

	ZstdFaster
	ZstdFast
	ZstdLight
	ZstdMedium
	ZstdHeavy
	ZstdHigh
	ZstdTight
	ZstdMax

	firstLz4Preset  = Lz4Fast
	lastLz4Preset   = Lz4Tight
	firstZstdPreset = ZstdFaster
	lastZstdPreset  = ZstdMax
)

// zstdLevels maps each zstd preset to its libzstd compression level,
// ported verbatim from Compressor.cpp's sZstdPresets map.
var zstdLevels = map[Preset]int{
	ZstdFaster: -1,
	ZstdFast:   1,
	ZstdLight:  3,
	ZstdMedium: 7,
	ZstdHeavy:  12,
	ZstdHigh:   15,
	ZstdTight:  18,
	ZstdMax:    20,
}

const zstdDefaultLevel = 3 // ZSTD_CLEVEL_DEFAULT

// lz4TightLevel is the libLZ4 compression level used for the Lz4Tight
// preset; Lz4Fast uses the library default (0), matching
// Compressor.cpp's getLz4Preferences.
const lz4TightLevel = 4

var presetNames = map[Preset]string{
	None:       "none",
	Undefined:  "undefined",
	Lz4Fast:    "lz4-fast",
	Lz4Tight:   "lz4-tight",
	ZstdFaster: "zstd-faster",
	ZstdFast:   "zstd-fast",
	ZstdLight:  "zstd-light",
	ZstdMedium: "zstd-medium",
	ZstdHeavy:  "zstd-heavy",
	ZstdHigh:   "zstd-high",
	ZstdTight:  "zstd-tight",
	ZstdMax:    "zstd-max",
}

// String renders a preset name, suffixed with its numeric zstd level
// when applicable, e.g. "zstd-medium(7)".
func (p Preset) String() string {
	name, ok := presetNames[p]
	if !ok {
		name = fmt.Sprintf("preset-%d", int(p))
	}
	if p >= firstZstdPreset && p <= lastZstdPreset {
		name = fmt.Sprintf("%s(%d)", name, zstdLevelFor(p))
	}
	return name
}

// ParsePreset looks up a preset by its String() name (without the
// "(level)" suffix), e.g. "zstd-medium" or "lz4-fast".
func ParsePreset(name string) (Preset, error) {
	for preset, presetName := range presetNames {
		if presetName == name {
			return preset, nil
		}
	}
	return Undefined, fmt.Errorf("compression: unknown preset %q", name)
}

// IsLz4 reports whether p selects an LZ4 preset.
func (p Preset) IsLz4() bool { return p >= firstLz4Preset && p <= lastLz4Preset }

// IsZstd reports whether p selects a zstd preset.
func (p Preset) IsZstd() bool { return p >= firstZstdPreset && p <= lastZstdPreset }

func zstdLevelFor(p Preset) int {
	if level, ok := zstdLevels[p]; ok {
		return level
	}
	return zstdDefaultLevel
}

// minByteCountForCompression is the payload size threshold below which
// compression is never attempted, since the framing overhead would
// dominate any gain. Ported from Compressor::kMinByteCountForCompression.
const minByteCountForCompression = 250

// shouldTryToCompress reports whether a payload of size bytes under
// preset is worth attempting to compress.
func shouldTryToCompress(preset Preset, size int) bool {
	if preset == None || preset == Undefined {
		return false
	}
	return size >= minByteCountForCompression
}
