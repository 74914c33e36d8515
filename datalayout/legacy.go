package datalayout

import "sync"

// LegacyFormatKey identifies one (stream type, record type, format
// version) triple a legacy format provider can describe.
type LegacyFormatKey struct {
	RecordableTypeID uint16
	RecordType       int
	FormatVersion    uint32
}

// LegacyFormatEntry is the Layout a legacy provider supplies for a
// given key, so old files written before a device's current format
// can still be decoded by a Layout that matches their on-disk shape.
type LegacyFormatEntry struct {
	Layout *Layout
}

// LegacyFormatsProvider registers the legacy layouts it knows about.
// Ported from original_source/vrs/utils/legacy_formats/LegacyFormats.h's
// RecordFormatRegistrar/LegacyFormatsProvider mechanism: each
// hardware-specific package installs a provider (typically from its
// own package init) instead of this module hardcoding any particular
// device's legacy formats.
type LegacyFormatsProvider interface {
	// RegisterLegacyRecordFormats is called once per RecordableTypeID
	// the registry is asked about, letting the provider add every
	// legacy (record type, format version) layout it knows for that
	// stream type.
	RegisterLegacyRecordFormats(recordableTypeID uint16, register func(LegacyFormatKey, *Layout))
}

// legacyRegistry is the process-wide registry of legacy format
// providers and the entries they've contributed, mirroring
// RecordFormatRegistrar::getInstance().
type legacyRegistry struct {
	mu        sync.Mutex
	providers []LegacyFormatsProvider
	entries   map[LegacyFormatKey]*Layout
	resolved  map[uint16]bool
}

var registry = &legacyRegistry{entries: map[LegacyFormatKey]*Layout{}, resolved: map[uint16]bool{}}

// RegisterLegacyFormatsProvider installs a provider, to be consulted
// the first time any of its RecordableTypeIDs is looked up.
func RegisterLegacyFormatsProvider(p LegacyFormatsProvider) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers = append(registry.providers, p)
}

// LookupLegacyFormat returns the Layout a registered provider supplies
// for key, asking every provider to register its formats for
// key.RecordableTypeID the first time that type is requested.
func LookupLegacyFormat(key LegacyFormatKey) (*Layout, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if !registry.resolved[key.RecordableTypeID] {
		register := func(k LegacyFormatKey, l *Layout) { registry.entries[k] = l }
		for _, p := range registry.providers {
			p.RegisterLegacyRecordFormats(key.RecordableTypeID, register)
		}
		registry.resolved[key.RecordableTypeID] = true
	}
	l, ok := registry.entries[key]
	return l, ok
}
