package filter

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	vrs "github.com/go-vrs/vrs"
	"golang.org/x/crypto/sha3"
)

// Checksum computes a logical checksum over src's filtered and
// decimated records, hashing each surviving record's (streamId,
// timestamp, type, formatVersion, payload) tuple rather than the file's
// on-disk bytes. Two files with identical records in the same order
// checksum identically regardless of chunking or compression preset,
// which is what lets a copy/merge be verified against its source.
// Records are hashed in the order the file's index lists them (on-disk
// order), so the same records stored in a different order give a
// different checksum. Grounded on
// original_source/tools/vrs/test/VrsAppTest.cpp's
// checkRecords(..., CheckType::Checksums) comparisons (spec.md §8,
// properties 1 and 5: round-trip and copy preserve record content).
func Checksum(src *FilteredFileReader) (string, error) {
	h := sha3.New256()

	hashRecord := func(rec *vrs.Record) error {
		var header [4 + 2 + 8 + 1 + 4]byte
		binary.LittleEndian.PutUint32(header[0:4], uint32(rec.StreamId.TypeId))
		binary.LittleEndian.PutUint16(header[4:6], rec.StreamId.InstanceId)
		binary.LittleEndian.PutUint64(header[6:14], math.Float64bits(rec.Timestamp))
		header[14] = byte(rec.Type)
		binary.LittleEndian.PutUint32(header[15:19], rec.FormatVersion)
		if _, err := h.Write(header[:]); err != nil {
			return err
		}
		_, err := h.Write(rec.Payload)
		return err
	}

	var recErr error
	emit := func(out *vrs.Record) {
		if recErr == nil {
			recErr = hashRecord(out)
		}
	}

	streams := map[vrs.StreamId]bool{}
	for _, entry := range src.FilteredIndex() {
		id := entry.StreamID()
		streams[id] = true
		rec, err := src.Reader.ReadRawRecord(entry)
		if err != nil {
			return "", fmt.Errorf("filter: reading %s @ %v: %w", id, entry.Timestamp, err)
		}
		skip := src.Decimator.Decimate(id, rec, emit)
		if recErr != nil {
			return "", recErr
		}
		if skip {
			continue
		}
		if err := hashRecord(rec); err != nil {
			return "", err
		}
	}
	for id := range streams {
		src.Decimator.Flush(id, emit)
		if recErr != nil {
			return "", recErr
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
