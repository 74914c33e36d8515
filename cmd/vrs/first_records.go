package main

import (
	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/filter"
)

// firstRecordDecimator implements --first-records: keep, per stream,
// only the very first Data record and drop every later one.
// Configuration and State records bypass the Decimator entirely (see
// filter.Decimator's doc comment), so they always survive regardless
// of this flag, matching the original CLI's use of --first-records as
// a quick way to sample a file's shape without its bulk Data payload.
type firstRecordDecimator struct {
	seen map[vrs.StreamId]bool
}

func newFirstRecordDecimator() *firstRecordDecimator {
	return &firstRecordDecimator{seen: map[vrs.StreamId]bool{}}
}

func (d *firstRecordDecimator) Reset(id vrs.StreamId) { delete(d.seen, id) }

func (d *firstRecordDecimator) Decimate(id vrs.StreamId, rec *vrs.Record, emit func(*vrs.Record)) bool {
	if rec.Type != vrs.Data {
		return false
	}
	if d.seen[id] {
		return true
	}
	d.seen[id] = true
	return false
}

func (d *firstRecordDecimator) Flush(vrs.StreamId, func(*vrs.Record)) {}
func (d *firstRecordDecimator) GraceWindow() float64                 { return 0 }

var _ filter.Decimator = (*firstRecordDecimator)(nil)
