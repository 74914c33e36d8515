// Package recordable implements the producer side of a stream: a
// Recordable emits records through a RecordManager, which buffers them
// and enforces per-stream timestamp monotonicity before handing them
// off to a RecordFileWriter. Grounded on spec.md §4.F.
package recordable

import (
	"github.com/go-vrs/vrs/datalayout"
)

// DataSource composes one record's payload out of up to two DataLayout
// references and up to three opaque byte chunks, in that declaration
// order. The fixed arity keeps composition cheap and allocation-free
// for the common case; a record needing more structure assembles one
// of its own opaque chunks upstream and passes that in. Grounded on
// spec.md §4.F: "A DataSource is an ordered composition of: up to two
// DataLayout references ... and up to three opaque byte chunks."
type DataSource struct {
	Layouts [2]*datalayout.Layout
	Chunks  [3][]byte
}

// NewDataSource returns a DataSource with no layouts or chunks set; use
// WithLayout/WithChunk to populate it, or set the fields directly.
func NewDataSource() DataSource {
	return DataSource{}
}

// WithLayout sets layout slot i (0 or 1), returning the DataSource for chaining.
func (d DataSource) WithLayout(i int, layout *datalayout.Layout) DataSource {
	d.Layouts[i] = layout
	return d
}

// WithChunk sets chunk slot i (0, 1, or 2), returning the DataSource for chaining.
func (d DataSource) WithChunk(i int, chunk []byte) DataSource {
	d.Chunks[i] = chunk
	return d
}

// serialize concatenates d's populated layouts (each via
// CollectVariableDataAndUpdateIndex) followed by its populated chunks,
// in declaration order, into a single contiguous buffer. The caller
// may release any underlying layout/chunk storage once serialize
// returns, since the result is a fresh copy.
func (d DataSource) serialize() []byte {
	var total int
	layoutBytes := make([][]byte, 0, 2)
	for _, l := range d.Layouts {
		if l == nil {
			continue
		}
		b := l.CollectVariableDataAndUpdateIndex()
		layoutBytes = append(layoutBytes, b)
		total += len(b)
	}
	for _, c := range d.Chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, b := range layoutBytes {
		out = append(out, b...)
	}
	for _, c := range d.Chunks {
		out = append(out, c...)
	}
	return out
}
