package recordable

import (
	"sync"

	vrs "github.com/go-vrs/vrs"
	"github.com/go-vrs/vrs/internal/vlog"
)

// Over-allocation policy constants, per spec.md §4.F: "the underlying
// buffer is grown by max(minExtraBytes, overAllocFraction × currentRecordSize)
// to amortize future records." Grounded on
// pkg/core/blocks/memory_pool.go's pool-by-size-class shape, adapted
// here to a per-stream growth policy rather than a global pool (a
// RecordManager belongs to exactly one stream, so there is no
// cross-stream sharing to pool against).
const (
	minExtraBytes     = 256
	overAllocFraction = 0.25
)

// RecordManager buffers one stream's produced records in a FIFO,
// growing its backing array ahead of need via the over-allocation
// policy above, and enforces per-stream timestamp monotonicity with a
// throttled warning (not an error) on regression, per spec.md §4.F and
// the monotonicity invariant in spec.md §8 property 3.
type RecordManager struct {
	streamID  vrs.StreamId
	mu        sync.Mutex
	pending   []*vrs.Record
	lastStamp float64
	hasLast   bool
	cap       int
	log       *vlog.Logger
}

func newRecordManager(streamID vrs.StreamId) *RecordManager {
	return &RecordManager{
		streamID: streamID,
		pending:  make([]*vrs.Record, 0, 16),
		cap:      16,
		log:      vlog.Default.WithComponent("recordable.manager"),
	}
}

// submit appends rec to the FIFO, growing the backing array per the
// over-allocation policy when it's full, and checks rec's timestamp
// against the last-submitted one for this stream.
func (m *RecordManager) submit(rec *vrs.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasLast && rec.Timestamp < m.lastStamp && vlog.DefaultThrottler.Report("recordable.manager.monotonicity", m.streamID) {
		m.log.Warn("timestamp regression on stream", map[string]any{
			"stream":   m.streamID.String(),
			"previous": m.lastStamp,
			"current":  rec.Timestamp,
		})
	}
	m.lastStamp = rec.Timestamp
	m.hasLast = true

	if len(m.pending) == cap(m.pending) {
		m.grow(len(rec.Payload))
	}
	m.pending = append(m.pending, rec)
}

// grow extends pending's capacity by max(minExtraBytes, overAllocFraction
// * currentRecordSize) worth of additional record slots, amortizing the
// cost of future appends the way spec.md §4.F's over-allocation policy
// describes for the underlying byte buffer.
func (m *RecordManager) grow(currentRecordSize int) {
	extra := int(float64(currentRecordSize) * overAllocFraction)
	if extra < minExtraBytes {
		extra = minExtraBytes
	}
	extraSlots := extra / 64
	if extraSlots < 4 {
		extraSlots = 4
	}
	grown := make([]*vrs.Record, len(m.pending), cap(m.pending)+extraSlots)
	copy(grown, m.pending)
	m.pending = grown
}

// Drain removes and returns every record currently buffered, in FIFO
// order, leaving the manager empty. Called by a RecordFileWriter as it
// pulls records up to some timestamp.
func (m *RecordManager) Drain() []*vrs.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.pending
	m.pending = make([]*vrs.Record, 0, 16)
	return out
}

// Len reports how many records are currently buffered.
func (m *RecordManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Peek returns the buffered records without draining them, for a
// writer that wants to inspect timestamps before deciding how far to
// pull (e.g. the grace-window-respecting writeRecordsAsync logic in
// package filewriter).
func (m *RecordManager) Peek() []*vrs.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*vrs.Record, len(m.pending))
	copy(out, m.pending)
	return out
}

// DrainUpTo removes and returns the buffered records, in FIFO order, up
// to the first one whose timestamp is > upToTimestamp; that record and
// every record after it stay buffered, even one whose own timestamp is
// <= upToTimestamp (possible after a timestamp regression).
func (m *RecordManager) DrainUpTo(upToTimestamp float64) []*vrs.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := 0
	for i < len(m.pending) && m.pending[i].Timestamp <= upToTimestamp {
		i++
	}
	out := m.pending[:i]
	rest := make([]*vrs.Record, len(m.pending)-i)
	copy(rest, m.pending[i:])
	m.pending = rest
	return out
}
