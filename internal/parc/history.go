package parc

// historyCapacity bounds the undo/redo ring each File keeps over its
// payload: decoding remembers the encoded bytes, re-encoding remembers
// the plaintext, up to 4 retained records.
const historyCapacity = 4

// HistoryRecord is one payload snapshot in a File's data history.
type HistoryRecord struct {
	Data         []byte
	IsCompressed bool
}

// DataHistory is a fixed-capacity ordered ring of HistoryRecord with a
// movable "current" cursor, supporting Add/Back/Forward/First/Current
// per §3.4.
type DataHistory struct {
	records []HistoryRecord
	cur     int // index into records; -1 when empty
}

// NewDataHistory returns an empty history.
func NewDataHistory() *DataHistory {
	return &DataHistory{cur: -1}
}

// Add records rec as the new current entry. If the cursor isn't at the
// front (i.e. a prior Back left unconsumed forward history), that
// forward history is dropped before the new record is appended. If the
// ring is already at capacity, the oldest record is evicted.
func (h *DataHistory) Add(rec HistoryRecord) {
	if h.cur >= 0 && h.cur < len(h.records)-1 {
		h.records = h.records[:h.cur+1]
	}
	h.records = append(h.records, rec)
	if len(h.records) > historyCapacity {
		h.records = h.records[1:]
	}
	h.cur = len(h.records) - 1
}

// Current returns the record the cursor currently points at.
func (h *DataHistory) Current() (HistoryRecord, bool) {
	if h.cur < 0 || h.cur >= len(h.records) {
		return HistoryRecord{}, false
	}
	return h.records[h.cur], true
}

// Back moves the cursor one entry toward the oldest record.
func (h *DataHistory) Back() bool {
	if h.cur <= 0 {
		return false
	}
	h.cur--
	return true
}

// Forward moves the cursor one entry toward the newest record.
func (h *DataHistory) Forward() bool {
	if h.cur < 0 || h.cur >= len(h.records)-1 {
		return false
	}
	h.cur++
	return true
}

// First returns the oldest retained record.
func (h *DataHistory) First() (HistoryRecord, bool) {
	if len(h.records) == 0 {
		return HistoryRecord{}, false
	}
	return h.records[0], true
}

// Len reports how many records are currently retained (<= historyCapacity).
func (h *DataHistory) Len() int { return len(h.records) }
