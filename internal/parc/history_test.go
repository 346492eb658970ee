package parc

import "testing"

func TestDataHistoryBoundAndCursor(t *testing.T) {
	h := NewDataHistory()
	if _, ok := h.Current(); ok {
		t.Fatalf("empty history should have no current record")
	}

	for i := 0; i < 6; i++ {
		h.Add(HistoryRecord{Data: []byte{byte(i)}})
	}
	if h.Len() != historyCapacity {
		t.Fatalf("Len() = %d, want %d", h.Len(), historyCapacity)
	}

	cur, ok := h.Current()
	if !ok || cur.Data[0] != 5 {
		t.Fatalf("Current() = %v, want record 5", cur)
	}

	first, ok := h.First()
	if !ok || first.Data[0] != 2 {
		t.Fatalf("First() = %v, want record 2 (oldest after eviction)", first)
	}
}

func TestDataHistoryBackForwardTruncatesOnAdd(t *testing.T) {
	h := NewDataHistory()
	h.Add(HistoryRecord{Data: []byte{1}})
	h.Add(HistoryRecord{Data: []byte{2}})
	h.Add(HistoryRecord{Data: []byte{3}})

	if !h.Back() {
		t.Fatalf("Back() should succeed from the newest record")
	}
	cur, _ := h.Current()
	if cur.Data[0] != 2 {
		t.Fatalf("after one Back(), Current() = %v, want record 2", cur)
	}

	h.Add(HistoryRecord{Data: []byte{9}})
	if h.Forward() {
		t.Fatalf("Forward() should fail: Add from a rewound cursor must drop forward history")
	}
	if h.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 after truncate-then-add", h.Len())
	}
}

func TestDataHistoryForwardFailsAtFront(t *testing.T) {
	h := NewDataHistory()
	h.Add(HistoryRecord{Data: []byte{1}})
	if h.Forward() {
		t.Fatalf("Forward() should fail when already at the newest record")
	}
}
