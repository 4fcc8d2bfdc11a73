package engine

import "time"

// HistoryStore is the append-only in-memory task history of one user.
// It is not safe for concurrent use; the owning Session serializes access.
type HistoryStore struct {
	records []TaskRecord
	index   map[string]int
}

// NewHistoryStore returns a store seeded with records, later entries
// superseding earlier ones with the same ID.
func NewHistoryStore(records []TaskRecord) *HistoryStore {
	h := &HistoryStore{index: map[string]int{}}
	for _, r := range records {
		h.put(r)
	}
	return h
}

func (h *HistoryStore) put(r TaskRecord) {
	if i, ok := h.index[r.ID]; ok {
		prev := h.records[i]
		if !prev.CreatedAt.IsZero() {
			r.CreatedAt = prev.CreatedAt
		}
		h.records[i] = r
		return
	}
	h.index[r.ID] = len(h.records)
	h.records = append(h.records, r)
}

// Add records a task. An existing entry with the same ID is superseded.
func (h *HistoryStore) Add(r TaskRecord) {
	h.put(r)
}

// Complete records t as completed at now and returns the stored record.
// The original creation timestamp is kept when the task was already known.
func (h *HistoryStore) Complete(t TaskRecord, now time.Time) TaskRecord {
	done := now
	t.Completed = true
	t.CompletedAt = &done
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	h.put(t)
	return h.records[h.index[t.ID]]
}

// Get returns the record for id.
func (h *HistoryStore) Get(id string) (TaskRecord, bool) {
	i, ok := h.index[id]
	if !ok {
		return TaskRecord{}, false
	}
	return h.records[i], true
}

// Len is the number of distinct tasks recorded.
func (h *HistoryStore) Len() int { return len(h.records) }

// Records returns a copy of the history in insertion order.
func (h *HistoryStore) Records() []TaskRecord {
	out := make([]TaskRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Today returns the tasks that belong to now's calendar day: created today, or
// completed today.
func (h *HistoryStore) Today(now time.Time) []TaskRecord {
	var out []TaskRecord
	for _, r := range h.records {
		if sameDay(r.CreatedAt.In(now.Location()), now) {
			out = append(out, r)
			continue
		}
		if r.CompletedAt != nil && sameDay(r.CompletedAt.In(now.Location()), now) {
			out = append(out, r)
		}
	}
	return out
}

// CompletedOn counts completions on day's calendar date.
func (h *HistoryStore) CompletedOn(day time.Time) int {
	n := 0
	for _, r := range h.records {
		if r.Completed && r.CompletedAt != nil && sameDay(r.CompletedAt.In(day.Location()), day) {
			n++
		}
	}
	return n
}
