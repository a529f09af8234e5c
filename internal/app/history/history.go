package history

import (
	"sync"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

// DefaultCapacity is how many scans the display history keeps.
const DefaultCapacity = 10

// History is a bounded, newest-first buffer of scan records. It lives for
// the process lifetime and is never persisted.
type History struct {
	mu   sync.Mutex
	data []domain.ScanRecord
	cap  int
}

func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		data: make([]domain.ScanRecord, 0, capacity),
		cap:  capacity,
	}
}

// Push prepends rec and evicts the oldest entry beyond capacity.
func (h *History) Push(rec domain.ScanRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.data) < h.cap {
		h.data = append(h.data, domain.ScanRecord{})
	}
	copy(h.data[1:], h.data)
	h.data[0] = rec
}

// Snapshot returns a copy, newest first.
func (h *History) Snapshot() []domain.ScanRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.ScanRecord, len(h.data))
	copy(out, h.data)
	return out
}

func (h *History) Latest() (domain.ScanRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.data) == 0 {
		return domain.ScanRecord{}, false
	}
	return h.data[0], true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.data)
}

func (h *History) Cap() int { return h.cap }
