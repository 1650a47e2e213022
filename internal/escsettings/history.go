package escsettings

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is a saved store state for undo
type Snapshot struct {
	ESCs []ESC

	// Timestamp when this snapshot was created
	Timestamp time.Time

	// Description of the operation this snapshot was taken before
	Description string
}

// History keeps a bounded stack of store snapshots
type History struct {
	store *Store

	snapshots []*Snapshot
	limit     int

	mu sync.RWMutex
}

// NewHistory creates a history holding at most limit snapshots (10 if limit <= 0)
func NewHistory(store *Store, limit int) *History {
	if limit <= 0 {
		limit = 10
	}
	return &History{
		store:     store,
		snapshots: make([]*Snapshot, 0, limit),
		limit:     limit,
	}
}

// SaveSnapshot captures the current store contents.
// Call it before an operation that should be undoable.
func (h *History) SaveSnapshot(description string) {
	snap := &Snapshot{
		ESCs:        h.store.Snapshot(),
		Timestamp:   time.Now(),
		Description: description,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.snapshots = append(h.snapshots, snap)
	if len(h.snapshots) > h.limit {
		h.snapshots = h.snapshots[1:]
	}
}

// Latest returns the most recent snapshot, or nil
func (h *History) Latest() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.snapshots) == 0 {
		return nil
	}
	return h.snapshots[len(h.snapshots)-1]
}

// Snapshots returns all snapshots, oldest first
func (h *History) Snapshots() []*Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]*Snapshot, len(h.snapshots))
	copy(result, h.snapshots)
	return result
}

// Len returns the number of snapshots held
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.snapshots)
}

// Clear drops all snapshots
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = h.snapshots[:0]
}

// Undo restores the latest snapshot into the store and drops it
func (h *History) Undo() (*Snapshot, error) {
	h.mu.Lock()
	if len(h.snapshots) == 0 {
		h.mu.Unlock()
		return nil, fmt.Errorf("nothing to undo")
	}
	snap := h.snapshots[len(h.snapshots)-1]
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	h.mu.Unlock()

	h.store.Restore(snap.ESCs)
	return snap, nil
}
