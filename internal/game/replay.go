package game

import (
	"sync"
)

// Replay is an in-memory list of snapshots, one per turn start, with a
// playback cursor.
type Replay struct {
	GameID       string
	States       []Snapshot
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		States: make([]Snapshot, 0),
	}
}

// Record appends a snapshot.
func (r *Replay) Record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.States = append(r.States, s)
}

// Start rewinds the cursor.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the state under the cursor and moves forward.
func (r *Replay) Next() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.States) {
		s := r.States[r.CurrentIndex]
		r.CurrentIndex++
		return s, true
	}
	return Snapshot{}, false
}

// Previous moves back and returns the state under the cursor.
func (r *Replay) Previous() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.States[r.CurrentIndex], true
	}
	return Snapshot{}, false
}

// Skip moves the cursor by count, clamped to the recorded range.
func (r *Replay) Skip(count int) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.States) == 0 {
		return Snapshot{}, false
	}
	r.CurrentIndex = min(max(r.CurrentIndex+count, 0), len(r.States)-1)
	return r.States[r.CurrentIndex], true
}

// Size returns the number of recorded states.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.States)
}

// StateAt returns the state at index.
func (r *Replay) StateAt(index int) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.States) {
		return r.States[index], true
	}
	return Snapshot{}, false
}

// Checksums returns the checksum of every recorded state in order.
func (r *Replay) Checksums() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.States))
	for i, s := range r.States {
		out[i] = s.Checksum()
	}
	return out
}
