package monitor

import "sync/atomic"

// State is the change counter and pause depth shared by the watch loop, the
// debounce loop and whoever pauses monitoring. All fields are atomics.
type State struct {
	events atomic.Int64
	pauses atomic.Int32
}

// Add records n observed changes.
func (s *State) Add(n int64) { s.events.Add(n) }

// Pending is the number of changes not yet folded into a refresh.
func (s *State) Pending() int64 { return s.events.Load() }

// Take resets the counter and returns what it held.
func (s *State) Take() int64 { return s.events.Swap(0) }

// Paused reports whether at least one pause is active.
func (s *State) Paused() bool { return s.pauses.Load() > 0 }

func (s *State) pause() { s.pauses.Add(1) }

// resume drops one pause level, never below zero.
func (s *State) resume() {
	for {
		cur := s.pauses.Load()
		if cur <= 0 {
			return
		}
		if s.pauses.CompareAndSwap(cur, cur-1) {
			return
		}
	}
}
