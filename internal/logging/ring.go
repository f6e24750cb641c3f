package logging

import (
	"bytes"
	"os"
	"sync"
)

// Ring keeps the most recent log records in memory. It implements io.Writer;
// every Write is stored as one record and the oldest record is overwritten
// once the ring is full.
type Ring struct {
	mu      sync.Mutex
	records [][]byte
	next    int
	full    bool
}

// NewRing returns a ring holding up to n records.
func NewRing(n int) *Ring {
	if n <= 0 {
		n = 1
	}
	return &Ring{records: make([][]byte, n)}
}

func (r *Ring) Write(p []byte) (int, error) {
	rec := make([]byte, len(p))
	copy(rec, p)

	r.mu.Lock()
	r.records[r.next] = rec
	r.next++
	if r.next == len(r.records) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
	return len(p), nil
}

// Len reports how many records are held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.records)
	}
	return r.next
}

// Bytes returns the held records oldest first.
func (r *Ring) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	if r.full {
		for _, rec := range r.records[r.next:] {
			buf.Write(rec)
		}
	}
	for _, rec := range r.records[:r.next] {
		buf.Write(rec)
	}
	return buf.Bytes()
}

// WriteFile dumps the held records to path.
func (r *Ring) WriteFile(path string) error {
	return os.WriteFile(path, r.Bytes(), 0o600)
}
