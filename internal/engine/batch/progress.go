package batch

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage.
const percentMultiplier = 100

// Progress counts completed items. It is safe for concurrent use.
type Progress struct {
	total     int
	completed int
	start     time.Time
	last      time.Time
	mu        sync.RWMutex
}

// NewProgress creates a tracker for total items.
func NewProgress(total int) *Progress {
	now := time.Now()
	return &Progress{total: total, start: now, last: now}
}

// Add records n more completed items.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed += n
	p.last = time.Now()
}

// Completed returns the number of finished items.
func (p *Progress) Completed() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed
}

// Total returns the number of items in the run.
func (p *Progress) Total() int {
	return p.total
}

// PercentComplete returns the completion percentage (0-100).
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.total == 0 {
		return 0
	}
	return float64(p.completed) / float64(p.total) * percentMultiplier
}

// IsComplete reports whether every item has finished.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.completed >= p.total
}

// Elapsed returns the time between the start and the last completion.
func (p *Progress) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last.Sub(p.start)
}
