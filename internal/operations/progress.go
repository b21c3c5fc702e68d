package operations

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker tracks unit-level progress inside a long-running step.
type ProgressTracker struct {
	mu        sync.Mutex
	step      string
	total     int
	current   int
	message   string
	startTime time.Time
}

// NewProgressTracker creates a tracker for a step with a known number of
// units of work.
func NewProgressTracker(step string, total int) *ProgressTracker {
	return &ProgressTracker{step: step, total: total, startTime: time.Now()}
}

// Update sets the current progress and message.
func (p *ProgressTracker) Update(current int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	p.message = message
}

// Increment advances progress by one unit.
func (p *ProgressTracker) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.message = message
}

// Progress returns the current counters and percentage.
func (p *ProgressTracker) Progress() (current, total int, percentage float64, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100
	}
	return p.current, p.total, percentage, p.message
}

// ETA estimates the remaining time from the observed rate.
func (p *ProgressTracker) ETA() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == 0 || p.total == 0 {
		return "calculating..."
	}
	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()
	if rate == 0 {
		return "calculating..."
	}

	remaining := float64(p.total-p.current) / rate
	switch {
	case remaining < 60:
		return fmt.Sprintf("%.0f seconds", remaining)
	case remaining < 3600:
		return fmt.Sprintf("%.1f minutes", remaining/60)
	default:
		return fmt.Sprintf("%.1f hours", remaining/3600)
	}
}

// IsComplete reports whether all units are done.
func (p *ProgressTracker) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current >= p.total
}
