package sched

import (
	"time"
)

// Graphics is the display backend the scheduler drives. Window and
// context creation live outside this package; the scheduler only needs
// a swap that blocks until the frame is actually visible.
type Graphics interface {
	// SwapAndSync issues the buffer swap and blocks on a finish barrier
	// until the frame is presented. This is the timing anchor for the
	// whole flip sequence and must never be fire-and-forget.
	SwapAndSync() error
	// Clear clears the drawn frame buffer for the next draw cycle.
	Clear() error
	Close() error
}

// Headless is a display backend without a window. The swap blocks for a
// configurable synthetic refresh interval so flip timing behaves like a
// real display in diagnostics and tests.
type Headless struct {
	// FrameInterval is the synthetic refresh period. Zero means the swap
	// returns immediately.
	FrameInterval time.Duration

	swaps  int
	clears int
	closed bool
}

// NewHeadless creates a headless backend with the given synthetic
// refresh interval.
func NewHeadless(frameInterval time.Duration) *Headless {
	return &Headless{FrameInterval: frameInterval}
}

// SwapAndSync blocks for the synthetic refresh interval.
func (h *Headless) SwapAndSync() error {
	if h.FrameInterval > 0 {
		time.Sleep(h.FrameInterval)
	}
	h.swaps++
	return nil
}

// Clear counts frame clears.
func (h *Headless) Clear() error {
	h.clears++
	return nil
}

// Close marks the backend closed.
func (h *Headless) Close() error {
	h.closed = true
	return nil
}

// Swaps returns how many frames have been presented.
func (h *Headless) Swaps() int { return h.swaps }
