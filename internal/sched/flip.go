package sched

import (
	"time"

	"github.com/zsiec/pulse/internal/clock"
	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/logger"
)

// Callback is a deferred unit of work executed inside a flip.
type Callback func() error

// EventSink receives the flip event line for the experiment log.
type EventSink interface {
	Append(eventType, value string, ts time.Duration) error
}

// FlipScheduler orders the display swap, audio start and registered
// callbacks into one atomic flip and timestamps it against the master
// clock. It is owned by the timing-critical thread and is not designed
// for concurrent mutation.
//
// Callback error policy: a failing callback is not retried; the
// remaining callbacks in the same phase still run, the every-flip phase
// still runs after a next-flip failure, and the first failure is
// returned as a CallbackFailure once the flip sequence has completed.
// Failures are never swallowed: an unlogged side effect corrupts
// downstream timing analysis.
type FlipScheduler struct {
	graphics Graphics
	clock    *clock.Clock
	events   EventSink
	logger   logger.Logger

	play      Callback
	nextFlip  []Callback
	everyFlip []Callback
}

// NewFlipScheduler creates a scheduler over the given display backend
// and master clock. events may be nil when no data file is open.
func NewFlipScheduler(g Graphics, c *clock.Clock, events EventSink, log logger.Logger) *FlipScheduler {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &FlipScheduler{
		graphics: g,
		clock:    c,
		events:   events,
		logger:   log.WithField("component", "flip_scheduler"),
	}
}

// OnNextFlip registers a callback consumed by the next flip only.
func (f *FlipScheduler) OnNextFlip(cb Callback) {
	f.nextFlip = append(f.nextFlip, cb)
}

// OnEveryFlip registers a callback that persists across flips until
// cleared.
func (f *FlipScheduler) OnEveryFlip(cb Callback) {
	f.everyFlip = append(f.everyFlip, cb)
}

// ClearNextFlip drops all pending one-shot callbacks.
func (f *FlipScheduler) ClearNextFlip() {
	f.nextFlip = nil
}

// ClearEveryFlip drops all persistent callbacks.
func (f *FlipScheduler) ClearEveryFlip() {
	f.everyFlip = nil
}

// QueuePlay arranges for the audio-start action to run first among the
// next flip's callbacks, ahead of everything registered via OnNextFlip.
func (f *FlipScheduler) QueuePlay(play Callback) {
	f.play = play
}

// NextFlipCount returns the number of pending one-shot callbacks.
func (f *FlipScheduler) NextFlipCount() int { return len(f.nextFlip) }

// EveryFlipCount returns the number of persistent callbacks.
func (f *FlipScheduler) EveryFlipCount() int { return len(f.everyFlip) }

// Flip executes one atomic flip: swap with sync barrier, timestamp,
// queued audio start, one-shot callbacks in registration order,
// persistent callbacks in registration order, consume the one-shot
// list, clear the frame, log the flip. The returned timestamp is the
// authoritative onset time for everything queued in this flip.
func (f *FlipScheduler) Flip() (time.Duration, error) {
	swapStart := time.Now()
	if err := f.graphics.SwapAndSync(); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeUnavailable, "display swap failed")
	}
	flipTime := f.clock.Now()
	swapLatency.Observe(time.Since(swapStart).Seconds())

	var firstErr error
	record := func(err error) {
		if err != nil {
			callbackFailuresTotal.Inc()
			f.logger.WithError(err).Error("Flip callback failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if f.play != nil {
		record(f.play())
		f.play = nil
	}
	for _, cb := range f.nextFlip {
		record(cb())
	}
	for _, cb := range f.everyFlip {
		record(cb())
	}
	f.nextFlip = nil

	if err := f.graphics.Clear(); err != nil {
		record(err)
	}

	flipsTotal.Inc()
	if f.events != nil {
		if err := f.events.Append("flip", "", flipTime); err != nil {
			record(err)
		}
	}

	if firstErr != nil {
		return flipTime, errors.NewCallbackFailure(firstErr, "flip callback failed")
	}
	return flipTime, nil
}
