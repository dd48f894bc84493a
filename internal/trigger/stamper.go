package trigger

import (
	"strconv"
	"time"

	"github.com/zsiec/pulse/internal/clock"
	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/logger"
)

// EventSink receives one event line per transmitted code.
type EventSink interface {
	Append(eventType, value string, ts time.Duration) error
}

// Stamper emits batches of integer codes to the trigger channel,
// timestamped against the master clock. Stamp blocks until the whole
// batch is on the wire, so code that stamps and then starts a stimulus
// is guaranteed the stamp completed first.
type Stamper struct {
	channel Channel
	clock   *clock.Clock
	events  EventSink
	logger  logger.Logger
}

// NewStamper creates a stamper over the given channel and master
// clock. events may be nil.
func NewStamper(ch Channel, c *clock.Clock, events EventSink, log logger.Logger) *Stamper {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Stamper{
		channel: ch,
		clock:   c,
		events:  events,
		logger:  log.WithField("component", "trigger_stamper"),
	}
}

// Stamp transmits the codes in order, sleeping delay between
// consecutive codes, and returns only after the full batch is sent.
// Preconditions are checked before the first code goes out, so a failed
// call leaves no partial batch observable. A negative code or a missing
// channel fails the whole batch up front.
func (s *Stamper) Stamp(codes []int, delay time.Duration) error {
	if s.channel == nil {
		return errors.NewUnavailableError("no trigger channel configured")
	}
	for _, code := range codes {
		if code < 0 {
			return errors.NewConfigurationError("trigger codes must be non-negative")
		}
	}

	start := time.Now()
	for i, code := range codes {
		if err := s.channel.Send(code); err != nil {
			// Codes already sent cannot be recalled; surface which ones.
			return errors.Wrap(err, errors.ErrorTypeUnavailable,
				"trigger batch failed mid-transmission").WithDetails(map[string]interface{}{
				"sent":  codes[:i],
				"batch": codes,
			})
		}
		codesStampedTotal.Inc()
		if s.events != nil {
			if err := s.events.Append("trigger", strconv.Itoa(code), s.clock.Now()); err != nil {
				return err
			}
		}
		if i < len(codes)-1 {
			time.Sleep(delay)
		}
	}
	batchDuration.Observe(time.Since(start).Seconds())

	s.logger.WithFields(map[string]interface{}{
		"codes":    codes,
		"delay_ms": float64(delay) / float64(time.Millisecond),
	}).Debug("Stamped trigger batch")
	return nil
}
