package clock

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/logger"
)

// DriftTolerance is how far an auxiliary clock's offset may move from
// its frozen baseline before a drift warning is reported.
const DriftTolerance = 10 * time.Microsecond

// Correction tracks the alignment of one auxiliary hardware clock
// against the master clock. Baseline is set exactly once, on the first
// reconciliation for a clock ID, and is retained purely for drift
// monitoring: later reconciliations never overwrite it.
type Correction struct {
	ClockID    string
	Baseline   time.Duration
	LastOffset time.Duration
	Samples    uint64
}

// Drift returns the divergence of the latest measured offset from the
// frozen baseline.
func (c *Correction) Drift() time.Duration {
	return c.LastOffset - c.Baseline
}

// Reconciler monitors drift between the master clock and any auxiliary
// clocks used for timestamping. It is owned by the timing-critical
// thread; concurrent callers must serialize access externally.
type Reconciler struct {
	master      *Clock
	corrections map[string]*Correction
	report      *errors.Report
	logger      logger.Logger
	warnLimiter *rate.Limiter
}

// NewReconciler creates a drift monitor against the given master clock.
// Warnings are delivered through report; log lines for repeated drift
// are rate limited so a misbehaving clock cannot flood the log during a
// timing-critical window.
func NewReconciler(master *Clock, report *errors.Report, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Reconciler{
		master:      master,
		corrections: make(map[string]*Correction),
		report:      report,
		logger:      log.WithField("component", "clock_reconciler"),
		warnLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Reconcile measures the offset between the master clock and the
// auxiliary clock read by aux. The first call for a clockID freezes the
// measured offset as that clock's baseline. Every call compares the
// fresh offset against the baseline and reports (never raises) a drift
// warning when the divergence exceeds DriftTolerance. The fresh offset
// is returned so callers always get current alignment.
func (r *Reconciler) Reconcile(clockID string, aux func() time.Duration) time.Duration {
	offset := r.master.Now() - aux()

	corr, ok := r.corrections[clockID]
	if !ok {
		corr = &Correction{ClockID: clockID, Baseline: offset}
		r.corrections[clockID] = corr
	}
	corr.LastOffset = offset
	corr.Samples++

	drift := corr.Drift()
	driftGauge.WithLabelValues(clockID).Set(drift.Seconds())
	reconcilesTotal.WithLabelValues(clockID).Inc()

	if drift > DriftTolerance || drift < -DriftTolerance {
		driftWarningsTotal.WithLabelValues(clockID).Inc()
		if r.report != nil {
			r.report.Add(errors.WarningTypeDrift,
				"drift of %v between %s clock and master clock", drift, clockID)
		}
		if r.warnLimiter.Allow() {
			r.logger.WithFields(map[string]interface{}{
				"clock_id": clockID,
				"drift_us": float64(drift) / float64(time.Microsecond),
			}).Warn("Auxiliary clock drifted from baseline")
		}
	} else {
		r.logger.WithFields(map[string]interface{}{
			"clock_id":  clockID,
			"offset_us": float64(offset) / float64(time.Microsecond),
			"drift_us":  float64(drift) / float64(time.Microsecond),
		}).Debug("Clock reconciled")
	}

	return offset
}

// Correction returns the stored correction record for a clock ID, or
// nil if that clock has never been reconciled.
func (r *Reconciler) Correction(clockID string) *Correction {
	return r.corrections[clockID]
}
