// pulse-diag runs the timing engine against headless backends and
// shows live flip, drift and trigger statistics. Useful for verifying
// a machine's timing behavior before committing to a real session.
package main

import (
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/pulse/internal/config"
	"github.com/zsiec/pulse/internal/controller"
	"github.com/zsiec/pulse/internal/sched"
)

type diagStats struct {
	Flips         int
	LastInterval  time.Duration
	MeanInterval  time.Duration
	WorstInterval time.Duration
	LastDrift     time.Duration
	TriggerBatch  time.Duration
	Warnings      int
	Err           error
}

// collector owns the timing loop and publishes snapshots to the TUI.
type collector struct {
	mu    sync.Mutex
	stats diagStats
	stop  chan struct{}
	done  chan struct{}
}

func newCollector() *collector {
	return &collector{stop: make(chan struct{}), done: make(chan struct{})}
}

func (c *collector) snapshot() diagStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// run drives flips at the synthetic refresh rate, reconciles a
// synthetic auxiliary clock each pass and times a trigger batch every
// second.
func (c *collector) run(ctrl *controller.Controller) {
	defer close(c.done)

	aux := time.Now()
	auxClock := func() time.Duration { return time.Since(aux) }

	var last time.Duration
	var sum time.Duration
	lastBatch := ctrl.CurrentTime()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ts, err := ctrl.Flip()
		offset := ctrl.Reconcile("diag_aux", auxClock)

		c.mu.Lock()
		if err != nil {
			c.stats.Err = err
		}
		if corr := ctrl.Correction("diag_aux"); corr != nil {
			c.stats.LastDrift = corr.Drift()
		} else {
			c.stats.LastDrift = offset
		}
		c.stats.Flips++
		if last > 0 {
			interval := ts - last
			c.stats.LastInterval = interval
			sum += interval
			c.stats.MeanInterval = sum / time.Duration(c.stats.Flips-1)
			if interval > c.stats.WorstInterval {
				c.stats.WorstInterval = interval
			}
		}
		last = ts
		if corr := ctrl.Report().Warnings(); len(corr) > 0 {
			c.stats.Warnings = len(corr)
		}
		c.mu.Unlock()

		if ts-lastBatch > time.Second {
			start := time.Now()
			if err := ctrl.StampTriggersWithDelay([]int{1, 2, 4}, 10*time.Millisecond); err != nil {
				c.mu.Lock()
				c.stats.Err = err
				c.mu.Unlock()
			}
			c.mu.Lock()
			c.stats.TriggerBatch = time.Since(start)
			c.mu.Unlock()
			lastBatch = ts
		}
	}
}

func (c *collector) shutdown() {
	close(c.stop)
	<-c.done
}

func main() {
	var duration time.Duration
	flag.DurationVar(&duration, "duration", 0, "Exit after this long (0 runs until q)")
	flag.Parse()

	cfg := config.Default()
	cfg.Experiment.OutputDir = "" // diagnostics never write data files
	cfg.Audio.Backend = "mock"
	cfg.Logging.Level = "error"
	cfg.Metrics.Enabled = false

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)

	ctrl, err := controller.New(cfg, log, controller.Options{
		Graphics: sched.NewHeadless(16670 * time.Microsecond),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	col := newCollector()
	go col.run(ctrl)

	m := newModel(col, duration)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		col.shutdown()
		fmt.Fprintf(os.Stderr, "TUI failed: %v\n", err)
		os.Exit(1)
	}
	col.shutdown()
}
