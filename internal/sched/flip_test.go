package sched

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/pulse/internal/clock"
	"github.com/zsiec/pulse/internal/errors"
)

type recordingSink struct {
	types  []string
	values []string
	stamps []time.Duration
	err    error
}

func (s *recordingSink) Append(eventType, value string, ts time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.types = append(s.types, eventType)
	s.values = append(s.values, value)
	s.stamps = append(s.stamps, ts)
	return nil
}

func newTestScheduler(sink EventSink) (*FlipScheduler, *Headless, *clock.Clock) {
	g := NewHeadless(0)
	c := clock.New()
	return NewFlipScheduler(g, c, sink, nil), g, c
}

func TestFlipExecutionOrder(t *testing.T) {
	sink := &recordingSink{}
	f, _, _ := newTestScheduler(sink)

	var order []string
	step := func(name string) Callback {
		return func() error {
			order = append(order, name)
			return nil
		}
	}

	f.QueuePlay(step("play"))
	f.OnNextFlip(step("next_1"))
	f.OnNextFlip(step("next_2"))
	f.OnEveryFlip(step("every_1"))

	_, err := f.Flip()
	require.NoError(t, err)

	// Audio start runs before everything else queued on the flip;
	// one-shot callbacks run before persistent ones, each in
	// registration order.
	assert.Equal(t, []string{"play", "next_1", "next_2", "every_1"}, order)
	require.Equal(t, []string{"flip"}, sink.types)
}

func TestFlipTimestampAfterSwap(t *testing.T) {
	g := NewHeadless(5 * time.Millisecond)
	c := clock.New()
	f := NewFlipScheduler(g, c, nil, nil)

	before := c.Now()
	ts, err := f.Flip()
	require.NoError(t, err)

	// The timestamp is taken after the blocking swap, so it must land
	// at least one synthetic refresh after the call started.
	assert.GreaterOrEqual(t, ts-before, 5*time.Millisecond)
	assert.LessOrEqual(t, ts, c.Now())
	assert.Equal(t, 1, g.Swaps())
}

func TestFlipConsumesNextFlipKeepsEveryFlip(t *testing.T) {
	f, _, _ := newTestScheduler(nil)

	var nextRuns, everyRuns int
	f.OnNextFlip(func() error { nextRuns++; return nil })
	f.OnEveryFlip(func() error { everyRuns++; return nil })

	for i := 0; i < 3; i++ {
		_, err := f.Flip()
		require.NoError(t, err)
	}

	assert.Equal(t, 1, nextRuns, "one-shot callbacks run on exactly one flip")
	assert.Equal(t, 3, everyRuns, "persistent callbacks run on every flip")
	assert.Zero(t, f.NextFlipCount())
	assert.Equal(t, 1, f.EveryFlipCount())
}

func TestFlipClearCallbacks(t *testing.T) {
	f, _, _ := newTestScheduler(nil)

	f.OnNextFlip(func() error { t.Fatal("cleared callback ran"); return nil })
	f.OnEveryFlip(func() error { t.Fatal("cleared callback ran"); return nil })
	f.ClearNextFlip()
	f.ClearEveryFlip()

	_, err := f.Flip()
	require.NoError(t, err)
}

func TestFlipCallbackFailurePolicy(t *testing.T) {
	f, _, _ := newTestScheduler(nil)

	var order []string
	boom := fmt.Errorf("boom")
	f.OnNextFlip(func() error { order = append(order, "failing"); return boom })
	f.OnNextFlip(func() error { order = append(order, "next_after"); return nil })
	f.OnEveryFlip(func() error { order = append(order, "every"); return nil })

	ts, err := f.Flip()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCallback))
	assert.ErrorIs(t, err, boom)

	// A failure never short-circuits the sequence, and the timestamp is
	// still returned for the work that did happen.
	assert.Equal(t, []string{"failing", "next_after", "every"}, order)
	assert.Greater(t, ts, time.Duration(0))
}

func TestFlipFirstFailureWins(t *testing.T) {
	f, _, _ := newTestScheduler(nil)

	first := fmt.Errorf("first")
	second := fmt.Errorf("second")
	f.OnNextFlip(func() error { return first })
	f.OnEveryFlip(func() error { return second })

	_, err := f.Flip()
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.NotErrorIs(t, err, second)
}

func TestFlipSinkFailureReported(t *testing.T) {
	sink := &recordingSink{err: fmt.Errorf("disk full")}
	f, _, _ := newTestScheduler(sink)

	_, err := f.Flip()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCallback))
}

func TestHeadlessLifecycle(t *testing.T) {
	g := NewHeadless(0)
	require.NoError(t, g.SwapAndSync())
	require.NoError(t, g.Clear())
	require.NoError(t, g.Close())
	assert.Equal(t, 1, g.Swaps())
}
