package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/pulse/internal/clock"
	"github.com/zsiec/pulse/internal/config"
)

func newTestKeyboard(t *testing.T) (*Keyboard, *MockListener, *clock.Clock) {
	t.Helper()
	c := clock.New()
	l := NewMockListener(c)
	k := NewKeyboard(l, c, &config.ResponseConfig{
		ForceQuit:    []string{"lctrl", "rctrl"},
		PollInterval: 500 * time.Microsecond,
		QueueSize:    64,
	}, nil)
	require.NoError(t, k.Start())
	t.Cleanup(func() { k.Close() })
	return k, l, c
}

func TestStartAndCloseLifecycle(t *testing.T) {
	c := clock.New()
	l := NewMockListener(c)
	k := NewKeyboard(l, c, &config.ResponseConfig{
		PollInterval: time.Millisecond,
		QueueSize:    8,
	}, nil)

	require.NoError(t, k.Start())
	assert.True(t, l.Started())
	require.NoError(t, k.Start(), "second start is a no-op")

	require.NoError(t, k.Close())
	assert.True(t, l.Closed())
	require.NoError(t, k.Close(), "second close is a no-op")
}

func TestGetPressesRelativeToListen(t *testing.T) {
	k, l, c := newTestKeyboard(t)

	k.ListenPresses()
	ref := c.Now()
	l.Inject("space")
	time.Sleep(10 * time.Millisecond) // let the pump pick it up

	presses, err := k.GetPresses(nil, RelativeToCall)
	require.NoError(t, err)
	require.Len(t, presses, 1)
	assert.Equal(t, "space", presses[0].Key)

	// Relative to ListenPresses, the press landed just after zero.
	assert.GreaterOrEqual(t, presses[0].Timestamp, time.Duration(0))
	assert.Less(t, presses[0].Timestamp, c.Now()-ref+time.Millisecond)
}

func TestGetPressesFiltersLiveKeys(t *testing.T) {
	k, l, _ := newTestKeyboard(t)

	k.ListenPresses()
	l.Inject("a")
	l.Inject("b")
	l.Inject("a")
	time.Sleep(10 * time.Millisecond)

	presses, err := k.GetPresses([]string{"a"}, RelativeToCall)
	require.NoError(t, err)
	require.Len(t, presses, 2)
	for _, p := range presses {
		assert.Equal(t, "a", p.Key)
	}
}

func TestListenPressesResetsBuffer(t *testing.T) {
	k, l, _ := newTestKeyboard(t)

	l.Inject("stale")
	time.Sleep(10 * time.Millisecond)
	k.ListenPresses()

	presses, err := k.GetPresses(nil, RelativeToCall)
	require.NoError(t, err)
	assert.Empty(t, presses, "presses before ListenPresses must be discarded")
}

func TestWaitOnePressReturnsFirstMatch(t *testing.T) {
	k, l, _ := newTestKeyboard(t)

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Inject("left")
	}()

	ev, ok, err := k.WaitOnePress(time.Second, 0, []string{"left", "right"}, RelativeToCall)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "left", ev.Key)
	assert.Greater(t, ev.Timestamp, time.Duration(0))
	assert.Less(t, ev.Timestamp, time.Second)
}

func TestWaitOnePressTimeout(t *testing.T) {
	k, _, c := newTestKeyboard(t)

	start := c.Now()
	_, ok, err := k.WaitOnePress(30*time.Millisecond, 0, nil, RelativeToCall)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, c.Now()-start, 30*time.Millisecond)
}

func TestWaitOnePressDiscardsEarlyPresses(t *testing.T) {
	k, l, _ := newTestKeyboard(t)

	l.Inject("early")
	_, ok, err := k.WaitOnePress(60*time.Millisecond, 40*time.Millisecond, nil, RelativeToCall)
	require.NoError(t, err)
	assert.False(t, ok, "presses during the minimum wait must not count")
}

func TestWaitForPressesCollectsAll(t *testing.T) {
	k, l, c := newTestKeyboard(t)

	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Inject("a")
		time.Sleep(10 * time.Millisecond)
		l.Inject("b")
	}()

	start := c.Now()
	presses, err := k.WaitForPresses(80*time.Millisecond, 0, nil, RelativeToCall)
	require.NoError(t, err)

	// The window always runs to completion, even after a press.
	assert.GreaterOrEqual(t, c.Now()-start, 80*time.Millisecond)
	require.Len(t, presses, 2)
	assert.Equal(t, "a", presses[0].Key)
	assert.Equal(t, "b", presses[1].Key)
	assert.LessOrEqual(t, presses[0].Timestamp, presses[1].Timestamp)
}

func TestForceQuitAbortsWait(t *testing.T) {
	k, l, _ := newTestKeyboard(t)

	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Inject("lctrl")
	}()

	_, _, err := k.WaitOnePress(time.Second, 0, []string{"space"}, RelativeToCall)
	assert.ErrorIs(t, err, ErrQuit)
}

func TestForceQuitSurfacesInGetPresses(t *testing.T) {
	k, l, _ := newTestKeyboard(t)

	l.Inject("rctrl")
	time.Sleep(10 * time.Millisecond)

	_, err := k.GetPresses(nil, RelativeToCall)
	assert.ErrorIs(t, err, ErrQuit)
}

func TestExplicitRelativeTo(t *testing.T) {
	k, l, _ := newTestKeyboard(t)

	k.ListenPresses()
	l.InjectAt(KeyEvent{Key: "space", Timestamp: 5 * time.Second})
	time.Sleep(10 * time.Millisecond)

	presses, err := k.GetPresses(nil, 4*time.Second)
	require.NoError(t, err)
	require.Len(t, presses, 1)
	assert.Equal(t, time.Second, presses[0].Timestamp)
}
