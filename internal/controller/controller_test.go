package controller

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/pulse/internal/audio"
	"github.com/zsiec/pulse/internal/clock"
	"github.com/zsiec/pulse/internal/config"
	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/input"
	"github.com/zsiec/pulse/internal/sched"
	"github.com/zsiec/pulse/internal/trigger"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Experiment.Participant = "p01"
	cfg.Experiment.Session = "1"
	cfg.Experiment.OutputDir = "" // no data file unless a test opts in
	cfg.Audio.Backend = "mock"
	cfg.Trigger.Delay = 0
	return cfg
}

func newTestController(t *testing.T, cfg *config.Config) (*Controller, *audio.MockDevice) {
	t.Helper()
	dev := audio.NewMockDevice(cfg.Audio.SampleRate, "mock")
	c, err := New(cfg, quietLogger(), Options{Device: dev})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, dev
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Audio.Backend = "asio"
	_, err := New(cfg, quietLogger(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}

func TestGainsConfiguredAtStartup(t *testing.T) {
	cfg := testConfig()
	c, dev := newTestController(t, cfg)

	assert.Equal(t, 65.0, c.StimDB())
	assert.Equal(t, 45.0, c.NoiseDB())

	// mock class has a 90 dB full-scale reference; check both streams
	// satisfy 20*log10(gain*sourceRMS) == target - reference.
	wantStim := math.Pow(10, (65.0-90.0)/20) / cfg.Experiment.StimRMS
	assert.InDelta(t, wantStim, dev.StimGain(), 1e-12)
	wantNoise := math.Pow(10, (45.0-90.0)/20)
	assert.InDelta(t, wantNoise, dev.NoiseGain(), 1e-12)
}

func TestLoadBufferAppliesCurrentGain(t *testing.T) {
	c, dev := newTestController(t, testConfig())

	require.NoError(t, c.LoadBufferMono([]float64{0.01, -0.01}))
	loaded := dev.Loaded()
	require.NotNil(t, loaded)

	gain := c.StimGain()
	assert.InDelta(t, 0.01*gain, loaded.Data[2], 1e-12)

	// Raising the level later must not rescale the transferred buffer.
	require.NoError(t, c.SetStimDB(80))
	assert.InDelta(t, 0.01*gain, dev.Loaded().Data[2], 1e-12)

	// The next load picks up the new gain.
	require.NoError(t, c.LoadBufferMono([]float64{0.01, -0.01}))
	assert.InDelta(t, 0.01*c.StimGain(), dev.Loaded().Data[2], 1e-12)
	assert.Greater(t, c.StimGain(), gain)
}

func TestSetNoiseDBTakesEffectImmediately(t *testing.T) {
	c, dev := newTestController(t, testConfig())

	before := dev.NoiseGain()
	require.NoError(t, c.SetNoiseDB(60))
	assert.Greater(t, dev.NoiseGain(), before)
	assert.Equal(t, 60.0, c.NoiseDB())
}

func TestLoadBufferRejectsBadAudio(t *testing.T) {
	c, dev := newTestController(t, testConfig())

	err := c.LoadBufferMono([]float64{1.5})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))
	assert.Zero(t, dev.LoadCount, "rejected audio must never reach the device")
}

func TestFlipAndPlayStartsPlayback(t *testing.T) {
	c, dev := newTestController(t, testConfig())
	require.NoError(t, c.LoadBufferMono([]float64{0.01, 0.01}))

	before := c.CurrentTime()
	ts, err := c.FlipAndPlay()
	require.NoError(t, err)

	assert.True(t, dev.Playing())
	require.Len(t, dev.PlayTimes, 1)
	assert.GreaterOrEqual(t, ts, before)

	require.NoError(t, c.Stop())
	assert.False(t, dev.Playing())
}

func TestFlipWithoutPlayLeavesAudioAlone(t *testing.T) {
	c, dev := newTestController(t, testConfig())

	_, err := c.Flip()
	require.NoError(t, err)
	assert.Empty(t, dev.PlayTimes)
}

func TestNoiseLifecycle(t *testing.T) {
	c, dev := newTestController(t, testConfig())

	require.NoError(t, c.StartNoise())
	assert.True(t, dev.NoiseRunning())
	require.NoError(t, c.StopNoise())
	assert.False(t, dev.NoiseRunning())
}

func TestWaitSecs(t *testing.T) {
	c, _ := newTestController(t, testConfig())

	start := c.CurrentTime()
	c.WaitSecs(20 * time.Millisecond)
	elapsed := c.CurrentTime() - start

	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 60*time.Millisecond)
}

func TestWaitUntilPastTargetWarns(t *testing.T) {
	c, _ := newTestController(t, testConfig())

	c.WaitSecs(5 * time.Millisecond)
	before := c.Report().Count()
	remaining := c.WaitUntil(time.Millisecond)

	assert.Negative(t, remaining)
	require.Equal(t, before+1, c.Report().Count())
	warnings := c.Report().Warnings()
	assert.Equal(t, errors.WarningTypeTiming, warnings[len(warnings)-1].Type)
}

func TestWaitUntilFutureTarget(t *testing.T) {
	c, _ := newTestController(t, testConfig())

	target := c.CurrentTime() + 15*time.Millisecond
	remaining := c.WaitUntil(target)

	assert.Positive(t, remaining)
	assert.GreaterOrEqual(t, c.CurrentTime(), target)
}

func TestStampTriggersUsesConfiguredDelay(t *testing.T) {
	cfg := testConfig()
	cfg.Trigger.Delay = 10 * time.Millisecond
	dev := audio.NewMockDevice(cfg.Audio.SampleRate, "mock")
	ch := trigger.NewDummy(nil)
	c, err := New(cfg, quietLogger(), Options{Device: dev, Trigger: ch})
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	require.NoError(t, c.StampTriggers([]int{1, 2}))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, []int{1, 2}, ch.Codes())
}

func TestDataFileRecordsSession(t *testing.T) {
	cfg := testConfig()
	cfg.Experiment.OutputDir = t.TempDir()
	c, _ := newTestController(t, cfg)

	require.NoError(t, c.LoadBufferMono([]float64{0.01, 0.01}))
	_, err := c.FlipAndPlay()
	require.NoError(t, err)
	require.NoError(t, c.StampTriggers([]int{4}))
	require.NoError(t, c.WriteDataLine("trial_ok", "1"))
	require.NoError(t, c.Close())

	entries, err := os.ReadDir(cfg.Experiment.OutputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "p01_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".tab"))

	data, err := os.ReadFile(filepath.Join(cfg.Experiment.OutputDir, entries[0].Name()))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "\tflip\t")
	assert.Contains(t, content, "\tplay\t")
	assert.Contains(t, content, "\ttrigger\t4")
	assert.Contains(t, content, "\ttrial_ok\t1")
}

func TestResponseRoundTrip(t *testing.T) {
	cfg := testConfig()
	listener := input.NewMockListener(clock.New())
	dev := audio.NewMockDevice(cfg.Audio.SampleRate, "mock")
	c, err := New(cfg, quietLogger(), Options{Device: dev, Listener: listener})
	require.NoError(t, err)
	defer c.Close()

	c.ListenPresses()
	listener.InjectAt(input.KeyEvent{Key: "space", Timestamp: c.CurrentTime()})
	time.Sleep(10 * time.Millisecond)

	presses, err := c.GetPresses(nil)
	require.NoError(t, err)
	require.Len(t, presses, 1)
	assert.Equal(t, "space", presses[0].Key)
}

func TestCloseIsIdempotent(t *testing.T) {
	c, dev := newTestController(t, testConfig())

	require.NoError(t, c.Close())
	assert.False(t, dev.Playing())
	require.NoError(t, c.Close())
}

type failingGraphics struct {
	sched.Graphics
	closeErr error
	closed   bool
}

func (g *failingGraphics) Close() error {
	g.closed = true
	return g.closeErr
}

type failingChannel struct {
	codes  []int
	closed bool
}

func (f *failingChannel) Send(code int) error { f.codes = append(f.codes, code); return nil }
func (f *failingChannel) Close() error        { f.closed = true; return fmt.Errorf("port stuck") }

func TestCloseAttemptsEveryActionDespiteFailures(t *testing.T) {
	cfg := testConfig()
	g := &failingGraphics{Graphics: sched.NewHeadless(0), closeErr: fmt.Errorf("context lost")}
	ch := &failingChannel{}
	dev := audio.NewMockDevice(cfg.Audio.SampleRate, "mock")
	c, err := New(cfg, quietLogger(), Options{Device: dev, Graphics: g, Trigger: ch})
	require.NoError(t, err)

	err = c.Close()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTeardown))
	assert.Contains(t, err.Error(), "close_window")
	assert.Contains(t, err.Error(), "close_trigger")

	// Failures earlier in the sequence must not stop later actions.
	assert.True(t, g.closed)
	assert.True(t, ch.closed)
}

func TestCloseWithErrorReturnsOriginal(t *testing.T) {
	c, _ := newTestController(t, testConfig())

	orig := fmt.Errorf("trial aborted")
	assert.Same(t, orig, c.CloseWithError(orig))
}

func TestReconcileThroughController(t *testing.T) {
	c, _ := newTestController(t, testConfig())

	offset := c.Reconcile("tdt", func() time.Duration {
		return c.CurrentTime() - 2*time.Second
	})
	assert.InDelta(t, float64(2*time.Second), float64(offset), float64(5*time.Millisecond))
}
