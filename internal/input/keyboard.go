package input

import (
	"errors"
	"sync"
	"time"

	"github.com/zsiec/pulse/internal/clock"
	"github.com/zsiec/pulse/internal/config"
	"github.com/zsiec/pulse/internal/logger"
)

// ErrQuit is returned when a force-quit key is pressed during a wait.
var ErrQuit = errors.New("force-quit key pressed")

// RelativeToCall makes timestamps relative to the moment the wait or
// get call was made.
const RelativeToCall = time.Duration(-1)

// KeyEvent is one captured keypress with its master-clock timestamp.
type KeyEvent struct {
	Key       string
	Timestamp time.Duration
}

// Listener is the raw input backend. Raw polling runs outside the
// core; the Listener only hands over captured (key, timestamp) pairs.
type Listener interface {
	StartListening() error
	Poll() []KeyEvent
	Close() error
}

// Keyboard pumps a Listener on its own goroutine and hands events to
// the timing-critical thread through a bounded queue. The main thread
// never blocks on input outside the explicit bounded wait operations;
// those re-check the queue at sub-millisecond granularity to preserve
// timing resolution.
type Keyboard struct {
	listener  Listener
	clock     *clock.Clock
	logger    logger.Logger
	forceQuit map[string]bool

	pollInterval time.Duration
	queue        chan KeyEvent

	quitMu    sync.Mutex
	quitSeen  bool
	listenRef time.Duration

	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewKeyboard wraps the given listener. Events are timestamped by the
// listener against the master clock c.
func NewKeyboard(l Listener, c *clock.Clock, cfg *config.ResponseConfig, log logger.Logger) *Keyboard {
	if log == nil {
		log = logger.NewNullLogger()
	}
	fq := make(map[string]bool, len(cfg.ForceQuit))
	for _, k := range cfg.ForceQuit {
		fq[k] = true
	}
	return &Keyboard{
		listener:     l,
		clock:        c,
		logger:       log.WithField("component", "keyboard"),
		forceQuit:    fq,
		pollInterval: cfg.PollInterval,
		queue:        make(chan KeyEvent, cfg.QueueSize),
		stop:         make(chan struct{}),
	}
}

// Start begins listening and launches the pump goroutine.
func (k *Keyboard) Start() error {
	if k.started {
		return nil
	}
	if err := k.listener.StartListening(); err != nil {
		return err
	}
	k.started = true
	k.wg.Add(1)
	go k.pump()
	return nil
}

// pump moves events from the listener into the queue. A full queue
// drops the incoming event rather than blocking the listener.
func (k *Keyboard) pump() {
	defer k.wg.Done()
	ticker := time.NewTicker(k.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			for _, ev := range k.listener.Poll() {
				if k.forceQuit[ev.Key] {
					k.quitMu.Lock()
					k.quitSeen = true
					k.quitMu.Unlock()
				}
				select {
				case k.queue <- ev:
				default:
					k.logger.WithField("key", ev.Key).Warn("Input queue full, dropping keypress")
				}
			}
		}
	}
}

// ListenPresses resets the press buffer and the default reference time
// for relative timestamps.
func (k *Keyboard) ListenPresses() {
	k.drain()
	k.listenRef = k.clock.Now()
}

// GetPresses drains the whole press buffer. liveKeys filters which keys
// are returned (nil accepts all). Timestamps are reported relative to
// relativeTo; RelativeToCall means relative to the last ListenPresses.
func (k *Keyboard) GetPresses(liveKeys []string, relativeTo time.Duration) ([]KeyEvent, error) {
	if err := k.checkQuit(); err != nil {
		return nil, err
	}
	ref := relativeTo
	if ref == RelativeToCall {
		ref = k.listenRef
	}
	var out []KeyEvent
	for _, ev := range k.drain() {
		if matches(ev.Key, liveKeys) {
			out = append(out, KeyEvent{Key: ev.Key, Timestamp: ev.Timestamp - ref})
		}
	}
	return out, nil
}

// WaitOnePress blocks until an acceptable key arrives after minWait, or
// maxWait elapses. It returns the pressed key and true, or false when
// nothing acceptable arrived. Presses during minWait are discarded.
func (k *Keyboard) WaitOnePress(maxWait, minWait time.Duration, liveKeys []string,
	relativeTo time.Duration) (KeyEvent, bool, error) {

	start := k.clock.Now()
	ref := relativeTo
	if ref == RelativeToCall {
		ref = start
	}

	if err := k.sleepUntil(start + minWait); err != nil {
		return KeyEvent{}, false, err
	}
	k.drain()

	deadline := start + maxWait
	for {
		select {
		case ev := <-k.queue:
			if k.forceQuit[ev.Key] {
				return KeyEvent{}, false, ErrQuit
			}
			if matches(ev.Key, liveKeys) {
				return KeyEvent{Key: ev.Key, Timestamp: ev.Timestamp - ref}, true, nil
			}
		default:
			if k.clock.Now() >= deadline {
				return KeyEvent{}, false, k.checkQuit()
			}
			time.Sleep(k.pollInterval)
		}
	}
}

// WaitForPresses collects every acceptable press between minWait and
// maxWait. Unlike WaitOnePress it always waits out the full maxWait.
func (k *Keyboard) WaitForPresses(maxWait, minWait time.Duration, liveKeys []string,
	relativeTo time.Duration) ([]KeyEvent, error) {

	start := k.clock.Now()
	ref := relativeTo
	if ref == RelativeToCall {
		ref = start
	}

	if err := k.sleepUntil(start + minWait); err != nil {
		return nil, err
	}
	k.drain()

	var out []KeyEvent
	deadline := start + maxWait
	for k.clock.Now() < deadline {
		select {
		case ev := <-k.queue:
			if k.forceQuit[ev.Key] {
				return out, ErrQuit
			}
			if matches(ev.Key, liveKeys) {
				out = append(out, KeyEvent{Key: ev.Key, Timestamp: ev.Timestamp - ref})
			}
		default:
			time.Sleep(k.pollInterval)
		}
	}
	return out, k.checkQuit()
}

// Close stops the pump and blocks until it has fully quiesced, then
// closes the listener. No callback fires after Close returns.
func (k *Keyboard) Close() error {
	if !k.started {
		return nil
	}
	close(k.stop)
	k.wg.Wait()
	k.started = false
	return k.listener.Close()
}

// sleepUntil sleeps in poll-interval steps so force-quit keys are still
// honored during the minimum-wait window.
func (k *Keyboard) sleepUntil(target time.Duration) error {
	for k.clock.Now() < target {
		time.Sleep(k.pollInterval)
	}
	return k.checkQuit()
}

func (k *Keyboard) checkQuit() error {
	k.quitMu.Lock()
	defer k.quitMu.Unlock()
	if k.quitSeen {
		return ErrQuit
	}
	return nil
}

func (k *Keyboard) drain() []KeyEvent {
	var out []KeyEvent
	for {
		select {
		case ev := <-k.queue:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func matches(key string, liveKeys []string) bool {
	if liveKeys == nil {
		return true
	}
	for _, k := range liveKeys {
		if k == key {
			return true
		}
	}
	return false
}
