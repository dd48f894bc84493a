package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/logger"
)

// otoDevice plays audio through the system output via oto. The stimulus
// stream is a one-shot player over the loaded buffer; the masker stream
// is a continuous white-noise reader whose gain tracks SetLevel
// immediately.
type otoDevice struct {
	ctx        *oto.Context
	sampleRate int
	class      string
	logger     logger.Logger

	mu       sync.Mutex
	stimData []byte
	stimGain float64
	player   *oto.Player

	noise       *noiseReader
	noisePlayer *oto.Player
	closed      bool
}

func newOtoDevice(sampleRate int, class string, log logger.Logger) (*otoDevice, error) {
	if log == nil {
		log = logger.NewNullLogger()
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration, "failed to create audio context")
	}
	<-ready

	log = log.WithField("component", "oto_device")
	log.WithFields(map[string]interface{}{
		"sample_rate":  sampleRate,
		"device_class": class,
	}).Info("Audio output initialized")

	return &otoDevice{
		ctx:        ctx,
		sampleRate: sampleRate,
		class:      class,
		logger:     log,
		stimGain:   1,
		noise:      &noiseReader{},
	}, nil
}

// Load converts the canonical buffer to the device stream format with
// the current stimulus gain burned in. A later SetLevel does not touch
// data already transferred.
func (d *otoDevice) Load(buf *Buffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.NewUnavailableError("audio device is closed")
	}

	data := make([]byte, 4*len(buf.Data))
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(float32(s*d.stimGain)))
	}
	d.stimData = data
	d.logger.WithField("frames", buf.Frames()).Debug("Buffer transferred to device")
	return nil
}

// Play starts playback of the loaded buffer from its beginning.
func (d *otoDevice) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.NewUnavailableError("audio device is closed")
	}
	if d.stimData == nil {
		return errors.NewUnavailableError("no buffer loaded")
	}
	if d.player != nil {
		_ = d.player.Close()
	}
	d.player = d.ctx.NewPlayer(bytes.NewReader(d.stimData))
	d.player.Play()
	return nil
}

// Stop halts stimulus playback; the next Play starts from the buffer
// beginning again.
func (d *otoDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.player != nil {
		d.player.Pause()
		err := d.player.Close()
		d.player = nil
		return err
	}
	return nil
}

// StartNoise starts the continuous masker stream.
func (d *otoDevice) StartNoise() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.NewUnavailableError("audio device is closed")
	}
	if d.noisePlayer != nil {
		return nil
	}
	d.noisePlayer = d.ctx.NewPlayer(d.noise)
	d.noisePlayer.Play()
	return nil
}

// StopNoise stops the masker stream.
func (d *otoDevice) StopNoise() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.noisePlayer != nil {
		d.noisePlayer.Pause()
		err := d.noisePlayer.Close()
		d.noisePlayer = nil
		return err
	}
	return nil
}

// SetLevel updates a stream gain. The noise stream picks the new gain
// up immediately; the stimulus stream applies it on the next Load.
func (d *otoDevice) SetLevel(stream Stream, gain float64) error {
	switch stream {
	case StreamStimulus:
		d.mu.Lock()
		d.stimGain = gain
		d.mu.Unlock()
	case StreamNoise:
		d.noise.setGain(gain)
	default:
		return errors.NewConfigurationError("unknown stream")
	}
	return nil
}

func (d *otoDevice) SampleRate() int { return d.sampleRate }
func (d *otoDevice) Class() string   { return d.class }

// Close stops both streams. The oto context itself has process
// lifetime and cannot be torn down.
func (d *otoDevice) Close() error {
	if err := d.StopNoise(); err != nil {
		return err
	}
	if err := d.Stop(); err != nil {
		return err
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// noiseReader generates full-scale white noise scaled by a settable
// gain, as interleaved stereo float32 LE.
type noiseReader struct {
	mu   sync.Mutex
	gain float64
	rng  *rand.Rand
}

func (n *noiseReader) setGain(gain float64) {
	n.mu.Lock()
	n.gain = gain
	n.mu.Unlock()
}

func (n *noiseReader) Read(p []byte) (int, error) {
	n.mu.Lock()
	gain := n.gain
	if n.rng == nil {
		n.rng = rand.New(rand.NewSource(1))
	}
	rng := n.rng
	n.mu.Unlock()

	count := len(p) / 4
	for i := 0; i < count; i++ {
		s := float32((rng.Float64()*2 - 1) * gain)
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(s))
	}
	return count * 4, nil
}
