package trigger

import (
	"fmt"
	"os"
	"sync"

	"github.com/zsiec/pulse/internal/config"
	"github.com/zsiec/pulse/internal/errors"
	"github.com/zsiec/pulse/internal/logger"
)

// Channel is the external synchronization output a trigger code is
// written to: a parallel-port-like digital output or a dummy sink.
type Channel interface {
	Send(code int) error
	Close() error
}

// NewChannel constructs the configured trigger backend.
func NewChannel(cfg *config.TriggerConfig, log logger.Logger) (Channel, error) {
	switch cfg.Backend {
	case "dummy":
		return NewDummy(log), nil
	case "parallel":
		return OpenParallel(cfg.Address)
	default:
		return nil, errors.NewConfigurationError("unknown trigger backend: " + cfg.Backend)
	}
}

// Dummy logs trigger codes without touching hardware. It is the default
// backend since a parallel port is often not present.
type Dummy struct {
	mu     sync.Mutex
	logger logger.Logger
	codes  []int
	closed bool
}

// NewDummy creates a logging-only trigger channel.
func NewDummy(log logger.Logger) *Dummy {
	if log == nil {
		log = logger.NewNullLogger()
	}
	return &Dummy{logger: log.WithField("component", "trigger_dummy")}
}

// Send records and logs the code.
func (d *Dummy) Send(code int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.NewUnavailableError("trigger channel is closed")
	}
	d.codes = append(d.codes, code)
	d.logger.WithField("code", code).Debug("Trigger stamped (dummy)")
	return nil
}

// Close marks the channel closed.
func (d *Dummy) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Codes returns every code sent so far.
func (d *Dummy) Codes() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int, len(d.codes))
	copy(out, d.codes)
	return out
}

// Parallel writes each trigger code as a single byte to a parallel
// port character device.
type Parallel struct {
	mu   sync.Mutex
	port *os.File
}

// OpenParallel opens the parallel port device at the given path.
func OpenParallel(address string) (*Parallel, error) {
	port, err := os.OpenFile(address, os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfiguration,
			fmt.Sprintf("failed to open parallel port %s", address))
	}
	return &Parallel{port: port}, nil
}

// Send writes the low byte of the code to the port.
func (p *Parallel) Send(code int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return errors.NewUnavailableError("parallel port is closed")
	}
	if _, err := p.port.Write([]byte{byte(code)}); err != nil {
		return fmt.Errorf("parallel port write failed: %w", err)
	}
	return nil
}

// Close releases the port.
func (p *Parallel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}
