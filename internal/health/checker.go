package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status represents the health status of a component.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Check represents a health check result.
type Check struct {
	Name        string                 `json:"name"`
	Status      Status                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"-"`
	DurationMS  float64                `json:"duration_ms"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Checker is the interface that health checkers must implement.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Manager manages health checks.
type Manager struct {
	checkers []Checker
	results  map[string]*Check
	mu       sync.RWMutex
	logger   *logrus.Logger
}

// NewManager creates a new health check manager.
func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		results:  make(map[string]*Check),
		logger:   logger,
	}
}

// Register adds a new health checker.
func (m *Manager) Register(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
	m.logger.WithField("checker", checker.Name()).Debug("Registered health checker")
}

// RunChecks executes all registered checkers and stores the results.
func (m *Manager) RunChecks(ctx context.Context) map[string]*Check {
	m.mu.Lock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	m.mu.Unlock()

	results := make(map[string]*Check, len(checkers))
	for _, checker := range checkers {
		start := time.Now()
		err := checker.Check(ctx)
		elapsed := time.Since(start)

		check := &Check{
			Name:        checker.Name(),
			Status:      StatusOK,
			LastChecked: time.Now(),
			Duration:    elapsed,
			DurationMS:  float64(elapsed) / float64(time.Millisecond),
		}
		if err != nil {
			check.Status = StatusDown
			check.Message = err.Error()
			m.logger.WithError(err).WithField("checker", checker.Name()).Warn("Health check failed")
		}
		results[checker.Name()] = check
	}

	m.mu.Lock()
	m.results = results
	m.mu.Unlock()
	return results
}

// GetOverallStatus reduces the stored results to a single status.
func (m *Manager) GetOverallStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.results) == 0 {
		return StatusOK
	}
	for _, check := range m.results {
		if check.Status == StatusDown {
			return StatusDown
		}
	}
	return StatusOK
}
