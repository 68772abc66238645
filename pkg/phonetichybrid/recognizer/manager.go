package recognizer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

// Logger is the subset of the project logger the manager uses.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Manager owns the process-wide recognizer. It warms the backend up once in
// the background and reports readiness; calls made before warm-up finishes
// fail with ErrUnavailable.
//
// Warm-up is not retried. If it fails, Ready stays false and every analysis
// is acoustic only until the process restarts.
type Manager struct {
	rec   Recognizer
	log   Logger
	ready atomic.Bool
	done  chan struct{}
	once  sync.Once
}

// NewManager wraps rec. Call Start to begin warm-up.
func NewManager(rec Recognizer, log Logger) *Manager {
	return &Manager{rec: rec, log: log, done: make(chan struct{})}
}

// Start launches warm-up once. A backend is considered ready after it
// answers a short silent probe, even with an empty transcript.
func (m *Manager) Start(ctx context.Context) {
	m.once.Do(func() {
		go m.warmUp(ctx)
	})
}

func (m *Manager) warmUp(ctx context.Context) {
	defer close(m.done)

	if m.rec.Name() == BackendNone {
		m.logf("recognizer disabled; analyses will be acoustic only")
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	silence := audio.Waveform{Samples: make([]float64, audio.DefaultSampleRate/2), SampleRate: audio.DefaultSampleRate}
	if _, err := m.rec.Recognize(probeCtx, silence); err != nil {
		if m.log != nil {
			m.log.Warnf("recognizer %s warm-up failed: %v", m.rec.Name(), err)
		}
		return
	}
	m.ready.Store(true)
	m.logf("recognizer %s ready in %s", m.rec.Name(), time.Since(start).Round(time.Millisecond))
}

func (m *Manager) logf(format string, args ...any) {
	if m.log != nil {
		m.log.Infof(format, args...)
	}
}

// Wait blocks until warm-up has finished or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether warm-up succeeded.
func (m *Manager) Ready() bool { return m.ready.Load() }

func (m *Manager) Name() string { return m.rec.Name() }

// Recognize delegates to the backend once it is ready.
func (m *Manager) Recognize(ctx context.Context, w audio.Waveform) (Recognition, error) {
	if !m.ready.Load() {
		return Recognition{}, fmt.Errorf("%w: %s not ready", ErrUnavailable, m.rec.Name())
	}
	return m.rec.Recognize(ctx, w)
}
