// Package shutdown signals graceful shutdown when the server has been idle,
// letting scale-to-zero deployments wind down between bursts of lookups.
package shutdown

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// IdleMonitor tracks request activity and closes ShutdownChan once the
// server has seen no real traffic for the configured timeout. Health probes
// do not count as traffic.
type IdleMonitor struct {
	timeout       time.Duration
	checkInterval time.Duration
	lastRequest   atomic.Value // time.Time
	active        atomic.Int64
	log           *slog.Logger
	isProbe       func(*http.Request) bool

	stopCh     chan struct{}
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// IdleMonitorConfig configures the idle monitor.
type IdleMonitorConfig struct {
	// Timeout is the inactivity window before shutdown. Zero or negative
	// disables monitoring.
	Timeout time.Duration

	// CheckInterval overrides how often idleness is evaluated. Zero means
	// every 10 seconds.
	CheckInterval time.Duration

	Logger *slog.Logger

	// IsProbe identifies requests that should not reset the idle timer.
	// Nil uses DefaultIsProbe.
	IsProbe func(*http.Request) bool
}

func NewIdleMonitor(cfg IdleMonitorConfig) *IdleMonitor {
	isProbe := cfg.IsProbe
	if isProbe == nil {
		isProbe = DefaultIsProbe
	}
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	m := &IdleMonitor{
		timeout:       cfg.Timeout,
		checkInterval: interval,
		log:           log,
		isProbe:       isProbe,
		stopCh:        make(chan struct{}),
		shutdownCh:    make(chan struct{}),
	}
	m.lastRequest.Store(time.Now())
	return m
}

// Start begins idle monitoring. A disabled monitor never signals.
func (m *IdleMonitor) Start() {
	if m.timeout <= 0 {
		m.log.Info("idle monitoring disabled (set IDLE_TIMEOUT to enable)")
		return
	}
	m.log.Info("idle monitoring started", "timeout", m.timeout)
	m.wg.Add(1)
	go m.run()
}

// Stop halts the monitor without signaling shutdown.
func (m *IdleMonitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *IdleMonitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			idle := time.Since(m.lastRequest.Load().(time.Time))
			if idle > m.timeout && m.active.Load() == 0 {
				m.log.Info("idle timeout reached, signaling graceful shutdown",
					"idle_time", idle.Round(time.Second))
				close(m.shutdownCh)
				return
			}
		}
	}
}

// Middleware tracks request start and completion.
func (m *IdleMonitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.isProbe(r) {
			m.active.Add(1)
			m.lastRequest.Store(time.Now())
			defer func() {
				m.active.Add(-1)
				m.lastRequest.Store(time.Now())
			}()
		}
		next.ServeHTTP(w, r)
	})
}

// ShutdownChan is closed when the idle timeout fires. Select on it
// alongside signal delivery in main.
func (m *IdleMonitor) ShutdownChan() <-chan struct{} {
	return m.shutdownCh
}

// ActiveRequests returns the number of in-flight non-probe requests.
func (m *IdleMonitor) ActiveRequests() int64 {
	return m.active.Load()
}

// DefaultIsProbe recognizes platform health checks by path or User-Agent.
func DefaultIsProbe(r *http.Request) bool {
	if strings.Contains(r.Header.Get("User-Agent"), "HealthCheck") {
		return true
	}
	switch r.URL.Path {
	case "/health", "/healthz", "/livez", "/readyz":
		return true
	}
	return false
}
