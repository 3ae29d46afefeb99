// Package health serves liveness and readiness checks for a running
// simulation so it can be supervised like any other service.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/opd-ai/go-polybounce/pkg/logging"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	// ReadinessTimeout bounds one run of all checks
	ReadinessTimeout = 5 * time.Second
)

// Check is one check the readiness endpoint runs
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

// Status is the aggregated readiness result
type Status struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentStatus `json:"checks"`
}

// ComponentStatus is the result of a single check
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker runs a named set of checks
type Checker struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewChecker creates an empty checker
func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// AddCheck registers check, replacing any check with the same name
func (c *Checker) AddCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// RemoveCheck drops the check called name
func (c *Checker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Names lists the registered checks in sorted order
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes every check. The result is healthy only if all pass.
func (c *Checker) Run(ctx context.Context) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{Status: StatusHealthy, Checks: make(map[string]ComponentStatus, len(c.checks))}
	for name, check := range c.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = ComponentStatus{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentStatus{Status: StatusHealthy}
	}
	return status
}

// LivenessHandler answers 200 while the process can serve HTTP at all
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs all checks and answers 200 or 503 with the
// per-check breakdown
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadinessTimeout)
	defer cancel()

	status := c.Run(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

// Handler returns a mux with /health and /ready routes
func (c *Checker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", c.LivenessHandler)
	mux.HandleFunc("/ready", c.ReadinessHandler)
	return mux
}

// TickCheck fails when the simulation loop stopped stepping
type TickCheck struct {
	lastTick func() time.Time
	maxAge   time.Duration
	now      func() time.Time
}

// NewTickCheck fails once lastTick is older than maxAge or still zero
func NewTickCheck(lastTick func() time.Time, maxAge time.Duration) *TickCheck {
	return &TickCheck{lastTick: lastTick, maxAge: maxAge, now: time.Now}
}

func (t *TickCheck) Name() string { return "simulation_loop" }

func (t *TickCheck) Check(ctx context.Context) error {
	last := t.lastTick()
	if last.IsZero() {
		return errors.New("simulation loop has not started")
	}
	if age := t.now().Sub(last); age > t.maxAge {
		return fmt.Errorf("last tick was %s ago, limit %s", age.Round(time.Millisecond), t.maxAge)
	}
	return nil
}

// WorldCheck fails when no boundary is configured
type WorldCheck struct {
	count func() int
}

// NewWorldCheck reports on the number of running simulations
func NewWorldCheck(count func() int) *WorldCheck {
	return &WorldCheck{count: count}
}

func (w *WorldCheck) Name() string { return "world" }

func (w *WorldCheck) Check(ctx context.Context) error {
	if w.count() == 0 {
		return errors.New("no simulations running")
	}
	return nil
}

// MemoryCheck fails when heap usage exceeds a limit
type MemoryCheck struct {
	maxMB int64
	usage func() int64
}

// NewMemoryCheck limits heap usage to maxMB. A nil usage reads the Go
// runtime's allocated heap.
func NewMemoryCheck(maxMB int64, usage func() int64) *MemoryCheck {
	if usage == nil {
		usage = HeapAllocMB
	}
	return &MemoryCheck{maxMB: maxMB, usage: usage}
}

func (m *MemoryCheck) Name() string { return "memory" }

func (m *MemoryCheck) Check(ctx context.Context) error {
	if used := m.usage(); used > m.maxMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", used, m.maxMB)
	}
	return nil
}

// HeapAllocMB returns the allocated heap in megabytes
func HeapAllocMB() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.Alloc / 1024 / 1024)
}

// Server exposes a Checker over HTTP
type Server struct {
	checker *Checker
	logger  *logging.Logger
	server  *http.Server
}

// NewServer creates a health server on port. Port 0 picks a free port.
func NewServer(port int, checker *Checker, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		checker: checker,
		logger:  logger,
		server: &http.Server{
			Addr:         net.JoinHostPort("", strconv.Itoa(port)),
			Handler:      checker.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully. ready, if not
// nil, receives the bound address once the listener is open.
func (s *Server) Run(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("health server listen on %s: %w", s.server.Addr, err)
	}
	addr := ln.Addr().String()
	s.logger.Info(ctx, "Health server started", "addr", addr)
	if ready != nil {
		ready(addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("health server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ReadinessTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health server shutdown: %w", err)
	}
	s.logger.Info(ctx, "Health server stopped")
	return nil
}
