package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Probe проверка одной зависимости
type Probe func(ctx context.Context) error

// HealthStatus сводный статус зависимостей
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
	Version   string            `json:"version,omitempty"`
}

// Status статус одной зависимости
type Status struct {
	Status   string        `json:"status"`
	Details  string        `json:"details,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Healthy true, если все зависимости доступны
func (h *HealthStatus) Healthy() bool {
	return h.Status == StatusHealthy
}

// Names имена проверок по алфавиту
func (h *HealthStatus) Names() []string {
	names := make([]string, 0, len(h.Services))
	for name := range h.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Checker выполняет зарегистрированные проверки параллельно
type Checker struct {
	version string
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	probes map[string]Probe
}

// NewChecker создает проверку; timeout ограничивает каждую проверку
func NewChecker(version string, timeout time.Duration) *Checker {
	return &Checker{
		version: version,
		timeout: timeout,
		now:     time.Now,
		probes:  make(map[string]Probe),
	}
}

// Register добавляет проверку под именем name
func (c *Checker) Register(name string, probe Probe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes[name] = probe
}

// Check выполняет все проверки. Ошибка одной проверки не прерывает остальные.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	c.mu.Lock()
	probes := make(map[string]Probe, len(c.probes))
	for name, p := range c.probes {
		probes[name] = p
	}
	c.mu.Unlock()

	status := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: c.now(),
		Services:  make(map[string]Status, len(probes)),
		Version:   c.version,
	}

	var mu sync.Mutex
	var g errgroup.Group
	for name, probe := range probes {
		name, probe := name, probe
		g.Go(func() error {
			result := c.run(ctx, probe)
			mu.Lock()
			status.Services[name] = result
			if result.Status != StatusHealthy {
				status.Status = StatusUnhealthy
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return status
}

func (c *Checker) run(ctx context.Context, probe Probe) Status {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := probe(ctx)
	result := Status{Status: StatusHealthy, Duration: time.Since(start)}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Details = err.Error()
	}
	return result
}
