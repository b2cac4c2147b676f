package retry

import (
	"context"
	"time"

	"PronosticsPlatform/pkg/logger"
)

// Config конфигурация ограниченного опроса
type Config struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	Delay       time.Duration `json:"delay" yaml:"delay"`
}

// Step результат одной попытки
type Step int

const (
	// Continue условие еще не выполнено
	Continue Step = iota
	// Succeeded условие выполнено, опрос завершен
	Succeeded
	// Fallback прекратить опрос и сразу выполнить запасное действие
	Fallback
)

// PollFunc одна попытка. Ошибка прерывает опрос без запасного действия;
// временные сбои вызывающий возвращает как Continue.
type PollFunc func(ctx context.Context, attempt int) (Step, error)

// FallbackFunc запасное действие после исчерпания попыток
type FallbackFunc func(ctx context.Context) error

// Result итог опроса
type Result struct {
	Attempts    int
	Succeeded   bool
	Exhausted   bool
	FallbackRan bool
}

// Manager выполняет опрос с фиксированной задержкой между попытками
type Manager struct {
	config Config
	clock  Clock
	logger logger.Logger
}

// NewManager создает менеджер опроса
func NewManager(config Config, clock Clock, log logger.Logger) *Manager {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Manager{
		config: config,
		clock:  clock,
		logger: log,
	}
}

// Config возвращает действующую конфигурацию
func (m *Manager) Config() Config {
	return m.config
}

// Poll повторяет poll до успеха, но не более MaxAttempts раз.
// Если успеха нет, fallback выполняется ровно один раз.
func (m *Manager) Poll(ctx context.Context, poll PollFunc, fallback FallbackFunc) (Result, error) {
	var result Result

	for attempt := 1; attempt <= m.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			m.logger.Debug("повтор попытки",
				logger.Int("attempt", attempt),
				logger.Duration("delay", m.config.Delay),
			)

			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-m.clock.After(m.config.Delay):
			}
		}

		result.Attempts = attempt
		step, err := poll(ctx, attempt)
		if err != nil {
			m.logger.Debug("опрос прерван", logger.Error(err), logger.Int("attempt", attempt))
			return result, err
		}

		switch step {
		case Succeeded:
			result.Succeeded = true
			return result, nil
		case Fallback:
			return m.runFallback(ctx, result, fallback)
		}
	}

	result.Exhausted = true
	m.logger.Info("попытки исчерпаны", logger.Int("max_attempts", m.config.MaxAttempts))
	return m.runFallback(ctx, result, fallback)
}

func (m *Manager) runFallback(ctx context.Context, result Result, fallback FallbackFunc) (Result, error) {
	if fallback == nil {
		return result, nil
	}
	result.FallbackRan = true
	return result, fallback(ctx)
}
