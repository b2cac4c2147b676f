package retry

import (
	"sync"
	"time"
)

// Clock источник ожидания между попытками
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// RealClock часы на time.After
func RealClock() Clock {
	return realClock{}
}

// FakeClock не ждет, а только запоминает запрошенные задержки
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	Sleeps []time.Duration
}

// NewFakeClock создает часы с начальным временем now
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	c.Sleeps = append(c.Sleeps, d)

	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// Now текущее время часов
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Elapsed суммарное ожидание
func (c *FakeClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total time.Duration
	for _, d := range c.Sleeps {
		total += d
	}
	return total
}
