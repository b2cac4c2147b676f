package session

import (
	"PronosticsPlatform/pkg/logger"
)

// Notifier показывает пользователю короткие уведомления
type Notifier interface {
	Success(message string)
	Info(message string)
	Error(message string)
}

// LogNotifier пишет уведомления в лог.
// Используется, когда у вызывающего нет своего канала вывода.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier создает уведомитель поверх логгера
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Success(message string) {
	n.log.Info(message, logger.String("kind", "notification"))
}

func (n *LogNotifier) Info(message string) {
	n.log.Info(message, logger.String("kind", "notification"))
}

func (n *LogNotifier) Error(message string) {
	n.log.Warn(message, logger.String("kind", "notification"))
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Info(string)    {}
func (nopNotifier) Error(string)   {}
