package cli

import (
	"fmt"
	"io"
	"sync"
)

// streamNotifier печатает уведомления сессии в поток ошибок,
// stdout остается только для данных
type streamNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func newNotifier(w io.Writer) *streamNotifier {
	return &streamNotifier{w: w}
}

func (n *streamNotifier) Success(message string) {
	n.write("✓", message)
}

func (n *streamNotifier) Info(message string) {
	n.write("•", message)
}

func (n *streamNotifier) Error(message string) {
	n.write("✗", message)
}

func (n *streamNotifier) write(mark, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", mark, message)
}
