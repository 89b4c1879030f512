// Package notify delivers short best-effort messages to the end user, the
// counterpart of a toast on a mobile device.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/nhh/miniassistant/pkg/utils/logging"
)

// Writer prints messages as single lines to w
type Writer struct {
	w  io.Writer
	mu sync.Mutex
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) Notify(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, err := fmt.Fprintf(n.w, "[i] %s\n", message); err != nil {
		logging.From(ctx).Warn("failed to write notification", "error", err, "message", message)
	}
}

// Logger records messages in the context logger
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (n *Logger) Notify(ctx context.Context, message string) {
	logging.From(ctx).Info("notification", "message", message)
}
