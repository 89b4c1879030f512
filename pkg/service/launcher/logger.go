package launcher

import (
	"context"

	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/utils/logging"
)

// Logger accepts every action and only records it. It is the default when no
// host platform is attached.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Launch(ctx context.Context, action model.Action) error {
	logging.From(ctx).Info("launch action",
		"kind", action.Kind,
		"uri", action.URI,
		"package", action.Package,
		"extras", action.Extras)
	return nil
}
