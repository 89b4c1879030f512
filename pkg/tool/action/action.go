// Package action provides tools whose side effects are performed by the host
// platform through an interfaces.Launcher: placing a phone call, drafting an
// email, creating a calendar event and creating a note.
package action

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/interfaces"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/tool"
)

// Set holds what the action tools share
type Set struct {
	launcher interfaces.Launcher
	now      func() time.Time
	loc      *time.Location
}

type Option func(*Set)

// WithClock replaces time.Now, used for calendar placeholders
func WithClock(now func() time.Time) Option {
	return func(s *Set) {
		s.now = now
	}
}

// WithLocation sets the time zone of calendar dates
func WithLocation(loc *time.Location) Option {
	return func(s *Set) {
		s.loc = loc
	}
}

// New creates the action tool set
func New(launcher interfaces.Launcher, opts ...Option) *Set {
	s := &Set{
		launcher: launcher,
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tools returns all action tools
func (s *Set) Tools() []tool.Tool {
	return []tool.Tool{
		&callTool{set: s},
		&emailTool{set: s},
		&calendarTool{set: s},
		&noteTool{set: s},
	}
}

func (s *Set) launch(ctx context.Context, action model.Action) error {
	if err := s.launcher.Launch(ctx, action); err != nil {
		return goerr.Wrap(model.ErrToolExecution, "failed to launch "+string(action.Kind)+" action: "+err.Error(),
			goerr.V("kind", action.Kind))
	}
	return nil
}

func unexpectedCall(call tool.Call) error {
	return goerr.New("unexpected call type", goerr.V("call", call))
}
