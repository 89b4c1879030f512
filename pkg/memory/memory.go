package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/interfaces"
	"github.com/nhh/miniassistant/pkg/model"
)

// DefaultCapacity is the number of recent turns kept as conversation context
const DefaultCapacity = 10

// Store is a bounded recency window of conversation turns. Reads never block
// on backend I/O and always observe a complete snapshot.
type Store struct {
	capacity int
	backend  interfaces.MemoryBackend
	now      func() time.Time

	mu    sync.RWMutex
	turns []model.Turn
	seq   uint64

	// serializes mutation+persistence so snapshots reach the backend in order
	writeMu sync.Mutex
}

type Option func(*Store)

// WithCapacity overrides DefaultCapacity
func WithCapacity(n int) Option {
	return func(s *Store) {
		s.capacity = n
	}
}

// WithBackend persists every change to the given backend
func WithBackend(b interfaces.MemoryBackend) Option {
	return func(s *Store) {
		s.backend = b
	}
}

// WithClock replaces time.Now for CreatedAt
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty Store
func New(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity < 1 {
		s.capacity = 1
	}
	return s
}

// Load replaces the window with turns read from the backend. Without a
// backend it does nothing.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	turns, err := s.backend.LoadTurns(ctx)
	if err != nil {
		return goerr.Wrap(model.ErrPersistence, "failed to load turns", goerr.V("error", err.Error()))
	}

	slices.SortStableFunc(turns, func(a, b model.Turn) int {
		switch {
		case a.Sequence < b.Sequence:
			return -1
		case a.Sequence > b.Sequence:
			return 1
		}
		return 0
	})
	if len(turns) > s.capacity {
		turns = turns[len(turns)-s.capacity:]
	}

	var seq uint64
	if len(turns) > 0 {
		seq = turns[len(turns)-1].Sequence
	}

	s.mu.Lock()
	s.turns = turns
	s.seq = seq
	s.mu.Unlock()

	return nil
}

// Append stores a new turn and evicts the oldest one when the window is
// full. The stored turn, with its assigned ID and sequence, is returned even
// when persisting fails; that failure is reported as model.ErrPersistence.
func (s *Store) Append(ctx context.Context, turn model.Turn) (model.Turn, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.seq++
	turn.ID = model.NewTurnID()
	turn.Sequence = s.seq
	turn.CreatedAt = s.now()

	// always build a fresh slice so snapshots handed out earlier stay intact
	next := make([]model.Turn, 0, s.capacity)
	if len(s.turns) >= s.capacity {
		next = append(next, s.turns[len(s.turns)-s.capacity+1:]...)
	} else {
		next = append(next, s.turns...)
	}
	next = append(next, turn)
	s.turns = next
	s.mu.Unlock()

	if err := s.persist(ctx, next); err != nil {
		return turn, err
	}
	return turn, nil
}

// RecentTurns returns the retained turns, oldest first
func (s *Store) RecentTurns() []model.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.turns)
}

// Len returns the number of retained turns
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Capacity returns the maximum number of retained turns
func (s *Store) Capacity() int {
	return s.capacity
}

// Clear removes every turn. It is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()

	return s.persist(ctx, nil)
}

func (s *Store) persist(ctx context.Context, turns []model.Turn) error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.SaveTurns(ctx, turns); err != nil {
		return goerr.Wrap(model.ErrPersistence, "failed to save turns",
			goerr.V("turns", len(turns)),
			goerr.V("error", err.Error()))
	}
	return nil
}

// Transcript renders turns for inclusion in a prompt
func Transcript(turns []model.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, "Prompt: "+t.Prompt+"\nTool output:\n"+t.ToolTranscript+"\nResponse: "+t.Response)
	}
	return strings.Join(lines, "\n")
}
