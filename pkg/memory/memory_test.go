package memory_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/nhh/miniassistant/pkg/adapter"
	"github.com/nhh/miniassistant/pkg/memory"
	"github.com/nhh/miniassistant/pkg/model"
)

func appendN(t *testing.T, s *memory.Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := s.Append(context.Background(), model.Turn{
			Prompt:   string(rune('a' + i)),
			Response: "r" + string(rune('a'+i)),
		})
		gt.NoError(t, err)
	}
}

func TestAppendEvictsOldest(t *testing.T) {
	s := memory.New()
	appendN(t, s, memory.DefaultCapacity+1)

	turns := s.RecentTurns()
	gt.A(t, turns).Length(memory.DefaultCapacity)
	gt.V(t, turns[0].Prompt).Equal("b")
	gt.V(t, turns[len(turns)-1].Prompt).Equal("k")

	for i := 1; i < len(turns); i++ {
		gt.True(t, turns[i-1].Sequence < turns[i].Sequence)
	}
}

func TestAppendAssignsIdentity(t *testing.T) {
	now := time.Date(2025, 10, 7, 14, 0, 0, 0, time.UTC)
	s := memory.New(memory.WithClock(func() time.Time { return now }))

	turn, err := s.Append(context.Background(), model.Turn{Prompt: "hi"})
	gt.NoError(t, err)
	gt.V(t, turn.ID).NotEqual(model.TurnID(""))
	gt.V(t, turn.Sequence).Equal(uint64(1))
	gt.V(t, turn.CreatedAt).Equal(now)
}

func TestSnapshotIsStable(t *testing.T) {
	s := memory.New(memory.WithCapacity(2))
	appendN(t, s, 2)

	before := s.RecentTurns()
	appendN(t, s, 1)

	gt.V(t, before[0].Prompt).Equal("a")
	gt.V(t, before[1].Prompt).Equal("b")
	gt.V(t, s.RecentTurns()[0].Prompt).Equal("b")
}

func TestClear(t *testing.T) {
	s := memory.New()
	appendN(t, s, 5)

	gt.NoError(t, s.Clear(context.Background()))
	gt.V(t, s.Len()).Equal(0)
	gt.NoError(t, s.Clear(context.Background()))
	gt.V(t, s.Len()).Equal(0)
}

func TestClearWithConcurrentReaders(t *testing.T) {
	s := memory.New()
	appendN(t, s, memory.DefaultCapacity)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := len(s.RecentTurns())
				if n != 0 && n != memory.DefaultCapacity {
					t.Errorf("partial snapshot: %d turns", n)
				}
			}
		}()
	}

	gt.NoError(t, s.Clear(context.Background()))
	wg.Wait()
	gt.V(t, s.Len()).Equal(0)
}

func TestTranscript(t *testing.T) {
	gt.V(t, memory.Transcript(nil)).Equal("")

	got := memory.Transcript([]model.Turn{
		{Prompt: "call bob", ToolTranscript: "createCall: Calling 123\n", Response: "Calling Bob"},
		{Prompt: "thanks", Response: "welcome"},
	})
	gt.V(t, got).Equal("Prompt: call bob\nTool output:\ncreateCall: Calling 123\n\nResponse: Calling Bob\n" +
		"Prompt: thanks\nTool output:\n\nResponse: welcome")
}

type mockBackend struct {
	turns   []model.Turn
	saveErr error
	saved   int
}

func (m *mockBackend) LoadTurns(ctx context.Context) ([]model.Turn, error) {
	return m.turns, nil
}

func (m *mockBackend) SaveTurns(ctx context.Context, turns []model.Turn) error {
	m.saved++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.turns = turns
	return nil
}

func TestLoadRestoresOrderAndSequence(t *testing.T) {
	backend := &mockBackend{}
	for i := 12; i >= 1; i-- {
		backend.turns = append(backend.turns, model.Turn{Sequence: uint64(i), Prompt: string(rune('a' + i - 1))})
	}

	s := memory.New(memory.WithBackend(backend))
	gt.NoError(t, s.Load(context.Background()))

	turns := s.RecentTurns()
	gt.A(t, turns).Length(memory.DefaultCapacity)
	gt.V(t, turns[0].Sequence).Equal(uint64(3))
	gt.V(t, turns[9].Sequence).Equal(uint64(12))

	turn, err := s.Append(context.Background(), model.Turn{Prompt: "next"})
	gt.NoError(t, err)
	gt.V(t, turn.Sequence).Equal(uint64(13))
}

func TestPersistenceFailureKeepsTurn(t *testing.T) {
	backend := &mockBackend{saveErr: errors.New("unavailable")}
	s := memory.New(memory.WithBackend(backend))

	turn, err := s.Append(context.Background(), model.Turn{Prompt: "hi"})
	gt.Error(t, err).Is(model.ErrPersistence)
	gt.V(t, turn.Prompt).Equal("hi")
	gt.V(t, s.Len()).Equal(1)
	gt.V(t, backend.saved).Equal(1)
}

type mockStorage struct {
	objects map[string][]byte
}

type bufferWriter struct {
	bytes.Buffer
	onClose func([]byte)
}

func (w *bufferWriter) Close() error {
	w.onClose(w.Bytes())
	return nil
}

func (m *mockStorage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &bufferWriter{onClose: func(b []byte) { m.objects[key] = b }}, nil
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, adapter.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestGCSBackend(t *testing.T) {
	ctx := context.Background()
	storage := &mockStorage{objects: map[string][]byte{}}

	backend := memory.NewGCSBackend(storage, "alice")
	turns, err := backend.LoadTurns(ctx)
	gt.NoError(t, err)
	gt.A(t, turns).Length(0)

	s := memory.New(memory.WithBackend(backend))
	appendN(t, s, 3)
	gt.V(t, len(storage.objects["memories/alice.json"]) > 0).Equal(true)

	restored := memory.New(memory.WithBackend(memory.NewGCSBackend(storage, "alice")))
	gt.NoError(t, restored.Load(ctx))
	gt.A(t, restored.RecentTurns()).Length(3)
	gt.V(t, restored.RecentTurns()[2].Prompt).Equal("c")

	gt.NoError(t, restored.Clear(ctx))
	_, exists := storage.objects["memories/alice.json"]
	gt.False(t, exists)
}
