package memory

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/adapter"
	"github.com/nhh/miniassistant/pkg/model"
)

// GCSBackend keeps the turn window as a single JSON object in Cloud Storage
type GCSBackend struct {
	storage adapter.Storage
	key     string
}

// NewGCSBackend stores the snapshot of the given session under memories/<session>.json
func NewGCSBackend(storage adapter.Storage, session string) *GCSBackend {
	return &GCSBackend{
		storage: storage,
		key:     "memories/" + session + ".json",
	}
}

func (b *GCSBackend) LoadTurns(ctx context.Context) ([]model.Turn, error) {
	reader, err := b.storage.Get(ctx, b.key)
	if errors.Is(err, adapter.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory snapshot")
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read memory snapshot", goerr.V("key", b.key))
	}

	var turns []model.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory snapshot", goerr.V("key", b.key))
	}
	return turns, nil
}

func (b *GCSBackend) SaveTurns(ctx context.Context, turns []model.Turn) error {
	if len(turns) == 0 {
		return b.storage.Delete(ctx, b.key)
	}

	data, err := json.Marshal(turns)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal memory snapshot")
	}

	writer, err := b.storage.Put(ctx, b.key)
	if err != nil {
		return goerr.Wrap(err, "failed to create storage writer")
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return goerr.Wrap(err, "failed to write memory snapshot", goerr.V("key", b.key))
	}

	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage writer", goerr.V("key", b.key))
	}

	return nil
}
