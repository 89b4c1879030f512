package interfaces

import (
	"context"

	"github.com/nhh/miniassistant/pkg/model"
)

// Model sends a prompt to a language model. Invoke offers the declared tools
// and returns the text and the tool calls requested; Complete offers no tools
// and is used once tool output is already in the prompt. Implementations wrap
// any failure with model.ErrTransport.
type Model interface {
	Invoke(ctx context.Context, prompt string) (*model.Response, error)
	Complete(ctx context.Context, prompt string) (*model.Response, error)
}

// Embedder maps text to a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkIndex ranks stored document chunks by similarity to a query vector
type ChunkIndex interface {
	// Count returns the number of indexed chunks
	Count(ctx context.Context) (int, error)

	// Query returns up to k chunks ordered from most to least similar
	Query(ctx context.Context, vector []float32, k int) ([]model.RetrievedChunk, error)
}

// Launcher asks the host platform to perform an external action. A nil
// error only means the request was accepted, not that the user completed it.
type Launcher interface {
	Launch(ctx context.Context, action model.Action) error
}

// Notifier delivers a best-effort message to the end user
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// MemoryBackend persists the bounded turn window
type MemoryBackend interface {
	// LoadTurns returns the persisted turns in any order
	LoadTurns(ctx context.Context) ([]model.Turn, error)

	// SaveTurns replaces the persisted turns with the given snapshot
	SaveTurns(ctx context.Context, turns []model.Turn) error
}
