package model

import (
	"time"

	"github.com/google/uuid"
)

type TurnID string

// NewTurnID generates a new unique TurnID
func NewTurnID() TurnID {
	return TurnID(uuid.New().String())
}

// Turn is one completed query/response exchange. ID, Sequence and CreatedAt
// are assigned by the memory store when the turn is appended; the value is
// never modified afterwards.
type Turn struct {
	ID             TurnID    `json:"id" firestore:"id"`
	Sequence       uint64    `json:"sequence" firestore:"sequence"`
	Prompt         string    `json:"prompt" firestore:"prompt"`
	ToolTranscript string    `json:"tool_transcript" firestore:"tool_transcript"`
	Response       string    `json:"response" firestore:"response"`
	CreatedAt      time.Time `json:"created_at" firestore:"created_at"`
}

// Response is what a model returns for a single prompt
type Response struct {
	Text      string
	ToolCalls []ToolCallRequest
}

// RetrievedChunk is a passage returned by the chunk index
type RetrievedChunk struct {
	DocumentName string `firestore:"doc_file_name" bigquery:"doc_file_name"`
	Text         string `firestore:"chunk_data" bigquery:"chunk_data"`
}
