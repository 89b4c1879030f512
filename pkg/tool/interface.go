package tool

import (
	"context"

	"github.com/nhh/miniassistant/pkg/model"
)

// Call is the typed argument set of one tool invocation, produced by
// Tool.Parse from the model's untyped arguments
type Call interface {
	ToolName() string
}

// Tool represents a capability that can be called by the LLM
type Tool interface {
	// Declaration returns the schema presented to the model
	Declaration() *model.ToolDeclaration

	// Parse validates and coerces raw arguments. Errors wrapping
	// model.ErrInvalidArgument abort only this invocation.
	Parse(args Args) (Call, error)

	// Execute performs the call and returns text for the transcript
	Execute(ctx context.Context, call Call) (string, error)
}
