package model

import (
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

type ParamType string

const (
	ParamTypeString  ParamType = "string"
	ParamTypeInteger ParamType = "integer"
)

// Parameter is one declared argument of a tool
type Parameter struct {
	Name        string
	Type        ParamType
	Description string
}

// ToolDeclaration is the static schema of a tool presented to the model
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  []Parameter
	Required    []string
}

// IsRequired reports whether the named parameter is marked as required
func (d *ToolDeclaration) IsRequired(name string) bool {
	return slices.Contains(d.Required, name)
}

// Validate checks that the declaration is well formed
func (d *ToolDeclaration) Validate() error {
	if d.Name == "" {
		return goerr.New("tool name is empty")
	}

	seen := make(map[string]bool, len(d.Parameters))
	for _, p := range d.Parameters {
		if p.Name == "" {
			return goerr.New("parameter name is empty", goerr.V("tool", d.Name))
		}
		if seen[p.Name] {
			return goerr.New("duplicated parameter", goerr.V("tool", d.Name), goerr.V("param", p.Name))
		}
		switch p.Type {
		case ParamTypeString, ParamTypeInteger:
		default:
			return goerr.New("invalid parameter type",
				goerr.V("tool", d.Name),
				goerr.V("param", p.Name),
				goerr.V("type", p.Type))
		}
		seen[p.Name] = true
	}

	for _, r := range d.Required {
		if !seen[r] {
			return goerr.New("required parameter is not declared", goerr.V("tool", d.Name), goerr.V("param", r))
		}
	}

	return nil
}

// ToolCallRequest is a tool invocation requested by the model. Args values
// are untyped strings and must be coerced by the tool.
type ToolCallRequest struct {
	Name string
	Args map[string]string
}

// ToolResult is the outcome of one tool invocation. Output is never empty;
// failures are described in text.
type ToolResult struct {
	Name      string
	Output    string
	Succeeded bool
}

type ActionKind string

const (
	ActionDial     ActionKind = "dial"
	ActionEmail    ActionKind = "email"
	ActionCalendar ActionKind = "calendar"
	ActionNote     ActionKind = "note"
)

// Action describes an external side effect that the host platform is asked
// to perform
type Action struct {
	Kind    ActionKind        `json:"kind"`
	URI     string            `json:"uri,omitempty"`
	Package string            `json:"package,omitempty"`
	MIME    string            `json:"mime,omitempty"`
	Extras  map[string]string `json:"extras,omitempty"`
}
