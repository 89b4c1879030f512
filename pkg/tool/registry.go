package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/utils/logging"
)

// Registry manages available tools for the LLM
type Registry struct {
	tools map[string]Tool
	order []Tool
}

// New creates a new tool registry with the given tools. Declarations are
// validated and names must be unique.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]Tool, len(tools)),
		order: make([]Tool, 0, len(tools)),
	}

	for _, t := range tools {
		decl := t.Declaration()
		if decl == nil {
			return nil, goerr.New("tool has no declaration")
		}
		if err := decl.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid tool declaration", goerr.V("name", decl.Name))
		}
		if _, exists := r.tools[decl.Name]; exists {
			return nil, goerr.New("duplicated tool name", goerr.V("name", decl.Name))
		}
		r.tools[decl.Name] = t
		r.order = append(r.order, t)
	}

	return r, nil
}

// Declarations returns all tool declarations in registration order
func (r *Registry) Declarations() []*model.ToolDeclaration {
	decls := make([]*model.ToolDeclaration, 0, len(r.order))
	for _, t := range r.order {
		decls = append(decls, t.Declaration())
	}
	return decls
}

// Names returns names of registered tools in registration order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, t := range r.order {
		names = append(names, t.Declaration().Name)
	}
	return names
}

// Dispatch is the outcome of executing one round of tool calls
type Dispatch struct {
	Results    []model.ToolResult
	Transcript string
}

// Failed returns the number of unsuccessful results
func (d *Dispatch) Failed() int {
	n := 0
	for _, r := range d.Results {
		if !r.Succeeded {
			n++
		}
	}
	return n
}

// Dispatch runs the requested calls one by one in the given order. A failing
// call never prevents the remaining ones from running; its error is recorded
// as a failed result instead. Once ctx is done the remaining calls are
// recorded as failed without being executed.
func (r *Registry) Dispatch(ctx context.Context, reqs []model.ToolCallRequest) *Dispatch {
	d := &Dispatch{
		Results: make([]model.ToolResult, 0, len(reqs)),
	}

	var transcript strings.Builder
	for _, req := range reqs {
		var result model.ToolResult
		if err := ctx.Err(); err != nil {
			logging.From(ctx).Warn("tool call skipped", "tool", req.Name, "error", err)
			result = model.ToolResult{
				Name:      req.Name,
				Output:    "Error: not executed, " + err.Error(),
				Succeeded: false,
			}
		} else {
			result = r.execute(ctx, req)
		}
		d.Results = append(d.Results, result)
		transcript.WriteString(result.Name + ": " + result.Output + "\n")
	}
	d.Transcript = transcript.String()

	return d
}

func (r *Registry) execute(ctx context.Context, req model.ToolCallRequest) model.ToolResult {
	logger := logging.From(ctx).With("tool", req.Name)
	start := time.Now()

	output, err := r.run(ctx, req)
	if err != nil {
		logger.Warn("tool call failed",
			"error", err,
			"kind", errorKind(err),
			"duration", time.Since(start))
		return model.ToolResult{
			Name:      req.Name,
			Output:    failureText(err),
			Succeeded: false,
		}
	}

	if strings.TrimSpace(output) == "" {
		output = "done"
	}
	logger.Info("tool call succeeded", "duration", time.Since(start))

	return model.ToolResult{
		Name:      req.Name,
		Output:    output,
		Succeeded: true,
	}
}

func (r *Registry) run(ctx context.Context, req model.ToolCallRequest) (output string, err error) {
	t, ok := r.tools[req.Name]
	if !ok {
		return "", goerr.Wrap(model.ErrUnknownTool, fmt.Sprintf("tool %q is not available", req.Name))
	}

	call, err := t.Parse(Args(req.Args))
	if err != nil {
		if !errors.Is(err, model.ErrInvalidArgument) {
			err = goerr.Wrap(model.ErrInvalidArgument, err.Error())
		}
		return "", err
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = goerr.Wrap(model.ErrToolExecution, fmt.Sprintf("panic: %v", rec))
		}
	}()

	output, err = t.Execute(ctx, call)
	if err != nil {
		if !errors.Is(err, model.ErrToolExecution) {
			err = goerr.Wrap(model.ErrToolExecution, err.Error(), goerr.V("cause", err))
		}
		return "", err
	}

	return output, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, model.ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "execution"
	}
}

// failureText builds the transcript text of a failed call, dropping the
// category suffix appended by wrapping so the model sees a readable sentence
func failureText(err error) string {
	msg := err.Error()

	switch {
	case errors.Is(err, model.ErrUnknownTool):
		return "Error: " + strings.TrimSuffix(msg, ": "+model.ErrUnknownTool.Error())
	case errors.Is(err, model.ErrInvalidArgument):
		return "Error: invalid arguments, " + strings.TrimSuffix(msg, ": "+model.ErrInvalidArgument.Error())
	default:
		return "Error: " + strings.TrimSuffix(msg, ": "+model.ErrToolExecution.Error())
	}
}
