package action

import (
	"context"

	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/tool"
)

const keepPackage = "com.google.android.keep"

// Note creates a note in Google Keep
type Note struct {
	Title string
	Body  string
}

func (Note) ToolName() string { return "createNote" }

type noteTool struct {
	set *Set
}

func (t *noteTool) Declaration() *model.ToolDeclaration {
	return &model.ToolDeclaration{
		Name:        "createNote",
		Description: "Create a note on Google Keep",
		Parameters: []model.Parameter{
			{Name: "title", Type: model.ParamTypeString, Description: "Title of the note"},
			{Name: "body", Type: model.ParamTypeString, Description: "Body of the note"},
		},
		Required: []string{"title", "body"},
	}
}

func (t *noteTool) Parse(args tool.Args) (tool.Call, error) {
	title, err := args.RequireString("title")
	if err != nil {
		return nil, err
	}
	body, err := args.RequireString("body")
	if err != nil {
		return nil, err
	}
	return Note{Title: title, Body: body}, nil
}

func (t *noteTool) Execute(ctx context.Context, call tool.Call) (string, error) {
	n, ok := call.(Note)
	if !ok {
		return "", unexpectedCall(call)
	}

	if err := t.set.launch(ctx, model.Action{
		Kind:    model.ActionNote,
		Package: keepPackage,
		MIME:    "text/plain",
		Extras: map[string]string{
			"subject": n.Title,
			"text":    n.Body,
		},
	}); err != nil {
		return "", err
	}

	return "Created note " + n.Title + " in Google Keep", nil
}
