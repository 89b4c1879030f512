package action

import (
	"context"
	"strings"

	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/tool"
)

// PhoneCall dials a phone number
type PhoneCall struct {
	Tel string
}

func (PhoneCall) ToolName() string { return "createCall" }

type callTool struct {
	set *Set
}

func (t *callTool) Declaration() *model.ToolDeclaration {
	return &model.ToolDeclaration{
		Name:        "createCall",
		Description: "Dial and create a phone call",
		Parameters: []model.Parameter{
			{Name: "tel", Type: model.ParamTypeString, Description: "Phone number to call"},
		},
		Required: []string{"tel"},
	}
}

func (t *callTool) Parse(args tool.Args) (tool.Call, error) {
	tel, err := args.RequireString("tel")
	if err != nil {
		return nil, err
	}
	return PhoneCall{Tel: strings.TrimPrefix(tel, "tel:")}, nil
}

func (t *callTool) Execute(ctx context.Context, call tool.Call) (string, error) {
	c, ok := call.(PhoneCall)
	if !ok {
		return "", unexpectedCall(call)
	}

	if err := t.set.launch(ctx, model.Action{
		Kind: model.ActionDial,
		URI:  "tel:" + c.Tel,
	}); err != nil {
		return "", err
	}

	return "Calling " + c.Tel, nil
}
