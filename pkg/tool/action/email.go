package action

import (
	"context"

	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/tool"
)

const gmailPackage = "com.google.android.gm"

// Email drafts an email in the mail application
type Email struct {
	To      string
	Subject string
	Body    string
}

func (Email) ToolName() string { return "createEmail" }

type emailTool struct {
	set *Set
}

func (t *emailTool) Declaration() *model.ToolDeclaration {
	return &model.ToolDeclaration{
		Name:        "createEmail",
		Description: "Create an email",
		Parameters: []model.Parameter{
			{Name: "to", Type: model.ParamTypeString, Description: "Email address of the recipient"},
			{Name: "subject", Type: model.ParamTypeString, Description: "Subject of the email"},
			{Name: "body", Type: model.ParamTypeString, Description: "Body of the email"},
		},
		Required: []string{"to", "subject", "body"},
	}
}

func (t *emailTool) Parse(args tool.Args) (tool.Call, error) {
	var (
		e   Email
		err error
	)
	if e.To, err = args.RequireString("to"); err != nil {
		return nil, err
	}
	if e.Subject, err = args.RequireString("subject"); err != nil {
		return nil, err
	}
	if e.Body, err = args.RequireString("body"); err != nil {
		return nil, err
	}
	return e, nil
}

func (t *emailTool) Execute(ctx context.Context, call tool.Call) (string, error) {
	e, ok := call.(Email)
	if !ok {
		return "", unexpectedCall(call)
	}

	if err := t.set.launch(ctx, model.Action{
		Kind:    model.ActionEmail,
		URI:     "mailto:" + e.To,
		Package: gmailPackage,
		MIME:    "message/rfc822",
		Extras: map[string]string{
			"email":   e.To,
			"subject": e.Subject,
			"text":    e.Body,
		},
	}); err != nil {
		return "", err
	}

	return "Email drafted to " + e.To, nil
}
